package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/gitqueue/internal/config"
	"github.com/Iron-Ham/gitqueue/internal/logging"
	"github.com/Iron-Ham/gitqueue/internal/message"
	"github.com/Iron-Ham/gitqueue/internal/subject"
)

// messageView is the serialised form of a committed message.
type messageView struct {
	Commit      string     `json:"commit" yaml:"commit"`
	ShortCommit string     `json:"short_commit" yaml:"short_commit"`
	Queue       string     `json:"queue" yaml:"queue"`
	Kind        string     `json:"kind" yaml:"kind"`
	Key         string     `json:"key" yaml:"key"`
	JobID       *int       `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	JobRef      string     `json:"job_ref,omitempty" yaml:"job_ref,omitempty"`
	Subject     string     `json:"subject" yaml:"subject"`
	Payload     string     `json:"payload" yaml:"payload"`
	Author      string     `json:"author,omitempty" yaml:"author,omitempty"`
	Date        *time.Time `json:"date,omitempty" yaml:"date,omitempty"`
}

func newMessageView(m message.Committed) messageView {
	msg := m.Message()
	info := m.Commit()

	v := messageView{
		Commit:      info.Hash.String(),
		ShortCommit: info.ShortHash.String(),
		Queue:       m.Queue().String(),
		Kind:        msg.Key().Name(),
		Key:         msg.Key().String(),
		Subject:     info.Subject,
		Payload:     msg.Payload(),
		Author:      info.AuthorName,
	}
	if msg.HasID() {
		id := msg.ID()
		v.JobID = &id
	}
	if msg.HasJobRef() {
		v.JobRef = msg.JobRef().String()
	}
	if !info.Date.IsZero() {
		date := info.Date
		v.Date = &date
	}
	return v
}

// subjectView is the serialised form of a decoded subject line.
type subjectView struct {
	Kind   string `json:"kind" yaml:"kind"`
	Key    string `json:"key" yaml:"key"`
	Queue  string `json:"queue" yaml:"queue"`
	JobID  *int   `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	JobRef string `json:"job_ref,omitempty" yaml:"job_ref,omitempty"`
}

func newSubjectView(s subject.Subject) subjectView {
	v := subjectView{
		Kind:  s.Key.Name(),
		Key:   s.Key.String(),
		Queue: s.Queue.String(),
	}
	if s.HasJobID() {
		id := s.JobID
		v.JobID = &id
	}
	if !s.JobRef.IsNull() {
		v.JobRef = s.JobRef.String()
	}
	return v
}

// textStyles holds the lipgloss styles used for text output. Every style
// comes from the same renderer so that the color decision applies to all.
type textStyles struct {
	hash     lipgloss.Style
	queue    lipgloss.Style
	label    lipgloss.Style
	muted    lipgloss.Style
	newJob   lipgloss.Style
	started  lipgloss.Style
	finished lipgloss.Style
	failure  lipgloss.Style
}

var (
	hashColor     = lipgloss.Color("#FBBF24") // Yellow
	queueColor    = lipgloss.Color("#A78BFA") // Purple
	mutedColor    = lipgloss.Color("#9CA3AF") // Gray
	newJobColor   = lipgloss.Color("#60A5FA") // Blue
	startedColor  = lipgloss.Color("#F59E0B") // Amber
	finishedColor = lipgloss.Color("#10B981") // Green
	failureColor  = lipgloss.Color("#F87171") // Red
)

func newTextStyles(r *lipgloss.Renderer) textStyles {
	return textStyles{
		hash:     r.NewStyle().Foreground(hashColor),
		queue:    r.NewStyle().Foreground(queueColor).Bold(true),
		label:    r.NewStyle().Bold(true),
		muted:    r.NewStyle().Foreground(mutedColor),
		newJob:   r.NewStyle().Foreground(newJobColor),
		started:  r.NewStyle().Foreground(startedColor),
		finished: r.NewStyle().Foreground(finishedColor),
		failure:  r.NewStyle().Foreground(failureColor).Bold(true),
	}
}

func (s textStyles) forKey(k message.Key) lipgloss.Style {
	switch k {
	case message.KeyJobStarted:
		return s.started
	case message.KeyJobFinished:
		return s.finished
	default:
		return s.newJob
	}
}

func (s textStyles) forLevel(level string) lipgloss.Style {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return s.muted
	case logging.LevelWarn:
		return s.started
	case logging.LevelError:
		return s.failure
	default:
		return s.newJob
	}
}

// printer writes command results in the configured output format.
type printer struct {
	out    io.Writer
	format string
	styles textStyles
}

func newPrinter(out io.Writer, cfg config.OutputConfig) *printer {
	renderer := lipgloss.NewRenderer(out)
	if !useColor(out, cfg.Color) {
		renderer.SetColorProfile(termenv.Ascii)
	} else if cfg.Color == config.ColorAlways && !isTerminal(out) {
		renderer.SetColorProfile(termenv.ANSI256)
	}

	format := cfg.Format
	if format == "" {
		format = config.OutputText
	}
	return &printer{
		out:    out,
		format: format,
		styles: newTextStyles(renderer),
	}
}

// useColor decides whether text output is styled.
func useColor(out io.Writer, mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return isTerminal(out)
	}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// encode writes v as JSON or YAML. It reports false for text output, which
// callers render themselves.
func (p *printer) encode(v any) (bool, error) {
	switch p.format {
	case config.OutputJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case config.OutputYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

// messages prints a list of messages, newest first.
func (p *printer) messages(msgs []message.Committed) error {
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, newMessageView(m))
	}
	if done, err := p.encode(views); done {
		return err
	}

	if len(msgs) == 0 {
		_, err := fmt.Fprintln(p.out, p.styles.muted.Render("no queue messages"))
		return err
	}
	for _, m := range msgs {
		if _, err := fmt.Fprintln(p.out, p.messageLine(m)); err != nil {
			return err
		}
	}
	return nil
}

// message prints a single message with its full payload. The null message
// prints as null in JSON and YAML.
func (p *printer) message(m message.Committed) error {
	var v any
	if !m.IsNull() {
		v = newMessageView(m)
	}
	if done, err := p.encode(v); done {
		return err
	}

	if m.IsNull() {
		_, err := fmt.Fprintln(p.out, p.styles.muted.Render("no message"))
		return err
	}

	var sb strings.Builder
	sb.WriteString(p.messageLine(m))
	sb.WriteString("\n")
	info := m.Commit()
	if info.AuthorName != "" {
		fmt.Fprintf(&sb, "%s %s <%s>\n", p.styles.label.Render("Author:"), info.AuthorName, info.AuthorEmail)
	}
	if !info.Date.IsZero() {
		fmt.Fprintf(&sb, "%s   %s\n", p.styles.label.Render("Date:"), info.Date.Format(time.RFC1123Z))
	}
	if payload := m.Message().Payload(); payload != "" {
		sb.WriteString("\n")
		for _, line := range strings.Split(payload, "\n") {
			sb.WriteString("    ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	_, err := io.WriteString(p.out, sb.String())
	return err
}

// messageLine renders the one-line summary used by list output.
func (p *printer) messageLine(m message.Committed) string {
	msg := m.Message()
	parts := []string{
		p.styles.hash.Render(m.Commit().ShortHash.String()),
		p.styles.forKey(msg.Key()).Render(fmt.Sprintf("%s %-12s", msg.Key(), msg.Key().Name())),
		p.styles.queue.Render(m.Queue().String()),
	}
	if msg.HasID() {
		parts = append(parts, fmt.Sprintf("job #%d", msg.ID()))
	}
	if msg.HasJobRef() {
		parts = append(parts, p.styles.muted.Render("ref "+msg.JobRef().Short().String()))
	}
	if first, _, _ := strings.Cut(msg.Payload(), "\n"); first != "" {
		parts = append(parts, p.styles.muted.Render(first))
	}
	return strings.Join(parts, "  ")
}

// subject prints a decoded subject line.
func (p *printer) subject(s subject.Subject) error {
	if done, err := p.encode(newSubjectView(s)); done {
		return err
	}

	rows := [][2]string{
		{"Kind", p.styles.forKey(s.Key).Render(s.Key.Name())},
		{"Key", s.Key.String()},
		{"Queue", p.styles.queue.Render(s.Queue.String())},
	}
	if s.HasJobID() {
		rows = append(rows, [2]string{"Job ID", fmt.Sprintf("%d", s.JobID)})
	}
	if !s.JobRef.IsNull() {
		rows = append(rows, [2]string{"Job ref", p.styles.hash.Render(s.JobRef.String())})
	}
	return p.rows(rows)
}

// logEntries prints diagnostic log entries, oldest first.
func (p *printer) logEntries(entries []logging.Entry) error {
	if done, err := p.encode(entries); done {
		return err
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(p.out, p.styles.muted.Render("no matching log entries"))
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(p.out, p.logLine(e)); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) logLine(e logging.Entry) string {
	parts := []string{
		p.styles.muted.Render("[" + e.Time.Format("2006-01-02 15:04:05.000") + "]"),
		p.styles.forLevel(e.Level).Render(fmt.Sprintf("%-5s", strings.ToUpper(e.Level))),
		e.Message,
	}
	if e.Command != "" {
		parts = append(parts, p.styles.muted.Render("command="+e.Command))
	}
	if e.Queue != "" {
		parts = append(parts, p.styles.queue.Render("queue="+e.Queue))
	}
	if e.Commit != "" {
		parts = append(parts, p.styles.hash.Render("commit="+e.Commit))
	}

	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", p.styles.label.Render(k), e.Attrs[k]))
	}
	return strings.Join(parts, " ")
}

// rows prints label/value pairs aligned on the label column.
func (p *printer) rows(rows [][2]string) error {
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		label := p.styles.label.Render(fmt.Sprintf("%-*s", width+1, r[0]+":"))
		if _, err := fmt.Fprintf(p.out, "%s %s\n", label, r[1]); err != nil {
			return err
		}
	}
	return nil
}

// text prints a plain line, or v in JSON/YAML.
func (p *printer) text(line string, v any) error {
	if done, err := p.encode(v); done {
		return err
	}
	_, err := fmt.Fprintln(p.out, line)
	return err
}

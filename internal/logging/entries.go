package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is one line of gitqueue.log decoded back into its fields.
type Entry struct {
	Time    time.Time      `json:"time" yaml:"time"`
	Level   string         `json:"level" yaml:"level"`
	Message string         `json:"msg" yaml:"msg"`
	Command string         `json:"command,omitempty" yaml:"command,omitempty"`
	Queue   string         `json:"queue,omitempty" yaml:"queue,omitempty"`
	Commit  string         `json:"commit,omitempty" yaml:"commit,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// Filter selects entries. Zero fields match everything; set fields must all
// match.
type Filter struct {
	// MinLevel keeps entries at or above this level.
	MinLevel string
	// Since keeps entries written at or after this time.
	Since time.Time
	// Queue keeps entries tagged with this queue name.
	Queue string
	// Contains keeps entries whose message or attribute values contain it.
	Contains string
}

var levelRank = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ReadEntries reads every entry of the log in dir, oldest first. Uncompressed
// rotated files are read too, so rotation does not hide recent history.
// Lines that are not JSON objects are skipped.
func ReadEntries(dir string) ([]Entry, error) {
	live := filepath.Join(dir, FileName)
	if _, err := os.Stat(live); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no log file at %s: %w", live, err)
		}
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	backups, _ := filepath.Glob(live + ".[0-9]*")
	var entries []Entry
	for _, path := range append(backups, live) {
		if strings.HasSuffix(path, ".gz") {
			continue
		}
		fileEntries, err := readEntryFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fileEntries...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})
	return entries, nil
}

func readEntryFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := ParseEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return entries, nil
}

// ParseEntry decodes one JSON log line.
func ParseEntry(line string) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, fmt.Errorf("invalid log line: %w", err)
	}

	take := func(key string) string {
		s, _ := raw[key].(string)
		delete(raw, key)
		return s
	}

	entry := Entry{
		Level:   take("level"),
		Message: take("msg"),
		Command: take("command"),
		Queue:   take("queue"),
		Commit:  take("commit"),
	}
	if ts := take("time"); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Time = t
		}
	}
	if len(raw) > 0 {
		entry.Attrs = raw
	}
	return entry, nil
}

// Match reports whether e passes every criterion set in f.
func (f Filter) Match(e Entry) bool {
	if f.MinLevel != "" {
		want, ok := levelRank[ParseLevel(f.MinLevel)]
		got, known := levelRank[strings.ToUpper(e.Level)]
		if ok && known && got < want {
			return false
		}
	}
	if !f.Since.IsZero() && e.Time.Before(f.Since) {
		return false
	}
	if f.Queue != "" && e.Queue != f.Queue {
		return false
	}
	if f.Contains != "" && !e.contains(f.Contains) {
		return false
	}
	return true
}

func (e Entry) contains(s string) bool {
	if strings.Contains(e.Message, s) {
		return true
	}
	for _, v := range e.Attrs {
		if strings.Contains(fmt.Sprint(v), s) {
			return true
		}
	}
	return false
}

// FilterEntries returns the entries f matches, keeping their order. The
// result is never nil.
func FilterEntries(entries []Entry, f Filter) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

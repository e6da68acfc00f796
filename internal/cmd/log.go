package cmd

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/gitqueue/internal/commit"
	"github.com/Iron-Ham/gitqueue/internal/errors"
	"github.com/Iron-Ham/gitqueue/internal/message"
	"github.com/Iron-Ham/gitqueue/internal/msglog"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List queue messages, newest first",
	Long: `List the queue messages found in the repository history, newest first.

Examples:
  # Every message of every queue
  gitqueue log

  # One queue
  gitqueue log --queue build-queue

  # Queues matching a glob pattern
  gitqueue log --match 'deploy-*'

  # Only pending and started jobs, as JSON
  gitqueue log --kind new-job --kind job-started -o json`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent queue message",
	Long: `Show the most recent queue message, optionally for a single queue.

With --previous, show the message before it instead.`,
	Args: cobra.NoArgs,
	RunE: runLatest,
}

var findCmd = &cobra.Command{
	Use:   "find <commit>",
	Short: "Show the queue message stored in a commit",
	Long: `Show the queue message stored in the given commit. The full commit hash
is required; use git rev-parse to expand abbreviations.`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

var queuesCmd = &cobra.Command{
	Use:   "queues",
	Short: "List queue names found in the history",
	Args:  cobra.NoArgs,
	RunE:  runQueues,
}

var (
	logQueue       string
	logMatch       string
	logKinds       []string
	latestQueue    string
	latestPrevious bool
)

func init() {
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(queuesCmd)

	logCmd.Flags().StringVarP(&logQueue, "queue", "q", "", "only show messages of this queue")
	logCmd.Flags().StringVar(&logMatch, "match", "", "only show queues whose name matches this glob pattern")
	logCmd.Flags().StringSliceVar(&logKinds, "kind", nil, "only show these message kinds (new-job, job-started, job-finished)")
	logCmd.MarkFlagsMutuallyExclusive("queue", "match")

	latestCmd.Flags().StringVarP(&latestQueue, "queue", "q", "", "only consider messages of this queue")
	latestCmd.Flags().BoolVar(&latestPrevious, "previous", false, "show the next-to-latest message")
}

func runLog(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	log, err := env.readLog()
	if err != nil {
		return err
	}

	if log, err = filterByQueue(log, logQueue); err != nil {
		return err
	}
	if log, err = filterByPattern(log, logMatch); err != nil {
		return err
	}
	if log, err = filterByKinds(log, logKinds); err != nil {
		return err
	}

	return env.printer.messages(log.Messages())
}

func runLatest(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	log, err := env.readLog()
	if err != nil {
		return err
	}
	if log, err = filterByQueue(log, latestQueue); err != nil {
		return err
	}

	if latestPrevious {
		return env.printer.message(log.NextToLatestMessage())
	}
	return env.printer.message(log.LatestMessage())
}

func runFind(cmd *cobra.Command, args []string) error {
	hash, err := commit.NewHash(args[0])
	if err != nil {
		return err
	}

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	log, err := env.readLog()
	if err != nil {
		return err
	}

	found := log.FindByCommitHash(hash)
	if found.IsNull() {
		return errors.NewNotFoundError("queue message", hash.String())
	}
	return env.printer.message(found)
}

func runQueues(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	log, err := env.readLog()
	if err != nil {
		return err
	}

	names := make([]string, 0)
	for _, q := range log.Queues() {
		names = append(names, q.String())
	}
	if done, err := env.printer.encode(names); done {
		return err
	}
	for _, name := range names {
		count := log.FilterCommitsByQueue(message.MustQueueName(name)).Len()
		line := fmt.Sprintf("%s  %s", env.printer.styles.queue.Render(name),
			env.printer.styles.muted.Render(fmt.Sprintf("%d messages", count)))
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return err
		}
	}
	return nil
}

// filterByQueue keeps one queue. An empty name keeps everything.
func filterByQueue(log *msglog.Log, name string) (*msglog.Log, error) {
	if name == "" {
		return log, nil
	}
	queueName, err := parseQueueName(name)
	if err != nil {
		return nil, err
	}
	return log.FilterCommitsByQueue(queueName), nil
}

// filterByPattern keeps queues whose name matches a glob pattern. An empty
// pattern keeps everything.
func filterByPattern(log *msglog.Log, pattern string) (*msglog.Log, error) {
	if pattern == "" {
		return log, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.NewValidationError("invalid queue pattern").
			WithField("match").
			WithValue(pattern).
			WithCause(err)
	}
	return log.Filter(func(m message.Committed) bool {
		return g.Match(m.Queue().String())
	}), nil
}

// filterByKinds keeps the given message kinds, named either by kind name or
// by key symbol. No kinds keeps everything.
func filterByKinds(log *msglog.Log, kinds []string) (*msglog.Log, error) {
	if len(kinds) == 0 {
		return log, nil
	}
	keep := make(map[message.Key]bool, len(kinds))
	for _, kind := range kinds {
		key, err := parseKind(kind)
		if err != nil {
			return nil, err
		}
		keep[key] = true
	}
	return log.Filter(func(m message.Committed) bool {
		return keep[m.Message().Key()]
	}), nil
}

// parseKind accepts "new-job" style names as well as the raw key symbols.
func parseKind(kind string) (message.Key, error) {
	if key, err := message.KeyFromName(kind); err == nil {
		return key, nil
	}
	return message.ParseKey(kind)
}

package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/gitqueue/internal/config"
	"github.com/Iron-Ham/gitqueue/internal/errors"
	"github.com/Iron-Ham/gitqueue/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View gitqueue's diagnostic log",
	Long: `View and filter the diagnostic log written when logging.enabled is set
and logging.dir names a directory. Rotated files that are not compressed are
included.

Examples:
  # Show the last 50 entries
  gitqueue logs

  # Warnings and errors from the last hour for one queue
  gitqueue logs --level warn --since 1h --queue build-queue

  # Every entry mentioning a commit
  gitqueue logs -n 0 --grep 3f2a9c1`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsTail  int
	logsLevel string
	logsSince time.Duration
	logsQueue string
	logsGrep  string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "minimum level: debug, info, warn or error")
	logsCmd.Flags().DurationVar(&logsSince, "since", 0, "only show entries newer than this (e.g. 30m, 2h)")
	logsCmd.Flags().StringVarP(&logsQueue, "queue", "q", "", "only show entries about this queue")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "only show entries containing this text")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir := cfg.Logging.ResolveDir()
	if dir == "" {
		return errors.NewValidationError("logging.dir is not set, so the diagnostic log goes to stderr").
			WithField("logging.dir").
			WithCause(errors.ErrInvalidInput)
	}

	entries, err := logging.ReadEntries(dir)
	if err != nil {
		return errors.Wrap(err, "failed to read diagnostic log")
	}

	filter := logging.Filter{
		MinLevel: logsLevel,
		Queue:    logsQueue,
		Contains: logsGrep,
	}
	if logsSince > 0 {
		filter.Since = time.Now().Add(-logsSince)
	}
	entries = logging.FilterEntries(entries, filter)

	if logsTail < 0 {
		return errors.NewValidationError("--tail must be non-negative").
			WithField("tail").
			WithValue(logsTail).
			WithCause(errors.ErrInvalidInput)
	}
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	return newPrinter(cmd.OutOrStdout(), cfg.Output).logEntries(entries)
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/gitqueue/internal/errors"
	"github.com/Iron-Ham/gitqueue/internal/message"
	"github.com/Iron-Ham/gitqueue/internal/queue"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <queue> [payload...]",
	Short: "Add a new job to a queue",
	Long: `Add a new job to a queue by committing a new-job message. The payload is
stored in the commit body and is taken from the remaining arguments or,
with --file, from a file ("-" reads stdin).

Example:
  gitqueue dispatch build-queue 'make release VERSION=1.2.0'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDispatch,
}

var nextCmd = &cobra.Command{
	Use:   "next <queue>",
	Short: "Show the job waiting to be started",
	Long: `Show the job waiting to be started. A queue has a pending job when its
latest message is a new-job message. Exits with an error when there is none
unless --allow-empty is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runNext,
}

var startCmd = &cobra.Command{
	Use:   "start <queue> [payload...]",
	Short: "Mark the pending job as started",
	Long: `Mark the pending job as started by committing a job-started message that
references the new-job commit.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStart,
}

var finishCmd = &cobra.Command{
	Use:   "finish <queue> [payload...]",
	Short: "Mark the started job as finished",
	Long: `Mark the started job as finished by committing a job-finished message with
the same job id and reference as the job-started message.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFinish,
}

var (
	payloadFile    string
	nextAllowEmpty bool
)

func init() {
	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(finishCmd)

	for _, c := range []*cobra.Command{dispatchCmd, startCmd, finishCmd} {
		c.Flags().StringVarP(&payloadFile, "file", "f", "", `read the payload from a file ("-" for stdin)`)
	}
	nextCmd.Flags().BoolVar(&nextAllowEmpty, "allow-empty", false, "print an empty result instead of failing when no job is pending")
}

// readPayload returns the payload from --file or the trailing arguments.
func readPayload(cmd *cobra.Command, args []string) (string, error) {
	if payloadFile == "" {
		return strings.Join(args, " "), nil
	}
	if len(args) > 0 {
		return "", errors.NewValidationError("payload given both as arguments and with --file").
			WithField("file")
	}

	var (
		data []byte
		err  error
	)
	if payloadFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(payloadFile)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read payload: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// mutate opens the named queue and applies op with the payload from args.
func mutate(cmd *cobra.Command, args []string, op func(*queue.Queue, string) (message.Committed, error)) error {
	payload, err := readPayload(cmd, args[1:])
	if err != nil {
		return err
	}

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	q, err := env.openQueue(args[0])
	if err != nil {
		return err
	}

	committed, err := op(q, payload)
	if err != nil {
		return err
	}
	return env.printer.message(committed)
}

func runDispatch(cmd *cobra.Command, args []string) error {
	return mutate(cmd, args, (*queue.Queue).Dispatch)
}

func runStart(cmd *cobra.Command, args []string) error {
	return mutate(cmd, args, (*queue.Queue).Start)
}

func runFinish(cmd *cobra.Command, args []string) error {
	return mutate(cmd, args, (*queue.Queue).Finish)
}

func runNext(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	q, err := env.openQueue(args[0])
	if err != nil {
		return err
	}

	next := q.NextJob()
	if next.IsNull() && !nextAllowEmpty {
		return errors.NewQueueError("no job to start", errors.ErrNoPendingJob).
			WithQueue(q.Name().String())
	}
	return env.printer.message(next)
}

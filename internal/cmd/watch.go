package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/gitqueue/internal/commit"
	"github.com/Iron-Ham/gitqueue/internal/gitlog"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print queue messages as they are committed",
	Long: `Watch the repository and print every new queue message as it is committed.
Stops on interrupt.

Example:
  gitqueue watch --queue build-queue`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var watchQueue string

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchQueue, "queue", "q", "", "only print messages of this queue")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	w, err := env.repo.Watch(env.cfg.Watch.Debounce(), env.logger)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return watchLoop(ctx, env, w)
}

// watchLoop prints messages newer than the last one seen each time the
// watcher reports a change, until ctx is done.
func watchLoop(ctx context.Context, env *environment, w *gitlog.Watcher) error {
	seen, err := latestHash(env)
	if err != nil {
		return err
	}
	env.logger.Info("watching for queue messages", "queue", watchQueue, "since", seen.String())

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-w.Errors():
			env.logger.Warn("watch error", "error", err.Error())

		case <-w.Changes():
			log, err := env.readLog()
			if err != nil {
				// A half-written ref can make one read fail; the next change retries.
				env.logger.Warn("failed to read history", "error", err.Error())
				continue
			}
			if log, err = filterByQueue(log, watchQueue); err != nil {
				return err
			}

			msgs := log.Messages()
			fresh := len(msgs)
			for i, m := range msgs {
				if m.CommitHash().Equal(seen) {
					fresh = i
					break
				}
			}
			if fresh == 0 {
				continue
			}

			// Print oldest first so the output reads as a stream.
			for i := fresh - 1; i >= 0; i-- {
				if err := env.printer.messages(msgs[i : i+1]); err != nil {
					return err
				}
			}
			seen = msgs[0].CommitHash()
		}
	}
}

// latestHash returns the hash of the newest message being watched, or the
// null hash when there is none yet.
func latestHash(env *environment) (commit.Hash, error) {
	log, err := env.readLog()
	if err != nil {
		return commit.NullHash(), err
	}
	if log, err = filterByQueue(log, watchQueue); err != nil {
		return commit.NullHash(), err
	}
	return log.LatestMessage().CommitHash(), nil
}

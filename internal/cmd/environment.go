package cmd

import (
	"github.com/Iron-Ham/gitqueue/internal/config"
	"github.com/Iron-Ham/gitqueue/internal/errors"
	"github.com/Iron-Ham/gitqueue/internal/gitlog"
	"github.com/Iron-Ham/gitqueue/internal/logging"
	"github.com/Iron-Ham/gitqueue/internal/message"
	"github.com/Iron-Ham/gitqueue/internal/msglog"
	"github.com/Iron-Ham/gitqueue/internal/queue"
	"github.com/spf13/cobra"
)

// environment is everything a command needs once configuration is loaded.
type environment struct {
	cfg     *config.Config
	logger  *logging.Logger
	repo    *gitlog.Repository
	printer *printer
}

// loadEnvironment loads and validates the configuration, then builds the
// logger, repository and printer for cmd. Callers must Close the result.
func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewRotatingLogger(cfg.Logging.ResolveDir(), cfg.Logging.Level, logRotation(cfg))
		if err != nil {
			return nil, err
		}
	}
	logger = logger.With("command", cmd.Name())

	repo := gitlog.NewRepository(cfg.Repository.ResolvePath(),
		gitlog.WithSigningKey(cfg.Commit.SigningKey),
		gitlog.WithNoGPGSign(cfg.Commit.NoGPGSign))

	return &environment{
		cfg:     cfg,
		logger:  logger,
		repo:    repo,
		printer: newPrinter(cmd.OutOrStdout(), cfg.Output),
	}, nil
}

func logRotation(cfg *config.Config) logging.Rotation {
	return logging.Rotation{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	}
}

// Close releases the log file, if any.
func (e *environment) Close() {
	_ = e.logger.Close()
}

func (e *environment) logOptions() gitlog.LogOptions {
	return gitlog.LogOptions{
		Ref:      e.cfg.Repository.Ref,
		MaxCount: e.cfg.Repository.MaxCount,
	}
}

// readLog reads the configured history and decodes every queue commit in it.
func (e *environment) readLog() (*msglog.Log, error) {
	commits, err := e.repo.Log(e.logOptions())
	if err != nil {
		return nil, err
	}

	opts := []msglog.Option{msglog.WithLogger(e.logger)}
	if e.cfg.Log.SkipMalformed {
		opts = append(opts, msglog.WithSkipMalformed(e.logger))
	}
	return msglog.FromCommits(commits, opts...)
}

// openQueue opens a single queue over the configured history.
func (e *environment) openQueue(name string) (*queue.Queue, error) {
	queueName, err := parseQueueName(name)
	if err != nil {
		return nil, err
	}
	return queue.Open(queueName, e.repo, e.repo,
		queue.WithLogger(e.logger),
		queue.WithSkipMalformed(e.cfg.Log.SkipMalformed),
		queue.WithLogOptions(e.logOptions()))
}

func parseQueueName(name string) (message.QueueName, error) {
	queueName, err := message.NewQueueName(name)
	if err != nil {
		return message.NullQueueName(), errors.Wrapf(err, "invalid queue name %q", name)
	}
	return queueName, nil
}

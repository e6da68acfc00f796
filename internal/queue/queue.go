// Package queue is the producer/consumer view of a single job queue stored in
// git history.
//
// A [Queue] reads the history through a [HistoryReader], keeps the messages
// for its queue name, and appends new messages through a [Committer]. The
// lifecycle of a job is new-job, then job-started, then job-finished; each
// step is one empty commit whose subject carries the message metadata and
// whose body carries the payload.
//
//	repo := gitlog.NewRepository(".")
//	q, err := queue.Open(name, repo, repo)
//	if err != nil {
//	    return err
//	}
//	if _, err := q.Dispatch("build v1.2.0"); err != nil {
//	    return err
//	}
package queue

import (
	"github.com/Iron-Ham/gitqueue/internal/commit"
	"github.com/Iron-Ham/gitqueue/internal/errors"
	"github.com/Iron-Ham/gitqueue/internal/gitlog"
	"github.com/Iron-Ham/gitqueue/internal/logging"
	"github.com/Iron-Ham/gitqueue/internal/message"
	"github.com/Iron-Ham/gitqueue/internal/msglog"
	"github.com/Iron-Ham/gitqueue/internal/subject"
)

// HistoryReader supplies commits newest first.
type HistoryReader interface {
	Log(opts gitlog.LogOptions) ([]commit.Info, error)
}

// Committer records a new commit and returns its hash.
type Committer interface {
	Commit(subject, body string) (commit.Hash, error)
}

// Queue is one named queue inside a repository. It is not safe for
// concurrent use, and two processes appending to the same working tree race
// on the commit order.
type Queue struct {
	name      message.QueueName
	reader    HistoryReader
	committer Committer

	logOpts       gitlog.LogOptions
	skipMalformed bool
	logger        *logging.Logger

	log *msglog.Log
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used by the queue.
func WithLogger(logger *logging.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithSkipMalformed makes the queue skip queue commits that fail to decode
// instead of refusing to load.
func WithSkipMalformed(skip bool) Option {
	return func(q *Queue) {
		q.skipMalformed = skip
	}
}

// WithLogOptions sets the ref and commit limit used to read history.
func WithLogOptions(opts gitlog.LogOptions) Option {
	return func(q *Queue) {
		q.logOpts = opts
	}
}

// Open binds name to a history and loads its messages. The committer may be
// nil for read-only use; mutations then fail.
func Open(name message.QueueName, reader HistoryReader, committer Committer, opts ...Option) (*Queue, error) {
	if name.IsNull() {
		return nil, errors.NewValidationError("queue name is required").
			WithField("queue").
			WithCause(errors.ErrMissingQueueName)
	}
	if reader == nil {
		return nil, errors.NewValidationError("history reader is required").WithField("reader")
	}

	q := &Queue{
		name:      name,
		reader:    reader,
		committer: committer,
		logger:    logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = q.logger.WithQueue(name.String())

	if err := q.Reload(); err != nil {
		return nil, err
	}
	return q, nil
}

// Name returns the queue name.
func (q *Queue) Name() message.QueueName {
	return q.name
}

// Reload re-reads the history. On failure the previously loaded log is kept.
func (q *Queue) Reload() error {
	commits, err := q.reader.Log(q.logOpts)
	if err != nil {
		return err
	}

	buildOpts := []msglog.Option{msglog.WithLogger(q.logger)}
	if q.skipMalformed {
		buildOpts = append(buildOpts, msglog.WithSkipMalformed(q.logger))
	}
	all, err := msglog.FromCommits(commits, buildOpts...)
	if err != nil {
		return err
	}

	q.log = all.FilterCommitsByQueue(q.name)
	q.logger.Debug("queue loaded", "messages", q.log.Len())
	return nil
}

// Log returns the messages of this queue, newest first.
func (q *Queue) Log() *msglog.Log {
	return q.log
}

// LatestMessage returns the newest message of the queue, or the null message.
func (q *Queue) LatestMessage() message.Committed {
	return q.log.LatestMessage()
}

// NextJob returns the job waiting to be started: the latest message when it
// is a new-job message, otherwise the null message.
func (q *Queue) NextJob() message.Committed {
	latest := q.LatestMessage()
	if latest.Message().IsNewJob() {
		return latest
	}
	return message.NullCommitted()
}

// HasPendingJob reports whether a job is waiting to be started.
func (q *Queue) HasPendingJob() bool {
	return !q.NextJob().IsNull()
}

// IsJobInProgress reports whether the latest message is a job-started one.
func (q *Queue) IsJobInProgress() bool {
	return q.LatestMessage().Message().IsJobStarted()
}

// NextJobID returns the id for the next dispatched job: one more than the
// newest message carrying an id, or 0 for a queue that has none.
func (q *Queue) NextJobID() int {
	for _, m := range q.log.Messages() {
		if m.Message().HasID() {
			return m.Message().ID() + 1
		}
	}
	return 0
}

// Dispatch appends a new-job message carrying payload.
func (q *Queue) Dispatch(payload string) (message.Committed, error) {
	msg := message.NewJob(payload, q.NextJobID())
	return q.append(msg)
}

// Start marks the pending job as started. It fails with ErrNoPendingJob when
// the latest message is not a new-job message.
func (q *Queue) Start(payload string) (message.Committed, error) {
	pending := q.NextJob()
	if pending.IsNull() {
		return message.NullCommitted(), errors.NewQueueError("cannot start job", errors.ErrNoPendingJob).
			WithQueue(q.name.String())
	}

	msg := message.JobStarted(payload, pending.CommitHash(), pending.Message().ID())
	return q.append(msg)
}

// Finish marks the started job as finished. It fails with ErrNoJobInProgress
// when the latest message is not a job-started message.
func (q *Queue) Finish(payload string) (message.Committed, error) {
	latest := q.LatestMessage()
	if !latest.Message().IsJobStarted() {
		return message.NullCommitted(), errors.NewQueueError("cannot finish job", errors.ErrNoJobInProgress).
			WithQueue(q.name.String())
	}

	started := latest.Message()
	msg := message.JobFinished(payload, started.JobRef(), started.ID())
	return q.append(msg)
}

func (q *Queue) append(msg message.Message) (message.Committed, error) {
	if q.committer == nil {
		return message.NullCommitted(), errors.NewQueueError("queue is read-only", errors.ErrOperationFailed).
			WithQueue(q.name.String()).
			WithJobID(msg.ID())
	}

	text := subject.FormatMessage(msg, q.name)
	hash, err := q.committer.Commit(text, msg.Payload())
	if err != nil {
		return message.NullCommitted(), errors.NewQueueError("failed to commit message", err).
			WithQueue(q.name.String()).
			WithJobID(msg.ID()).
			WithRetryable(errors.IsRetryable(err))
	}

	q.logger.WithCommit(hash.String()).Info("message committed",
		"key", msg.Key().Name(),
		"job_id", msg.ID())

	committed := message.NewCommitted(msg, commit.NewInfo(hash, text, msg.Payload()), q.name)

	// The commit exists at this point, so a failed reload must not be
	// reported as a failed append.
	if err := q.Reload(); err != nil {
		q.logger.WithCommit(hash.String()).Warn("failed to reload queue after commit",
			"error", err.Error())
		q.log = q.log.Prepend(committed)
		return committed, nil
	}

	// The new commit may fall outside the configured ref or limit.
	if found := q.log.FindByCommitHash(hash); !found.IsNull() {
		return found, nil
	}
	return committed, nil
}

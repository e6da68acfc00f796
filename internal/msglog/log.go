// Package msglog reconstructs the queue message log from a commit history.
//
// A [Log] is an in-memory view of `git log` restricted to queue commits. It
// is built once from a caller-supplied slice of commits, keeps their order
// exactly (callers pass newest first, as git log does), and is never
// modified afterwards. Filtering returns a new Log.
package msglog

import (
	"github.com/Iron-Ham/gitqueue/internal/commit"
	"github.com/Iron-Ham/gitqueue/internal/errors"
	"github.com/Iron-Ham/gitqueue/internal/logging"
	"github.com/Iron-Ham/gitqueue/internal/message"
	"github.com/Iron-Ham/gitqueue/internal/subject"
)

// Log is an immutable, ordered sequence of committed queue messages.
// A nil *Log behaves as an empty log.
type Log struct {
	messages []message.Committed
}

type buildOptions struct {
	logger        *logging.Logger
	skipMalformed bool
}

// Option configures FromCommits.
type Option func(*buildOptions)

// WithLogger sets the logger used while building the log.
func WithLogger(logger *logging.Logger) Option {
	return func(o *buildOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSkipMalformed makes FromCommits skip queue commits whose subject does
// not decode, logging each one at WARN, instead of failing the whole build.
func WithSkipMalformed(logger *logging.Logger) Option {
	return func(o *buildOptions) {
		o.skipMalformed = true
		if logger != nil {
			o.logger = logger
		}
	}
}

// FromCommits builds a Log from commits. Commits whose subject does not start
// with the queue prefix are ignored. Any queue commit that fails to decode
// aborts the build with a *errors.SubjectError naming the commit, unless
// WithSkipMalformed is given. Only subject decoding errors are skipped.
func FromCommits(commits []commit.Info, opts ...Option) (*Log, error) {
	o := buildOptions{logger: logging.NopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	messages := make([]message.Committed, 0, len(commits))
	skipped := 0
	for _, c := range commits {
		if !subject.BelongsToAQueue(c.Subject) {
			continue
		}

		committed, err := Decode(c)
		if err != nil {
			if !o.skipMalformed || !errors.IsProtocolError(err) {
				return nil, err
			}
			skipped++
			o.logger.WithCommit(c.Hash.String()).Warn("skipping malformed queue commit",
				"subject", c.Subject,
				"error", err.Error())
			continue
		}
		messages = append(messages, committed)
	}

	o.logger.Debug("built message log",
		"commits", len(commits),
		"messages", len(messages),
		"skipped", skipped)

	return &Log{messages: messages}, nil
}

// Decode turns a single queue commit into a committed message. The payload
// is the commit body.
func Decode(c commit.Info) (message.Committed, error) {
	s, err := subject.Parse(c.Subject)
	if err != nil {
		var subjectErr *errors.SubjectError
		if errors.As(err, &subjectErr) && !c.Hash.IsNull() {
			subjectErr.WithCommit(c.Hash.String())
		}
		return message.NullCommitted(), err
	}

	msg, err := message.New(s.Key, c.Body, s.JobRef, s.JobID)
	if err != nil {
		return message.NullCommitted(), err
	}
	return message.NewCommitted(msg, c, s.Queue), nil
}

// Messages returns a copy of the log's messages in order.
func (l *Log) Messages() []message.Committed {
	if l == nil {
		return nil
	}
	out := make([]message.Committed, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.messages)
}

// IsEmpty reports whether the log has no messages.
func (l *Log) IsEmpty() bool {
	return l.Len() == 0
}

// LatestMessage returns the first message, or the null message.
func (l *Log) LatestMessage() message.Committed {
	return l.at(0)
}

// NextToLatestMessage returns the second message, or the null message.
func (l *Log) NextToLatestMessage() message.Committed {
	return l.at(1)
}

// FindByCommitHash returns the first message committed with hash, or the
// null message.
func (l *Log) FindByCommitHash(hash commit.Hash) message.Committed {
	if l == nil {
		return message.NullCommitted()
	}
	for _, m := range l.messages {
		if m.CommitHash().Equal(hash) {
			return m
		}
	}
	return message.NullCommitted()
}

// Prepend returns a new Log with m as its latest message followed by the
// messages of l.
func (l *Log) Prepend(m message.Committed) *Log {
	out := &Log{messages: make([]message.Committed, 0, l.Len()+1)}
	out.messages = append(out.messages, m)
	if l != nil {
		out.messages = append(out.messages, l.messages...)
	}
	return out
}

// FilterCommitsByQueue returns a new Log with only the messages for queue.
func (l *Log) FilterCommitsByQueue(queue message.QueueName) *Log {
	return l.Filter(func(m message.Committed) bool {
		return m.BelongsToQueue(queue)
	})
}

// Filter returns a new Log with the messages for which keep returns true,
// in their original order.
func (l *Log) Filter(keep func(message.Committed) bool) *Log {
	out := &Log{messages: make([]message.Committed, 0, l.Len())}
	if l == nil {
		return out
	}
	for _, m := range l.messages {
		if keep(m) {
			out.messages = append(out.messages, m)
		}
	}
	return out
}

// Queues returns the distinct queue names in the log, in first-seen order.
func (l *Log) Queues() []message.QueueName {
	if l == nil {
		return nil
	}
	seen := make(map[message.QueueName]bool)
	var queues []message.QueueName
	for _, m := range l.messages {
		if !seen[m.Queue()] {
			seen[m.Queue()] = true
			queues = append(queues, m.Queue())
		}
	}
	return queues
}

func (l *Log) at(i int) message.Committed {
	if i < 0 || i >= l.Len() {
		return message.NullCommitted()
	}
	return l.messages[i]
}

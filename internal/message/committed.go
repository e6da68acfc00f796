package message

import (
	"github.com/Iron-Ham/gitqueue/internal/commit"
)

// Committed is a message together with the commit it was decoded from and
// the queue named in that commit's subject. The zero value is the null
// committed message.
type Committed struct {
	msg    Message
	commit commit.Info
	queue  QueueName
}

// NewCommitted pairs msg with its commit and queue.
func NewCommitted(msg Message, info commit.Info, queue QueueName) Committed {
	return Committed{msg: msg, commit: info, queue: queue}
}

// NullCommitted returns the null committed message.
func NullCommitted() Committed {
	return Committed{}
}

// Message returns the decoded message.
func (c Committed) Message() Message { return c.msg }

// Commit returns the source commit record.
func (c Committed) Commit() commit.Info { return c.commit }

// CommitHash returns the hash of the source commit, or the null hash.
func (c Committed) CommitHash() commit.Hash { return c.commit.Hash }

// Queue returns the queue named in the commit subject.
func (c Committed) Queue() QueueName { return c.queue }

// BelongsToQueue reports whether c was committed to queue.
func (c Committed) BelongsToQueue(queue QueueName) bool {
	return c.queue.Equal(queue)
}

// IsNull reports whether c is the null committed message.
func (c Committed) IsNull() bool {
	return c.msg.IsNull()
}

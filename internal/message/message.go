// Package message defines the queue messages carried by commits: the queue
// name, the message key symbol, the message itself and its pairing with the
// commit it was read from.
//
// Message is a closed variant keyed by [Key]. There is no separate kind
// field: the key written into the commit subject is the only discriminant.
// Absence is modelled with null values rather than pointers, so zero values
// of [QueueName], [Message] and [Committed] are all valid "nothing" results.
package message

import (
	"github.com/Iron-Ham/gitqueue/internal/commit"
)

// NoJobID marks a message that carries no job id.
const NoJobID = -1

// Message is a single queue event. The zero value is the null message.
type Message struct {
	key     Key
	payload string
	jobRef  commit.Hash
	id      int
}

// NewJob creates a new-job message. New jobs never reference another commit.
// Any negative id means NoJobID, as in the other constructors.
func NewJob(payload string, id int) Message {
	return Message{key: KeyNewJob, payload: payload, jobRef: commit.NullHash(), id: jobID(id)}
}

// JobStarted creates a job-started message referring to the new-job commit.
func JobStarted(payload string, jobRef commit.Hash, id int) Message {
	return Message{key: KeyJobStarted, payload: payload, jobRef: jobRef, id: jobID(id)}
}

// JobFinished creates a job-finished message referring to the new-job commit.
func JobFinished(payload string, jobRef commit.Hash, id int) Message {
	return Message{key: KeyJobFinished, payload: payload, jobRef: jobRef, id: jobID(id)}
}

func jobID(id int) int {
	if id < 0 {
		return NoJobID
	}
	return id
}

// New builds the variant that key selects. Unknown keys are rejected. A
// new-job message drops jobRef.
func New(key Key, payload string, jobRef commit.Hash, id int) (Message, error) {
	switch key {
	case KeyNewJob:
		return NewJob(payload, id), nil
	case KeyJobStarted:
		return JobStarted(payload, jobRef, id), nil
	case KeyJobFinished:
		return JobFinished(payload, jobRef, id), nil
	default:
		_, err := ParseKey(string(key))
		return Message{}, err
	}
}

// Null returns the null message.
func Null() Message {
	return Message{}
}

// Key returns the symbol identifying the message kind.
func (m Message) Key() Key { return m.key }

// Payload returns the free-text payload.
func (m Message) Payload() string { return m.payload }

// JobRef returns the referenced commit, or the null hash.
func (m Message) JobRef() commit.Hash { return m.jobRef }

// ID returns the job id, or NoJobID.
func (m Message) ID() int {
	if m.IsNull() {
		return NoJobID
	}
	return m.id
}

// HasJobRef reports whether the message references another commit.
func (m Message) HasJobRef() bool {
	return !m.jobRef.IsNull()
}

// HasID reports whether the message carries a job id.
func (m Message) HasID() bool {
	return m.ID() != NoJobID
}

// IsNull reports whether m is the null message.
func (m Message) IsNull() bool {
	return m.key == ""
}

func (m Message) IsNewJob() bool      { return m.key == KeyNewJob }
func (m Message) IsJobStarted() bool  { return m.key == KeyJobStarted }
func (m Message) IsJobFinished() bool { return m.key == KeyJobFinished }

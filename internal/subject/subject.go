// Package subject implements the commit-subject wire format used by the queue.
//
// A queue commit subject looks like:
//
//	📝🈺: build-queue: job.id.42
//	📝👔: build-queue: job.id.42 job.ref.3f2a9c1d...
//	📝✅: build-queue: job.ref.3f2a9c1d...
//
// The key and queue are located by splitting on ":"; the job id and job
// reference are located by searching for their literal tokens, so any text
// after the queue field may contain ":" freely. Existing histories depend on
// these literals byte for byte.
package subject

import (
	"strconv"
	"strings"

	"github.com/Iron-Ham/gitqueue/internal/commit"
	"github.com/Iron-Ham/gitqueue/internal/message"
)

// Wire format literals.
const (
	Prefix      = "📝"
	Delimiter   = ":"
	JobIDToken  = message.JobIDToken
	JobRefToken = message.JobRefToken
)

// Subject is a decoded commit subject.
type Subject struct {
	Key    message.Key
	Queue  message.QueueName
	JobRef commit.Hash
	JobID  int
}

// New returns a Subject for msg committed to queue.
func New(msg message.Message, queue message.QueueName) Subject {
	return Subject{
		Key:    msg.Key(),
		Queue:  queue,
		JobRef: msg.JobRef(),
		JobID:  msg.ID(),
	}
}

// HasJobID reports whether s carries a job id. Negative ids count as
// message.NoJobID.
func (s Subject) HasJobID() bool {
	return s.JobID >= 0
}

// BelongsToAQueue reports whether text is a queue commit subject. This is a
// prefix test only; the text may still fail to parse.
func BelongsToAQueue(text string) bool {
	return strings.HasPrefix(text, Prefix)
}

// Format encodes s. Absent fields are omitted and the job id always comes
// before the job reference.
func Format(s Subject) string {
	var sb strings.Builder
	sb.WriteString(Prefix)
	sb.WriteString(s.Key.String())
	sb.WriteString(Delimiter)
	sb.WriteString(" ")
	sb.WriteString(s.Queue.String())
	sb.WriteString(Delimiter)
	if s.HasJobID() {
		sb.WriteString(" ")
		sb.WriteString(JobIDToken)
		sb.WriteString(strconv.Itoa(s.JobID))
	}
	if !s.JobRef.IsNull() {
		sb.WriteString(" ")
		sb.WriteString(JobRefToken)
		sb.WriteString(s.JobRef.String())
	}
	return sb.String()
}

// FormatMessage encodes msg as a subject for queue.
func FormatMessage(msg message.Message, queue message.QueueName) string {
	return Format(New(msg, queue))
}

// Parse decodes text. Fields are read in order key, queue, job reference,
// job id and the first failure is returned. A missing job id token decodes
// to message.NoJobID; a present but unreadable one is an error.
func Parse(text string) (Subject, error) {
	p := NewParser(text)

	key, err := p.MessageKey()
	if err != nil {
		return Subject{}, err
	}
	queue, err := p.QueueName()
	if err != nil {
		return Subject{}, err
	}
	ref, err := p.JobRef()
	if err != nil {
		return Subject{}, err
	}
	id := message.NoJobID
	if p.HasJobID() {
		if id, err = p.JobID(); err != nil {
			return Subject{}, err
		}
	}

	return Subject{Key: key, Queue: queue, JobRef: ref, JobID: id}, nil
}

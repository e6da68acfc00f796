package message

import (
	"strings"
	"unicode"

	"github.com/Iron-Ham/gitqueue/internal/errors"
)

const noQueueName = "--no-queue-name--"

// Field tokens of the commit subject. A queue name containing one would be
// read back as that field.
const (
	JobIDToken  = "job.id."
	JobRefToken = "job.ref."
)

// QueueName identifies a logical queue. The zero value is the null name.
type QueueName struct {
	value string
}

// NewQueueName trims raw and validates it as a queue name. Names may not be
// empty or contain whitespace, the subject field delimiter or a field token,
// and may not equal the null sentinel literal.
func NewQueueName(raw string) (QueueName, error) {
	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		return QueueName{}, errors.NewValidationError("queue name cannot be empty").
			WithField("queue").
			WithValue(raw)
	case strings.ContainsFunc(value, unicode.IsSpace):
		return QueueName{}, errors.NewValidationError("queue name cannot contain whitespace").
			WithField("queue").
			WithValue(raw)
	case strings.Contains(value, ":"):
		return QueueName{}, errors.NewValidationError("queue name cannot contain ':'").
			WithField("queue").
			WithValue(raw)
	case strings.Contains(value, JobIDToken), strings.Contains(value, JobRefToken):
		return QueueName{}, errors.NewValidationError("queue name cannot contain a job field token").
			WithField("queue").
			WithValue(raw)
	case value == noQueueName:
		return QueueName{}, errors.NewValidationError("queue name collides with the null sentinel").
			WithField("queue").
			WithValue(raw)
	}
	return QueueName{value: value}, nil
}

// MustQueueName is like NewQueueName but panics on invalid input.
func MustQueueName(raw string) QueueName {
	q, err := NewQueueName(raw)
	if err != nil {
		panic(err)
	}
	return q
}

// NullQueueName returns the name used to represent "no queue".
func NullQueueName() QueueName {
	return QueueName{}
}

// IsNull reports whether q is the null name.
func (q QueueName) IsNull() bool {
	return q.value == ""
}

// Equal compares names by value. Two null names are equal.
func (q QueueName) Equal(other QueueName) bool {
	return q.value == other.value
}

// String returns the queue name, or the sentinel literal for the null name.
func (q QueueName) String() string {
	if q.IsNull() {
		return noQueueName
	}
	return q.value
}

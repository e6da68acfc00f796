package subject

import (
	"strconv"
	"strings"

	"github.com/Iron-Ham/gitqueue/internal/commit"
	"github.com/Iron-Ham/gitqueue/internal/errors"
	"github.com/Iron-Ham/gitqueue/internal/message"
)

// Parser reads individual fields out of a commit subject. Each accessor
// fails with a *errors.SubjectError wrapping the matching protocol sentinel
// and carrying the full text.
type Parser struct {
	text string
}

// NewParser returns a Parser for text.
func NewParser(text string) *Parser {
	return &Parser{text: text}
}

// Text returns the subject being parsed.
func (p *Parser) Text() string {
	return p.text
}

// MessageKey returns the key between the prefix and the first delimiter. If
// there is no delimiter the key runs to the end of the text.
func (p *Parser) MessageKey() (message.Key, error) {
	start := strings.Index(p.text, Prefix)
	if start == -1 {
		return "", p.fail(errors.ErrMissingMessageKey)
	}
	start += len(Prefix)

	end := strings.Index(p.text[start:], Delimiter)
	if end == -1 {
		end = len(p.text)
	} else {
		end += start
	}

	raw := p.text[start:end]
	if raw == "" {
		return "", p.fail(errors.ErrMissingMessageKey)
	}

	key, err := message.ParseKey(raw)
	if err != nil {
		return "", p.fail(errors.ErrUnknownMessageKey)
	}
	return key, nil
}

// QueueName returns the second delimiter-separated segment, trimmed.
func (p *Parser) QueueName() (message.QueueName, error) {
	parts := strings.Split(p.text, Delimiter)
	if len(parts) < 2 {
		return message.QueueName{}, p.fail(errors.ErrMissingQueueName)
	}

	name := strings.TrimSpace(parts[1])
	if name == "" {
		return message.QueueName{}, p.fail(errors.ErrMissingQueueName)
	}

	queue, err := message.NewQueueName(name)
	if err != nil {
		return message.QueueName{}, p.fail(errors.ErrMissingQueueName)
	}
	return queue, nil
}

// HasJobID reports whether the job id token appears anywhere in the text.
func (p *Parser) HasJobID() bool {
	return strings.Contains(p.text, JobIDToken)
}

// JobID returns the integer after the job id token. The token is required:
// its absence, or a value without leading digits, is ErrMissingJobID.
// Trailing non-digit characters are ignored.
func (p *Parser) JobID() (int, error) {
	pos := strings.Index(p.text, JobIDToken)
	if pos == -1 {
		return message.NoJobID, p.fail(errors.ErrMissingJobID)
	}

	value := p.text[pos+len(JobIDToken):]
	if sp := strings.Index(value, " "); sp != -1 {
		value = value[:sp]
	}
	value = strings.TrimPrefix(strings.TrimSpace(value), "+")

	digits := value
	for i, r := range value {
		if r < '0' || r > '9' {
			digits = value[:i]
			break
		}
	}
	if digits == "" {
		return message.NoJobID, p.fail(errors.ErrMissingJobID)
	}

	id, err := strconv.Atoi(digits)
	if err != nil {
		return message.NoJobID, p.fail(errors.ErrMissingJobID)
	}
	return id, nil
}

// JobRef returns the hash after the job reference token, which runs to the
// end of the text. A missing token yields the null hash.
func (p *Parser) JobRef() (commit.Hash, error) {
	pos := strings.Index(p.text, JobRefToken)
	if pos == -1 {
		return commit.NullHash(), nil
	}

	raw := strings.TrimSpace(p.text[pos+len(JobRefToken):])
	if raw == "" {
		return commit.NullHash(), p.fail(errors.ErrMissingJobRefHash)
	}

	hash, err := commit.NewHash(raw)
	if err != nil {
		return commit.NullHash(), p.fail(errors.ErrMissingJobRefHash)
	}
	return hash, nil
}

func (p *Parser) fail(kind error) *errors.SubjectError {
	return errors.NewSubjectError(kind, p.text)
}

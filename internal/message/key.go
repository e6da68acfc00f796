package message

import (
	"github.com/Iron-Ham/gitqueue/internal/errors"
)

// Key is the symbol written into a commit subject to say which kind of
// message the commit carries. Only the three constants below are valid.
type Key string

const (
	KeyNewJob      Key = "🈺"
	KeyJobStarted  Key = "👔"
	KeyJobFinished Key = "✅"
)

var keyNames = map[Key]string{
	KeyNewJob:      "new-job",
	KeyJobStarted:  "job-started",
	KeyJobFinished: "job-finished",
}

// Keys returns the protocol keys in lifecycle order.
func Keys() []Key {
	return []Key{KeyNewJob, KeyJobStarted, KeyJobFinished}
}

// ParseKey validates s as a protocol key.
func ParseKey(s string) (Key, error) {
	k := Key(s)
	if !k.IsValid() {
		return "", errors.NewValidationError("unknown message key").
			WithField("key").
			WithValue(s).
			WithCause(errors.ErrUnknownMessageKey)
	}
	return k, nil
}

// KeyFromName resolves a human-readable name such as "job-started".
func KeyFromName(name string) (Key, error) {
	for k, n := range keyNames {
		if n == name {
			return k, nil
		}
	}
	return "", errors.NewValidationError("unknown message kind").
		WithField("kind").
		WithValue(name).
		WithCause(errors.ErrUnknownMessageKey)
}

// IsValid reports whether k is one of the protocol keys.
func (k Key) IsValid() bool {
	_, ok := keyNames[k]
	return ok
}

// Name returns the human-readable name of k, or "unknown".
func (k Key) Name() string {
	if n, ok := keyNames[k]; ok {
		return n
	}
	return "unknown"
}

// String returns the raw symbol.
func (k Key) String() string {
	return string(k)
}

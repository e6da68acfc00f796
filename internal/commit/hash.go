package commit

import (
	"strings"

	"github.com/Iron-Ham/gitqueue/internal/errors"
)

// Sentinel literals printed for absent hashes. Real hashes are never allowed
// to take these values, so absence and presence cannot collide.
const (
	noCommitHash      = "--no-commit-hash--"
	noShortCommitHash = "--no-short-commit-hash--"
)

// ShortHashLength is the number of characters git shows for abbreviated hashes.
const ShortHashLength = 7

// Hash is a full commit hash. The zero value is the null hash.
type Hash struct {
	value string
}

// NewHash builds a Hash from raw git output. Surrounding whitespace is
// trimmed; an empty value or the null sentinel literal is rejected.
func NewHash(raw string) (Hash, error) {
	value, err := validate("commit hash", raw, noCommitHash)
	if err != nil {
		return Hash{}, err
	}
	return Hash{value: value}, nil
}

// MustHash is like NewHash but panics on invalid input.
func MustHash(raw string) Hash {
	h, err := NewHash(raw)
	if err != nil {
		panic(err)
	}
	return h
}

// NullHash returns the hash used to represent "no commit".
func NullHash() Hash {
	return Hash{}
}

// IsNull reports whether h is the null hash.
func (h Hash) IsNull() bool {
	return h.value == ""
}

// Equal compares hashes by value. Two null hashes are equal.
func (h Hash) Equal(other Hash) bool {
	return h.value == other.value
}

// String returns the hash text, or the sentinel literal for the null hash.
func (h Hash) String() string {
	if h.IsNull() {
		return noCommitHash
	}
	return h.value
}

// Short returns the abbreviated form of h.
func (h Hash) Short() ShortHash {
	if h.IsNull() {
		return NullShortHash()
	}
	if len(h.value) <= ShortHashLength {
		return ShortHash{value: h.value}
	}
	return ShortHash{value: h.value[:ShortHashLength]}
}

// ShortHash is an abbreviated commit hash. The zero value is the null hash.
type ShortHash struct {
	value string
}

// NewShortHash builds a ShortHash from raw git output.
func NewShortHash(raw string) (ShortHash, error) {
	value, err := validate("short commit hash", raw, noShortCommitHash)
	if err != nil {
		return ShortHash{}, err
	}
	return ShortHash{value: value}, nil
}

// NullShortHash returns the short hash used to represent "no commit".
func NullShortHash() ShortHash {
	return ShortHash{}
}

// IsNull reports whether h is the null short hash.
func (h ShortHash) IsNull() bool {
	return h.value == ""
}

// Equal compares short hashes by value. Two null hashes are equal.
func (h ShortHash) Equal(other ShortHash) bool {
	return h.value == other.value
}

// String returns the hash text, or the sentinel literal for the null hash.
func (h ShortHash) String() string {
	if h.IsNull() {
		return noShortCommitHash
	}
	return h.value
}

func validate(field, raw, sentinel string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", errors.NewValidationError(field + " cannot be empty").
			WithField(field).
			WithValue(raw)
	}
	if value == sentinel {
		return "", errors.NewValidationError(field + " collides with the null sentinel").
			WithField(field).
			WithValue(raw)
	}
	return value, nil
}

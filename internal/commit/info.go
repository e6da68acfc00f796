// Package commit holds the value types that identify commits and the commit
// record handed to the queue by whatever reads the git history.
package commit

import "time"

// Info is a single commit as read from history. Only Hash, Subject and Body
// matter to the queue; the rest is carried through for display.
type Info struct {
	Hash        Hash
	ShortHash   ShortHash
	AuthorName  string
	AuthorEmail string
	Date        time.Time
	Subject     string
	Body        string
	Refs        string
}

// NewInfo creates an Info for the given hash and message. The short hash is
// derived from the full one.
func NewInfo(hash Hash, subject, body string) Info {
	return Info{
		Hash:      hash,
		ShortHash: hash.Short(),
		Subject:   subject,
		Body:      body,
	}
}

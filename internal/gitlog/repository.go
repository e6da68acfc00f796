// Package gitlog is the git side of gitqueue: it reads commit history into
// [commit.Info] values, creates the empty commits that carry queue messages,
// and watches a repository for new commits.
//
// All git access goes through a [CommandExecutor] so tests can substitute a
// fake. The production executor shells out to the git CLI.
package gitlog

import (
	"strconv"
	"strings"
	"time"

	"github.com/Iron-Ham/gitqueue/internal/commit"
	"github.com/Iron-Ham/gitqueue/internal/errors"
)

// Field and record separators used in the git log pretty format. Neither can
// appear in a commit subject, and git strips them from bodies only in
// pathological cases.
const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// logFormat lists, in order: full hash, short hash, author name, author
// email, strict ISO author date, ref names, subject, body.
const logFormat = "%H%x1f%h%x1f%an%x1f%ae%x1f%aI%x1f%D%x1f%s%x1f%b%x1e"

const logFields = 8

// DefaultRef is the ref read when LogOptions.Ref is empty.
const DefaultRef = "HEAD"

// LogOptions controls which commits Log returns.
type LogOptions struct {
	// Ref is the revision to walk from. Empty means HEAD.
	Ref string
	// MaxCount limits the number of commits read. Zero or negative means
	// the whole history.
	MaxCount int
}

// Repository is a git working tree accessed through the git CLI.
type Repository struct {
	dir        string
	executor   CommandExecutor
	signingKey string
	noGPGSign  bool
}

// Option configures a Repository.
type Option func(*Repository)

// WithExecutor replaces the command executor. This is primarily useful for
// testing.
func WithExecutor(executor CommandExecutor) Option {
	return func(r *Repository) {
		if executor != nil {
			r.executor = executor
		}
	}
}

// WithSigningKey makes Commit sign with the given GPG key id.
func WithSigningKey(key string) Option {
	return func(r *Repository) {
		r.signingKey = strings.TrimSpace(key)
	}
}

// WithNoGPGSign makes Commit pass --no-gpg-sign, overriding commit.gpgsign
// from the user's git config. Ignored when a signing key is set.
func WithNoGPGSign(disable bool) Option {
	return func(r *Repository) {
		r.noGPGSign = disable
	}
}

// NewRepository creates a Repository for the working tree at dir.
func NewRepository(dir string, opts ...Option) *Repository {
	r := &Repository{
		dir:      dir,
		executor: NewCLICommandExecutor(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the working tree directory.
func (r *Repository) Dir() string {
	return r.dir
}

// GitDir returns the absolute path of the repository's git directory.
func (r *Repository) GitDir() (string, error) {
	output, err := r.executor.Run(r.dir, "git", "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", errors.NewGitError("failed to resolve git directory", errors.ErrNotGitRepository).
			WithRepository(r.dir).
			WithGitOutput(strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}

// HasCommits reports whether ref resolves to a commit. A repository that was
// just initialised has no commits on HEAD.
func (r *Repository) HasCommits(ref string) (bool, error) {
	if ref == "" {
		ref = DefaultRef
	}
	if err := r.executor.RunQuiet(r.dir, "git", "rev-parse", "--verify", "--quiet", ref+"^{commit}"); err == nil {
		return true, nil
	}
	// Distinguish an unborn branch from a directory that is not a repository.
	if _, err := r.GitDir(); err != nil {
		return false, err
	}
	return false, nil
}

// Log returns the history reachable from opts.Ref, newest first. An empty
// repository yields an empty slice and no error.
func (r *Repository) Log(opts LogOptions) ([]commit.Info, error) {
	ref := opts.Ref
	if ref == "" {
		ref = DefaultRef
	}

	ok, err := r.HasCommits(ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		if ref != DefaultRef {
			return nil, errors.NewGitError("unknown revision", errors.ErrEmptyHistory).
				WithRepository(r.dir).
				WithRef(ref)
		}
		return []commit.Info{}, nil
	}

	args := []string{"log", "--pretty=format:" + logFormat}
	if opts.MaxCount > 0 {
		args = append(args, "--max-count="+strconv.Itoa(opts.MaxCount))
	}
	args = append(args, ref, "--")

	output, err := r.executor.Run(r.dir, "git", args...)
	if err != nil {
		return nil, errors.NewGitError("failed to read commit history", err).
			WithRepository(r.dir).
			WithRef(ref).
			WithGitOutput(strings.TrimSpace(string(output)))
	}

	commits, err := parseLog(string(output))
	if err != nil {
		return nil, errors.NewGitError("failed to parse commit history", err).
			WithRepository(r.dir).
			WithRef(ref)
	}
	return commits, nil
}

// parseLog splits the output of git log run with logFormat.
func parseLog(output string) ([]commit.Info, error) {
	records := strings.Split(output, recordSep)
	commits := make([]commit.Info, 0, len(records))

	for _, record := range records {
		// git puts a newline between records.
		record = strings.TrimPrefix(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}

		fields := strings.SplitN(record, fieldSep, logFields)
		if len(fields) != logFields {
			return nil, errors.NewValidationError("malformed git log record").
				WithValue(record).
				WithCause(errors.ErrInvalidInput)
		}

		hash, err := commit.NewHash(fields[0])
		if err != nil {
			return nil, err
		}
		info := commit.NewInfo(hash, fields[6], strings.TrimRight(fields[7], "\n"))
		if short, err := commit.NewShortHash(fields[1]); err == nil {
			info.ShortHash = short
		}
		info.AuthorName = fields[2]
		info.AuthorEmail = fields[3]
		if date, err := time.Parse(time.RFC3339, fields[4]); err == nil {
			info.Date = date
		}
		info.Refs = strings.TrimSpace(fields[5])

		commits = append(commits, info)
	}
	return commits, nil
}

// Commit records an empty commit with the given subject and body and returns
// the hash of the new HEAD. The commit carries HEAD's tree: anything staged in
// the index stays staged and out of the queue commit.
func (r *Repository) Commit(subject, body string) (commit.Hash, error) {
	if strings.TrimSpace(subject) == "" {
		return commit.NullHash(), errors.NewValidationError("commit subject cannot be empty").
			WithField("subject")
	}

	args := []string{"commit", "--allow-empty", "--only", "--no-verify", "-m", subject}
	if body != "" {
		args = append(args, "-m", body)
	}
	switch {
	case r.signingKey != "":
		args = append(args, "--gpg-sign="+r.signingKey)
	case r.noGPGSign:
		args = append(args, "--no-gpg-sign")
	}

	output, err := r.executor.Run(r.dir, "git", args...)
	if err != nil {
		return commit.NullHash(), errors.NewGitError("failed to create queue commit", err).
			WithRepository(r.dir).
			WithGitOutput(strings.TrimSpace(string(output)))
	}

	return r.Head()
}

// Head returns the hash HEAD currently points to.
func (r *Repository) Head() (commit.Hash, error) {
	output, err := r.executor.Run(r.dir, "git", "rev-parse", DefaultRef)
	if err != nil {
		return commit.NullHash(), errors.NewGitError("failed to resolve HEAD", err).
			WithRepository(r.dir).
			WithRef(DefaultRef).
			WithGitOutput(strings.TrimSpace(string(output)))
	}
	return commit.NewHash(string(output))
}

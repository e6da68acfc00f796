// Package errors provides centralized error definitions and error handling utilities
// for gitqueue. It defines the commit-subject protocol errors, queue state errors,
// git adapter errors, semantic error types, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - SubjectError: a commit subject violates the queue wire format
//   - QueueError: a producer operation is not valid for the queue's current state
//   - GitError: a git command failed (log, commit, rev-parse)
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewSubjectError(errors.ErrMissingQueueName, "📝🈺")
//	err = err.WithCommit("3f2a9c1")
//
//	err := errors.NewGitError("failed to read history", baseErr).WithRef("HEAD")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrMissingJobID) { ... }
//
//	var subjectErr *errors.SubjectError
//	if errors.As(err, &subjectErr) {
//	    fmt.Println(subjectErr.Subject)
//	}
//
//	if errors.IsProtocolError(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Commit subject protocol sentinel errors
var (
	// ErrMissingMessageKey indicates an empty key between the prefix and the first delimiter.
	ErrMissingMessageKey = New("missing message key in commit subject")
	// ErrUnknownMessageKey indicates a key that is not one of the protocol symbols.
	ErrUnknownMessageKey = New("unknown message key in commit subject")
	// ErrMissingQueueName indicates an absent or blank queue segment.
	ErrMissingQueueName = New("missing queue name in commit subject")
	// ErrMissingJobID indicates an absent or non-numeric job id.
	ErrMissingJobID = New("missing job id in commit subject")
	// ErrMissingJobRefHash indicates a job reference token with no hash after it.
	ErrMissingJobRefHash = New("missing commit hash in job reference")
)

// Queue state sentinel errors
var (
	// ErrNoPendingJob indicates there is no new job waiting to be started.
	ErrNoPendingJob = New("no pending job")
	// ErrNoJobInProgress indicates there is no started job waiting to be finished.
	ErrNoJobInProgress = New("no job in progress")
)

// Git-related sentinel errors
var (
	// ErrNotGitRepository indicates that the directory is not a git repository.
	ErrNotGitRepository = New("not a git repository")
	// ErrEmptyHistory indicates that the ref has no commits yet.
	ErrEmptyHistory = New("repository has no commits")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrOperationFailed indicates a general operation failure.
	ErrOperationFailed = New("operation failed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// classified is implemented by every gitqueue error type.
type classified interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the operation may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// SubjectError represents a commit subject that does not follow the queue
// wire format. The cause is one of the protocol sentinels and Subject holds
// the full offending text.
//
// Example:
//
//	err := errors.NewSubjectError(errors.ErrMissingQueueName, "📝🈺")
//	fmt.Println(err) // `commit subject error: missing queue name in commit subject: "📝🈺"`
type SubjectError struct {
	baseError
	Subject string
	Commit  string
}

// NewSubjectError creates a new SubjectError for the given protocol sentinel.
func NewSubjectError(kind error, subject string) *SubjectError {
	return &SubjectError{
		baseError: baseError{
			message:    kind.Error(),
			cause:      kind,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
		Subject: subject,
	}
}

// WithCommit adds the hash of the commit carrying the subject.
func (e *SubjectError) WithCommit(hash string) *SubjectError {
	e.Commit = hash
	return e
}

// Error returns the formatted error message.
func (e *SubjectError) Error() string {
	prefix := "commit subject error"
	if e.Commit != "" {
		prefix = fmt.Sprintf("commit subject error [commit=%s]", e.Commit)
	}
	return fmt.Sprintf("%s: %s: %q", prefix, e.message, e.Subject)
}

// Is checks if this error matches the target.
func (e *SubjectError) Is(target error) bool {
	if _, ok := target.(*SubjectError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// QueueError represents a producer operation that the queue's current state
// does not allow.
//
// Example:
//
//	err := errors.NewQueueError("cannot start job", errors.ErrNoPendingJob).WithQueue("builds")
type QueueError struct {
	baseError
	Queue string
	JobID int
}

// NewQueueError creates a new QueueError.
func NewQueueError(message string, cause error) *QueueError {
	return &QueueError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		JobID: -1, // -1 indicates not set
	}
}

// WithQueue adds a queue name to the error context.
func (e *QueueError) WithQueue(name string) *QueueError {
	e.Queue = name
	return e
}

// WithJobID adds a job id to the error context.
func (e *QueueError) WithJobID(id int) *QueueError {
	e.JobID = id
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *QueueError) WithRetryable(r bool) *QueueError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *QueueError) Error() string {
	var parts []string
	if e.Queue != "" {
		parts = append(parts, fmt.Sprintf("queue=%s", e.Queue))
	}
	if e.JobID >= 0 {
		parts = append(parts, fmt.Sprintf("job=%d", e.JobID))
	}

	prefix := "queue error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("queue error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *QueueError) Is(target error) bool {
	if _, ok := target.(*QueueError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// GitError represents errors related to git operations.
//
// Example:
//
//	err := errors.NewGitError("failed to read history", cause)
//	err = err.WithRepository("/path/to/repo").WithRef("main")
type GitError struct {
	baseError
	Repository string
	Ref        string
	GitOutput  string // Captured git command output
}

// NewGitError creates a new GitError.
func NewGitError(message string, cause error) *GitError {
	return &GitError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithRepository adds a repository path to the error context.
func (e *GitError) WithRepository(path string) *GitError {
	e.Repository = path
	return e
}

// WithRef adds a ref name to the error context.
func (e *GitError) WithRef(ref string) *GitError {
	e.Ref = ref
	return e
}

// WithGitOutput adds git command output to the error context.
func (e *GitError) WithGitOutput(output string) *GitError {
	e.GitOutput = output
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *GitError) WithRetryable(r bool) *GitError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *GitError) Error() string {
	var parts []string
	if e.Ref != "" {
		parts = append(parts, fmt.Sprintf("ref=%s", e.Ref))
	}
	if e.Repository != "" {
		parts = append(parts, fmt.Sprintf("repo=%s", e.Repository))
	}

	prefix := "git error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("git error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.GitOutput != "" {
		msg = fmt.Sprintf("%s\ngit output: %s", msg, e.GitOutput)
	}

	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *GitError) Is(target error) bool {
	if _, ok := target.(*GitError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("commit", "abc123")
//	fmt.Println(err) // "commit 'abc123' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("queue name cannot be empty")
//	err = err.WithField("queue").WithValue("")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%q", fmt.Sprint(e.Value)))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var qErr classified
	if As(err, &qErr) {
		return qErr.IsRetryable()
	}

	return false
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var qErr classified
	if As(err, &qErr) {
		return qErr.IsUserFacing()
	}

	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that are not gitqueue errors.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var qErr classified
	if As(err, &qErr) {
		return qErr.Severity()
	}

	return SeverityError
}

// IsProtocolError returns true if the error is a commit subject that could
// not be decoded.
func IsProtocolError(err error) bool {
	if err == nil {
		return false
	}
	var subjectErr *SubjectError
	return As(err, &subjectErr)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to load queue")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to load queue %s", name)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

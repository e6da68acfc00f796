package errors

import (
	"errors"
	"fmt"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// SubjectError Tests
// -----------------------------------------------------------------------------

func TestNewSubjectError(t *testing.T) {
	err := NewSubjectError(ErrMissingQueueName, "📝🈺")

	if err.Subject != "📝🈺" {
		t.Errorf("Subject = %q, want %q", err.Subject, "📝🈺")
	}
	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
	}
	if err.IsRetryable() {
		t.Error("IsRetryable() = true, want false")
	}
	if !errors.Is(err, ErrMissingQueueName) {
		t.Error("errors.Is(err, ErrMissingQueueName) = false, want true")
	}
	if errors.Is(err, ErrMissingJobID) {
		t.Error("errors.Is(err, ErrMissingJobID) = true, want false")
	}
}

func TestSubjectError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *SubjectError
		want string
	}{
		{
			name: "without commit",
			err:  NewSubjectError(ErrMissingMessageKey, "📝: q:"),
			want: `commit subject error: missing message key in commit subject: "📝: q:"`,
		},
		{
			name: "with commit",
			err:  NewSubjectError(ErrMissingJobID, "📝👔: q: job.id.x").WithCommit("abc1234"),
			want: `commit subject error [commit=abc1234]: missing job id in commit subject: "📝👔: q: job.id.x"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubjectError_AsThroughWrap(t *testing.T) {
	wrapped := fmt.Errorf("building log: %w", NewSubjectError(ErrMissingJobRefHash, "📝✅: q: job.ref."))

	var subjectErr *SubjectError
	if !errors.As(wrapped, &subjectErr) {
		t.Fatal("errors.As failed to find SubjectError")
	}
	if subjectErr.Subject != "📝✅: q: job.ref." {
		t.Errorf("Subject = %q", subjectErr.Subject)
	}
	if !IsProtocolError(wrapped) {
		t.Error("IsProtocolError() = false, want true")
	}
}

// -----------------------------------------------------------------------------
// QueueError Tests
// -----------------------------------------------------------------------------

func TestQueueError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *QueueError
		want string
	}{
		{
			name: "no context",
			err:  NewQueueError("cannot start job", nil),
			want: "queue error: cannot start job",
		},
		{
			name: "queue and cause",
			err:  NewQueueError("cannot start job", ErrNoPendingJob).WithQueue("builds"),
			want: "queue error [queue=builds]: cannot start job: no pending job",
		},
		{
			name: "queue and job",
			err:  NewQueueError("cannot finish job", ErrNoJobInProgress).WithQueue("builds").WithJobID(0),
			want: "queue error [queue=builds, job=0]: cannot finish job: no job in progress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueueError_Is(t *testing.T) {
	err := NewQueueError("cannot start job", ErrNoPendingJob)

	if !errors.Is(err, ErrNoPendingJob) {
		t.Error("errors.Is(err, ErrNoPendingJob) = false, want true")
	}
	if !errors.Is(err, &QueueError{}) {
		t.Error("errors.Is(err, &QueueError{}) = false, want true")
	}
	if errors.Is(err, &GitError{}) {
		t.Error("errors.Is(err, &GitError{}) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// GitError Tests
// -----------------------------------------------------------------------------

func TestGitError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *GitError
		want string
	}{
		{
			name: "plain",
			err:  NewGitError("failed to commit", nil),
			want: "git error: failed to commit",
		},
		{
			name: "with context and output",
			err: NewGitError("failed to read history", ErrNotGitRepository).
				WithRef("HEAD").
				WithRepository("/tmp/repo").
				WithGitOutput("fatal: not a git repository"),
			want: "git error [ref=HEAD, repo=/tmp/repo]: failed to read history: not a git repository\ngit output: fatal: not a git repository",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("commit", "abc123")
	if got, want := err.Error(), "commit 'abc123' not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("queue name cannot be empty").WithField("queue").WithValue("")

	if got, want := err.Error(), `validation error [field=queue, value=""]: queue name cannot be empty`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("errors.Is(err, ErrInvalidInput) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestClassificationHelpers(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		retryable  bool
		userFacing bool
		severity   Severity
		protocol   bool
	}{
		{"nil", nil, false, false, SeverityDebug, false},
		{"plain error", errors.New("boom"), false, false, SeverityError, false},
		{"subject error", NewSubjectError(ErrMissingJobID, "x"), false, true, SeverityError, true},
		{"retryable git error", NewGitError("locked", nil).WithRetryable(true), true, true, SeverityError, false},
		{"validation error", NewValidationError("bad"), false, true, SeverityWarning, false},
		{"wrapped queue error", Wrap(NewQueueError("x", ErrNoPendingJob), "dispatch"), false, true, SeverityWarning, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
			if got := IsUserFacing(tt.err); got != tt.userFacing {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.userFacing)
			}
			if got := GetSeverity(tt.err); got != tt.severity {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.severity)
			}
			if got := IsProtocolError(tt.err); got != tt.protocol {
				t.Errorf("IsProtocolError() = %v, want %v", got, tt.protocol)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	err := Wrapf(ErrMissingQueueName, "commit %s", "abc")
	if got, want := err.Error(), "commit abc: missing queue name in commit subject"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrMissingQueueName) {
		t.Error("wrapped error lost its sentinel")
	}
}

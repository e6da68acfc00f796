package gitlog

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/gitqueue/internal/errors"
	"github.com/Iron-Ham/gitqueue/internal/testutil"
)

// -----------------------------------------------------------------------------
// Mock Command Executor for Unit Tests
// -----------------------------------------------------------------------------

// mockCall records a single command invocation
type mockCall struct {
	dir  string
	name string
	args []string
}

// mockExecutor is a test double for CommandExecutor. Responses are consumed
// in call order by both Run and RunQuiet.
type mockExecutor struct {
	calls      []mockCall
	runOutputs [][]byte
	runErrors  []error
	callIndex  int
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{}
}

func (m *mockExecutor) addResponse(output string, err error) *mockExecutor {
	m.runOutputs = append(m.runOutputs, []byte(output))
	m.runErrors = append(m.runErrors, err)
	return m
}

func (m *mockExecutor) next(dir, name string, args []string) ([]byte, error) {
	m.calls = append(m.calls, mockCall{dir: dir, name: name, args: args})
	idx := m.callIndex
	m.callIndex++
	if idx < len(m.runOutputs) {
		return m.runOutputs[idx], m.runErrors[idx]
	}
	return nil, nil
}

func (m *mockExecutor) Run(dir string, name string, args ...string) ([]byte, error) {
	return m.next(dir, name, args)
}

func (m *mockExecutor) RunQuiet(dir string, name string, args ...string) error {
	_, err := m.next(dir, name, args)
	return err
}

func (m *mockExecutor) call(i int) mockCall {
	if i >= len(m.calls) {
		return mockCall{}
	}
	return m.calls[i]
}

func (m *mockExecutor) lastCall() mockCall {
	if len(m.calls) == 0 {
		return mockCall{}
	}
	return m.calls[len(m.calls)-1]
}

func record(hash, short, subject, body, refs string) string {
	return strings.Join([]string{
		hash, short, "Ada", "ada@example.com", "2024-05-01T10:00:00+02:00", refs, subject, body,
	}, fieldSep) + recordSep
}

// -----------------------------------------------------------------------------
// Repository Unit Tests
// -----------------------------------------------------------------------------

func TestParseLog(t *testing.T) {
	output := record("bbbbbbbbbb", "bbbbbbb", "📝🈺: q: job.id.0", "line one\nline two\n", "HEAD -> main") +
		"\n" + record("aaaaaaaaaa", "aaaaaaa", "Initial commit", "", "")

	commits, err := parseLog(output)
	if err != nil {
		t.Fatalf("parseLog() error: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("parseLog() returned %d commits, want 2", len(commits))
	}

	first := commits[0]
	if first.Hash.String() != "bbbbbbbbbb" || first.ShortHash.String() != "bbbbbbb" {
		t.Errorf("hashes = %s/%s", first.Hash, first.ShortHash)
	}
	if first.Subject != "📝🈺: q: job.id.0" {
		t.Errorf("Subject = %q", first.Subject)
	}
	if first.Body != "line one\nline two" {
		t.Errorf("Body = %q", first.Body)
	}
	if first.AuthorName != "Ada" || first.AuthorEmail != "ada@example.com" {
		t.Errorf("author = %s <%s>", first.AuthorName, first.AuthorEmail)
	}
	wantDate := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	if !first.Date.Equal(wantDate) {
		t.Errorf("Date = %v, want %v", first.Date, wantDate)
	}
	if first.Refs != "HEAD -> main" {
		t.Errorf("Refs = %q", first.Refs)
	}

	if commits[1].Subject != "Initial commit" || commits[1].Body != "" {
		t.Errorf("second commit = %+v", commits[1])
	}
}

func TestParseLog_Empty(t *testing.T) {
	commits, err := parseLog("")
	if err != nil {
		t.Fatalf("parseLog() error: %v", err)
	}
	if len(commits) != 0 {
		t.Errorf("parseLog(\"\") returned %d commits", len(commits))
	}
}

func TestParseLog_Malformed(t *testing.T) {
	_, err := parseLog("abc" + fieldSep + "def" + recordSep)
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("parseLog() error = %v, want ErrInvalidInput", err)
	}
}

func TestRepository_Log(t *testing.T) {
	mock := newMockExecutor().
		addResponse("", nil). // rev-parse --verify
		addResponse(record("cccccccccc", "ccccccc", "📝✅: q: job.id.1", "", ""), nil)

	repo := NewRepository("/repo", WithExecutor(mock))
	commits, err := repo.Log(LogOptions{Ref: "main", MaxCount: 50})
	if err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if len(commits) != 1 || commits[0].Hash.String() != "cccccccccc" {
		t.Fatalf("Log() = %+v", commits)
	}

	verify := mock.call(0)
	if got := strings.Join(verify.args, " "); got != "rev-parse --verify --quiet main^{commit}" {
		t.Errorf("verify args = %s", got)
	}

	last := mock.lastCall()
	if last.dir != "/repo" || last.name != "git" {
		t.Errorf("last call = %+v", last)
	}
	args := strings.Join(last.args, " ")
	for _, want := range []string{"log", "--pretty=format:" + logFormat, "--max-count=50", "main --"} {
		if !strings.Contains(args, want) {
			t.Errorf("log args %q missing %q", args, want)
		}
	}
}

func TestRepository_Log_DefaultsToHEADWithoutLimit(t *testing.T) {
	mock := newMockExecutor().addResponse("", nil).addResponse("", nil)

	repo := NewRepository("/repo", WithExecutor(mock))
	if _, err := repo.Log(LogOptions{}); err != nil {
		t.Fatalf("Log() error: %v", err)
	}

	args := strings.Join(mock.lastCall().args, " ")
	if strings.Contains(args, "--max-count") {
		t.Errorf("unexpected --max-count in %q", args)
	}
	if !strings.HasSuffix(args, "HEAD --") {
		t.Errorf("log args %q should end with HEAD --", args)
	}
}

func TestRepository_Log_UnbornHEAD(t *testing.T) {
	mock := newMockExecutor().
		addResponse("", fmt.Errorf("exit status 1")). // rev-parse --verify
		addResponse("/repo/.git\n", nil)              // rev-parse --absolute-git-dir

	repo := NewRepository("/repo", WithExecutor(mock))
	commits, err := repo.Log(LogOptions{})
	if err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if commits == nil || len(commits) != 0 {
		t.Errorf("Log() = %#v, want empty non-nil slice", commits)
	}
}

func TestRepository_Log_UnknownRef(t *testing.T) {
	mock := newMockExecutor().
		addResponse("", fmt.Errorf("exit status 1")).
		addResponse("/repo/.git\n", nil)

	repo := NewRepository("/repo", WithExecutor(mock))
	_, err := repo.Log(LogOptions{Ref: "nope"})

	var gitErr *errors.GitError
	if !errors.As(err, &gitErr) {
		t.Fatalf("Log() error = %v, want GitError", err)
	}
	if gitErr.Ref != "nope" {
		t.Errorf("GitError.Ref = %q", gitErr.Ref)
	}
	if !errors.Is(err, errors.ErrEmptyHistory) {
		t.Errorf("error should wrap ErrEmptyHistory: %v", err)
	}
}

func TestRepository_Log_NotARepository(t *testing.T) {
	mock := newMockExecutor().
		addResponse("", fmt.Errorf("exit status 128")).
		addResponse("fatal: not a git repository", fmt.Errorf("exit status 128"))

	repo := NewRepository("/tmp/x", WithExecutor(mock))
	_, err := repo.Log(LogOptions{})
	if !errors.Is(err, errors.ErrNotGitRepository) {
		t.Fatalf("Log() error = %v, want ErrNotGitRepository", err)
	}

	var gitErr *errors.GitError
	if errors.As(err, &gitErr) && gitErr.GitOutput != "fatal: not a git repository" {
		t.Errorf("GitOutput = %q", gitErr.GitOutput)
	}
}

func TestRepository_Log_CommandFailure(t *testing.T) {
	mock := newMockExecutor().
		addResponse("", nil).
		addResponse("fatal: bad object\n", fmt.Errorf("exit status 128"))

	repo := NewRepository("/repo", WithExecutor(mock))
	_, err := repo.Log(LogOptions{})

	var gitErr *errors.GitError
	if !errors.As(err, &gitErr) {
		t.Fatalf("Log() error = %v, want GitError", err)
	}
	if gitErr.GitOutput != "fatal: bad object" {
		t.Errorf("GitOutput = %q", gitErr.GitOutput)
	}
}

func TestRepository_Commit(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		body     string
		wantArgs string
	}{
		{
			name:     "subject only",
			wantArgs: "commit --allow-empty --only --no-verify -m 📝🈺: q: job.id.0",
		},
		{
			name:     "with body",
			body:     "payload",
			wantArgs: "commit --allow-empty --only --no-verify -m 📝🈺: q: job.id.0 -m payload",
		},
		{
			name:     "signing key",
			opts:     []Option{WithSigningKey(" ABCD1234 ")},
			wantArgs: "commit --allow-empty --only --no-verify -m 📝🈺: q: job.id.0 --gpg-sign=ABCD1234",
		},
		{
			name:     "no gpg sign",
			opts:     []Option{WithNoGPGSign(true)},
			wantArgs: "commit --allow-empty --only --no-verify -m 📝🈺: q: job.id.0 --no-gpg-sign",
		},
		{
			name:     "signing key wins",
			opts:     []Option{WithSigningKey("K"), WithNoGPGSign(true)},
			wantArgs: "commit --allow-empty --only --no-verify -m 📝🈺: q: job.id.0 --gpg-sign=K",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockExecutor().
				addResponse("[main abc1234] ...", nil).
				addResponse("abc1234def\n", nil)

			repo := NewRepository("/repo", append(tt.opts, WithExecutor(mock))...)
			hash, err := repo.Commit("📝🈺: q: job.id.0", tt.body)
			if err != nil {
				t.Fatalf("Commit() error: %v", err)
			}
			if hash.String() != "abc1234def" {
				t.Errorf("Commit() hash = %q", hash)
			}
			if got := strings.Join(mock.call(0).args, " "); got != tt.wantArgs {
				t.Errorf("commit args = %q, want %q", got, tt.wantArgs)
			}
			if got := strings.Join(mock.lastCall().args, " "); got != "rev-parse HEAD" {
				t.Errorf("last args = %q", got)
			}
		})
	}
}

func TestRepository_Commit_Errors(t *testing.T) {
	t.Run("empty subject", func(t *testing.T) {
		mock := newMockExecutor()
		repo := NewRepository("/repo", WithExecutor(mock))
		if _, err := repo.Commit("  ", "body"); !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("Commit() error = %v, want ErrInvalidInput", err)
		}
		if len(mock.calls) != 0 {
			t.Errorf("git should not run, got %d calls", len(mock.calls))
		}
	})

	t.Run("git failure", func(t *testing.T) {
		mock := newMockExecutor().addResponse("error: gpg failed to sign the data\n", fmt.Errorf("exit status 128"))
		repo := NewRepository("/repo", WithExecutor(mock))

		hash, err := repo.Commit("📝🈺: q:", "")
		var gitErr *errors.GitError
		if !errors.As(err, &gitErr) {
			t.Fatalf("Commit() error = %v, want GitError", err)
		}
		if !strings.Contains(gitErr.GitOutput, "gpg failed") {
			t.Errorf("GitOutput = %q", gitErr.GitOutput)
		}
		if !hash.IsNull() {
			t.Errorf("hash = %q, want null", hash)
		}
	})
}

func TestRepository_GitDir(t *testing.T) {
	mock := newMockExecutor().addResponse("/work/repo/.git\n", nil)
	repo := NewRepository("/work/repo", WithExecutor(mock))

	dir, err := repo.GitDir()
	if err != nil {
		t.Fatalf("GitDir() error: %v", err)
	}
	if dir != "/work/repo/.git" {
		t.Errorf("GitDir() = %q", dir)
	}
}

// -----------------------------------------------------------------------------
// Integration Tests (real git)
// -----------------------------------------------------------------------------

func TestRepository_Integration_CommitAndLog(t *testing.T) {
	testutil.SkipIfNoGit(t)

	dir := testutil.SetupTestRepo(t)
	repo := NewRepository(dir, WithNoGPGSign(true))

	first, err := repo.Commit("📝🈺: builds: job.id.0", "build the thing\n\nwith details")
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	second, err := repo.Commit("📝👔: builds: job.id.0 job.ref."+first.String(), "")
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}

	if got := testutil.HeadHash(t, dir); got != second.String() {
		t.Errorf("HEAD = %s, want %s", got, second)
	}

	commits, err := repo.Log(LogOptions{})
	if err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if len(commits) != 3 {
		t.Fatalf("Log() returned %d commits, want 3", len(commits))
	}
	if !commits[0].Hash.Equal(second) || !commits[1].Hash.Equal(first) {
		t.Errorf("Log() order = %s, %s", commits[0].Hash, commits[1].Hash)
	}
	if commits[1].Body != "build the thing\n\nwith details" {
		t.Errorf("Body = %q", commits[1].Body)
	}
	if commits[2].Subject != "Initial commit" {
		t.Errorf("oldest subject = %q", commits[2].Subject)
	}
	if commits[0].AuthorEmail != testutil.AuthorEmail {
		t.Errorf("AuthorEmail = %q", commits[0].AuthorEmail)
	}

	limited, err := repo.Log(LogOptions{MaxCount: 1})
	if err != nil {
		t.Fatalf("Log(MaxCount=1) error: %v", err)
	}
	if len(limited) != 1 || !limited[0].Hash.Equal(second) {
		t.Errorf("Log(MaxCount=1) = %+v", limited)
	}
}

func TestRepository_Integration_CommitLeavesIndexAlone(t *testing.T) {
	testutil.SkipIfNoGit(t)

	dir := testutil.SetupTestRepo(t)
	repo := NewRepository(dir, WithNoGPGSign(true))
	testutil.StageFile(t, dir, "work-in-progress.txt", "not for the queue\n")

	hash, err := repo.Commit("📝🈺: builds: job.id.0", "")
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}

	if files := testutil.ChangedFiles(t, dir, hash.String()); len(files) != 0 {
		t.Errorf("queue commit contains files %v, want none", files)
	}
	staged := testutil.StagedFiles(t, dir)
	if len(staged) != 1 || staged[0] != "work-in-progress.txt" {
		t.Errorf("staged files after Commit() = %v, want [work-in-progress.txt]", staged)
	}
}

func TestRepository_Integration_EmptyRepository(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repo := NewRepository(testutil.SetupEmptyRepo(t))
	commits, err := repo.Log(LogOptions{})
	if err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if len(commits) != 0 {
		t.Errorf("Log() returned %d commits", len(commits))
	}
}

func TestRepository_Integration_NotARepository(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repo := NewRepository(t.TempDir())
	if _, err := repo.Log(LogOptions{}); !errors.Is(err, errors.ErrNotGitRepository) {
		t.Errorf("Log() error = %v, want ErrNotGitRepository", err)
	}
}

func TestRepository_Integration_QueueBranch(t *testing.T) {
	testutil.SkipIfNoGit(t)

	dir := testutil.SetupTestRepo(t)
	repo := NewRepository(dir, WithNoGPGSign(true))

	testutil.CreateBranch(t, dir, "queue")
	testutil.CheckoutBranch(t, dir, "queue")
	queued, err := repo.Commit("📝🈺: builds: job.id.0", "")
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	testutil.CheckoutBranch(t, dir, "-")

	onQueue, err := repo.Log(LogOptions{Ref: "queue"})
	if err != nil {
		t.Fatalf("Log(queue) error: %v", err)
	}
	if len(onQueue) != 2 {
		t.Fatalf("Log(queue) returned %d commits, want 2", len(onQueue))
	}
	if !onQueue[0].Hash.Equal(queued) {
		t.Errorf("Log(queue) newest = %s, want %s", onQueue[0].Hash, queued)
	}

	onHead, err := repo.Log(LogOptions{})
	if err != nil {
		t.Fatalf("Log(HEAD) error: %v", err)
	}
	if len(onHead) != 1 {
		t.Errorf("Log(HEAD) returned %d commits, want 1", len(onHead))
	}
}

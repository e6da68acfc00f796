// Package testutil provides testing utilities for gitqueue tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Identity used for every commit made by the helpers.
const (
	AuthorName  = "Gitqueue Test"
	AuthorEmail = "test@gitqueue.dev"
)

// SetupEmptyRepo creates a temporary git repository with no commits.
// The repository is automatically cleaned up when the test completes.
func SetupEmptyRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	if err := runGit(dir, "init", "--initial-branch=main"); err != nil {
		// Older git versions do not know --initial-branch.
		if err := runGit(dir, "init"); err != nil {
			t.Fatalf("failed to init git repo: %v", err)
		}
		if err := runGit(dir, "symbolic-ref", "HEAD", "refs/heads/main"); err != nil {
			t.Fatalf("failed to point HEAD at main: %v", err)
		}
	}

	// Configure git user for commits, and keep a global commit.gpgsign from
	// prompting for a key.
	for key, value := range map[string]string{
		"user.email":     AuthorEmail,
		"user.name":      AuthorName,
		"commit.gpgsign": "false",
	} {
		if err := runGit(dir, "config", key, value); err != nil {
			t.Fatalf("failed to configure %s: %v", key, err)
		}
	}

	return dir
}

// SetupTestRepo creates a temporary git repository on branch main with a
// single ordinary "Initial commit". Returns the path to the repository.
func SetupTestRepo(t *testing.T) string {
	t.Helper()

	dir := SetupEmptyRepo(t)
	CommitFile(t, dir, "README.md", "# Test Repository\n", "Initial commit")
	return dir
}

// CommitFile creates or updates a file and commits it.
func CommitFile(t *testing.T, repoDir, path, content, message string) {
	t.Helper()

	StageFile(t, repoDir, path, content)
	if err := runGit(repoDir, "commit", "-m", message); err != nil {
		t.Fatalf("failed to commit file %s: %v", path, err)
	}
}

// CommitEmpty records an empty commit with the given subject and optional
// body and returns its full hash. Queue messages are stored this way.
func CommitEmpty(t *testing.T, repoDir, subject, body string) string {
	t.Helper()

	args := []string{"commit", "--allow-empty", "-m", subject}
	if body != "" {
		args = append(args, "-m", body)
	}
	if err := runGit(repoDir, args...); err != nil {
		t.Fatalf("failed to create empty commit %q: %v", subject, err)
	}
	return HeadHash(t, repoDir)
}

// HeadHash returns the full hash HEAD points to.
func HeadHash(t *testing.T, repoDir string) string {
	t.Helper()

	output, err := gitOutput(repoDir, "rev-parse", "HEAD")
	if err != nil {
		t.Fatalf("failed to resolve HEAD: %v", err)
	}
	return strings.TrimSpace(output)
}

// CreateBranch creates a new branch in the repository.
func CreateBranch(t *testing.T, repoDir, branch string) {
	t.Helper()

	if err := runGit(repoDir, "branch", branch); err != nil {
		t.Fatalf("failed to create branch %s: %v", branch, err)
	}
}

// CheckoutBranch switches to the specified branch.
func CheckoutBranch(t *testing.T, repoDir, branch string) {
	t.Helper()

	if err := runGit(repoDir, "checkout", branch); err != nil {
		t.Fatalf("failed to checkout branch %s: %v", branch, err)
	}
}

// GetCommitCount returns the number of commits reachable from HEAD.
func GetCommitCount(t *testing.T, repoDir string) int {
	t.Helper()

	output, err := gitOutput(repoDir, "rev-list", "--count", "HEAD")
	if err != nil {
		t.Fatalf("failed to count commits: %v", err)
	}
	count, err := strconv.Atoi(strings.TrimSpace(output))
	if err != nil {
		t.Fatalf("unexpected commit count %q: %v", output, err)
	}
	return count
}

// StageFile creates or updates a file and adds it to the index without
// committing.
func StageFile(t *testing.T, repoDir, path, content string) {
	t.Helper()

	fullPath := filepath.Join(repoDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	if err := runGit(repoDir, "add", path); err != nil {
		t.Fatalf("failed to stage file %s: %v", path, err)
	}
}

// StagedFiles lists the paths whose index entry differs from HEAD.
func StagedFiles(t *testing.T, repoDir string) []string {
	t.Helper()

	output, err := gitOutput(repoDir, "diff", "--cached", "--name-only")
	if err != nil {
		t.Fatalf("failed to list staged files: %v", err)
	}
	return strings.Fields(output)
}

// ChangedFiles lists the paths a commit changes relative to its parent.
func ChangedFiles(t *testing.T, repoDir, rev string) []string {
	t.Helper()

	output, err := gitOutput(repoDir, "show", "--name-only", "--format=", rev)
	if err != nil {
		t.Fatalf("failed to list files of %s: %v", rev, err)
	}
	return strings.Fields(output)
}

// CommitBody returns the body of the given commit as git stores it.
func CommitBody(t *testing.T, repoDir, rev string) string {
	t.Helper()

	output, err := gitOutput(repoDir, "log", "-1", "--format=%b", rev)
	if err != nil {
		t.Fatalf("failed to read body of %s: %v", rev, err)
	}
	return strings.TrimRight(output, "\n")
}

// SkipIfNoGit skips the test if git is not installed.
func SkipIfNoGit(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH, skipping test")
	}
}

func gitCommand(dir string, args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+AuthorName,
		"GIT_AUTHOR_EMAIL="+AuthorEmail,
		"GIT_COMMITTER_NAME="+AuthorName,
		"GIT_COMMITTER_EMAIL="+AuthorEmail,
	)
	return cmd
}

func runGit(dir string, args ...string) error {
	output, err := gitCommand(dir, args...).CombinedOutput()
	if err != nil {
		return &gitError{args: args, output: output, err: err}
	}
	return nil
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := gitCommand(dir, args...)
	output, err := cmd.Output()
	if err != nil {
		return "", &gitError{args: args, output: output, err: err}
	}
	return string(output), nil
}

type gitError struct {
	args   []string
	output []byte
	err    error
}

func (e *gitError) Error() string {
	return "git " + strings.Join(e.args, " ") + ": " + e.err.Error() + "\n" + string(e.output)
}

func (e *gitError) Unwrap() error {
	return e.err
}

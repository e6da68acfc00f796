package gitlog

import (
	"bytes"
	"os/exec"
)

// CommandExecutor abstracts command execution for testability.
// This allows tests to fake git without a repository on disk.
type CommandExecutor interface {
	// Run executes a command and returns its standard output. When the
	// command fails the returned bytes also include standard error so the
	// caller can attach them to the error.
	Run(dir string, name string, args ...string) ([]byte, error)

	// RunQuiet executes a command and returns only the error.
	RunQuiet(dir string, name string, args ...string) error
}

// CLICommandExecutor executes commands using os/exec.
type CLICommandExecutor struct {
	env []string
}

// NewCLICommandExecutor creates a new CLI command executor. Extra environment
// entries (KEY=value) are appended to the inherited environment.
func NewCLICommandExecutor(env ...string) *CLICommandExecutor {
	return &CLICommandExecutor{env: env}
}

// Run executes a command. Standard error is kept apart from standard output
// on success, since git log output is parsed byte for byte.
func (e *CLICommandExecutor) Run(dir string, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := e.command(dir, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return append(stdout.Bytes(), stderr.Bytes()...), err
	}
	return stdout.Bytes(), nil
}

// RunQuiet executes a command and returns only the error.
func (e *CLICommandExecutor) RunQuiet(dir string, name string, args ...string) error {
	return e.command(dir, name, args...).Run()
}

func (e *CLICommandExecutor) command(dir string, name string, args ...string) *exec.Cmd {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if len(e.env) > 0 {
		cmd.Env = append(cmd.Environ(), e.env...)
	}
	return cmd
}

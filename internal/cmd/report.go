package cmd

import (
	"fmt"
	"io"

	"github.com/Iron-Ham/gitqueue/internal/errors"
)

// Process exit codes.
const (
	ExitOK = 0
	// ExitFailure means the operation was attempted and failed.
	ExitFailure = 1
	// ExitRejected means the request was refused before anything changed:
	// bad flags or arguments, invalid input, or a queue in the wrong state.
	ExitRejected = 2
)

// ReportError writes err to w the way the gitqueue binary shows it and
// returns the exit code for it.
func ReportError(w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}

	fmt.Fprintln(w, "Error:", err)

	// Errors gitqueue did not classify come from flag and argument parsing.
	if !errors.IsUserFacing(err) {
		fmt.Fprintf(w, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
		return ExitRejected
	}
	if errors.IsRetryable(err) {
		fmt.Fprintln(w, "The operation may succeed if retried.")
	}
	if errors.GetSeverity(err) <= errors.SeverityWarning {
		return ExitRejected
	}
	return ExitFailure
}

// Command gitqueue manages job queues stored in git commit history.
package main

import (
	"os"

	"github.com/Iron-Ham/gitqueue/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ReportError(os.Stderr, err))
	}
}

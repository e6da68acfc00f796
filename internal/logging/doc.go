// Package logging provides structured logging for gitqueue.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// persistent context attributes. Reading a queue history never writes to the
// log unless the caller asks for it, so the default everywhere is
// [NopLogger].
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("history loaded", "commits", 120)
//
// # Context Propagation
//
//	queueLogger := logger.WithQueue("build-queue")
//	queueLogger.WithCommit("3f2a9c1").Warn("skipping malformed commit", "error", err)
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"skipping malformed commit","queue":"build-queue","commit":"3f2a9c1","error":"..."}
//
// # Log Levels
//
//   - [LevelDebug]: Detailed information for debugging
//   - [LevelInfo]: General operational information (default)
//   - [LevelWarn]: Warning conditions that may need attention
//   - [LevelError]: Error conditions that affect functionality
//
// Use [ValidLevels] to get the list of valid level strings, and [ParseLevel]
// to normalize user-provided level strings.
package logging

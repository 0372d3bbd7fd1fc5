package mcp

import "log"

// logger is the package-level diagnostic sink. Nil by default: the MCP
// protocol owns stdout, so logging is opt-in and file-backed (see main).
var logger *log.Logger

// SetLogger installs the diagnostic logger for this package.
func SetLogger(l *log.Logger) { logger = l }

// Log writes a diagnostic line if a logger is installed.
func Log(format string, args ...any) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}

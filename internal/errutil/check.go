package errutil

import (
	"log/slog"
)

// LogMsg logs the error with a custom message if it is not nil. Meant for
// recoverable failures on cleanup paths (closing files, writing responses)
// where a warning is the only sensible reaction.
func LogMsg(err error, msg string, args ...any) {
	if err != nil {
		allArgs := append([]any{"error", err}, args...)
		slog.Warn(msg, allArgs...)
	}
}

// ReportError logs an unexpected error through the central reporting funnel.
func ReportError(err error, msg string, args ...any) {
	if err != nil {
		allArgs := append([]any{"error", err}, args...)
		slog.Error(msg, allArgs...)
	}
}

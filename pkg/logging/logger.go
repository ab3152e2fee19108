// Package logging provides the diagnostic logger and the mutation event log.
//
// The two never share a sink: diagnostics go to stderr or --diag-log, while
// the event log records only mutations applied to the destination.
package logging

import (
	"context"
	"strings"
)

// Level is a diagnostic severity; a logger drops messages below its level
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the upper-case name written in log lines
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a --log-level value to a Level, case-insensitively.
// Unrecognised values fall back to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Fields are structured key/value pairs attached to a message
type Fields map[string]interface{}

// Logger is the diagnostic logger used by every package
type Logger interface {
	Debug(ctx context.Context, msg string, fields Fields)
	Info(ctx context.Context, msg string, fields Fields)
	Warn(ctx context.Context, msg string, fields Fields)
	Error(ctx context.Context, msg string, err error, fields Fields)

	// WithFields returns a logger that adds fields to every message
	WithFields(fields Fields) Logger

	// Close flushes and releases the underlying sink
	Close() error
}

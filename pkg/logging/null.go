package logging

import "context"

// NullLogger discards everything. Packages fall back to it when no logger
// is supplied.
type NullLogger struct{}

// NewNullLogger returns a NullLogger
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Debug(ctx context.Context, msg string, fields Fields)            {}
func (l *NullLogger) Info(ctx context.Context, msg string, fields Fields)             {}
func (l *NullLogger) Warn(ctx context.Context, msg string, fields Fields)             {}
func (l *NullLogger) Error(ctx context.Context, msg string, err error, fields Fields) {}

// WithFields returns l; there is nothing to attach fields to
func (l *NullLogger) WithFields(fields Fields) Logger { return l }

// Close is a no-op
func (l *NullLogger) Close() error { return nil }

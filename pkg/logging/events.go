package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sdejongh/syncmirror/pkg/models"
)

// EventLogConfig holds configuration for the mutation event log
type EventLogConfig struct {
	// Path is the append-only event log file (empty = echo only)
	Path string
	// Echo receives a copy of every line (default: stdout; io.Discard to silence)
	Echo io.Writer
	// MaxSizeMB is the size in megabytes before rotation (0 = never rotate)
	MaxSizeMB int
	// MaxBackups is the maximum number of rotated files to keep
	MaxBackups int
	// DryRun prefixes every line to mark mutations that were not applied
	DryRun bool
}

// EventLog records one human-readable line per destination mutation.
// Writes are best-effort: a failed write never fails the mutation.
type EventLog struct {
	mu      sync.Mutex
	file    io.WriteCloser
	echo    io.Writer
	dryRun  bool
	onError func(error)
	failed  bool
}

// NewEventLog opens the event log for appending
func NewEventLog(config EventLogConfig) (*EventLog, error) {
	var file io.WriteCloser = nopCloser{io.Discard}
	if config.Path != "" {
		var err error
		file, err = openAppend(config.Path, config.MaxSizeMB, config.MaxBackups)
		if err != nil {
			return nil, err
		}
	}

	echo := config.Echo
	if echo == nil {
		echo = os.Stdout
	}

	return &EventLog{
		file:   file,
		echo:   echo,
		dryRun: config.DryRun,
	}, nil
}

// OnWriteError sets a callback invoked the first time a log write fails
func (l *EventLog) OnWriteError(fn func(error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onError = fn
}

// Record writes the line for an event to the log file and the echo writer
func (l *EventLog) Record(ev models.Event) {
	line := FormatEvent(ev)
	if l.dryRun {
		line = "[dry-run] " + line
	}
	line += "\n"

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := io.WriteString(l.file, line); err != nil && !l.failed {
		l.failed = true
		if l.onError != nil {
			l.onError(fmt.Errorf("failed to write event log: %w", err))
		}
	}
	io.WriteString(l.echo, line)
}

// Close closes the log file
func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// FormatEvent renders an event as a log line without the trailing newline
func FormatEvent(ev models.Event) string {
	msg := fmt.Sprintf("File/Directory '%s' was ", ev.Path)
	switch ev.Mutation {
	case models.MutationRemove:
		msg += fmt.Sprintf("removed from '%s'", ev.DestDir)
	case models.MutationCopy:
		msg += fmt.Sprintf("copied from '%s' to '%s'", ev.SourceDir, ev.DestDir)
	case models.MutationCreate:
		msg += fmt.Sprintf("created in '%s'", ev.DestDir)
	case models.MutationRename:
		msg += fmt.Sprintf("renamed in '%s'", ev.DestDir)
	default:
		msg += fmt.Sprintf("changed (%s) in '%s'", ev.Mutation, ev.DestDir)
	}
	return msg
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

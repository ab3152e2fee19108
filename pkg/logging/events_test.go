package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdejongh/syncmirror/pkg/models"
)

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   models.Event
		want string
	}{
		{
			"Remove",
			models.Event{Mutation: models.MutationRemove, Path: "/dst/old.txt", DestDir: "/dst"},
			"File/Directory '/dst/old.txt' was removed from '/dst'",
		},
		{
			"Copy",
			models.Event{Mutation: models.MutationCopy, Path: "/src/a.txt", SourceDir: "/src", DestDir: "/dst"},
			"File/Directory '/src/a.txt' was copied from '/src' to '/dst'",
		},
		{
			"Create",
			models.Event{Mutation: models.MutationCreate, Path: "/dst", DestDir: "/"},
			"File/Directory '/dst' was created in '/'",
		},
		{
			"Rename",
			models.Event{Mutation: models.MutationRename, Path: "/dst/old.txt", NewPath: "/dst/new.txt", DestDir: "/dst"},
			"File/Directory '/dst/old.txt' was renamed in '/dst'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatEvent(tt.ev); got != tt.want {
				t.Errorf("FormatEvent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventLog_AppendsAndEchoes(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "mirror.log")
	if err := os.WriteFile(logPath, []byte("previous line\n"), 0644); err != nil {
		t.Fatalf("failed to seed log: %v", err)
	}

	var echo bytes.Buffer
	log, err := NewEventLog(EventLogConfig{Path: logPath, Echo: &echo})
	if err != nil {
		t.Fatalf("NewEventLog() error = %v", err)
	}

	log.Record(models.Event{Mutation: models.MutationRemove, Path: "/dst/x", DestDir: "/dst"})
	log.Record(models.Event{Mutation: models.MutationRename, Path: "/dst/y", DestDir: "/dst"})
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, _ := os.ReadFile(logPath)
	want := "previous line\n" +
		"File/Directory '/dst/x' was removed from '/dst'\n" +
		"File/Directory '/dst/y' was renamed in '/dst'\n"
	if string(content) != want {
		t.Errorf("log file = %q, want %q", content, want)
	}
	if echo.String() != strings.TrimPrefix(want, "previous line\n") {
		t.Errorf("echo = %q", echo.String())
	}
}

func TestEventLog_DryRunPrefix(t *testing.T) {
	var echo bytes.Buffer
	log, err := NewEventLog(EventLogConfig{Path: filepath.Join(t.TempDir(), "mirror.log"), Echo: &echo, DryRun: true})
	if err != nil {
		t.Fatalf("NewEventLog() error = %v", err)
	}
	defer log.Close()

	log.Record(models.Event{Mutation: models.MutationCopy, Path: "/src/a", SourceDir: "/src", DestDir: "/dst"})
	if !strings.HasPrefix(echo.String(), "[dry-run] File/Directory '/src/a'") {
		t.Errorf("echo = %q", echo.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }
func (failingWriter) Close() error                { return nil }

func TestEventLog_WriteFailureIsNotFatal(t *testing.T) {
	var echo bytes.Buffer
	log := &EventLog{file: failingWriter{}, echo: &echo}

	var reported []error
	log.OnWriteError(func(err error) { reported = append(reported, err) })

	ev := models.Event{Mutation: models.MutationRemove, Path: "/dst/x", DestDir: "/dst"}
	log.Record(ev)
	log.Record(ev)

	if len(reported) != 1 {
		t.Errorf("write failure reported %d times, want once", len(reported))
	}
	if strings.Count(echo.String(), "\n") != 2 {
		t.Errorf("echo must still receive every line: %q", echo.String())
	}
}

func TestNewEventLog_BadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatalf("failed to create blocker: %v", err)
	}

	if _, err := NewEventLog(EventLogConfig{Path: filepath.Join(blocker, "mirror.log")}); err == nil {
		t.Error("NewEventLog() should fail when the log directory cannot be created")
	}
}

func TestEventLog_EchoOnly(t *testing.T) {
	var echo bytes.Buffer
	log, err := NewEventLog(EventLogConfig{Echo: &echo})
	if err != nil {
		t.Fatalf("NewEventLog() error = %v", err)
	}

	log.Record(models.Event{Mutation: models.MutationRemove, Path: "/dst/x", DestDir: "/dst"})
	if err := log.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if echo.String() != "File/Directory '/dst/x' was removed from '/dst'\n" {
		t.Errorf("echo = %q", echo.String())
	}
}

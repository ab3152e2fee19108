package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/syncmirror/pkg/models"
)

func sampleReport() *models.PassReport {
	return &models.PassReport{
		PassID:     "4f1c",
		Sequence:   2,
		SourcePath: "/src",
		DestPath:   "/dst",
		Duration:   1500 * time.Millisecond,
		Usage:      &models.Usage{SourceBytes: 2048, DestBytes: 1024, FreeBytes: 1 << 30},
		Stats: models.Statistics{
			DirsCompared:   3,
			FilesCompared:  5,
			FilesPatched:   1,
			EntriesCopied:  1,
			EntriesRenamed: 1,
			BytesCopied:    10,
			BytesPatched:   42,
		},
		Events: []models.Event{
			{Mutation: models.MutationCopy, Kind: models.KindFile, Path: "/src/a", SourceDir: "/src", DestDir: "/dst", Patched: true, Bytes: 42},
			{Mutation: models.MutationRename, Kind: models.KindFile, Path: "/dst/old", NewPath: "/dst/new", DestDir: "/dst"},
			{Mutation: models.MutationCopy, Kind: models.KindFile, Path: "/src/b", SourceDir: "/src", DestDir: "/dst", Bytes: 10},
		},
		Status: models.StatusSuccess,
	}
}

func TestHumanFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewHumanFormatter()
	report := sampleReport()

	f.Start(&buf, report)
	f.Progress(ProgressUpdate{Type: "file_error", FilePath: "x", Error: errors.New("boom")})
	f.Complete(report)
	f.Idle(time.Minute)

	out := buf.String()
	for _, want := range []string{
		"Pass #2 started: source 2.0 KiB, destination 1.0 KiB, 1.0 GiB free",
		"Destination mirrored, next pass in 1m0s",
		"✗ x: boom",
		"Pass #2 success in 1.5s",
		"Patched:   1 files (42 B of patches)",
		"Renamed:   1 entries",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHumanFormatter_Refused(t *testing.T) {
	var buf bytes.Buffer
	f := NewHumanFormatter()
	f.Start(&buf, &models.PassReport{Sequence: 1})
	f.Complete(&models.PassReport{
		Sequence: 1,
		Status:   models.StatusRefused,
		Err:      &models.ResourceExhaustionError{Path: "/dst", Free: 1, Required: 2},
	})

	if !strings.Contains(buf.String(), "Pass #1 refused: not enough free space") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter()
	report := sampleReport()
	report.Err = errors.New("partial")

	f.Start(&buf, report)
	if err := f.Complete(report); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	var data JSONReportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if data.Type != "pass" || data.Sequence != 2 || data.Status != "success" {
		t.Errorf("data = %+v", data)
	}
	if data.Usage == nil || data.Usage.RequiredBytes != 3072 {
		t.Errorf("usage = %+v", data.Usage)
	}
	if len(data.Events) != 3 || data.Events[1].NewPath != "/dst/new" || !data.Events[0].Patched {
		t.Errorf("events = %+v", data.Events)
	}
	if data.Error != "partial" {
		t.Errorf("error = %q", data.Error)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Error("a pass summary must be a single line")
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		format   string
		progress bool
		want     string
	}{
		{"json", true, "json"},
		{"human", false, "human"},
		// a buffer is never a terminal
		{"human", true, "human"},
	}

	for _, tt := range tests {
		if got := New(tt.format, tt.progress, &buf).Name(); got != tt.want {
			t.Errorf("New(%q, %v) = %s, want %s", tt.format, tt.progress, got, tt.want)
		}
	}
}

func TestProgressFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewProgressFormatter()
	f.Start(&buf, &models.PassReport{Sequence: 1})

	f.Progress(ProgressUpdate{Type: "file_start", FilePath: "dir/big.bin", TotalBytes: 100})
	f.Progress(ProgressUpdate{Type: "file_progress", FilePath: "dir/big.bin", BytesWritten: 50, TotalBytes: 100})
	f.Progress(ProgressUpdate{Type: "file_complete", FilePath: "dir/big.bin", BytesWritten: 100, TotalBytes: 100})

	if len(f.bars) != 0 {
		t.Errorf("%d bars still active after completion", len(f.bars))
	}
	if !strings.Contains(buf.String(), "big.bin") {
		t.Errorf("bar output missing file name: %q", buf.String())
	}
}

func TestWritePassReport(t *testing.T) {
	dir := t.TempDir()

	t.Run("Human", func(t *testing.T) {
		path := filepath.Join(dir, "report.txt")
		if err := WritePassReport(sampleReport(), path, "human"); err != nil {
			t.Fatalf("WritePassReport() error = %v", err)
		}
		content, _ := os.ReadFile(path)
		for _, want := range []string{
			"Mutations: 3",
			"[copy] file /src/a (patched, 42 B)",
			"[rename] file /dst/old -> /dst/new",
		} {
			if !strings.Contains(string(content), want) {
				t.Errorf("report missing %q:\n%s", want, content)
			}
		}
	})

	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(dir, "report.json")
		if err := WritePassReport(sampleReport(), path, "json"); err != nil {
			t.Fatalf("WritePassReport() error = %v", err)
		}
		content, _ := os.ReadFile(path)
		var data JSONReportData
		if err := json.Unmarshal(content, &data); err != nil {
			t.Fatalf("report is not JSON: %v", err)
		}
		if len(data.Events) != 3 {
			t.Errorf("events = %d, want 3", len(data.Events))
		}
	})

	t.Run("NoMutations", func(t *testing.T) {
		path := filepath.Join(dir, "empty.txt")
		report := sampleReport()
		report.Events = nil
		if err := WritePassReport(report, path, "human"); err != nil {
			t.Fatalf("WritePassReport() error = %v", err)
		}
		content, _ := os.ReadFile(path)
		if !strings.Contains(string(content), "No mutations") {
			t.Errorf("report = %s", content)
		}
	})
}

package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sdejongh/syncmirror/pkg/models"
)

// JSONFormatter writes one JSON object per pass, for automation and scripting
type JSONFormatter struct {
	writer io.Writer
}

// JSONReportData represents a pass summary
type JSONReportData struct {
	Type       string          `json:"type"`
	PassID     string          `json:"pass_id,omitempty"`
	Sequence   int             `json:"sequence"`
	Source     string          `json:"source,omitempty"`
	Dest       string          `json:"dest,omitempty"`
	DryRun     bool            `json:"dry_run,omitempty"`
	Status     string          `json:"status"`
	Duration   string          `json:"duration"`
	DurationMs int64           `json:"duration_ms"`
	Usage      *JSONUsageData  `json:"usage,omitempty"`
	Stats      JSONStatsData   `json:"stats"`
	Events     []JSONEventData `json:"events,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// JSONUsageData represents the resource guard measurements
type JSONUsageData struct {
	SourceBytes   int64 `json:"source_bytes"`
	DestBytes     int64 `json:"dest_bytes"`
	FreeBytes     int64 `json:"free_bytes"`
	RequiredBytes int64 `json:"required_bytes"`
}

// JSONStatsData represents pass statistics
type JSONStatsData struct {
	DirsCompared   int   `json:"dirs_compared"`
	FilesCompared  int   `json:"files_compared"`
	FilesDigested  int   `json:"files_digested"`
	FilesUnchanged int   `json:"files_unchanged"`
	FilesPatched   int   `json:"files_patched"`
	EntriesCopied  int   `json:"entries_copied"`
	EntriesRenamed int   `json:"entries_renamed"`
	EntriesRemoved int   `json:"entries_removed"`
	BytesCopied    int64 `json:"bytes_copied"`
	BytesPatched   int64 `json:"bytes_patched"`
}

// JSONEventData represents one mutation
type JSONEventData struct {
	Mutation  string    `json:"mutation"`
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	NewPath   string    `json:"new_path,omitempty"`
	SourceDir string    `json:"source_dir,omitempty"`
	DestDir   string    `json:"dest_dir"`
	Patched   bool      `json:"patched,omitempty"`
	Bytes     int64     `json:"bytes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Start records the writer; nothing is emitted until the pass completes
func (f *JSONFormatter) Start(writer io.Writer, report *models.PassReport) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	return nil
}

// Progress is not emitted to keep the output parseable
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Complete writes the pass summary as a single JSON line
func (f *JSONFormatter) Complete(report *models.PassReport) error {
	if f.writer == nil {
		f.writer = os.Stdout
	}
	return json.NewEncoder(f.writer).Encode(NewJSONReport(report))
}

// Idle writes nothing; JSON output carries one object per pass
func (f *JSONFormatter) Idle(next time.Duration) error {
	return nil
}

// Error writes an error object
func (f *JSONFormatter) Error(err error) error {
	if f.writer == nil {
		f.writer = os.Stdout
	}
	return json.NewEncoder(f.writer).Encode(map[string]string{
		"type":  "error",
		"error": err.Error(),
	})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

// NewJSONReport converts a pass report to its JSON representation
func NewJSONReport(report *models.PassReport) JSONReportData {
	data := JSONReportData{
		Type:       "pass",
		PassID:     report.PassID,
		Sequence:   report.Sequence,
		Source:     report.SourcePath,
		Dest:       report.DestPath,
		DryRun:     report.DryRun,
		Status:     string(report.Status),
		Duration:   report.Duration.Round(time.Millisecond).String(),
		DurationMs: report.Duration.Milliseconds(),
		Stats: JSONStatsData{
			DirsCompared:   report.Stats.DirsCompared,
			FilesCompared:  report.Stats.FilesCompared,
			FilesDigested:  report.Stats.FilesDigested,
			FilesUnchanged: report.Stats.FilesUnchanged,
			FilesPatched:   report.Stats.FilesPatched,
			EntriesCopied:  report.Stats.EntriesCopied,
			EntriesRenamed: report.Stats.EntriesRenamed,
			EntriesRemoved: report.Stats.EntriesRemoved,
			BytesCopied:    report.Stats.BytesCopied,
			BytesPatched:   report.Stats.BytesPatched,
		},
	}

	if report.Usage != nil {
		data.Usage = &JSONUsageData{
			SourceBytes:   report.Usage.SourceBytes,
			DestBytes:     report.Usage.DestBytes,
			FreeBytes:     report.Usage.FreeBytes,
			RequiredBytes: report.Usage.Required(),
		}
	}
	if report.Err != nil {
		data.Error = report.Err.Error()
	}

	for _, ev := range report.Events {
		data.Events = append(data.Events, JSONEventData{
			Mutation:  string(ev.Mutation),
			Kind:      string(ev.Kind),
			Path:      ev.Path,
			NewPath:   ev.NewPath,
			SourceDir: ev.SourceDir,
			DestDir:   ev.DestDir,
			Patched:   ev.Patched,
			Bytes:     ev.Bytes,
			Timestamp: ev.Timestamp,
		})
	}

	return data
}

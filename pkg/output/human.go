package output

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/syncmirror/pkg/models"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer io.Writer
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Start announces the pass
func (f *HumanFormatter) Start(writer io.Writer, report *models.PassReport) error {
	f.writer = writer
	if writer == nil {
		return nil
	}

	fmt.Fprintf(writer, "Pass #%d started", report.Sequence)
	if report.Usage != nil {
		fmt.Fprintf(writer, ": source %s, destination %s, %s free",
			formatBytes(report.Usage.SourceBytes),
			formatBytes(report.Usage.DestBytes),
			formatBytes(report.Usage.FreeBytes))
	}
	fmt.Fprintln(writer)
	return nil
}

// Progress reports copy failures; mutation lines come from the event log
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	if f.writer == nil {
		return nil
	}

	if update.Type == "file_error" {
		fmt.Fprintf(f.writer, "✗ %s: %v\n", update.FilePath, update.Error)
	}
	return nil
}

// Complete displays the pass summary
func (f *HumanFormatter) Complete(report *models.PassReport) error {
	if f.writer == nil {
		f.writer = io.Discard
	}
	w := f.writer

	if report.Status == models.StatusRefused {
		fmt.Fprintf(w, "Pass #%d refused: %v\n", report.Sequence, report.Err)
		return nil
	}

	label := "Pass"
	if report.DryRun {
		label = "Dry-run pass"
	}
	fmt.Fprintf(w, "%s #%d %s in %s\n", label, report.Sequence, report.Status, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Compared:  %d dirs, %d files (%d digested, %d unchanged)\n",
		report.Stats.DirsCompared, report.Stats.FilesCompared,
		report.Stats.FilesDigested, report.Stats.FilesUnchanged)
	fmt.Fprintf(w, "  Patched:   %d files (%s of patches)\n",
		report.Stats.FilesPatched, formatBytes(report.Stats.BytesPatched))
	fmt.Fprintf(w, "  Copied:    %d entries (%s)\n",
		report.Stats.EntriesCopied, formatBytes(report.Stats.BytesCopied))
	fmt.Fprintf(w, "  Renamed:   %d entries\n", report.Stats.EntriesRenamed)
	fmt.Fprintf(w, "  Removed:   %d entries\n", report.Stats.EntriesRemoved)

	if report.Err != nil {
		fmt.Fprintf(w, "  Error:     %v\n", report.Err)
	}
	return nil
}

// Idle announces when the next pass starts
func (f *HumanFormatter) Idle(next time.Duration) error {
	if f.writer == nil {
		return nil
	}
	fmt.Fprintf(f.writer, "Destination mirrored, next pass in %s\n", next)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

// formatBytes formats bytes in IEC units
func formatBytes(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

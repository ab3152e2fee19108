package output

import (
	"io"
	"time"

	"github.com/sdejongh/syncmirror/pkg/models"
)

// ProgressUpdate represents a progress notification during a pass
type ProgressUpdate struct {
	Type         string // "file_start", "file_progress", "file_complete", "file_error"
	FilePath     string
	BytesWritten int64
	TotalBytes   int64
	Error        error
}

// Formatter defines the interface for per-pass output
// Implementations include human-readable and JSON formatters
type Formatter interface {
	// Start announces a pass; report carries its ID, sequence and space usage
	Start(writer io.Writer, report *models.PassReport) error

	// Progress reports whole-file copy progress
	Progress(update ProgressUpdate) error

	// Complete displays the pass summary
	Complete(report *models.PassReport) error

	// Idle announces the wait before the next scheduled pass
	Idle(next time.Duration) error

	// Error reports an error outside of a pass
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

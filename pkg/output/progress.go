package output

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/syncmirror/pkg/models"
)

// ProgressFormatter is a human formatter that draws a progress bar for
// every whole-file copy
type ProgressFormatter struct {
	*HumanFormatter

	mu     sync.Mutex
	writer io.Writer
	bars   map[string]*pb.ProgressBar
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{
		HumanFormatter: NewHumanFormatter(),
		bars:           make(map[string]*pb.ProgressBar),
	}
}

// Start announces the pass
func (f *ProgressFormatter) Start(writer io.Writer, report *models.PassReport) error {
	f.mu.Lock()
	f.writer = writer
	f.mu.Unlock()
	return f.HumanFormatter.Start(writer, report)
}

// Progress drives the bar of the file being copied
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		return nil
	}

	switch update.Type {
	case "file_start":
		bar := pb.New64(update.TotalBytes)
		bar.SetTemplate(pb.Full)
		bar.SetWriter(f.writer)
		bar.Set(pb.Bytes, true)
		bar.Set("prefix", filepath.Base(update.FilePath))
		f.bars[update.FilePath] = bar.Start()

	case "file_progress":
		if bar, ok := f.bars[update.FilePath]; ok {
			bar.SetCurrent(update.BytesWritten)
		}

	case "file_complete":
		if bar, ok := f.bars[update.FilePath]; ok {
			bar.SetCurrent(update.BytesWritten)
			bar.Finish()
			delete(f.bars, update.FilePath)
		}

	case "file_error":
		if bar, ok := f.bars[update.FilePath]; ok {
			bar.Finish()
			delete(f.bars, update.FilePath)
		}
		return f.HumanFormatter.Progress(update)
	}

	return nil
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// New returns the formatter for a format name. Progress bars are only drawn
// for the human format on a terminal.
func New(format string, progress bool, writer io.Writer) Formatter {
	switch format {
	case "json":
		return NewJSONFormatter()
	default:
		if progress && IsTerminal(writer) {
			return NewProgressFormatter()
		}
		return NewHumanFormatter()
	}
}

package mirror

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/sdejongh/syncmirror/pkg/models"
	"github.com/sdejongh/syncmirror/pkg/output"
	"github.com/sdejongh/syncmirror/pkg/ratelimit"
	"github.com/sdejongh/syncmirror/pkg/storage"
)

// progressReader wraps an io.Reader to report progress and observe cancellation
type progressReader struct {
	ctx            context.Context
	reader         io.Reader
	read           int64
	lastReported   int64
	lastReportTime time.Time
	onProgress     func(bytesRead int64)
}

// Progress reporting thresholds
const (
	progressReportInterval = 50 * time.Millisecond
	progressReportBytes    = 64 * 1024
)

func (pr *progressReader) Read(p []byte) (int, error) {
	if err := pr.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.read += int64(n)

		if pr.onProgress != nil {
			if pr.read-pr.lastReported >= progressReportBytes ||
				time.Since(pr.lastReportTime) >= progressReportInterval ||
				err != nil {
				pr.onProgress(pr.read)
				pr.lastReported = pr.read
				pr.lastReportTime = time.Now()
			}
		}
	}
	return n, err
}

// copyFile writes the source file at srcRel to dstRel, replacing any existing file
func (e *Engine) copyFile(ctx context.Context, srcRel, dstRel string, info storage.FileInfo) (int64, error) {
	reader, err := e.source.Read(ctx, srcRel)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	e.progress(output.ProgressUpdate{Type: "file_start", FilePath: srcRel, TotalBytes: info.Size})

	pr := &progressReader{
		ctx:            ctx,
		reader:         ratelimit.NewReader(ctx, reader, e.options.Limiter),
		lastReportTime: time.Now(),
		onProgress: func(bytesRead int64) {
			e.progress(output.ProgressUpdate{
				Type:         "file_progress",
				FilePath:     srcRel,
				BytesWritten: bytesRead,
				TotalBytes:   info.Size,
			})
		},
	}

	if err := e.dest.Write(ctx, dstRel, pr, info.Size, &info); err != nil {
		e.progress(output.ProgressUpdate{Type: "file_error", FilePath: srcRel, Error: err})
		return 0, err
	}

	e.progress(output.ProgressUpdate{
		Type:         "file_complete",
		FilePath:     srcRel,
		BytesWritten: info.Size,
		TotalBytes:   info.Size,
	})
	return info.Size, nil
}

// copyEntry copies one source entry of any kind to dstRel and returns the bytes written
func (e *Engine) copyEntry(ctx context.Context, srcRel, dstRel string, info storage.FileInfo) (int64, error) {
	switch info.Kind {
	case models.KindDir:
		return e.copyTree(ctx, srcRel, dstRel)
	case models.KindSymlink:
		return 0, e.dest.Symlink(ctx, info.LinkTarget, dstRel)
	default:
		return e.copyFile(ctx, srcRel, dstRel, info)
	}
}

// copyTree recreates the source directory at dstRel. Symlinks are recreated,
// never followed, and excluded entries are left out.
func (e *Engine) copyTree(ctx context.Context, srcRel, dstRel string) (int64, error) {
	type dirPair struct{ src, dst string }

	var total int64
	stack := []dirPair{{src: srcRel, dst: dstRel}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := e.dest.MkdirAll(ctx, cur.dst); err != nil {
			return total, err
		}

		entries, err := e.comparator.Source(ctx, cur.src)
		if err != nil {
			return total, err
		}

		for _, fi := range entries {
			src := filepath.Join(cur.src, fi.Name)
			dst := filepath.Join(cur.dst, fi.Name)

			if fi.Kind == models.KindDir {
				stack = append(stack, dirPair{src: src, dst: dst})
				continue
			}

			n, err := e.copyEntry(ctx, src, dst, fi)
			total += n
			if err != nil {
				return total, err
			}
		}
	}

	return total, nil
}

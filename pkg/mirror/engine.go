// Package mirror reconciles a destination tree against a source tree in a
// single pass: modified files are patched in place, renamed entries are
// renamed instead of being removed and copied again, and everything else is
// removed or copied so the destination converges to the source.
package mirror

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/syncmirror/pkg/compare"
	"github.com/sdejongh/syncmirror/pkg/delta"
	"github.com/sdejongh/syncmirror/pkg/digest"
	"github.com/sdejongh/syncmirror/pkg/logging"
	"github.com/sdejongh/syncmirror/pkg/models"
	"github.com/sdejongh/syncmirror/pkg/output"
	"github.com/sdejongh/syncmirror/pkg/ratelimit"
	"github.com/sdejongh/syncmirror/pkg/storage"
)

// EventRecorder receives one call per destination mutation
type EventRecorder interface {
	Record(ev models.Event)
}

// Options configures an Engine
type Options struct {
	// DryRun reports the mutations a pass would apply without applying them
	DryRun bool

	// PatchMaxBytes is the largest file patched in place; bigger modified
	// files are copied whole. Zero patches every file.
	PatchMaxBytes int64

	// Limiter caps the throughput of file copies (optional)
	Limiter *ratelimit.Limiter

	// DirMatcher decides directory renames (default: TotalSize)
	DirMatcher DirMatcher

	// Events receives mutation events (optional)
	Events EventRecorder

	// Formatter receives copy progress (optional)
	Formatter output.Formatter

	// Logger receives diagnostics (optional)
	Logger logging.Logger
}

// Engine runs reconciliation passes
type Engine struct {
	source     storage.Backend
	dest       storage.Backend
	comparator *compare.Comparator
	digests    digest.Provider
	patcher    *delta.Patcher
	matcher    DirMatcher
	events     EventRecorder
	formatter  output.Formatter
	logger     logging.Logger
	options    Options
}

// New creates a reconciliation engine
func New(
	source, dest storage.Backend,
	comparator *compare.Comparator,
	digests digest.Provider,
	patcher *delta.Patcher,
	options Options,
) *Engine {
	e := &Engine{
		source:     source,
		dest:       dest,
		comparator: comparator,
		digests:    digests,
		patcher:    patcher,
		matcher:    options.DirMatcher,
		events:     options.Events,
		formatter:  options.Formatter,
		logger:     options.Logger,
		options:    options,
	}
	if e.matcher == nil {
		e.matcher = TotalSize{}
	}
	if e.logger == nil {
		e.logger = logging.NewNullLogger()
	}
	return e
}

// pass holds the state of one reconciliation pass
type pass struct {
	*Engine
	report *models.PassReport
	logger logging.Logger
	stack  worklist
}

// Pass reconciles the whole destination tree once. The first IO or mutation
// error aborts the pass; mutations already applied are kept.
func (e *Engine) Pass(ctx context.Context) (*models.PassReport, error) {
	report := &models.PassReport{
		PassID:     uuid.New().String(),
		SourcePath: e.source.Root(),
		DestPath:   e.dest.Root(),
		DryRun:     e.options.DryRun,
		StartTime:  time.Now(),
		Status:     models.StatusSuccess,
	}

	p := &pass{
		Engine: e,
		report: report,
		logger: e.logger.WithFields(logging.Fields{"pass_id": report.PassID}),
	}

	p.logger.Info(ctx, "Starting reconciliation pass", logging.Fields{
		"source":  report.SourcePath,
		"dest":    report.DestPath,
		"dry_run": report.DryRun,
	})

	err := p.run(ctx)

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	if err != nil {
		report.Err = err
		report.Status = models.StatusAborted
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			report.Status = models.StatusCancelled
		}
		p.logger.Error(ctx, "Reconciliation pass aborted", err, logging.Fields{
			"mutations": report.Stats.Mutations(),
		})
		return report, err
	}

	p.logger.Info(ctx, "Reconciliation pass completed", logging.Fields{
		"mutations": report.Stats.Mutations(),
		"duration":  report.Duration.String(),
	})
	return report, nil
}

func (p *pass) run(ctx context.Context) error {
	p.stack.Push(Task{SourceDir: ".", DestDir: "."})

	for p.stack.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		task := p.stack.Pop()
		if task.Snapshot == nil {
			snap, err := p.comparator.Compare(ctx, task.SourceDir, task.DestDir)
			if err != nil {
				return err
			}
			task.Snapshot = snap
		}
		p.report.Stats.DirsCompared++

		if err := p.reconcileCommon(ctx, task); err != nil {
			return err
		}
		eligible, err := p.reconcileDestOnly(ctx, task)
		if err != nil {
			return err
		}
		if err := p.createSourceOnly(ctx, task, eligible); err != nil {
			return err
		}
	}

	return nil
}

// reconcileCommon patches modified files, relinks changed symlinks and
// queues common subdirectories.
func (p *pass) reconcileCommon(ctx context.Context, task Task) error {
	for _, pair := range task.Snapshot.Common {
		srcRel := filepath.Join(task.SourceDir, pair.Name)
		dstRel := filepath.Join(task.DestDir, pair.Name)

		switch pair.Kind() {
		case models.KindDir:
			p.stack.Push(Task{SourceDir: srcRel, DestDir: dstRel})

		case models.KindSymlink:
			if pair.Source.LinkTarget == pair.Dest.LinkTarget {
				continue
			}
			if !p.options.DryRun {
				if err := p.dest.Remove(ctx, dstRel); err != nil {
					return err
				}
				if err := p.dest.Symlink(ctx, pair.Source.LinkTarget, dstRel); err != nil {
					return err
				}
			}
			p.report.Stats.EntriesCopied++
			p.record(ctx, p.copyEvent(task, pair.Source, 0))

		case models.KindFile:
			if err := p.reconcileFile(ctx, task, pair, srcRel, dstRel); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *pass) reconcileFile(ctx context.Context, task Task, pair compare.Pair, srcRel, dstRel string) error {
	p.report.Stats.FilesCompared++

	res, err := digest.Equal(ctx, p.digests,
		digest.Side{Backend: p.source, Path: srcRel, Size: pair.Source.Size},
		digest.Side{Backend: p.dest, Path: dstRel, Size: pair.Dest.Size},
	)
	if err != nil {
		return err
	}
	if res.Digested {
		p.report.Stats.FilesDigested++
	}
	if res.Same {
		p.report.Stats.FilesUnchanged++
		return nil
	}

	p.logger.Debug(ctx, "File modified", logging.Fields{"path": srcRel, "reason": res.Reason})

	limit := p.options.PatchMaxBytes
	if limit > 0 && (pair.Source.Size > limit || pair.Dest.Size > limit) {
		var n int64
		if !p.options.DryRun {
			n, err = p.copyFile(ctx, srcRel, dstRel, pair.Source)
			if err != nil {
				return err
			}
		}
		p.report.Stats.EntriesCopied++
		p.report.Stats.BytesCopied += n
		p.record(ctx, p.copyEvent(task, pair.Source, n))
		return nil
	}

	var n int64
	if !p.options.DryRun {
		n, err = p.patcher.Patch(ctx, p.source.Path(srcRel), p.dest.Path(dstRel))
		if err != nil {
			return err
		}
	}
	p.report.Stats.FilesPatched++
	p.report.Stats.BytesPatched += n

	ev := p.copyEvent(task, pair.Source, n)
	ev.Patched = true
	p.record(ctx, ev)
	return nil
}

// reconcileDestOnly renames destination-only entries that match a source-only
// entry and removes the rest. It returns the mask of source-only entries not
// consumed by a rename.
func (p *pass) reconcileDestOnly(ctx context.Context, task Task) ([]bool, error) {
	snap := task.Snapshot

	eligible := make([]bool, len(snap.SourceOnly))
	for i := range eligible {
		eligible[i] = true
	}
	fps := newFingerprints(p.matcher)

	for _, r := range snap.DestOnly {
		dstRel := filepath.Join(task.DestDir, r.Name)

		match := -1
		for i, s := range snap.SourceOnly {
			// a conflicted name is still occupied in the destination
			if !eligible[i] || snap.Conflicted[s.Name] || s.Kind != r.Kind {
				continue
			}
			same, err := p.sameContent(ctx, fps, filepath.Join(task.SourceDir, s.Name), s, dstRel, r)
			if err != nil {
				return nil, err
			}
			if same {
				match = i
				break
			}
		}

		if match < 0 {
			if err := p.remove(ctx, task, r, dstRel); err != nil {
				return nil, err
			}
			continue
		}

		s := snap.SourceOnly[match]
		eligible[match] = false
		newRel := filepath.Join(task.DestDir, s.Name)

		if !p.options.DryRun {
			if err := p.dest.Rename(ctx, dstRel, newRel); err != nil {
				return nil, err
			}
		}
		p.report.Stats.EntriesRenamed++
		p.record(ctx, models.Event{
			Mutation:  models.MutationRename,
			Path:      p.dest.Path(dstRel),
			NewPath:   p.dest.Path(newRel),
			DestDir:   p.dest.Path(task.DestDir),
			Kind:      r.Kind,
			Timestamp: time.Now(),
		})

		if r.Kind == models.KindDir {
			child := Task{SourceDir: filepath.Join(task.SourceDir, s.Name), DestDir: newRel}
			if p.options.DryRun {
				child.DestDir = dstRel
			}
			p.stack.Push(child)
		}
	}

	return eligible, nil
}

// sameContent reports whether destination entry r holds what source entry s holds
func (p *pass) sameContent(ctx context.Context, fps *fingerprints, srcRel string, s storage.FileInfo, dstRel string, r storage.FileInfo) (bool, error) {
	switch r.Kind {
	case models.KindSymlink:
		return s.LinkTarget == r.LinkTarget, nil

	case models.KindDir:
		a, err := fps.get(ctx, models.LocationSource, p.source, srcRel)
		if err != nil {
			return false, err
		}
		b, err := fps.get(ctx, models.LocationDest, p.dest, dstRel)
		if err != nil {
			return false, err
		}
		return a == b, nil

	default:
		res, err := digest.Equal(ctx, p.digests,
			digest.Side{Backend: p.source, Path: srcRel, Size: s.Size},
			digest.Side{Backend: p.dest, Path: dstRel, Size: r.Size},
		)
		if err != nil {
			return false, err
		}
		if res.Digested {
			p.report.Stats.FilesDigested++
		}
		return res.Same, nil
	}
}

func (p *pass) remove(ctx context.Context, task Task, r storage.FileInfo, dstRel string) error {
	if !p.options.DryRun {
		var err error
		if r.Kind == models.KindDir {
			err = p.dest.RemoveAll(ctx, dstRel)
		} else {
			err = p.dest.Remove(ctx, dstRel)
		}
		if err != nil {
			return err
		}
	}

	p.report.Stats.EntriesRemoved++
	p.record(ctx, models.Event{
		Mutation:  models.MutationRemove,
		Path:      p.dest.Path(dstRel),
		DestDir:   p.dest.Path(task.DestDir),
		Kind:      r.Kind,
		Timestamp: time.Now(),
	})
	return nil
}

// createSourceOnly copies every source-only entry not consumed by a rename
func (p *pass) createSourceOnly(ctx context.Context, task Task, eligible []bool) error {
	for i, s := range task.Snapshot.SourceOnly {
		if !eligible[i] {
			continue
		}

		var n int64
		if !p.options.DryRun {
			var err error
			n, err = p.copyEntry(ctx, filepath.Join(task.SourceDir, s.Name), filepath.Join(task.DestDir, s.Name), s)
			if err != nil {
				return err
			}
		}
		p.report.Stats.EntriesCopied++
		p.report.Stats.BytesCopied += n
		p.record(ctx, p.copyEvent(task, s, n))
	}
	return nil
}

func (p *pass) copyEvent(task Task, s storage.FileInfo, n int64) models.Event {
	return models.Event{
		Mutation:  models.MutationCopy,
		Path:      p.source.Path(filepath.Join(task.SourceDir, s.Name)),
		SourceDir: p.source.Path(task.SourceDir),
		DestDir:   p.dest.Path(task.DestDir),
		Kind:      s.Kind,
		Bytes:     n,
		Timestamp: time.Now(),
	}
}

func (p *pass) record(ctx context.Context, ev models.Event) {
	p.report.Events = append(p.report.Events, ev)
	if p.events != nil {
		p.events.Record(ev)
	}
	p.logger.Debug(ctx, "Mutation", logging.Fields{
		"mutation": string(ev.Mutation),
		"path":     ev.Path,
		"kind":     string(ev.Kind),
	})
}

// progress forwards a copy progress update to the formatter
func (e *Engine) progress(update output.ProgressUpdate) {
	if e.formatter != nil {
		e.formatter.Progress(update)
	}
}

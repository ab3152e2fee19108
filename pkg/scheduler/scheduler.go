// Package scheduler repeats guarded reconciliation passes on a fixed period.
package scheduler

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/sdejongh/syncmirror/pkg/logging"
	"github.com/sdejongh/syncmirror/pkg/models"
	"github.com/sdejongh/syncmirror/pkg/output"
)

// Guard decides whether a pass may start
type Guard interface {
	Check(ctx context.Context) (*models.Usage, error)
}

// Engine runs one reconciliation pass
type Engine interface {
	Pass(ctx context.Context) (*models.PassReport, error)
}

// Options configures a Scheduler
type Options struct {
	// Formatter receives the summary of every pass (optional)
	Formatter output.Formatter
	// Writer is where the formatter writes (default: stdout)
	Writer io.Writer
	// Logger receives diagnostics (optional)
	Logger logging.Logger
	// OnPass is called with every finished or refused pass (optional)
	OnPass func(report *models.PassReport)
}

// Scheduler runs guard + pass, then idles for the period
type Scheduler struct {
	guard     Guard
	engine    Engine
	period    time.Duration
	formatter output.Formatter
	writer    io.Writer
	logger    logging.Logger
	onPass    func(report *models.PassReport)
	sequence  int
}

// New creates a scheduler
func New(guard Guard, engine Engine, period time.Duration, options Options) *Scheduler {
	s := &Scheduler{
		guard:     guard,
		engine:    engine,
		period:    period,
		formatter: options.Formatter,
		writer:    options.Writer,
		logger:    options.Logger,
		onPass:    options.OnPass,
	}
	if s.writer == nil {
		s.writer = os.Stdout
	}
	if s.logger == nil {
		s.logger = logging.NewNullLogger()
	}
	return s
}

// Run loops until ctx is cancelled or the guard refuses a pass.
// A failed pass is logged and retried on the next period.
// Cancellation while idle is a clean stop and returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info(ctx, "Scheduler started", logging.Fields{"period": s.period.String()})

	for {
		report, err := s.RunOnce(ctx)
		if err != nil {
			if report.Status == models.StatusRefused || report.Status == models.StatusCancelled {
				return err
			}
			s.logger.Warn(ctx, "Pass failed, retrying after the period", logging.Fields{
				"pass_id": report.PassID,
				"retry":   s.period.String(),
			})
		}

		if s.formatter != nil {
			s.formatter.Idle(s.period)
		}
		if !s.idle(ctx) {
			s.logger.Info(ctx, "Scheduler stopped", logging.Fields{"passes": s.sequence})
			return nil
		}
	}
}

// RunOnce checks the guard and runs a single pass. The returned report is
// never nil; its status tells a refused pass from an aborted one.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.PassReport, error) {
	s.sequence++
	logger := s.logger.WithFields(logging.Fields{"sequence": s.sequence})

	usage, err := s.guard.Check(ctx)
	if err != nil {
		report := &models.PassReport{
			Sequence:  s.sequence,
			StartTime: time.Now(),
			EndTime:   time.Now(),
			Usage:     usage,
			Err:       err,
			Status:    models.StatusRefused,
		}
		if errors.Is(err, context.Canceled) {
			report.Status = models.StatusCancelled
		}
		logger.Error(ctx, "Resource guard refused the pass", err, nil)
		s.complete(report)
		return report, err
	}

	logger.Debug(ctx, "Resource guard passed", logging.Fields{
		"source_bytes": usage.SourceBytes,
		"dest_bytes":   usage.DestBytes,
		"free_bytes":   usage.FreeBytes,
		"required":     usage.Required(),
	})

	if s.formatter != nil {
		s.formatter.Start(s.writer, &models.PassReport{Sequence: s.sequence, Usage: usage, StartTime: time.Now()})
	}

	report, err := s.engine.Pass(ctx)
	if report == nil {
		report = &models.PassReport{Err: err, Status: models.StatusAborted}
	}
	report.Sequence = s.sequence
	report.Usage = usage

	if err != nil {
		logger.Error(ctx, "Pass aborted", err, logging.Fields{"pass_id": report.PassID})
	}
	s.complete(report)
	return report, err
}

func (s *Scheduler) complete(report *models.PassReport) {
	if s.formatter != nil {
		s.formatter.Complete(report)
	}
	if s.onPass != nil {
		s.onPass(report)
	}
}

// idle waits for the period; it reports false when ctx ends first
func (s *Scheduler) idle(ctx context.Context) bool {
	timer := time.NewTimer(s.period)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

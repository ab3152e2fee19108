package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sdejongh/syncmirror/internal/platform"
	"github.com/sdejongh/syncmirror/pkg/compare"
	"github.com/sdejongh/syncmirror/pkg/config"
	"github.com/sdejongh/syncmirror/pkg/delta"
	"github.com/sdejongh/syncmirror/pkg/digest"
	"github.com/sdejongh/syncmirror/pkg/guard"
	"github.com/sdejongh/syncmirror/pkg/logging"
	"github.com/sdejongh/syncmirror/pkg/mirror"
	"github.com/sdejongh/syncmirror/pkg/models"
	"github.com/sdejongh/syncmirror/pkg/output"
	"github.com/sdejongh/syncmirror/pkg/ratelimit"
	"github.com/sdejongh/syncmirror/pkg/scheduler"
	"github.com/sdejongh/syncmirror/pkg/storage"
)

// MirrorFlags holds mirror command flags
type MirrorFlags struct {
	Source       string
	Dest         string
	LogFile      string
	Period       int
	Once         bool
	DryRun       bool
	CreateDest   bool
	Digest       string
	DirHeuristic string
	ScratchDir   string
	PatchMax     int64
	Bandwidth    string
	Exclude      []string
	Output       string
	Progress     bool
	Report       string
	ReportFormat string
	// Diagnostic logging flags
	DiagLog   string
	LogFormat string
	LogLevel  string
}

var mirrorFlags MirrorFlags

// NewMirrorCommand creates the mirror command
func NewMirrorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Periodically mirror a source folder into a destination folder",
		Long: `Mirror the source directory into the destination directory once per period.
Modified files are patched in place, renamed entries are renamed instead of being
copied again, and every mutation is appended to the event log.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMirror(cmd, &mirrorFlags)
		},
	}

	addMirrorFlags(cmd, &mirrorFlags)

	// Required flags
	cmd.Flags().StringVarP(&mirrorFlags.LogFile, "log", "l", "", "mutation event log file (required)")
	cmd.Flags().IntVarP(&mirrorFlags.Period, "period", "p", 0, "seconds between passes, 1-86399 (required)")
	cmd.MarkFlagRequired("log")
	cmd.MarkFlagRequired("period")

	cmd.Flags().BoolVar(&mirrorFlags.Once, "once", false, "run a single pass and exit")
	cmd.Flags().BoolVar(&mirrorFlags.DryRun, "dry-run", false, "report mutations without applying them")
	cmd.Flags().BoolVar(&mirrorFlags.CreateDest, "create-dest", false, "create destination directory if it doesn't exist")
	cmd.Flags().StringVar(&mirrorFlags.Report, "report", "", "write the report of every pass to file")
	cmd.Flags().StringVar(&mirrorFlags.ReportFormat, "report-format", "human", "pass report format: human, json")

	return cmd
}

// addMirrorFlags registers the flags shared by mirror and plan
func addMirrorFlags(cmd *cobra.Command, flags *MirrorFlags) {
	cmd.Flags().StringVarP(&flags.Source, "source", "s", "", "source directory path (required)")
	cmd.Flags().StringVarP(&flags.Dest, "dest", "d", "", "destination directory path (required)")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("dest")

	cmd.Flags().StringVar(&flags.Digest, "digest", "sha256", "file digest: sha256, md5")
	cmd.Flags().StringVar(&flags.DirHeuristic, "dir-heuristic", "size", "directory rename heuristic: size, digests")
	cmd.Flags().StringVar(&flags.ScratchDir, "scratch-dir", "", "directory for patch artifacts (default: system temp dir)")
	cmd.Flags().Int64Var(&flags.PatchMax, "patch-max", 256<<20, "largest file patched in place, in bytes (0 = no limit)")
	cmd.Flags().StringVarP(&flags.Bandwidth, "bandwidth", "b", "", "copy bandwidth limit (e.g., \"10M\", \"512KiB\")")
	cmd.Flags().StringSliceVar(&flags.Exclude, "exclude", []string{}, "glob patterns to exclude")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "human", "output format: human, json")
	cmd.Flags().BoolVar(&flags.Progress, "progress", false, "show copy progress bars on a terminal")

	// Diagnostic logging flags
	cmd.Flags().StringVar(&flags.DiagLog, "diag-log", "", "write diagnostics to file (default: stderr)")
	cmd.Flags().StringVar(&flags.LogFormat, "log-format", "text", "diagnostic log format: text, json")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", "info", "diagnostic log level: debug, info, warn, error")
}

func runMirror(cmd *cobra.Command, flags *MirrorFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Validate flags
	if err := validateMirrorFlags(flags, true); err != nil {
		return err
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	applyFlagsToConfig(cmd, flags, cfg)

	operation, err := createMirrorOperation(flags, cfg)
	if err != nil {
		return err
	}
	if err := operation.Validate(); err != nil {
		return &models.ConfigurationError{Message: err.Error()}
	}

	s, err := openSession(ctx, operation, cfg, operation.LogPath)
	if err != nil {
		return err
	}
	defer s.Close()
	warnOutputsInsideSource(ctx, s.logger, flags)

	g := guard.New(s.source, s.dest)
	sched := scheduler.New(g, s.engine, operation.Period, scheduler.Options{
		Formatter: s.formatter,
		Writer:    os.Stdout,
		Logger:    s.logger,
		OnPass: func(report *models.PassReport) {
			if flags.Report == "" {
				return
			}
			if err := output.WritePassReport(report, flags.Report, flags.ReportFormat); err != nil {
				s.logger.Error(ctx, "Failed to write pass report", err, logging.Fields{"path": flags.Report})
			}
		},
	})

	s.logger.Info(ctx, "Mirror started", logging.Fields{
		"operation_id":  operation.ID,
		"source":        operation.SourcePath,
		"dest":          operation.DestPath,
		"period":        operation.Period.String(),
		"digest":        string(operation.Digest),
		"dir_heuristic": string(operation.DirHeuristic),
		"dry_run":       operation.DryRun,
		"bandwidth":     ratelimit.FormatRate(operation.BandwidthLimit),
	})

	if operation.Once {
		_, err := sched.RunOnce(ctx)
		return err
	}
	return sched.Run(ctx)
}

// session holds the components wired for one command invocation
type session struct {
	logger    logging.Logger
	events    *logging.EventLog
	source    *storage.Local
	dest      *storage.Local
	formatter output.Formatter
	engine    *mirror.Engine
}

// openSession builds the logger, event log, backends and engine for an
// operation. An empty eventPath echoes events without persisting them.
func openSession(ctx context.Context, operation *models.MirrorOperation, cfg *config.Config, eventPath string) (*session, error) {
	s := &session{}

	logger, err := createLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	s.logger = logger

	// Events are echoed to stdout unless stdout carries JSON or quiet is set
	var echo io.Writer = os.Stdout
	if cfg.Output.Quiet || cfg.Output.Format == "json" {
		echo = io.Discard
	}
	events, err := logging.NewEventLog(logging.EventLogConfig{
		Path:       eventPath,
		Echo:       echo,
		MaxSizeMB:  cfg.Events.MaxSizeMB,
		MaxBackups: cfg.Events.MaxBackups,
		DryRun:     operation.DryRun,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	events.OnWriteError(func(err error) {
		logger.Error(ctx, "Event log write failed, continuing without it", err, logging.Fields{"path": eventPath})
	})
	s.events = events

	if err := ensureDest(ctx, operation, events, logger); err != nil {
		s.Close()
		return nil, err
	}

	if err := checkScratchDir(operation); err != nil {
		s.Close()
		return nil, err
	}

	// Create storage backends
	s.source, err = storage.NewLocal(operation.SourcePath)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create source backend: %w", err)
	}
	s.dest, err = storage.NewLocal(operation.DestPath)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create destination backend: %w", err)
	}

	hasher, err := digest.New(operation.Digest, operation.BufferSize)
	if err != nil {
		s.Close()
		return nil, &models.ConfigurationError{Message: err.Error()}
	}
	hasher.SetProgressCallback(func(path string, current, total int64) {
		logger.Debug(ctx, "File digested", logging.Fields{
			"path":   path,
			"bytes":  total,
			"digest": hasher.Name(),
		})
	})
	matcher, err := mirror.NewDirMatcher(operation.DirHeuristic, hasher)
	if err != nil {
		s.Close()
		return nil, &models.ConfigurationError{Message: err.Error()}
	}

	s.formatter = output.New(cfg.Output.Format, cfg.Output.Progress, os.Stdout)
	if cfg.Output.Quiet && cfg.Output.Format != "json" {
		s.formatter = nil
	}

	comparator := compare.NewComparator(s.source, s.dest, operation.ExcludePatterns, logger)
	patcher := delta.NewPatcher(delta.NewBSDiff(), operation.ScratchDir)

	s.engine = mirror.New(s.source, s.dest, comparator, hasher, patcher, mirror.Options{
		DryRun:        operation.DryRun,
		PatchMaxBytes: operation.PatchMaxBytes,
		DirMatcher:    matcher,
		Events:        events,
		Limiter:       ratelimit.NewLimiter(operation.BandwidthLimit),
		Formatter:     s.formatter,
		Logger:        logger,
	})

	return s, nil
}

// Close releases everything openSession acquired
func (s *session) Close() {
	if s.source != nil {
		s.source.Close()
	}
	if s.dest != nil {
		s.dest.Close()
	}
	if s.events != nil {
		s.events.Close()
	}
	if s.logger != nil {
		s.logger.Close()
	}
}

// ensureDest creates a missing destination when --create-dest is set
// and records the creation as the first event.
func ensureDest(ctx context.Context, operation *models.MirrorOperation, events *logging.EventLog, logger logging.Logger) error {
	if _, err := os.Stat(operation.DestPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access destination path: %w", err)
	}

	if !operation.CreateDest {
		return &models.ConfigurationError{Message: fmt.Sprintf("destination path does not exist: %s", operation.DestPath)}
	}
	if operation.DryRun {
		return &models.ConfigurationError{Message: "dry run cannot create the destination directory"}
	}

	destAbs, err := filepath.Abs(operation.DestPath)
	if err != nil {
		return fmt.Errorf("failed to resolve destination path: %w", err)
	}
	if err := os.MkdirAll(destAbs, 0755); err != nil {
		return &models.MutationError{Mutation: models.MutationCreate, Path: destAbs, Err: err}
	}

	logger.Info(ctx, "Created destination directory", logging.Fields{"path": destAbs})
	events.Record(models.Event{
		Mutation:  models.MutationCreate,
		Path:      destAbs,
		DestDir:   filepath.Dir(destAbs),
		Kind:      models.KindDir,
		Timestamp: time.Now(),
	})
	return nil
}

// checkScratchDir refuses patch artifacts inside either tree
func checkScratchDir(operation *models.MirrorOperation) error {
	if operation.ScratchDir == "" {
		return nil
	}
	scratch, err := platform.Resolve(operation.ScratchDir)
	if err != nil {
		return err
	}
	for _, root := range []string{operation.SourcePath, operation.DestPath} {
		rootAbs, err := platform.Resolve(root)
		if err != nil {
			return err
		}
		if scratch == rootAbs || platform.IsNested(rootAbs, scratch) {
			return &models.ConfigurationError{Message: fmt.Sprintf("scratch directory cannot be inside %s", root)}
		}
	}
	return nil
}

// createLogger creates the diagnostic logger; without a file it writes to stderr
func createLogger(cfg config.LoggingConfig) (logging.Logger, error) {
	// Parse log format
	var format logging.Format
	switch cfg.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.File,
		Output:     os.Stderr,
		Format:     format,
		Level:      logging.ParseLevel(cfg.Level),
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	})
}

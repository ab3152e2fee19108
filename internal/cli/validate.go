package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sdejongh/syncmirror/internal/platform"
	"github.com/sdejongh/syncmirror/pkg/config"
	"github.com/sdejongh/syncmirror/pkg/logging"
	"github.com/sdejongh/syncmirror/pkg/models"
	"github.com/sdejongh/syncmirror/pkg/ratelimit"
)

// maxPeriodSeconds is the exclusive upper bound of --period
const maxPeriodSeconds = int(models.MaxPeriod / time.Second)

// validateMirrorFlags validates the mirror command flags.
// The destination may be missing only when --create-dest is set.
func validateMirrorFlags(flags *MirrorFlags, requireLog bool) error {
	if requireLog && (flags.Period <= 0 || flags.Period >= maxPeriodSeconds) {
		return &models.ConfigurationError{
			Message: fmt.Sprintf("period must be between 1 and %d seconds, got %d", maxPeriodSeconds-1, flags.Period),
		}
	}

	if requireLog && flags.LogFile == "" {
		return &models.ConfigurationError{Message: "log file path is required"}
	}

	if _, err := ratelimit.ParseRate(flags.Bandwidth); err != nil {
		return &models.ConfigurationError{Message: err.Error()}
	}

	for _, p := range []string{flags.Source, flags.Dest, flags.LogFile, flags.DiagLog, flags.Report} {
		if p == "" {
			continue
		}
		if err := platform.ValidatePath(p); err != nil {
			return &models.ConfigurationError{Message: err.Error()}
		}
	}

	// Validate source exists
	sourceInfo, err := os.Stat(flags.Source)
	if os.IsNotExist(err) {
		return &models.ConfigurationError{Message: fmt.Sprintf("source path does not exist: %s", flags.Source)}
	} else if err != nil {
		return fmt.Errorf("failed to access source path: %w", err)
	} else if !sourceInfo.IsDir() {
		return &models.ConfigurationError{Message: fmt.Sprintf("source path is not a directory: %s", flags.Source)}
	}

	// Check destination
	destInfo, err := os.Stat(flags.Dest)
	if os.IsNotExist(err) {
		if !flags.CreateDest {
			return &models.ConfigurationError{
				Message: fmt.Sprintf("destination path does not exist: %s (use --create-dest to create it)", flags.Dest),
			}
		}
	} else if err != nil {
		return fmt.Errorf("failed to access destination path: %w", err)
	} else if !destInfo.IsDir() {
		return &models.ConfigurationError{Message: fmt.Sprintf("destination path exists but is not a directory: %s", flags.Dest)}
	}

	return checkPaths(flags)
}

// checkPaths refuses identical or nested source and destination trees,
// comparing canonical paths so symlinked aliases are caught.
func checkPaths(flags *MirrorFlags) error {
	sourceAbs, err := platform.Resolve(flags.Source)
	if err != nil {
		return err
	}
	destAbs, err := platform.Resolve(flags.Dest)
	if err != nil {
		return err
	}

	same := sourceAbs == destAbs
	if !same {
		if _, statErr := os.Stat(destAbs); statErr == nil {
			if same, err = platform.SamePath(sourceAbs, destAbs); err != nil {
				return err
			}
		}
	}
	if same {
		return &models.ConfigurationError{Message: fmt.Sprintf("source and destination are the same directory: %s", sourceAbs)}
	}

	if platform.IsNested(sourceAbs, destAbs) {
		return &models.ConfigurationError{Message: "destination cannot be inside source directory"}
	}
	if platform.IsNested(destAbs, sourceAbs) {
		return &models.ConfigurationError{Message: "source cannot be inside destination directory"}
	}

	// files the run writes would be removed from the destination by every pass
	for _, out := range outputFiles(flags) {
		abs, err := platform.Resolve(out.path)
		if err != nil {
			return err
		}
		if platform.IsNested(destAbs, abs) {
			return &models.ConfigurationError{Message: fmt.Sprintf("%s cannot be inside destination directory", out.name)}
		}
	}

	return nil
}

type outputFile struct {
	name string
	path string
}

// outputFiles lists the files a run writes besides the destination tree
func outputFiles(flags *MirrorFlags) []outputFile {
	var files []outputFile
	for _, out := range []outputFile{
		{"log file", flags.LogFile},
		{"diagnostic log", flags.DiagLog},
		{"report", flags.Report},
	} {
		if out.path != "" {
			files = append(files, out)
		}
	}
	return files
}

// outputsInsideSource returns the output files that lie inside the source
// tree. They change during every pass, so every pass mirrors them again.
func outputsInsideSource(flags *MirrorFlags) []outputFile {
	sourceAbs, err := platform.Resolve(flags.Source)
	if err != nil {
		return nil
	}
	var inside []outputFile
	for _, out := range outputFiles(flags) {
		abs, err := platform.Resolve(out.path)
		if err == nil && platform.IsNested(sourceAbs, abs) {
			inside = append(inside, out)
		}
	}
	return inside
}

// warnOutputsInsideSource logs one warning per output file inside the source
func warnOutputsInsideSource(ctx context.Context, logger logging.Logger, flags *MirrorFlags) {
	for _, out := range outputsInsideSource(flags) {
		logger.Warn(ctx, "Output file inside source is mirrored on every pass", logging.Fields{
			"file": out.name,
			"path": out.path,
		})
	}
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with command-line flags.
// Only flags set explicitly override the file.
func applyFlagsToConfig(cmd *cobra.Command, flags *MirrorFlags, cfg *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("digest") {
		cfg.Mirror.Digest = models.DigestMethod(flags.Digest)
	}
	if changed("dir-heuristic") {
		cfg.Mirror.DirHeuristic = models.DirHeuristic(flags.DirHeuristic)
	}
	if changed("scratch-dir") {
		cfg.Mirror.ScratchDir = flags.ScratchDir
	}
	if changed("dry-run") {
		cfg.Mirror.DryRun = flags.DryRun
	}
	if changed("patch-max") {
		cfg.Performance.PatchMaxBytes = flags.PatchMax
	}
	if changed("bandwidth") {
		if bps, err := ratelimit.ParseRate(flags.Bandwidth); err == nil {
			cfg.Performance.BandwidthLimit = bps
		}
	}

	// Exclude patterns
	if len(flags.Exclude) > 0 {
		cfg.Exclude = flags.Exclude
	}

	// Output format
	if changed("output") {
		cfg.Output.Format = flags.Output
	}
	if changed("progress") {
		cfg.Output.Progress = flags.Progress
	}

	// Diagnostic logging
	if changed("diag-log") {
		cfg.Logging.File = flags.DiagLog
	}
	if changed("log-format") {
		cfg.Logging.Format = flags.LogFormat
	}
	if changed("log-level") {
		cfg.Logging.Level = flags.LogLevel
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
		cfg.Logging.Level = "error"
	}

	// Debug diagnostics in verbose mode
	if globalFlags.Verbose {
		cfg.Logging.Level = "debug"
	}
}

// createMirrorOperation creates a mirror operation from configuration.
// The caller validates it: plan runs without a log path or period.
func createMirrorOperation(flags *MirrorFlags, cfg *config.Config) (*models.MirrorOperation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &models.ConfigurationError{Message: err.Error()}
	}

	logPath := flags.LogFile
	if logPath != "" {
		abs, err := filepath.Abs(logPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve log path: %w", err)
		}
		logPath = abs
	}

	operation := &models.MirrorOperation{
		ID:              uuid.New().String(),
		SourcePath:      flags.Source,
		DestPath:        flags.Dest,
		LogPath:         logPath,
		Period:          time.Duration(flags.Period) * time.Second,
		Digest:          cfg.Mirror.Digest,
		DirHeuristic:    cfg.Mirror.DirHeuristic,
		ExcludePatterns: cfg.Exclude,
		ScratchDir:      cfg.Mirror.ScratchDir,
		DryRun:          cfg.Mirror.DryRun,
		Once:            flags.Once,
		CreateDest:      flags.CreateDest,
		BufferSize:      cfg.Performance.BufferSize,
		PatchMaxBytes:   cfg.Performance.PatchMaxBytes,
		BandwidthLimit:  cfg.Performance.BandwidthLimit,
		CreatedAt:       time.Now(),
	}

	return operation, nil
}

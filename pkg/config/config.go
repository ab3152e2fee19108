package config

import (
	"github.com/sdejongh/syncmirror/pkg/models"
)

// Config represents the application configuration
type Config struct {
	Mirror      MirrorConfig      `yaml:"mirror"`
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
	Events      EventsConfig      `yaml:"events"`
	Exclude     []string          `yaml:"exclude"`
}

// MirrorConfig holds reconciliation settings
type MirrorConfig struct {
	Digest       models.DigestMethod `yaml:"digest"`        // "sha256" or "md5"
	DirHeuristic models.DirHeuristic `yaml:"dir_heuristic"` // "size" or "digests"
	ScratchDir   string              `yaml:"scratch_dir"`   // Patch artifacts (empty = system temp dir)
	DryRun       bool                `yaml:"dry_run"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	BufferSize     int   `yaml:"buffer_size"`
	PatchMaxBytes  int64 `yaml:"patch_max_bytes"` // Larger modified files are copied whole (0 = always patch)
	BandwidthLimit int64 `yaml:"bandwidth_limit"` // Copy throughput in bytes per second (0 = unlimited)
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show progress bars
	Quiet    bool   `yaml:"quiet"`    // Suppress pass summaries and echoed events
}

// LoggingConfig holds diagnostic logging settings
type LoggingConfig struct {
	Format     string `yaml:"format"`      // "json" or "text"
	Level      string `yaml:"level"`       // "debug", "info", "warn", "error"
	File       string `yaml:"file"`        // Log file path (empty = stderr)
	MaxSizeMB  int    `yaml:"max_size_mb"` // Rotate after this size (0 = never)
	MaxBackups int    `yaml:"max_backups"`
}

// EventsConfig holds mutation event log settings
type EventsConfig struct {
	MaxSizeMB  int `yaml:"max_size_mb"` // Rotate after this size (0 = never)
	MaxBackups int `yaml:"max_backups"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Mirror: MirrorConfig{
			Digest:       models.DigestSHA256,
			DirHeuristic: models.DirTotalSize,
			ScratchDir:   "",
			DryRun:       false,
		},
		Performance: PerformanceConfig{
			BufferSize:     65536,
			PatchMaxBytes:  256 << 20,
			BandwidthLimit: 0,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: false,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Format:     "text",
			Level:      "info",
			File:       "",
			MaxSizeMB:  0,
			MaxBackups: 3,
		},
		Events: EventsConfig{
			MaxSizeMB:  0,
			MaxBackups: 3,
		},
		Exclude: []string{},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validDigests := map[models.DigestMethod]bool{models.DigestSHA256: true, models.DigestMD5: true}
	if !validDigests[c.Mirror.Digest] {
		return &models.ValidationError{
			Field:   "mirror.digest",
			Message: "must be 'sha256' or 'md5'",
		}
	}

	validHeuristics := map[models.DirHeuristic]bool{models.DirTotalSize: true, models.DirContentDigests: true}
	if !validHeuristics[c.Mirror.DirHeuristic] {
		return &models.ValidationError{
			Field:   "mirror.dir_heuristic",
			Message: "must be 'size' or 'digests'",
		}
	}

	if c.Performance.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	if c.Performance.PatchMaxBytes < 0 {
		return &models.ValidationError{
			Field:   "performance.patch_max_bytes",
			Message: "must not be negative",
		}
	}

	if c.Performance.BandwidthLimit < 0 {
		return &models.ValidationError{
			Field:   "performance.bandwidth_limit",
			Message: "must not be negative (0 = unlimited)",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if c.Logging.MaxSizeMB < 0 || c.Events.MaxSizeMB < 0 {
		return &models.ValidationError{
			Field:   "max_size_mb",
			Message: "must not be negative",
		}
	}

	return nil
}

package models

import (
	"time"
)

// MaxPeriod is the exclusive upper bound of the pass interval
const MaxPeriod = 24 * time.Hour

// DigestMethod selects the content fingerprint algorithm
type DigestMethod string

const (
	// DigestSHA256 uses SHA-256 (default)
	DigestSHA256 DigestMethod = "sha256"
	// DigestMD5 uses MD5 (faster, not collision resistant)
	DigestMD5 DigestMethod = "md5"
)

// DirHeuristic selects how two directories are judged equal during rename detection
type DirHeuristic string

const (
	// DirTotalSize treats directories with the same recursive byte total as equal
	DirTotalSize DirHeuristic = "size"
	// DirContentDigests requires the same multiset of file digests
	DirContentDigests DirHeuristic = "digests"
)

// MirrorOperation represents a mirror run configuration
type MirrorOperation struct {
	ID              string
	SourcePath      string
	DestPath        string
	LogPath         string
	Period          time.Duration
	Digest          DigestMethod
	DirHeuristic    DirHeuristic
	ExcludePatterns []string
	ScratchDir      string
	DryRun          bool
	Once            bool
	CreateDest      bool
	BufferSize      int
	PatchMaxBytes   int64
	BandwidthLimit  int64 // bytes per second, 0 = unlimited
	CreatedAt       time.Time
}

// Validate checks if the operation configuration is valid
func (op *MirrorOperation) Validate() error {
	if op.SourcePath == "" {
		return &ValidationError{Field: "SourcePath", Message: "source path is required"}
	}
	if op.DestPath == "" {
		return &ValidationError{Field: "DestPath", Message: "destination path is required"}
	}
	if op.LogPath == "" {
		return &ValidationError{Field: "LogPath", Message: "log path is required"}
	}
	if op.Period <= 0 || op.Period >= MaxPeriod {
		return &ValidationError{Field: "Period", Message: "period must be between 1 and 86399 seconds"}
	}
	switch op.Digest {
	case DigestSHA256, DigestMD5:
	default:
		return &ValidationError{Field: "Digest", Message: "unknown digest method: " + string(op.Digest)}
	}
	switch op.DirHeuristic {
	case DirTotalSize, DirContentDigests:
	default:
		return &ValidationError{Field: "DirHeuristic", Message: "unknown directory heuristic: " + string(op.DirHeuristic)}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	if op.PatchMaxBytes < 0 {
		return &ValidationError{Field: "PatchMaxBytes", Message: "patch size limit must not be negative"}
	}
	if op.BandwidthLimit < 0 {
		return &ValidationError{Field: "BandwidthLimit", Message: "bandwidth limit must not be negative"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

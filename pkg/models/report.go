package models

import (
	"time"
)

// PassReport represents the results of one reconciliation pass
type PassReport struct {
	// Pass details
	PassID     string
	Sequence   int
	SourcePath string
	DestPath   string
	DryRun     bool

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Space accounting from the resource guard
	Usage *Usage

	// Statistics
	Stats Statistics

	// Mutations applied, in order
	Events []Event

	// Err is the error that aborted the pass, if any
	Err error

	// Overall status
	Status PassStatus
}

// Statistics holds pass metrics
type Statistics struct {
	DirsCompared  int
	FilesCompared int
	FilesDigested int

	FilesUnchanged int
	FilesPatched   int
	EntriesCopied  int
	EntriesRenamed int
	EntriesRemoved int

	BytesCopied  int64
	BytesPatched int64
}

// Mutations returns the total number of mutations in the pass
func (s Statistics) Mutations() int {
	return s.FilesPatched + s.EntriesCopied + s.EntriesRenamed + s.EntriesRemoved
}

// Usage is the space accounting computed before a pass
type Usage struct {
	SourceBytes int64
	DestBytes   int64
	FreeBytes   int64
}

// Required is the free space a pass needs on the destination volume:
// twice the source minus what the destination already holds.
func (u Usage) Required() int64 {
	return 2*u.SourceBytes - u.DestBytes
}

// PassStatus represents the overall result of a pass
type PassStatus string

const (
	// StatusSuccess indicates the pass completed
	StatusSuccess PassStatus = "success"
	// StatusAborted indicates an IO or mutation error stopped the pass midway
	StatusAborted PassStatus = "aborted"
	// StatusRefused indicates the resource guard refused to start the pass
	StatusRefused PassStatus = "refused"
	// StatusCancelled indicates the pass was interrupted
	StatusCancelled PassStatus = "cancelled"
)

// ExitCode returns the process exit code for the status
func (s PassStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusAborted:
		return 1
	case StatusRefused:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 1
	}
}

package models

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"
)

// ============== Mutation Tests ==============

func TestMutation(t *testing.T) {
	tests := []struct {
		mutation Mutation
		expected string
	}{
		{MutationCopy, "copy"},
		{MutationRemove, "remove"},
		{MutationRename, "rename"},
		{MutationCreate, "create"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if string(tt.mutation) != tt.expected {
				t.Errorf("Mutation = %s, want %s", tt.mutation, tt.expected)
			}
		})
	}
}

// ============== MirrorOperation Tests ==============

func validOperation() *MirrorOperation {
	return &MirrorOperation{
		SourcePath:   "/source",
		DestPath:     "/dest",
		LogPath:      "/var/log/mirror.log",
		Period:       time.Minute,
		Digest:       DigestSHA256,
		DirHeuristic: DirTotalSize,
		BufferSize:   4096,
	}
}

func TestMirrorOperationValidate(t *testing.T) {
	t.Run("ValidOperation", func(t *testing.T) {
		if err := validOperation().Validate(); err != nil {
			t.Errorf("Validate() error = %v, want nil", err)
		}
	})

	tests := []struct {
		name   string
		modify func(*MirrorOperation)
		field  string
	}{
		{"EmptySourcePath", func(op *MirrorOperation) { op.SourcePath = "" }, "SourcePath"},
		{"EmptyDestPath", func(op *MirrorOperation) { op.DestPath = "" }, "DestPath"},
		{"EmptyLogPath", func(op *MirrorOperation) { op.LogPath = "" }, "LogPath"},
		{"ZeroPeriod", func(op *MirrorOperation) { op.Period = 0 }, "Period"},
		{"NegativePeriod", func(op *MirrorOperation) { op.Period = -time.Second }, "Period"},
		{"FullDayPeriod", func(op *MirrorOperation) { op.Period = 24 * time.Hour }, "Period"},
		{"UnknownDigest", func(op *MirrorOperation) { op.Digest = "crc32" }, "Digest"},
		{"UnknownHeuristic", func(op *MirrorOperation) { op.DirHeuristic = "names" }, "DirHeuristic"},
		{"SmallBufferSize", func(op *MirrorOperation) { op.BufferSize = 512 }, "BufferSize"},
		{"NegativePatchMax", func(op *MirrorOperation) { op.PatchMaxBytes = -1 }, "PatchMaxBytes"},
		{"NegativeBandwidth", func(op *MirrorOperation) { op.BandwidthLimit = -1 }, "BandwidthLimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := validOperation()
			tt.modify(op)

			err := op.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if ve, ok := err.(*ValidationError); !ok || ve.Field != tt.field {
				t.Errorf("Validate() error = %v, want field %s", err, tt.field)
			}
		})
	}

	t.Run("PeriodBounds", func(t *testing.T) {
		for _, period := range []time.Duration{time.Second, 86399 * time.Second} {
			op := validOperation()
			op.Period = period
			if err := op.Validate(); err != nil {
				t.Errorf("period %s should be accepted: %v", period, err)
			}
		}
	})
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "TestField",
		Message: "test message",
	}

	expected := "TestField: test message"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}
}

// ============== Report Tests ==============

func TestUsageRequired(t *testing.T) {
	tests := []struct {
		name     string
		usage    Usage
		expected int64
	}{
		{"EmptyDestination", Usage{SourceBytes: 100}, 200},
		{"PartialDestination", Usage{SourceBytes: 100, DestBytes: 40}, 160},
		{"LargerDestination", Usage{SourceBytes: 100, DestBytes: 300}, -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.usage.Required(); got != tt.expected {
				t.Errorf("Required() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestStatisticsMutations(t *testing.T) {
	stats := Statistics{
		FilesCompared:  10,
		FilesUnchanged: 6,
		FilesPatched:   2,
		EntriesCopied:  3,
		EntriesRenamed: 1,
		EntriesRemoved: 4,
	}

	if got := stats.Mutations(); got != 10 {
		t.Errorf("Mutations() = %d, want 10", got)
	}
}

func TestPassStatusExitCode(t *testing.T) {
	tests := []struct {
		status   PassStatus
		expected int
	}{
		{StatusSuccess, 0},
		{StatusAborted, 1},
		{StatusRefused, 2},
		{StatusCancelled, 3},
		{PassStatus("unknown"), 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.ExitCode(); got != tt.expected {
				t.Errorf("ExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

// ============== Error Tests ==============

func TestErrorTypes(t *testing.T) {
	t.Run("IOErrorUnwraps", func(t *testing.T) {
		err := fmt.Errorf("digest: %w", &IOError{Op: "open", Path: "/src/a", Err: fs.ErrPermission})

		if !errors.Is(err, fs.ErrPermission) {
			t.Error("IOError should unwrap to its cause")
		}
		var ioErr *IOError
		if !errors.As(err, &ioErr) || ioErr.Path != "/src/a" {
			t.Errorf("errors.As() = %v", ioErr)
		}
		if ioErr.Error() != "open /src/a: permission denied" {
			t.Errorf("Error() = %q", ioErr.Error())
		}
	})

	t.Run("MutationErrorUnwraps", func(t *testing.T) {
		err := &MutationError{Mutation: MutationRename, Path: "/dst/a", Err: fs.ErrExist}

		if !errors.Is(err, fs.ErrExist) {
			t.Error("MutationError should unwrap to its cause")
		}
		if err.Error() != "rename /dst/a: file already exists" {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("ResourceExhaustionMessage", func(t *testing.T) {
		err := &ResourceExhaustionError{Path: "/dst", Free: 10, Required: 20}
		expected := "not enough free space on /dst: 10 bytes free, 20 bytes required"
		if err.Error() != expected {
			t.Errorf("Error() = %q, want %q", err.Error(), expected)
		}
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"Nil", nil, 0},
		{"Configuration", &ConfigurationError{Message: "same path"}, 1},
		{"ResourceExhaustion", fmt.Errorf("pass 3: %w", &ResourceExhaustionError{}), 2},
		{"Cancelled", fmt.Errorf("pass: %w", context.Canceled), 3},
		{"Mutation", &MutationError{Mutation: MutationRemove, Err: fs.ErrPermission}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.expected {
				t.Errorf("ExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

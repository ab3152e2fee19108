package guard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdejongh/syncmirror/pkg/models"
	"github.com/sdejongh/syncmirror/pkg/storage"
)

func newBackends(t *testing.T, sourceBytes, destBytes int) (*storage.Local, *storage.Local) {
	t.Helper()

	tempDir := t.TempDir()
	backends := make([]*storage.Local, 0, 2)
	for _, tree := range []struct {
		name string
		size int
	}{{"source", sourceBytes}, {"dest", destBytes}} {
		dir := filepath.Join(tempDir, tree.name)
		if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
		// split across two files to exercise the recursive total
		half := tree.size / 2
		if err := os.WriteFile(filepath.Join(dir, "a"), make([]byte, half), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "sub", "b"), make([]byte, tree.size-half), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		backend, err := storage.NewLocal(dir)
		if err != nil {
			t.Fatalf("NewLocal() error = %v", err)
		}
		backends = append(backends, backend)
	}
	return backends[0], backends[1]
}

func fixedFree(n int64) FreeSpaceFunc {
	return func(ctx context.Context) (int64, error) { return n, nil }
}

func TestCheck_Boundary(t *testing.T) {
	source, dest := newBackends(t, 1000, 300)
	required := int64(2*1000 - 300)

	tests := []struct {
		name    string
		free    int64
		wantErr bool
	}{
		{"MoreThanRequired", required + 1, false},
		{"ExactlyRequired", required, true},
		{"OneByteShort", required - 1, true},
		{"NoSpace", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage, err := New(source, dest).WithFreeSpace(fixedFree(tt.free)).Check(context.Background())

			if usage == nil {
				t.Fatal("Check() should report usage")
			}
			if usage.SourceBytes != 1000 || usage.DestBytes != 300 || usage.FreeBytes != tt.free {
				t.Errorf("usage = %+v", usage)
			}

			var resErr *models.ResourceExhaustionError
			if got := errors.As(err, &resErr); got != tt.wantErr {
				t.Fatalf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && (resErr.Free != tt.free || resErr.Required != required) {
				t.Errorf("error = %+v", resErr)
			}
		})
	}
}

func TestCheck_NegativeRequirementAlwaysPasses(t *testing.T) {
	source, dest := newBackends(t, 100, 500)

	usage, err := New(source, dest).WithFreeSpace(fixedFree(0)).Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if usage.Required() >= 0 {
		t.Errorf("Required() = %d, want negative", usage.Required())
	}
}

func TestCheck_RealVolume(t *testing.T) {
	source, dest := newBackends(t, 10, 10)

	usage, err := New(source, dest).Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if usage.FreeBytes <= 0 {
		t.Errorf("FreeBytes = %d, want a positive value", usage.FreeBytes)
	}
}

func TestCheck_ProbeError(t *testing.T) {
	source, dest := newBackends(t, 10, 10)
	probeErr := errors.New("statfs failed")

	_, err := New(source, dest).WithFreeSpace(func(ctx context.Context) (int64, error) {
		return 0, probeErr
	}).Check(context.Background())

	if !errors.Is(err, probeErr) {
		t.Errorf("Check() error = %v, want %v", err, probeErr)
	}
}

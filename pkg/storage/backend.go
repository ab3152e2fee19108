package storage

import (
	"context"
	"io"
	"time"

	"github.com/sdejongh/syncmirror/pkg/models"
)

// FileInfo represents metadata about a filesystem entry
type FileInfo struct {
	Name         string
	Path         string
	RelativePath string
	Size         int64
	ModTime      time.Time
	Kind         models.Kind
	Permissions  uint32
	// LinkTarget is set for symlinks
	LinkTarget string
}

// IsDir reports whether the entry is a directory
func (fi *FileInfo) IsDir() bool {
	return fi.Kind == models.KindDir
}

// Backend defines the filesystem operations the mirror needs.
// All paths are relative to the backend root; symlinks are never followed.
type Backend interface {
	// Root returns the absolute root path of the backend
	Root() string

	// Path returns the absolute path for a relative path
	Path(path string) string

	// ReadDir returns the immediate children of a directory, sorted by name
	ReadDir(ctx context.Context, path string) ([]FileInfo, error)

	// List returns all entries below the specified directory recursively
	List(ctx context.Context, path string) ([]FileInfo, error)

	// Stat returns entry metadata without following symlinks
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or overwrites a file with the given content
	// If metadata is provided, permissions are applied
	Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error

	// Symlink creates a symbolic link at path pointing to target
	Symlink(ctx context.Context, target, path string) error

	// Rename renames an entry within the backend
	Rename(ctx context.Context, oldPath, newPath string) error

	// Remove removes a file, symlink or empty directory
	Remove(ctx context.Context, path string) error

	// RemoveAll removes a directory tree
	RemoveAll(ctx context.Context, path string) error

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(ctx context.Context, path string) error

	// TreeSize returns the total size of the regular files below path
	TreeSize(ctx context.Context, path string) (int64, error)

	// FreeSpace returns the bytes available on the backend's volume
	FreeSpace(ctx context.Context) (int64, error)

	// Close releases any resources held by the backend
	Close() error
}

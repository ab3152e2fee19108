package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sdejongh/syncmirror/pkg/models"
)

// Local is a filesystem-based storage backend
type Local struct {
	rootPath string
}

// NewLocal creates a new local filesystem backend
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	return &Local{rootPath: absPath}, nil
}

// Root returns the absolute root path
func (l *Local) Root() string {
	return l.rootPath
}

// Path returns the absolute path for a relative path
func (l *Local) Path(path string) string {
	return filepath.Join(l.rootPath, path)
}

// ReadDir returns the immediate children of a directory, sorted by name
func (l *Local) ReadDir(ctx context.Context, path string) ([]FileInfo, error) {
	fullPath := l.Path(path)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, &models.IOError{Op: "read dir", Path: fullPath, Err: err}
	}

	infos := make([]FileInfo, 0, len(entries))
	for _, d := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := d.Info()
		if err != nil {
			return nil, &models.IOError{Op: "stat", Path: filepath.Join(fullPath, d.Name()), Err: err}
		}

		fi, err := l.fileInfo(filepath.Join(path, d.Name()), info)
		if err != nil {
			return nil, err
		}
		infos = append(infos, *fi)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// List returns all entries below the directory recursively
func (l *Local) List(ctx context.Context, path string) ([]FileInfo, error) {
	fullPath := l.Path(path)
	var files []FileInfo

	err := filepath.WalkDir(fullPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if p == fullPath {
			return nil
		}

		relPath, err := filepath.Rel(l.rootPath, p)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		fi, err := l.fileInfo(relPath, info)
		if err != nil {
			return err
		}
		files = append(files, *fi)

		return nil
	})

	if err != nil {
		return nil, &models.IOError{Op: "list", Path: fullPath, Err: err}
	}

	return files, nil
}

// Stat returns entry metadata without following symlinks
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	fullPath := l.Path(path)

	info, err := os.Lstat(fullPath)
	if err != nil {
		return nil, &models.IOError{Op: "stat", Path: fullPath, Err: err}
	}

	return l.fileInfo(path, info)
}

func (l *Local) fileInfo(relPath string, info fs.FileInfo) (*FileInfo, error) {
	fi := &FileInfo{
		Name:         info.Name(),
		Path:         l.Path(relPath),
		RelativePath: relPath,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		Kind:         kindOf(info.Mode()),
		Permissions:  uint32(info.Mode().Perm()),
	}

	switch fi.Kind {
	case models.KindDir:
		fi.Size = 0
	case models.KindSymlink:
		target, err := os.Readlink(fi.Path)
		if err != nil {
			return nil, &models.IOError{Op: "readlink", Path: fi.Path, Err: err}
		}
		fi.LinkTarget = target
		fi.Size = int64(len(target))
	}

	return fi, nil
}

func kindOf(mode fs.FileMode) models.Kind {
	switch {
	case mode.IsRegular():
		return models.KindFile
	case mode.IsDir():
		return models.KindDir
	case mode&fs.ModeSymlink != 0:
		return models.KindSymlink
	default:
		return models.KindOther
	}
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath := l.Path(path)

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, &models.IOError{Op: "open", Path: fullPath, Err: err}
	}

	return file, nil
}

// Write creates or replaces a file. Content goes to a sibling temporary
// file that is renamed over the target, so read-only targets are replaced
// and a failed write leaves the previous content in place.
func (l *Local) Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error {
	fullPath := l.Path(path)

	mode := os.FileMode(0644)
	if metadata != nil && metadata.Permissions != 0 {
		mode = os.FileMode(metadata.Permissions)
	} else if info, err := os.Lstat(fullPath); err == nil && info.Mode().IsRegular() {
		mode = info.Mode().Perm()
	}

	file, err := os.CreateTemp(filepath.Dir(fullPath), ".syncmirror-write-*")
	if err != nil {
		return &models.MutationError{Mutation: models.MutationCopy, Path: fullPath, Err: err}
	}
	tmpPath := file.Name()
	committed := false
	defer func() {
		if !committed {
			file.Close()
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(file, reader)
	if err != nil {
		return &models.IOError{Op: "write", Path: fullPath, Err: err}
	}

	if written != size {
		return &models.IOError{Op: "write", Path: fullPath, Err: fmt.Errorf("incomplete write: expected %d bytes, wrote %d", size, written)}
	}

	if err := file.Chmod(mode); err != nil {
		return &models.MutationError{Mutation: models.MutationCopy, Path: fullPath, Err: err}
	}

	if err := file.Close(); err != nil {
		return &models.IOError{Op: "close", Path: tmpPath, Err: err}
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		return &models.MutationError{Mutation: models.MutationCopy, Path: fullPath, Err: err}
	}
	committed = true

	return nil
}

// Symlink creates a symbolic link
func (l *Local) Symlink(ctx context.Context, target, path string) error {
	fullPath := l.Path(path)

	if err := os.Symlink(target, fullPath); err != nil {
		return &models.MutationError{Mutation: models.MutationCopy, Path: fullPath, Err: err}
	}

	return nil
}

// Rename renames an entry within the backend
func (l *Local) Rename(ctx context.Context, oldPath, newPath string) error {
	fullOld := l.Path(oldPath)

	if err := os.Rename(fullOld, l.Path(newPath)); err != nil {
		return &models.MutationError{Mutation: models.MutationRename, Path: fullOld, Err: err}
	}

	return nil
}

// Remove removes a file, symlink or empty directory
func (l *Local) Remove(ctx context.Context, path string) error {
	fullPath := l.Path(path)

	if err := os.Remove(fullPath); err != nil {
		return &models.MutationError{Mutation: models.MutationRemove, Path: fullPath, Err: err}
	}

	return nil
}

// RemoveAll removes a directory tree
func (l *Local) RemoveAll(ctx context.Context, path string) error {
	fullPath := l.Path(path)
	if fullPath == l.rootPath {
		return &models.MutationError{Mutation: models.MutationRemove, Path: fullPath, Err: fmt.Errorf("refusing to remove backend root")}
	}

	if err := os.RemoveAll(fullPath); err != nil {
		return &models.MutationError{Mutation: models.MutationRemove, Path: fullPath, Err: err}
	}

	return nil
}

// MkdirAll creates a directory and all necessary parents
func (l *Local) MkdirAll(ctx context.Context, path string) error {
	fullPath := l.Path(path)

	if err := os.MkdirAll(fullPath, 0755); err != nil {
		return &models.MutationError{Mutation: models.MutationCreate, Path: fullPath, Err: err}
	}

	return nil
}

// TreeSize returns the total size of the regular files below path.
// Symlinks are not followed and count as zero bytes.
func (l *Local) TreeSize(ctx context.Context, path string) (int64, error) {
	fullPath := l.Path(path)
	var total int64

	err := filepath.WalkDir(fullPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})

	if err != nil {
		return 0, &models.IOError{Op: "size", Path: fullPath, Err: err}
	}

	return total, nil
}

// FreeSpace returns the bytes available to an unprivileged user on the root's volume
func (l *Local) FreeSpace(ctx context.Context) (int64, error) {
	free, err := freeSpace(l.rootPath)
	if err != nil {
		return 0, &models.IOError{Op: "statfs", Path: l.rootPath, Err: err}
	}
	return free, nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

// Package delta produces binary patches between two versions of a file and
// applies them in place.
package delta

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/kr/binarydist"

	"github.com/sdejongh/syncmirror/pkg/models"
)

// Codec creates and applies binary patches
type Codec interface {
	// MakePatch writes a patch that turns oldPath's bytes into newPath's bytes
	MakePatch(ctx context.Context, oldPath, newPath string, patch io.Writer) error

	// ApplyInPlace rewrites targetPath so its contents equal the patched bytes
	ApplyInPlace(ctx context.Context, targetPath string, patch io.Reader) error

	// Name returns the codec name
	Name() string
}

// BSDiff is a Codec producing bsdiff-format patches
type BSDiff struct{}

// NewBSDiff creates a bsdiff codec
func NewBSDiff() *BSDiff {
	return &BSDiff{}
}

// MakePatch writes a bsdiff patch from oldPath to newPath
func (c *BSDiff) MakePatch(ctx context.Context, oldPath, newPath string, patch io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	oldFile, err := os.Open(oldPath)
	if err != nil {
		return &models.IOError{Op: "open", Path: oldPath, Err: err}
	}
	defer oldFile.Close()

	newFile, err := os.Open(newPath)
	if err != nil {
		return &models.IOError{Op: "open", Path: newPath, Err: err}
	}
	defer newFile.Close()

	if err := binarydist.Diff(oldFile, newFile, patch); err != nil {
		return &models.IOError{Op: "diff", Path: newPath, Err: err}
	}

	return nil
}

// ApplyInPlace patches targetPath. The result is written to a sibling temp
// file and renamed over the target, so a failed apply leaves it untouched.
func (c *BSDiff) ApplyInPlace(ctx context.Context, targetPath string, patch io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	oldFile, err := os.Open(targetPath)
	if err != nil {
		return &models.IOError{Op: "open", Path: targetPath, Err: err}
	}
	defer oldFile.Close()

	info, err := oldFile.Stat()
	if err != nil {
		return &models.IOError{Op: "stat", Path: targetPath, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(targetPath), ".syncmirror-patch-*")
	if err != nil {
		return &models.MutationError{Mutation: models.MutationCopy, Path: targetPath, Err: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := binarydist.Patch(oldFile, tmp, patch); err != nil {
		return &models.IOError{Op: "patch", Path: targetPath, Err: err}
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return &models.MutationError{Mutation: models.MutationCopy, Path: targetPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &models.IOError{Op: "close", Path: tmpPath, Err: err}
	}
	oldFile.Close()

	if err := os.Rename(tmpPath, targetPath); err != nil {
		return &models.MutationError{Mutation: models.MutationCopy, Path: targetPath, Err: err}
	}
	committed = true

	return nil
}

// Name returns the codec name
func (c *BSDiff) Name() string {
	return "bsdiff"
}

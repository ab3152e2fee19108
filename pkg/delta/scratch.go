package delta

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/sdejongh/syncmirror/pkg/models"
)

// Scratch is a uniquely named transient patch artifact.
// Release must be called on every exit path.
type Scratch struct {
	path string
	file *os.File
}

// NewScratch creates a new patch artifact in dir (os.TempDir when empty)
func NewScratch(dir string) (*Scratch, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	path := filepath.Join(dir, fmt.Sprintf("syncmirror-%s.patch", uuid.New().String()))
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, &models.IOError{Op: "create scratch", Path: path, Err: err}
	}

	return &Scratch{path: path, file: file}, nil
}

// Path returns the artifact path
func (s *Scratch) Path() string {
	return s.path
}

// File returns the open artifact
func (s *Scratch) File() *os.File {
	return s.file
}

// Rewind positions the artifact at its start for reading
func (s *Scratch) Rewind() error {
	if _, err := s.file.Seek(0, 0); err != nil {
		return &models.IOError{Op: "seek", Path: s.path, Err: err}
	}
	return nil
}

// Size returns the number of bytes written to the artifact
func (s *Scratch) Size() int64 {
	info, err := s.file.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

// Release closes and removes the artifact
func (s *Scratch) Release() error {
	s.file.Close()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return &models.IOError{Op: "remove scratch", Path: s.path, Err: err}
	}
	return nil
}

// Package compare lists one directory level on both sides of the mirror and
// partitions the entries into common, source-only and destination-only sets.
package compare

import (
	"context"
	"path/filepath"

	"github.com/sdejongh/syncmirror/pkg/logging"
	"github.com/sdejongh/syncmirror/pkg/models"
	"github.com/sdejongh/syncmirror/pkg/storage"
)

// Pair is a name present with the same kind on both sides
type Pair struct {
	Name   string
	Source storage.FileInfo
	Dest   storage.FileInfo
}

// Kind returns the kind shared by both sides
func (p Pair) Kind() models.Kind {
	return p.Source.Kind
}

// Snapshot is the partition of one directory level.
// Lists are sorted by name.
type Snapshot struct {
	SourceDir string
	DestDir   string

	Common     []Pair
	SourceOnly []storage.FileInfo
	DestOnly   []storage.FileInfo

	// Conflicted holds names present on both sides with different kinds.
	// Such a name appears in both SourceOnly and DestOnly.
	Conflicted map[string]bool

	// Skipped holds entries that cannot be mirrored (devices, sockets, pipes)
	Skipped []storage.FileInfo
}

// Comparator produces shallow directory snapshots
type Comparator struct {
	source  storage.Backend
	dest    storage.Backend
	exclude []string
	logger  logging.Logger
}

// NewComparator creates a comparator over two backends.
// Entries matching an exclude pattern are invisible on both sides.
func NewComparator(source, dest storage.Backend, exclude []string, logger logging.Logger) *Comparator {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Comparator{
		source:  source,
		dest:    dest,
		exclude: exclude,
		logger:  logger,
	}
}

// Compare lists sourceDir and destDir (relative to their roots) and partitions their children
func (c *Comparator) Compare(ctx context.Context, sourceDir, destDir string) (*Snapshot, error) {
	sourceEntries, err := c.list(ctx, c.source, sourceDir)
	if err != nil {
		return nil, err
	}
	destEntries, err := c.list(ctx, c.dest, destDir)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		SourceDir:  sourceDir,
		DestDir:    destDir,
		Conflicted: make(map[string]bool),
	}

	sourceEntries = snap.dropUnmirrorable(sourceEntries)
	destEntries = snap.dropUnmirrorable(destEntries)
	for _, fi := range snap.Skipped {
		c.logger.Debug(ctx, "skipping special file", logging.Fields{"path": fi.Path})
	}

	i, j := 0, 0
	for i < len(sourceEntries) || j < len(destEntries) {
		switch {
		case j == len(destEntries) || (i < len(sourceEntries) && sourceEntries[i].Name < destEntries[j].Name):
			snap.SourceOnly = append(snap.SourceOnly, sourceEntries[i])
			i++
		case i == len(sourceEntries) || destEntries[j].Name < sourceEntries[i].Name:
			snap.DestOnly = append(snap.DestOnly, destEntries[j])
			j++
		default:
			src, dst := sourceEntries[i], destEntries[j]
			if src.Kind == dst.Kind {
				snap.Common = append(snap.Common, Pair{Name: src.Name, Source: src, Dest: dst})
			} else {
				snap.SourceOnly = append(snap.SourceOnly, src)
				snap.DestOnly = append(snap.DestOnly, dst)
				snap.Conflicted[src.Name] = true
			}
			i++
			j++
		}
	}

	return snap, nil
}

func (c *Comparator) list(ctx context.Context, backend storage.Backend, dir string) ([]storage.FileInfo, error) {
	entries, err := backend.ReadDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	if len(c.exclude) == 0 {
		return entries, nil
	}

	kept := entries[:0]
	for _, fi := range entries {
		if shouldExclude(filepath.Join(dir, fi.Name), c.exclude) {
			continue
		}
		kept = append(kept, fi)
	}
	return kept, nil
}

func (s *Snapshot) dropUnmirrorable(entries []storage.FileInfo) []storage.FileInfo {
	kept := entries[:0]
	for _, fi := range entries {
		if fi.Kind == models.KindOther {
			s.Skipped = append(s.Skipped, fi)
			continue
		}
		kept = append(kept, fi)
	}
	return kept
}

// Source lists the mirrorable, non-excluded children of a source directory
func (c *Comparator) Source(ctx context.Context, dir string) ([]storage.FileInfo, error) {
	entries, err := c.list(ctx, c.source, dir)
	if err != nil {
		return nil, err
	}

	kept := entries[:0]
	for _, fi := range entries {
		if fi.Kind == models.KindOther {
			c.logger.Debug(ctx, "skipping special file", logging.Fields{"path": fi.Path})
			continue
		}
		kept = append(kept, fi)
	}
	return kept, nil
}

// Package guard refuses to start a pass when the destination volume could
// run out of space before the pass completes.
package guard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/syncmirror/pkg/models"
	"github.com/sdejongh/syncmirror/pkg/storage"
)

// FreeSpaceFunc returns the bytes available on the destination volume
type FreeSpaceFunc func(ctx context.Context) (int64, error)

// Guard checks destination free space before each pass
type Guard struct {
	source    storage.Backend
	dest      storage.Backend
	freeSpace FreeSpaceFunc
}

// New creates a guard measuring free space through the destination backend
func New(source, dest storage.Backend) *Guard {
	return &Guard{
		source:    source,
		dest:      dest,
		freeSpace: dest.FreeSpace,
	}
}

// WithFreeSpace replaces the free space probe
func (g *Guard) WithFreeSpace(fn FreeSpaceFunc) *Guard {
	g.freeSpace = fn
	return g
}

// Check measures both trees and the destination volume. It returns a
// *models.ResourceExhaustionError unless free space exceeds 2*source - dest.
func (g *Guard) Check(ctx context.Context) (*models.Usage, error) {
	var usage models.Usage

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		usage.SourceBytes, err = g.source.TreeSize(egCtx, ".")
		return err
	})
	eg.Go(func() error {
		var err error
		usage.DestBytes, err = g.dest.TreeSize(egCtx, ".")
		return err
	})
	eg.Go(func() error {
		var err error
		usage.FreeBytes, err = g.freeSpace(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if required := usage.Required(); usage.FreeBytes <= required {
		return &usage, &models.ResourceExhaustionError{
			Path:     g.dest.Root(),
			Free:     usage.FreeBytes,
			Required: required,
		}
	}

	return &usage, nil
}

package delta

import (
	"context"
	"sync"
)

// Patcher turns a destination file into a copy of a source file by patching.
// Only one patch is generated and applied at a time per Patcher.
type Patcher struct {
	codec      Codec
	scratchDir string
	mu         sync.Mutex
}

// NewPatcher creates a patcher writing its artifacts to scratchDir
func NewPatcher(codec Codec, scratchDir string) *Patcher {
	return &Patcher{
		codec:      codec,
		scratchDir: scratchDir,
	}
}

// Patch rewrites targetPath so it equals sourcePath and returns the patch size
func (p *Patcher) Patch(ctx context.Context, sourcePath, targetPath string) (size int64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	scratch, err := NewScratch(p.scratchDir)
	if err != nil {
		return 0, err
	}
	defer func() {
		if relErr := scratch.Release(); relErr != nil && err == nil {
			err = relErr
		}
	}()

	if err := p.codec.MakePatch(ctx, targetPath, sourcePath, scratch.File()); err != nil {
		return 0, err
	}
	size = scratch.Size()

	if err := scratch.Rewind(); err != nil {
		return 0, err
	}
	if err := p.codec.ApplyInPlace(ctx, targetPath, scratch.File()); err != nil {
		return 0, err
	}

	return size, nil
}

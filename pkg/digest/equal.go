package digest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/syncmirror/pkg/storage"
)

// Side locates one file of a comparison. Size is the size already known
// from the directory listing; the size pre-filter never restats.
type Side struct {
	Backend storage.Backend
	Path    string
	Size    int64
}

// Result is the outcome of an equality check
type Result struct {
	Same bool
	// Digested is true when the sizes matched and digests were computed
	Digested bool
	Reason   string
}

// Equal reports whether two files hold identical content.
// Unequal sizes short-circuit; equal sizes are settled by digest,
// computing both sides concurrently.
func Equal(ctx context.Context, p Provider, a, b Side) (Result, error) {
	if a.Size != b.Size {
		return Result{
			Reason: fmt.Sprintf("size mismatch: %d != %d", a.Size, b.Size),
		}, nil
	}

	var sumA, sumB string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sumA, err = p.Sum(gctx, a.Backend, a.Path)
		return err
	})
	g.Go(func() error {
		var err error
		sumB, err = p.Sum(gctx, b.Backend, b.Path)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if sumA != sumB {
		return Result{Digested: true, Reason: p.Name() + " digest mismatch"}, nil
	}
	return Result{Same: true, Digested: true, Reason: p.Name() + " digests match"}, nil
}

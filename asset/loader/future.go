package loader

import (
	"context"
	"sync"

	"github.com/fabricio-araujo94/solid/asset/geometry"
)

// Future holds the outcome of an asynchronous load. It is completed exactly
// once; later completion attempts are ignored.
type Future struct {
	once sync.Once
	done chan struct{}

	geometry *geometry.Geometry
	err      error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Complete the future. Returns false if it was already completed.
func (f *Future) complete(geom *geometry.Geometry, err error) bool {
	completed := false
	f.once.Do(func() {
		f.geometry, f.err = geom, err
		close(f.done)
		completed = true
	})
	return completed
}

// Done is closed once the future completes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes or ctx expires.
func (f *Future) Wait(ctx context.Context) (*geometry.Geometry, error) {
	select {
	case <-f.done:
		return f.geometry, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome without blocking. ok is false while the load is
// still pending.
func (f *Future) Result() (geom *geometry.Geometry, ok bool, err error) {
	select {
	case <-f.done:
		return f.geometry, true, f.err
	default:
		return nil, false, nil
	}
}

package viewer

import (
	"context"

	"github.com/fabricio-araujo94/solid/scene"
)

// Load tracks a model load request. It completes exactly once: with nil when
// the model was applied to the scene, with a *LoadError when loading failed,
// or with ErrSuperseded / ErrDisposed when the result was discarded.
type Load struct {
	URL   string
	Color scene.Color

	token uint64
	done  chan struct{}
	err   error
}

func newLoad(url string, color scene.Color, token uint64) *Load {
	return &Load{
		URL:   url,
		Color: color,
		token: token,
		done:  make(chan struct{}),
	}
}

func (l *Load) finish(err error) {
	l.err = err
	close(l.done)
}

// Done is closed when the load completes.
func (l *Load) Done() <-chan struct{} {
	return l.done
}

// Err returns the load outcome. It must only be called after Done is closed.
func (l *Load) Err() error {
	return l.err
}

// Wait blocks until the load completes or ctx expires.
func (l *Load) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

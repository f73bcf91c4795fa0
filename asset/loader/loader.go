// Package loader resolves model URLs to raw geometry. Each supported file
// format is handled by a Loader; a Registry selects the first loader that
// claims a URL and refuses URLs that no loader claims.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fabricio-araujo94/solid/asset"
	"github.com/fabricio-araujo94/solid/asset/geometry"
	"github.com/fabricio-araujo94/solid/log"
)

var (
	ErrUnsupportedFormat = errors.New("loader: no loader for format")
	ErrParse             = errors.New("loader: malformed model data")

	// Transport errors are reported by the asset package.
	ErrFetch = asset.ErrFetch
)

// The Loader interface is implemented by all format specific loaders.
// Loaders are stateless and may be shared between registries.
type Loader interface {
	// A short human readable format name.
	Name() string

	// The file extensions (including the leading dot) handled by the loader.
	Extensions() []string

	// Returns true if the loader can handle the model at url.
	Supports(url string) bool

	// Fetch and parse the model at url.
	Load(ctx context.Context, url string) (*geometry.Geometry, error)
}

// An ordered set of loaders.
type Registry struct {
	logger  log.Logger
	loaders []Loader
}

// Create a registry. Loaders are queried in the order they are supplied.
func NewRegistry(loaders ...Loader) *Registry {
	return &Registry{
		logger:  log.New("loader registry"),
		loaders: append([]Loader(nil), loaders...),
	}
}

// Create a registry with the STL and wavefront loaders using the default
// resource fetcher.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewSTLLoader(asset.DefaultFetcher),
		NewWavefrontLoader(asset.DefaultFetcher),
	)
}

// The registered loaders in query order.
func (r *Registry) Loaders() []Loader {
	return append([]Loader(nil), r.loaders...)
}

// Resolve returns the first loader that supports url.
func (r *Registry) Resolve(modelURL string) (Loader, error) {
	for _, l := range r.loaders {
		if l.Supports(modelURL) {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, modelURL)
}

// Load resolves a loader for url and runs it on the calling goroutine.
func (r *Registry) Load(ctx context.Context, modelURL string) (*geometry.Geometry, error) {
	l, err := r.Resolve(modelURL)
	if err != nil {
		return nil, err
	}
	r.logger.Debugf("loading %q using the %s loader", modelURL, l.Name())
	return l.Load(ctx, modelURL)
}

// LoadAsync runs Load on a new goroutine. The returned future is always
// completed from that goroutine, even when no loader supports url.
func (r *Registry) LoadAsync(ctx context.Context, modelURL string) *Future {
	f := newFuture()
	go func() {
		f.complete(r.Load(ctx, modelURL))
	}()
	return f
}

// Returns true if the path component of url ends with one of the supplied
// extensions. Query strings and fragments are ignored and the comparison is
// case insensitive.
func hasExtension(modelURL string, extensions ...string) bool {
	p := modelURL
	if u, err := url.Parse(modelURL); err == nil {
		p = u.Path
	}
	p = strings.ToLower(p)
	for _, ext := range extensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

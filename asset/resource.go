package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrFetch is wrapped by every error caused by a failure to open or
	// download a resource.
	ErrFetch = errors.New("resource: fetch failed")
)

// The Resource class wraps a streamable file or remote Resource.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Return the base name of this resource. For remote resources the query
// string and fragment are ignored.
func (r *Resource) Name() string {
	if r.IsRemote() {
		return path.Base(r.url.Path)
	}
	return filepath.Base(r.url.Path)
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != "" && r.url.Scheme != "file"
}

// The Fetcher opens resources. Remote resources are retrieved using the
// supplied http client.
type Fetcher struct {
	Client *http.Client
}

// A fetcher backed by http.DefaultClient.
var DefaultFetcher = &Fetcher{Client: http.DefaultClient}

// Open a resource. Paths without a scheme or with a file:// scheme are opened
// from the local filesystem; http and https URLs are streamed using the
// fetcher's client. The caller must close the returned resource.
func (f *Fetcher) Open(ctx context.Context, pathToResource string) (*Resource, error) {
	// Normalize windows separators before parsing as a URL
	resURL, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFetch, err)
	}

	var reader io.ReadCloser
	switch resURL.Scheme {
	case "", "file":
		reader, err = os.Open(filepath.Clean(resURL.Path))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrFetch, err)
		}
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, resURL.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrFetch, err)
		}
		client := f.Client
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: could not fetch '%s': %s", ErrFetch, resURL.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: could not fetch '%s': status %d", ErrFetch, resURL.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("%w: unsupported scheme '%s'", ErrFetch, resURL.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        resURL,
	}, nil
}

// Open a resource using the default fetcher.
func NewResource(ctx context.Context, pathToResource string) (*Resource, error) {
	return DefaultFetcher.Open(ctx, pathToResource)
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	resURL, _ := url.Parse(name)
	if resURL == nil {
		resURL = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        resURL,
	}
}

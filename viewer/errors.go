package viewer

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized     = errors.New("viewer: not initialized")
	ErrAlreadyInitialized = errors.New("viewer: already initialized")
	ErrDisposed           = errors.New("viewer: disposed")
	ErrNoSurface          = errors.New("viewer: no surface supplied")
	ErrEmptyURL           = errors.New("viewer: empty model url")

	// Reported by every failed load attempt together with its cause.
	ErrLoadFailed = errors.New("viewer: load failed")

	// A newer load request or an explicit clear replaced the request.
	ErrSuperseded = errors.New("viewer: load superseded")
)

// LoadError describes a failed model load. It matches both ErrLoadFailed and
// the underlying cause when inspected with errors.Is.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("viewer: failed to load %q: %s", e.URL, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadFailed, e.Err}
}

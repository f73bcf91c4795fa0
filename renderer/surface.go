package renderer

import (
	"image"
	"sync"
)

// Surface is the host-owned target a render context draws into. A surface
// hosts at most one canvas at a time.
type Surface interface {
	// Current dimensions in pixels. Zero values select the default frame size.
	Size() (width, height int)

	// Attach a canvas to the surface.
	Attach(canvas *Canvas) error

	// Detach a previously attached canvas.
	Detach(canvas *Canvas)
}

// ImageSurface is an offscreen surface. It keeps track of attach and detach
// calls so hosts can verify that a canvas is released exactly once.
type ImageSurface struct {
	mu sync.Mutex

	width, height int
	canvas        *Canvas
	attached      int
	detached      int
}

func NewImageSurface(width, height int) *ImageSurface {
	return &ImageSurface{width: width, height: height}
}

func (s *ImageSurface) Size() (width, height int) {
	return s.width, s.height
}

func (s *ImageSurface) Attach(canvas *Canvas) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas != nil {
		return ErrAlreadyAttached
	}
	s.canvas = canvas
	s.attached++
	return nil
}

func (s *ImageSurface) Detach(canvas *Canvas) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas == nil || s.canvas != canvas {
		return
	}
	s.canvas = nil
	s.detached++
}

// Canvas returns the attached canvas or nil.
func (s *ImageSurface) Canvas() *Canvas {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas
}

// Frame returns the latest frame of the attached canvas.
func (s *ImageSurface) Frame() *image.RGBA {
	canvas := s.Canvas()
	if canvas == nil {
		return nil
	}
	frame, _ := canvas.Snapshot()
	return frame
}

// Attachments returns the number of successful attach and detach calls.
func (s *ImageSurface) Attachments() (attached, detached int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached, s.detached
}

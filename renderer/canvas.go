package renderer

import (
	"image"
	"sync"

	"golang.org/x/image/draw"
)

// Canvas holds the most recently presented frame. Presented frames are never
// modified afterwards so they can be shared with listeners without copying.
type Canvas struct {
	mu sync.Mutex

	width, height int
	frame         *image.RGBA
	seq           uint64

	nextListenerID int
	listeners      map[int]func(*image.RGBA)
}

func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		width:     width,
		height:    height,
		listeners: make(map[int]func(*image.RGBA)),
	}
}

// Canvas dimensions in pixels.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// Snapshot returns the last presented frame and its sequence number. The
// frame is nil until the first frame is presented.
func (c *Canvas) Snapshot() (*image.RGBA, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame, c.seq
}

// OnPresent registers a callback invoked with every presented frame. The
// callback runs on the rendering goroutine and must not modify the frame.
// The returned function removes the callback.
func (c *Canvas) OnPresent(fn func(*image.RGBA)) (cancel func()) {
	c.mu.Lock()
	id := c.nextListenerID
	c.nextListenerID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Canvas) present(img image.Image) {
	frame, ok := img.(*image.RGBA)
	if !ok {
		frame = image.NewRGBA(img.Bounds())
		draw.Draw(frame, frame.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	c.mu.Lock()
	c.frame = frame
	c.seq++
	listeners := make([]func(*image.RGBA), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(frame)
	}
}

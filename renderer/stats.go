package renderer

import "time"

// LiveBuffers counts the render-side buffers currently held by a context.
type LiveBuffers struct {
	Geometries int
	Materials  int
	Textures   int
}

// Total number of live buffers.
func (b LiveBuffers) Total() int {
	return b.Geometries + b.Materials + b.Textures
}

type FrameStats struct {
	// Number of frames presented so far.
	Frames uint64

	// Render time for the last frame.
	RenderTime time.Duration

	// Triangles rasterized in the last frame.
	Triangles int

	// Buffers allocated by the context.
	Buffers LiveBuffers
}

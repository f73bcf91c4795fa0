// Package renderer turns a scene and camera into frames. A Context owns the
// render-side copies of mesh data and a Canvas that receives every finished
// frame; a Surface is the host-provided target the canvas is attached to.
package renderer

import (
	"github.com/fabricio-araujo94/solid/scene"
)

type Context interface {
	// The canvas receiving rendered frames.
	Canvas() *Canvas

	// Allocate render buffers for a mesh. Uploading a mesh twice is a no-op.
	Upload(mesh *scene.Mesh) error

	// Free the render buffers held for a mesh.
	Release(mesh *scene.Mesh)

	// Render a frame and present it on the canvas. Meshes that were not
	// uploaded yet are uploaded on demand.
	Render(sc *scene.Scene, camera *scene.Camera) error

	// Free every buffer and invalidate the context. Safe to call repeatedly.
	ForceRelease()

	// Get render statistics.
	Stats() FrameStats
}

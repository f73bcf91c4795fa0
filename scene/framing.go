package scene

import (
	"math"

	"github.com/fabricio-araujo94/solid/asset/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

// Extra room left around a framed object so it does not touch the viewport
// edges.
const FitMargin = 1.2

// FitDistance returns the camera distance at which an object whose largest
// dimension is maxDim fits the viewport of a camera with the given vertical
// field of view (degrees) and aspect ratio.
func FitDistance(maxDim, fov, aspect float32) float32 {
	fitHeightDistance := float64(maxDim) / (2 * math.Tan(math.Pi*float64(fov)/360))
	fitWidthDistance := fitHeightDistance / float64(aspect)
	return float32(FitMargin * math.Max(fitHeightDistance, fitWidthDistance))
}

// FitCameraToObjects moves the camera along the ray from the objects'
// bounding box center through the current camera position so that all
// objects fit the viewport, then points the camera at the center. The
// viewing direction is preserved. If the camera sits exactly on the center,
// DefaultCameraPosition supplies the direction. Objects without extent are
// framed at DefaultOrbitMinDistance.
//
// Returns the framed center and false if the objects enclose no volume.
func FitCameraToObjects(c *Camera, objects ...Bounded) (mgl32.Vec3, bool) {
	box := geometry.EmptyBox()
	for _, obj := range objects {
		box = box.Union(obj.WorldBoundingBox())
	}
	if box.IsEmpty() {
		return mgl32.Vec3{}, false
	}

	center := box.Center()
	distance := FitDistance(box.MaxDim(), c.FOV, c.Aspect)
	if distance <= 0 {
		distance = DefaultOrbitMinDistance
	}

	direction := c.Position.Sub(center)
	if direction.Len() == 0 {
		direction = DefaultCameraPosition
	}

	c.Position = center.Add(direction.Normalize().Mul(distance))
	c.LookAt(center)
	return center, true
}

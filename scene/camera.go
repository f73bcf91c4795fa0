package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// The placement of a freshly created camera.
var DefaultCameraPosition = mgl32.Vec3{0, 50, 100}

// The camera type controls the scene camera.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	ViewMat mgl32.Mat4
	ProjMat mgl32.Mat4

	// Vertical field of view in degrees.
	FOV    float32
	Aspect float32
	Near   float32
	Far    float32
}

// Create a perspective camera placed at DefaultCameraPosition and looking
// at the origin.
func NewCamera(fov, aspect, near, far float32) *Camera {
	c := &Camera{
		Position: DefaultCameraPosition,
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		ViewMat:  mgl32.Ident4(),
		ProjMat:  mgl32.Ident4(),
		FOV:      fov,
		Aspect:   aspect,
		Near:     near,
		Far:      far,
	}
	c.Update()
	return c
}

// Setup camera projection matrix.
func (c *Camera) SetupProjection(aspect float32) {
	c.Aspect = aspect
	c.Update()
}

// Point the camera at target.
func (c *Camera) LookAt(target mgl32.Vec3) {
	c.Target = target
	c.Update()
}

// Update recalculates the view and projection matrices. The view matrix is
// left untouched while the camera sits on its target.
func (c *Camera) Update() {
	c.ProjMat = mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)

	dir := c.Target.Sub(c.Position)
	if dir.Len() == 0 {
		return
	}

	// Looking straight along the up axis yields a degenerate basis
	up := c.Up
	if dir.Normalize().Cross(up).Len() < 1e-6 {
		up = mgl32.Vec3{0, 0, -1}
	}
	c.ViewMat = mgl32.LookAtV(c.Position, c.Target, up)
}

// ViewProjMat returns ProjMat * ViewMat.
func (c *Camera) ViewProjMat() mgl32.Mat4 {
	return c.ProjMat.Mul4(c.ViewMat)
}

// Distance between the camera and its target.
func (c *Camera) Distance() float32 {
	return c.Position.Sub(c.Target).Len()
}

// Spherical returns the camera offset from its target as radius, azimuth
// (about Y, from +Z) and elevation (from the XZ plane) angles.
func (c *Camera) Spherical() (radius, azimuth, elevation float64) {
	off := c.Position.Sub(c.Target)
	radius = float64(off.Len())
	if radius == 0 {
		return 0, 0, 0
	}
	azimuth = math.Atan2(float64(off[0]), float64(off[2]))
	elevation = math.Asin(clamp(float64(off[1])/radius, -1, 1))
	return radius, azimuth, elevation
}

// SetSpherical places the camera around its target and looks at it.
func (c *Camera) SetSpherical(radius, azimuth, elevation float64) {
	cosEl := math.Cos(elevation)
	c.Position = c.Target.Add(mgl32.Vec3{
		float32(radius * cosEl * math.Sin(azimuth)),
		float32(radius * math.Sin(elevation)),
		float32(radius * cosEl * math.Cos(azimuth)),
	})
	c.Update()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

package scene

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultOrbitMinDistance = 10
	DefaultOrbitMaxDistance = 2000

	// Velocities below this threshold (radians per frame) are snapped to zero.
	orbitRestVelocity = 1e-4

	// Keep the camera away from the poles where the up vector degenerates.
	maxElevation = math.Pi/2 - 1e-3
)

// An orbit axis tracks an angular velocity that decays towards zero.
type orbitAxis struct {
	velocity float64
	accel    float64
	spring   harmonica.Spring
}

func newOrbitAxis(fps int, damping float64) orbitAxis {
	return orbitAxis{
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, damping),
	}
}

// Advance the axis by one frame and return the angle delta to apply.
func (a *orbitAxis) step() float64 {
	delta := a.velocity
	a.velocity, a.accel = a.spring.Update(a.velocity, a.accel, 0)
	if math.Abs(a.velocity) < orbitRestVelocity && math.Abs(a.accel) < orbitRestVelocity {
		a.velocity, a.accel = 0, 0
	}
	return delta
}

func (a *orbitAxis) moving() bool {
	return a.velocity != 0
}

// OrbitControls rotates a camera around a target point. Rotation requests
// are applied as impulses whose effect fades out over the following frames.
type OrbitControls struct {
	Camera *Camera
	Target mgl32.Vec3

	MinDistance float32
	MaxDistance float32

	yaw   orbitAxis
	pitch orbitAxis
}

// Create orbit controls for a camera updated fps times per second.
func NewOrbitControls(camera *Camera, fps int) *OrbitControls {
	if fps <= 0 {
		fps = 60
	}
	return &OrbitControls{
		Camera:      camera,
		Target:      camera.Target,
		MinDistance: DefaultOrbitMinDistance,
		MaxDistance: DefaultOrbitMaxDistance,
		yaw:         newOrbitAxis(fps, 1.0),
		pitch:       newOrbitAxis(fps, 1.0),
	}
}

// Rotate adds an angular impulse (radians per frame) around the target.
func (o *OrbitControls) Rotate(dYaw, dPitch float64) {
	o.yaw.velocity += dYaw
	o.pitch.velocity += dPitch
}

// Moving returns true while an impulse is still being applied.
func (o *OrbitControls) Moving() bool {
	return o.yaw.moving() || o.pitch.moving()
}

// Stop discards any pending impulse.
func (o *OrbitControls) Stop() {
	o.yaw.velocity, o.yaw.accel = 0, 0
	o.pitch.velocity, o.pitch.accel = 0, 0
}

// Update advances the controls by one frame. The camera is only touched
// while an impulse is active, so transforms set directly on the camera are
// left alone once the controls come to rest. Returns true if the camera
// moved.
func (o *OrbitControls) Update() bool {
	if !o.Moving() {
		return false
	}

	o.Camera.Target = o.Target
	radius, azimuth, elevation := o.Camera.Spherical()
	azimuth += o.yaw.step()
	elevation = clamp(elevation+o.pitch.step(), -maxElevation, maxElevation)
	radius = clamp(radius, float64(o.MinDistance), float64(o.MaxDistance))
	o.Camera.SetSpherical(radius, azimuth, elevation)
	return true
}

package scene

import (
	"github.com/fabricio-araujo94/solid/asset/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

// Node is implemented by everything that can be added to a Scene.
type Node interface {
	Object() *Object3D
}

// Bounded is implemented by nodes that occupy space.
type Bounded interface {
	WorldBoundingBox() geometry.Box
}

// Object3D holds the local transform shared by all scene nodes. Rotation
// stores Euler angles in radians, applied in X, Y, Z order.
type Object3D struct {
	Name     string
	Position mgl32.Vec3
	Rotation mgl32.Vec3
}

func (o *Object3D) Object() *Object3D {
	return o
}

// ModelMatrix returns T * Rx * Ry * Rz.
func (o *Object3D) ModelMatrix() mgl32.Mat4 {
	rot := mgl32.HomogRotate3DX(o.Rotation[0]).
		Mul4(mgl32.HomogRotate3DY(o.Rotation[1])).
		Mul4(mgl32.HomogRotate3DZ(o.Rotation[2]))
	return mgl32.Translate3D(o.Position[0], o.Position[1], o.Position[2]).Mul4(rot)
}

package scene

import (
	"github.com/fabricio-araujo94/solid/asset/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

// Grid is a square reference grid lying on the XZ plane.
type Grid struct {
	Object3D

	Size       float32
	Divisions  int
	CenterLine Color
	LineColor  Color
}

func NewGrid(size float32, divisions int) *Grid {
	return &Grid{
		Object3D:   Object3D{Name: "grid"},
		Size:       size,
		Divisions:  divisions,
		CenterLine: 0x444444,
		LineColor:  0x888888,
	}
}

// Lines returns the grid line segments in local space. Lines through the
// origin are returned first.
func (g *Grid) Lines() [][2]mgl32.Vec3 {
	half := g.Size / 2
	step := g.Size / float32(g.Divisions)
	lines := [][2]mgl32.Vec3{
		{{-half, 0, 0}, {half, 0, 0}},
		{{0, 0, -half}, {0, 0, half}},
	}
	for i := 0; i <= g.Divisions; i++ {
		k := -half + float32(i)*step
		if k == 0 {
			continue
		}
		lines = append(lines,
			[2]mgl32.Vec3{{-half, 0, k}, {half, 0, k}},
			[2]mgl32.Vec3{{k, 0, -half}, {k, 0, half}},
		)
	}
	return lines
}

func (g *Grid) WorldBoundingBox() geometry.Box {
	half := g.Size / 2
	box := geometry.Box{Min: mgl32.Vec3{-half, 0, -half}, Max: mgl32.Vec3{half, 0, half}}
	return box.Transform(g.ModelMatrix())
}

// AmbientLight illuminates every surface equally.
type AmbientLight struct {
	Object3D

	Color     Color
	Intensity float32
}

func NewAmbientLight(color Color, intensity float32) *AmbientLight {
	return &AmbientLight{
		Object3D:  Object3D{Name: "ambient light"},
		Color:     color,
		Intensity: intensity,
	}
}

// DirectionalLight shines from its position towards the origin.
type DirectionalLight struct {
	Object3D

	Color     Color
	Intensity float32
}

func NewDirectionalLight(name string, color Color, intensity float32, position mgl32.Vec3) *DirectionalLight {
	return &DirectionalLight{
		Object3D:  Object3D{Name: name, Position: position},
		Color:     color,
		Intensity: intensity,
	}
}

// Direction returns the unit vector pointing from the surface to the light.
func (l *DirectionalLight) Direction() mgl32.Vec3 {
	if l.Position.Len() == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return l.Position.Normalize()
}

package scene

import (
	"github.com/fabricio-araujo94/solid/asset/geometry"
)

// A texture map. The software backend does not sample textures but still
// tracks their buffers so that releasing a material releases its maps.
type Texture struct {
	Name   string
	Width  int
	Height int
	Data   []byte
}

// PhongMaterial describes a shiny surface with a single base color.
type PhongMaterial struct {
	Color       Color
	Specular    Color
	Shininess   float32
	DoubleSided bool
	Map         *Texture
}

// The material applied to loaded models.
func NewModelMaterial(color Color) *PhongMaterial {
	return &PhongMaterial{
		Color:       color,
		Specular:    0x111111,
		Shininess:   200,
		DoubleSided: true,
	}
}

// Mesh pairs a geometry with a material.
type Mesh struct {
	Object3D

	Geometry *geometry.Geometry
	Material *PhongMaterial

	localBox geometry.Box
}

// Create a mesh. The geometry bounding box is cached; call
// UpdateBoundingBox after mutating the geometry.
func NewMesh(geom *geometry.Geometry, material *PhongMaterial) *Mesh {
	m := &Mesh{
		Object3D: Object3D{Name: "mesh"},
		Geometry: geom,
		Material: material,
	}
	m.UpdateBoundingBox()
	return m
}

// Recompute the cached geometry bounding box.
func (m *Mesh) UpdateBoundingBox() {
	if m.Geometry == nil {
		m.localBox = geometry.EmptyBox()
		return
	}
	m.localBox = m.Geometry.ComputeBoundingBox()
}

// WorldBoundingBox returns the geometry bounding box transformed by the
// mesh model matrix.
func (m *Mesh) WorldBoundingBox() geometry.Box {
	return m.localBox.Transform(m.ModelMatrix())
}

// Dispose drops the mesh data. Render-side buffers must be released by the
// render context that allocated them.
func (m *Mesh) Dispose() {
	m.Geometry = nil
	m.Material = nil
	m.localBox = geometry.EmptyBox()
}

// Returns true once Dispose has been called.
func (m *Mesh) IsDisposed() bool {
	return m.Geometry == nil
}

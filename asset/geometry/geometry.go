// Package geometry holds the raw triangle data produced by the format loaders.
package geometry

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrMalformed = errors.New("geometry: position count is not a multiple of 9")

// Geometry is a non-indexed triangle list. Every 9 consecutive position
// values describe one triangle. Normals are optional; when present they
// carry one normal per vertex.
type Geometry struct {
	Positions []float32
	Normals   []float32
}

// Create a geometry from a position list.
func New(positions []float32) (*Geometry, error) {
	if len(positions)%9 != 0 {
		return nil, ErrMalformed
	}
	return &Geometry{Positions: positions}, nil
}

// Number of vertices in the geometry.
func (g *Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// Number of triangles in the geometry.
func (g *Geometry) TriangleCount() int {
	return len(g.Positions) / 9
}

// True if the geometry defines a normal for every vertex.
func (g *Geometry) HasNormals() bool {
	return len(g.Normals) > 0 && len(g.Normals) == len(g.Positions)
}

// Vertex returns the position of vertex i.
func (g *Geometry) Vertex(i int) mgl32.Vec3 {
	return mgl32.Vec3{g.Positions[3*i], g.Positions[3*i+1], g.Positions[3*i+2]}
}

// Normal returns the normal of vertex i.
func (g *Geometry) Normal(i int) mgl32.Vec3 {
	return mgl32.Vec3{g.Normals[3*i], g.Normals[3*i+1], g.Normals[3*i+2]}
}

// Triangle returns the three vertices of triangle t.
func (g *Geometry) Triangle(t int) (v0, v1, v2 mgl32.Vec3) {
	return g.Vertex(3 * t), g.Vertex(3*t + 1), g.Vertex(3*t + 2)
}

// ComputeVertexNormals assigns each vertex the normal of the face it belongs
// to. Degenerate faces get a zero normal.
func (g *Geometry) ComputeVertexNormals() {
	normals := make([]float32, len(g.Positions))
	for t := 0; t < g.TriangleCount(); t++ {
		v0, v1, v2 := g.Triangle(t)
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		for k := 0; k < 3; k++ {
			copy(normals[9*t+3*k:], n[:])
		}
	}
	g.Normals = normals
}

// ComputeBoundingBox returns the axis aligned box enclosing all vertices.
func (g *Geometry) ComputeBoundingBox() Box {
	box := EmptyBox()
	for i := 0; i < g.VertexCount(); i++ {
		box = box.ExpandByPoint(g.Vertex(i))
	}
	return box
}

// Translate moves every vertex by (x, y, z).
func (g *Geometry) Translate(x, y, z float32) {
	for i := 0; i < len(g.Positions); i += 3 {
		g.Positions[i] += x
		g.Positions[i+1] += y
		g.Positions[i+2] += z
	}
}

// Center recenters the geometry about the center of its bounding box and
// returns the offset that was removed.
func (g *Geometry) Center() mgl32.Vec3 {
	box := g.ComputeBoundingBox()
	if box.IsEmpty() {
		return mgl32.Vec3{}
	}
	center := box.Center()
	g.Translate(-center[0], -center[1], -center[2])
	return center
}

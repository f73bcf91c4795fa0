package scene

import (
	"fmt"
)

type Scene struct {
	Background Color

	nodes []Node
}

func NewScene(background Color) *Scene {
	return &Scene{
		Background: background,
		nodes:      make([]Node, 0),
	}
}

// Add a node to the scene.
func (s *Scene) Add(node Node) error {
	if node == nil {
		return fmt.Errorf("scene: nil node")
	}
	for _, n := range s.nodes {
		if n == node {
			return fmt.Errorf("scene: node %q already added", node.Object().Name)
		}
	}
	s.nodes = append(s.nodes, node)
	return nil
}

// Remove a node from the scene. Returns false if the node was not part of
// the scene.
func (s *Scene) Remove(node Node) bool {
	for i, n := range s.nodes {
		if n == node {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			return true
		}
	}
	return false
}

// Nodes returns the scene nodes in insertion order.
func (s *Scene) Nodes() []Node {
	return append([]Node(nil), s.nodes...)
}

// Meshes returns the mesh nodes in insertion order.
func (s *Scene) Meshes() []*Mesh {
	var meshes []*Mesh
	for _, n := range s.nodes {
		if m, ok := n.(*Mesh); ok {
			meshes = append(meshes, m)
		}
	}
	return meshes
}

// Drop every node.
func (s *Scene) Clear() {
	s.nodes = s.nodes[:0]
}

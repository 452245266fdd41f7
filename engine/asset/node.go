package asset

import (
	"github.com/go-gl/mathgl/mgl32"
)

// LocalMatrix returns the node transform relative to its parent.
// An explicit matrix wins; otherwise the result is T * R * S.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	t := mgl32.Translate3D(n.Translation.X(), n.Translation.Y(), n.Translation.Z())
	r := n.Rotation.Normalize().Mat4()
	s := mgl32.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

// WorldMatrix composes the local matrices from the root down to n.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.LocalMatrix()
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// WalkFunc is called for every visited node with its world matrix.
// Returning a non-nil error stops the walk.
type WalkFunc func(n *Node, world mgl32.Mat4) error

// Walk visits the scene's nodes depth-first in document order.
//
// Parameters:
//   - fn: the visitor
//
// Returns:
//   - error: the first error returned by fn
func (s *Scene) Walk(fn WalkFunc) error {
	for _, root := range s.Nodes {
		if err := walk(root, mgl32.Ident4(), fn); err != nil {
			return err
		}
	}
	return nil
}

func walk(n *Node, parent mgl32.Mat4, fn WalkFunc) error {
	world := parent.Mul4(n.LocalMatrix())
	if err := fn(n, world); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := walk(child, world, fn); err != nil {
			return err
		}
	}
	return nil
}

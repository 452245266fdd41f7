// Package inspect reports the first vertex, normal, texture coordinate, and
// index of every primitive of an asset's first mesh.
package inspect

import (
	"errors"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/accessor"
	"github.com/Carmen-Shannon/oxy-gltf/engine/asset"
)

var (
	errNoNodes          = errors.New("scene has no nodes")
	errNoMesh           = errors.New("node has no mesh")
	errMissingAttribute = errors.New("primitive lacks a required attribute")
	errMissingIndices   = errors.New("primitive is not indexed")
)

// Summary holds element 0 of the attributes a primitive is reported by.
type Summary struct {
	Vertex   [3]float32
	Normal   [3]float32
	TexCoord [2]float32
	Index    uint32
}

// WriteTo prints the four report lines of the summary.
func (s Summary) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w,
		"First Vertex: (%f, %f, %f)\n"+
			"First Normal: (%f, %f, %f)\n"+
			"First Texcoord: (%f, %f)\n"+
			"First Index: %d\n",
		s.Vertex[0], s.Vertex[1], s.Vertex[2],
		s.Normal[0], s.Normal[1], s.Normal[2],
		s.TexCoord[0], s.TexCoord[1],
		s.Index,
	)
	return int64(n), err
}

// FirstMesh selects the mesh of the first node of the asset's default scene,
// falling back to scene 0 when no default is set.
//
// Parameters:
//   - a: the loaded asset
//
// Returns:
//   - *asset.Mesh: the selected mesh
//   - error: ErrSchema if the scene, node, or mesh is missing
func FirstMesh(a *asset.Asset) (*asset.Mesh, error) {
	scene, err := a.Scene()
	if err != nil {
		return nil, err
	}
	if len(scene.Nodes) == 0 {
		return nil, common.NewError(common.ErrSchema, "scene", scene.Index, errNoNodes)
	}
	node := scene.Nodes[0]
	if node.Mesh == nil {
		return nil, common.NewError(common.ErrSchema, "node", node.Index, errNoMesh)
	}
	return node.Mesh, nil
}

// Summarize reads element 0 of POSITION, NORMAL, TEXCOORD_0 and the indices.
//
// Parameters:
//   - prim: the primitive to summarize
//
// Returns:
//   - Summary: the first elements
//   - error: ErrSchema naming the missing semantic or "indices"
func Summarize(prim *asset.Primitive) (Summary, error) {
	var s Summary
	if err := first(prim, asset.SemanticPosition, s.Vertex[:]); err != nil {
		return Summary{}, err
	}
	if err := first(prim, asset.SemanticNormal, s.Normal[:]); err != nil {
		return Summary{}, err
	}
	if err := first(prim, asset.SemanticTexCoord0, s.TexCoord[:]); err != nil {
		return Summary{}, err
	}

	if prim.Indices == nil {
		return Summary{}, &common.Error{Kind: common.ErrSchema, Entity: "primitive", Index: prim.Index, Name: "indices", Err: errMissingIndices}
	}
	v, err := accessor.NewIndices(prim.Indices)
	if err != nil {
		return Summary{}, err
	}
	idx := make([]uint32, 1)
	if err := v.Read(0, idx); err != nil {
		return Summary{}, err
	}
	s.Index = idx[0]
	return s, nil
}

// first decodes element 0 of the attribute bound to semantic into dst, whose
// length is the arity the attribute must have.
func first(prim *asset.Primitive, semantic string, dst []float32) error {
	acc, ok := prim.Attribute(semantic)
	if !ok {
		return &common.Error{Kind: common.ErrSchema, Entity: "primitive", Index: prim.Index, Name: semantic, Err: errMissingAttribute}
	}
	v, err := accessor.NewFloat(acc)
	if err != nil {
		return err
	}
	if v.Arity() != len(dst) {
		return &common.Error{
			Kind:   common.ErrSchema,
			Entity: "accessor",
			Index:  acc.Index,
			Name:   semantic,
			Err:    fmt.Errorf("has %s elements, want %d components", acc.Type, len(dst)),
		}
	}
	return v.Read(0, dst)
}

// Write summarizes every primitive of the first mesh and prints four lines
// per primitive in primitive order. Nothing is written unless every primitive
// can be summarized.
//
// Parameters:
//   - w: the destination
//   - a: the loaded asset
//
// Returns:
//   - error: a classified load error, or the write error
func Write(w io.Writer, a *asset.Asset) error {
	mesh, err := FirstMesh(a)
	if err != nil {
		return err
	}

	summaries := make([]Summary, len(mesh.Primitives))
	for i, prim := range mesh.Primitives {
		if summaries[i], err = Summarize(prim); err != nil {
			return fmt.Errorf("mesh %d: %w", mesh.Index, err)
		}
	}

	for _, s := range summaries {
		if _, err := s.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

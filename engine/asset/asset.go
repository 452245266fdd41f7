// Package asset holds the resolved glTF object graph: buffers, buffer views,
// accessors, meshes, nodes, and scenes, with JSON indices replaced by handles.
//
// An Asset is built once by Build and is read-only afterwards. Every entity
// points into the owning Asset, and buffer bytes live as long as the Asset.
package asset

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-gltf/common"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Buffer is a flat sequence of bytes loaded from a file or data URI.
type Buffer struct {
	Index int
	Name  string

	// URI is the reference the bytes were loaded from.
	URI string

	ByteLength int

	data []byte
}

// Bytes returns the buffer contents. The slice is owned by the Asset.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// BufferView is a contiguous sub-range of a buffer, optionally strided.
type BufferView struct {
	Index  int
	Name   string
	Buffer *Buffer

	ByteOffset int
	ByteLength int

	// ByteStride is 0 for tightly packed data.
	ByteStride int

	// Target is a GPU usage hint, 0 when absent.
	Target int
}

// Bytes returns the viewed sub-range of the owning buffer.
func (v *BufferView) Bytes() []byte {
	return v.Buffer.data[v.ByteOffset : v.ByteOffset+v.ByteLength]
}

// Accessor describes how to read a sequence of typed elements from a buffer view.
type Accessor struct {
	Index         int
	Name          string
	BufferView    *BufferView
	ByteOffset    int
	ComponentType ComponentType
	Type          AccessorType
	Count         int
	Normalized    bool

	// Min and Max are kept verbatim from the document, nil when absent.
	Min []float32
	Max []float32
}

// ElementSize returns the size in bytes of one element, including the column
// padding glTF requires for MAT2/MAT3 with 1- or 2-byte components.
func (a *Accessor) ElementSize() int {
	size := a.ComponentType.Size()
	rows := a.Type.Rows()
	if rows == 0 {
		return size * a.Type.Components()
	}
	return rows * common.Align4(rows*size)
}

// ComponentOffset returns the byte offset of component j inside an element.
func (a *Accessor) ComponentOffset(j int) int {
	size := a.ComponentType.Size()
	rows := a.Type.Rows()
	if rows == 0 {
		return j * size
	}
	return (j/rows)*common.Align4(rows*size) + (j%rows)*size
}

// Padded reports whether elements contain column padding.
func (a *Accessor) Padded() bool {
	return a.ElementSize() != a.ComponentType.Size()*a.Type.Components()
}

// Stride returns the effective byte distance between consecutive elements.
func (a *Accessor) Stride() int {
	if s := a.BufferView.ByteStride; s > 0 {
		return s
	}
	return a.ElementSize()
}

// Start returns the byte offset of element 0 within the owning buffer.
func (a *Accessor) Start() int {
	return a.BufferView.ByteOffset + a.ByteOffset
}

// Span returns the number of bytes from element 0 to the end of the last element.
func (a *Accessor) Span() int {
	if a.Count == 0 {
		return 0
	}
	return (a.Count-1)*a.Stride() + a.ElementSize()
}

// Primitive is one draw-call-sized unit of a mesh.
type Primitive struct {
	Index int

	// Attributes maps semantic names to accessors. Unknown semantics are kept.
	Attributes map[string]*Accessor

	// Indices is nil for non-indexed geometry.
	Indices *Accessor

	Mode PrimitiveMode
}

// Attribute returns the accessor bound to semantic, if any.
func (p *Primitive) Attribute(semantic string) (*Accessor, bool) {
	a, ok := p.Attributes[semantic]
	return a, ok
}

// Semantics returns the attribute names in lexical order.
func (p *Primitive) Semantics() []string {
	names := make([]string, 0, len(p.Attributes))
	for name := range p.Attributes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Mesh is an ordered set of primitives.
type Mesh struct {
	Index      int
	Name       string
	Primitives []*Primitive
	Weights    []float32
}

// Node is an element of the transform hierarchy.
type Node struct {
	Index    int
	Name     string
	Mesh     *Mesh
	Children []*Node
	Parent   *Node

	// Matrix is set when the document gives an explicit matrix; it then
	// takes precedence over Translation/Rotation/Scale.
	Matrix *mgl32.Mat4

	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// Scene is an ordered set of root nodes.
type Scene struct {
	Index int
	Name  string
	Nodes []*Node
}

// Asset owns every entity of a loaded glTF document.
type Asset struct {
	// ID distinguishes successive loads of the same file.
	ID uuid.UUID

	// BaseDir is the directory relative buffer URIs were resolved against.
	BaseDir string

	Version   string
	Generator string

	Buffers     []*Buffer
	BufferViews []*BufferView
	Accessors   []*Accessor
	Meshes      []*Mesh
	Nodes       []*Node
	Scenes      []*Scene

	// DefaultScene is the document's "scene" index, nil when absent.
	DefaultScene *int
}

// Scene returns scenes[DefaultScene], or scenes[0] when no default is set.
//
// Returns:
//   - *Scene: the selected scene
//   - error: ErrSchema if the asset has no scenes
func (a *Asset) Scene() (*Scene, error) {
	if len(a.Scenes) == 0 {
		return nil, common.Errorf(common.ErrSchema, "", -1, "asset has no scenes")
	}
	if a.DefaultScene != nil {
		return a.Scenes[*a.DefaultScene], nil
	}
	return a.Scenes[0], nil
}

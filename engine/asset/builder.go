package asset

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/buffer"
	"github.com/Carmen-Shannon/oxy-gltf/engine/document"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

var (
	errMissingURI       = errors.New("buffer has no uri (GLB containers are not supported)")
	errNegativeOffset   = errors.New("byteOffset is negative")
	errSparse           = errors.New("sparse accessors are not supported")
	errNoBufferView     = errors.New("accessor has no bufferView")
	errNoPrimitives     = errors.New("mesh has no primitives")
	errMultipleParents  = errors.New("node has more than one parent")
	errNodeCycle        = errors.New("node hierarchy contains a cycle")
	errIndicesNotScalar = errors.New("indices accessor must be SCALAR")
)

// builder carries the state of a single Build call.
type builder struct {
	doc     *document.Document
	baseDir string
	store   buffer.Store
	out     *Asset
}

// BuildOption is a functional option for configuring Build.
type BuildOption func(*builder)

// WithStore is an option builder that sets the Store buffer bytes are loaded into.
//
// Parameters:
//   - s: the buffer store
//
// Returns:
//   - BuildOption: a function that applies the store option to a build
func WithStore(s buffer.Store) BuildOption {
	return func(b *builder) {
		b.store = s
	}
}

// Build resolves a parsed document into an Asset and loads its buffers.
// Entities are materialized in the order buffers, bufferViews, accessors,
// meshes, nodes, scenes; ranges are checked before any buffer is read.
//
// Parameters:
//   - doc: the parsed document
//   - baseDir: directory used to resolve relative buffer URIs
//   - options: a variadic list of BuildOption functions
//
// Returns:
//   - *Asset: the resolved asset
//   - error: a *common.Error classified as ErrSchema, ErrIndex, ErrRange, ErrIO or ErrDecode
func Build(doc *document.Document, baseDir string, options ...BuildOption) (*Asset, error) {
	b := &builder{
		doc:     doc,
		baseDir: baseDir,
		out: &Asset{
			ID:        uuid.New(),
			BaseDir:   baseDir,
			Version:   doc.Asset.Version,
			Generator: doc.Asset.Generator,
		},
	}
	for _, option := range options {
		option(b)
	}
	if b.store == nil {
		b.store = buffer.NewStore()
	}

	steps := []func() error{
		b.buildBuffers,
		b.buildBufferViews,
		b.buildAccessors,
		b.buildMeshes,
		b.buildNodes,
		b.buildScenes,
		b.checkRanges,
		b.loadBuffers,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return b.out, nil
}

func (b *builder) buildBuffers() error {
	b.out.Buffers = make([]*Buffer, len(b.doc.Buffers))
	for i, src := range b.doc.Buffers {
		if src.URI == "" {
			return common.NewError(common.ErrSchema, "buffer", i, errMissingURI)
		}
		if src.ByteLength < 1 {
			return common.Errorf(common.ErrSchema, "buffer", i, "byteLength %d must be at least 1", src.ByteLength)
		}
		b.out.Buffers[i] = &Buffer{
			Index:      i,
			Name:       src.Name,
			URI:        src.URI,
			ByteLength: src.ByteLength,
		}
	}
	return nil
}

func (b *builder) buildBufferViews() error {
	b.out.BufferViews = make([]*BufferView, len(b.doc.BufferViews))
	for i, src := range b.doc.BufferViews {
		if src.Buffer < 0 || src.Buffer >= len(b.out.Buffers) {
			return common.IndexError("buffer", src.Buffer, fmt.Sprintf("bufferView %d", i))
		}
		if src.ByteOffset < 0 {
			return common.NewError(common.ErrSchema, "bufferView", i, errNegativeOffset)
		}
		if src.ByteLength < 1 {
			return common.Errorf(common.ErrSchema, "bufferView", i, "byteLength %d must be at least 1", src.ByteLength)
		}
		stride := 0
		if src.ByteStride != nil {
			stride = *src.ByteStride
		}
		if stride != 0 && (stride < 4 || stride > 252 || stride%4 != 0) {
			return common.Errorf(common.ErrSchema, "bufferView", i, "byteStride %d must be a multiple of 4 in [4, 252]", stride)
		}
		target := 0
		if src.Target != nil {
			target = *src.Target
		}
		b.out.BufferViews[i] = &BufferView{
			Index:      i,
			Name:       src.Name,
			Buffer:     b.out.Buffers[src.Buffer],
			ByteOffset: src.ByteOffset,
			ByteLength: src.ByteLength,
			ByteStride: stride,
			Target:     target,
		}
	}
	return nil
}

func (b *builder) buildAccessors() error {
	b.out.Accessors = make([]*Accessor, len(b.doc.Accessors))
	for i, src := range b.doc.Accessors {
		ct := ComponentType(src.ComponentType)
		if !ct.Valid() {
			return common.Errorf(common.ErrSchema, "accessor", i, "unsupported componentType %d", src.ComponentType)
		}
		typ, ok := ParseAccessorType(src.Type)
		if !ok {
			return common.Errorf(common.ErrSchema, "accessor", i, "unsupported type %q", src.Type)
		}
		if src.Count < 1 {
			return common.Errorf(common.ErrSchema, "accessor", i, "count %d must be at least 1", src.Count)
		}
		if src.ByteOffset < 0 {
			return common.NewError(common.ErrSchema, "accessor", i, errNegativeOffset)
		}
		if src.Sparse != nil {
			return common.NewError(common.ErrSchema, "accessor", i, errSparse)
		}
		if src.BufferView == nil {
			return common.NewError(common.ErrSchema, "accessor", i, errNoBufferView)
		}
		if bv := *src.BufferView; bv < 0 || bv >= len(b.out.BufferViews) {
			return common.IndexError("bufferView", bv, fmt.Sprintf("accessor %d", i))
		}
		b.out.Accessors[i] = &Accessor{
			Index:         i,
			Name:          src.Name,
			BufferView:    b.out.BufferViews[*src.BufferView],
			ByteOffset:    src.ByteOffset,
			ComponentType: ct,
			Type:          typ,
			Count:         src.Count,
			Normalized:    src.Normalized,
			Min:           src.Min,
			Max:           src.Max,
		}
	}
	return nil
}

func (b *builder) accessor(index int, from string) (*Accessor, error) {
	if index < 0 || index >= len(b.out.Accessors) {
		return nil, common.IndexError("accessor", index, from)
	}
	return b.out.Accessors[index], nil
}

func (b *builder) buildMeshes() error {
	b.out.Meshes = make([]*Mesh, len(b.doc.Meshes))
	for i, src := range b.doc.Meshes {
		if len(src.Primitives) == 0 {
			return common.NewError(common.ErrSchema, "mesh", i, errNoPrimitives)
		}
		mesh := &Mesh{
			Index:      i,
			Name:       src.Name,
			Primitives: make([]*Primitive, len(src.Primitives)),
			Weights:    src.Weights,
		}
		for j, sp := range src.Primitives {
			from := fmt.Sprintf("mesh %d primitive %d", i, j)
			prim := &Primitive{
				Index:      j,
				Attributes: make(map[string]*Accessor, len(sp.Attributes)),
				Mode:       Triangles,
			}
			for semantic, idx := range sp.Attributes {
				acc, err := b.accessor(idx, from+" attribute "+semantic)
				if err != nil {
					return err
				}
				prim.Attributes[semantic] = acc
			}
			if sp.Indices != nil {
				acc, err := b.accessor(*sp.Indices, from+" indices")
				if err != nil {
					return err
				}
				if acc.Type != Scalar {
					return common.NewError(common.ErrSchema, "accessor", acc.Index, errIndicesNotScalar)
				}
				if !acc.ComponentType.Unsigned() {
					return common.Errorf(common.ErrSchema, "accessor", acc.Index, "indices componentType %s must be unsigned", acc.ComponentType)
				}
				prim.Indices = acc
			}
			if sp.Mode != nil {
				prim.Mode = PrimitiveMode(*sp.Mode)
				if !prim.Mode.Valid() {
					return common.Errorf(common.ErrSchema, "mesh", i, "primitive %d: unsupported mode %d", j, *sp.Mode)
				}
			}
			mesh.Primitives[j] = prim
		}
		b.out.Meshes[i] = mesh
	}
	return nil
}

func (b *builder) buildNodes() error {
	// Allocate first: children may refer to later nodes.
	b.out.Nodes = make([]*Node, len(b.doc.Nodes))
	for i, src := range b.doc.Nodes {
		n := &Node{
			Index:    i,
			Name:     src.Name,
			Rotation: mgl32.QuatIdent(),
			Scale:    mgl32.Vec3{1, 1, 1},
		}
		if src.Mesh != nil {
			m := *src.Mesh
			if m < 0 || m >= len(b.out.Meshes) {
				return common.IndexError("mesh", m, fmt.Sprintf("node %d", i))
			}
			n.Mesh = b.out.Meshes[m]
		}
		if src.Matrix != nil {
			m := mgl32.Mat4(*src.Matrix)
			n.Matrix = &m
		}
		if t := src.Translation; t != nil {
			n.Translation = mgl32.Vec3(*t)
		}
		if r := src.Rotation; r != nil {
			n.Rotation = mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
		}
		if s := src.Scale; s != nil {
			n.Scale = mgl32.Vec3(*s)
		}
		b.out.Nodes[i] = n
	}

	for i, src := range b.doc.Nodes {
		n := b.out.Nodes[i]
		n.Children = make([]*Node, 0, len(src.Children))
		for _, c := range src.Children {
			if c < 0 || c >= len(b.out.Nodes) {
				return common.IndexError("node", c, fmt.Sprintf("node %d", i))
			}
			child := b.out.Nodes[c]
			if child.Parent != nil || child == n {
				return common.NewError(common.ErrSchema, "node", c, errMultipleParents)
			}
			child.Parent = n
			n.Children = append(n.Children, child)
		}
	}

	// With single parents, a cycle shows up as a chain that never reaches a root.
	for _, n := range b.out.Nodes {
		steps := 0
		for p := n.Parent; p != nil; p = p.Parent {
			if steps++; steps > len(b.out.Nodes) {
				return common.NewError(common.ErrSchema, "node", n.Index, errNodeCycle)
			}
		}
	}
	return nil
}

func (b *builder) buildScenes() error {
	b.out.Scenes = make([]*Scene, len(b.doc.Scenes))
	for i, src := range b.doc.Scenes {
		s := &Scene{Index: i, Name: src.Name, Nodes: make([]*Node, len(src.Nodes))}
		for j, n := range src.Nodes {
			if n < 0 || n >= len(b.out.Nodes) {
				return common.IndexError("node", n, fmt.Sprintf("scene %d", i))
			}
			s.Nodes[j] = b.out.Nodes[n]
		}
		b.out.Scenes[i] = s
	}
	if sc := b.doc.Scene; sc != nil {
		if *sc < 0 || *sc >= len(b.out.Scenes) {
			return common.IndexError("scene", *sc, "document scene")
		}
		idx := *sc
		b.out.DefaultScene = &idx
	}
	return nil
}

// checkRanges validates spans against declared lengths before any bytes are read.
func (b *builder) checkRanges() error {
	for _, bv := range b.out.BufferViews {
		// Compared by subtraction so huge offsets cannot wrap.
		if bv.ByteOffset > bv.Buffer.ByteLength || bv.ByteLength > bv.Buffer.ByteLength-bv.ByteOffset {
			return common.Errorf(common.ErrRange, "bufferView", bv.Index,
				"offset %d length %d exceed buffer %d length %d",
				bv.ByteOffset, bv.ByteLength, bv.Buffer.Index, bv.Buffer.ByteLength)
		}
	}
	for _, acc := range b.out.Accessors {
		bv := acc.BufferView
		size := acc.ComponentType.Size()
		if acc.ByteOffset%size != 0 || bv.ByteOffset%size != 0 {
			return common.Errorf(common.ErrSchema, "accessor", acc.Index,
				"offset %d is not aligned to %s", acc.Start(), acc.ComponentType)
		}
		if bv.ByteStride != 0 && bv.ByteStride%size != 0 {
			return common.Errorf(common.ErrSchema, "accessor", acc.Index,
				"byteStride %d is not aligned to %s", bv.ByteStride, acc.ComponentType)
		}
		if acc.ByteOffset > bv.ByteLength {
			return common.Errorf(common.ErrRange, "accessor", acc.Index,
				"offset %d exceeds bufferView %d length %d", acc.ByteOffset, bv.Index, bv.ByteLength)
		}
		// Span is only computed once it is known to fit, so the multiplication cannot wrap.
		avail, elem := bv.ByteLength-acc.ByteOffset, acc.ElementSize()
		if elem > avail || acc.Count-1 > (avail-elem)/acc.Stride() {
			return common.Errorf(common.ErrRange, "accessor", acc.Index,
				"offset %d count %d exceed bufferView %d length %d", acc.ByteOffset, acc.Count, bv.Index, bv.ByteLength)
		}
	}
	return nil
}

func (b *builder) loadBuffers() error {
	for _, buf := range b.out.Buffers {
		h, err := b.store.Load(b.baseDir, buf.URI, buf.ByteLength)
		if err != nil {
			var ce *common.Error
			if errors.As(err, &ce) {
				ce.Entity, ce.Index = "buffer", buf.Index
			}
			return err
		}
		buf.data = b.store.Bytes(h)
		common.LogDebug("buffer loaded", "index", buf.Index, "bytes", len(buf.data))
	}
	return nil
}

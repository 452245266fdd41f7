// Package gltftest writes small synthetic glTF assets for tests.
package gltftest

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Component type codes used by fixtures.
const (
	UnsignedByte  = 5121
	UnsignedShort = 5123
	UnsignedInt   = 5125
	Float         = 5126
)

// Triangle geometry shared by every fixture primitive. Primitive k is
// translated by (k, k, k) and its index order is rotated by k, so each
// primitive reports a different first vertex and first index.
var (
	Positions = [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	Normals   = [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	TexCoords = [][2]float32{{0, 0}, {1, 0}, {0, 1}}
	Indices   = []uint32{0, 1, 2}
)

// Options configures a triangle fixture.
type Options struct {
	// PositionStride interleaves POSITION at this byte stride when non-zero.
	PositionStride int

	// PositionCount overrides the POSITION accessor count when non-zero.
	PositionCount int

	// OmitTexCoord drops the TEXCOORD_0 attribute.
	OmitTexCoord bool

	// OmitIndices drops the indices accessor.
	OmitIndices bool

	// IndexType is the indices component type, UnsignedShort by default.
	IndexType int

	// Primitives is the number of primitives in the mesh, 1 by default.
	Primitives int

	// DataURI embeds the buffer instead of writing a .bin file.
	DataURI bool

	// BinName is the external buffer file name, "triangle.bin" by default.
	BinName string
}

// Option mutates Options.
type Option func(*Options)

func WithPositionStride(stride int) Option { return func(o *Options) { o.PositionStride = stride } }
func WithPositionCount(count int) Option   { return func(o *Options) { o.PositionCount = count } }
func WithoutTexCoord() Option              { return func(o *Options) { o.OmitTexCoord = true } }
func WithoutIndices() Option               { return func(o *Options) { o.OmitIndices = true } }
func WithIndexType(ct int) Option          { return func(o *Options) { o.IndexType = ct } }
func WithPrimitives(n int) Option          { return func(o *Options) { o.Primitives = n } }
func WithDataURI() Option                  { return func(o *Options) { o.DataURI = true } }
func WithBinName(name string) Option       { return func(o *Options) { o.BinName = name } }

// Doc is a glTF document under construction.
type Doc map[string]any

// fixture accumulates buffer bytes and JSON records.
type fixture struct {
	bin         []byte
	bufferViews []map[string]any
	accessors   []map[string]any
}

func (f *fixture) view(data []byte, stride int) int {
	for len(f.bin)%4 != 0 {
		f.bin = append(f.bin, 0)
	}
	bv := map[string]any{
		"buffer":     0,
		"byteOffset": len(f.bin),
		"byteLength": len(data),
	}
	if stride != 0 {
		bv["byteStride"] = stride
	}
	f.bin = append(f.bin, data...)
	f.bufferViews = append(f.bufferViews, bv)
	return len(f.bufferViews) - 1
}

func (f *fixture) accessor(view, componentType, count int, typ string) int {
	f.accessors = append(f.accessors, map[string]any{
		"bufferView":    view,
		"componentType": componentType,
		"count":         count,
		"type":          typ,
	})
	return len(f.accessors) - 1
}

// Float32Bytes encodes components little-endian, arity values per element,
// each element padded to stride bytes with 0xAB filler when stride exceeds
// the element size.
func Float32Bytes(components []float32, arity, stride int) []byte {
	var out []byte
	for i := 0; i < len(components); i += arity {
		start := len(out)
		for _, c := range components[i : i+arity] {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(c))
		}
		for stride > 0 && len(out)-start < stride {
			out = append(out, 0xAB)
		}
	}
	return out
}

// Flatten3 returns the components of vs in order.
func Flatten3(vs [][3]float32) []float32 {
	out := make([]float32, 0, 3*len(vs))
	for _, v := range vs {
		out = append(out, v[:]...)
	}
	return out
}

// Flatten2 returns the components of vs in order.
func Flatten2(vs [][2]float32) []float32 {
	out := make([]float32, 0, 2*len(vs))
	for _, v := range vs {
		out = append(out, v[:]...)
	}
	return out
}

// IndexBytes encodes indices little-endian with the given component type.
func IndexBytes(indices []uint32, componentType int) []byte {
	var out []byte
	for _, i := range indices {
		switch componentType {
		case UnsignedByte:
			out = append(out, byte(i))
		case UnsignedInt:
			out = binary.LittleEndian.AppendUint32(out, i)
		default:
			out = binary.LittleEndian.AppendUint16(out, uint16(i))
		}
	}
	return out
}

// Triangle builds a one-scene, one-node, one-mesh document plus its buffer.
//
// Parameters:
//   - options: a variadic list of Option functions
//
// Returns:
//   - Doc: the document
//   - []byte: the buffer bytes
func Triangle(options ...Option) (Doc, []byte) {
	o := Options{IndexType: UnsignedShort, Primitives: 1, BinName: "triangle.bin"}
	for _, option := range options {
		option(&o)
	}

	f := &fixture{}
	prims := make([]map[string]any, o.Primitives)
	for k := range prims {
		shift := float32(k)
		pos := make([][3]float32, len(Positions))
		for i, p := range Positions {
			pos[i] = [3]float32{p[0] + shift, p[1] + shift, p[2] + shift}
		}
		idx := make([]uint32, len(Indices))
		for i := range Indices {
			idx[i] = Indices[(i+k)%len(Indices)]
		}

		posData := Float32Bytes(Flatten3(pos), 3, o.PositionStride)
		if o.PositionStride > 12 {
			// The last element needs no trailing filler.
			posData = posData[:len(posData)-(o.PositionStride-12)]
		}
		posCount := len(pos)
		if o.PositionCount != 0 {
			posCount = o.PositionCount
		}
		attrs := map[string]any{
			"POSITION": f.accessor(f.view(posData, o.PositionStride), Float, posCount, "VEC3"),
			"NORMAL":   f.accessor(f.view(Float32Bytes(Flatten3(Normals), 3, 0), 0), Float, len(Normals), "VEC3"),
		}
		if !o.OmitTexCoord {
			attrs["TEXCOORD_0"] = f.accessor(f.view(Float32Bytes(Flatten2(TexCoords), 2, 0), 0), Float, len(TexCoords), "VEC2")
		}
		prim := map[string]any{"attributes": attrs}
		if !o.OmitIndices {
			prim["indices"] = f.accessor(f.view(IndexBytes(idx, o.IndexType), 0), o.IndexType, len(idx), "SCALAR")
		}
		prims[k] = prim
	}
	for len(f.bin)%4 != 0 {
		f.bin = append(f.bin, 0)
	}

	uri := o.BinName
	if o.DataURI {
		uri = "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(f.bin)
	}
	doc := Doc{
		"asset":       map[string]any{"version": "2.0", "generator": "gltftest"},
		"scene":       0,
		"scenes":      []any{map[string]any{"nodes": []int{0}}},
		"nodes":       []any{map[string]any{"mesh": 0, "name": "triangle"}},
		"meshes":      []any{map[string]any{"name": "triangle", "primitives": prims}},
		"accessors":   f.accessors,
		"bufferViews": f.bufferViews,
		"buffers":     []any{map[string]any{"uri": uri, "byteLength": len(f.bin)}},
	}
	return doc, f.bin
}

// Write stores doc as name.gltf in dir, plus bin under the doc's buffer URI
// when that URI is a plain file name. It returns the .gltf path.
func Write(t testing.TB, dir, name string, doc Doc, bin []byte) string {
	t.Helper()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name+".gltf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if buffers, ok := doc["buffers"].([]any); ok && len(buffers) > 0 {
		uri, _ := buffers[0].(map[string]any)["uri"].(string)
		if uri != "" && !strings.HasPrefix(uri, "data:") {
			if err := os.WriteFile(filepath.Join(dir, uri), bin, 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return path
}

// WriteTriangle builds a triangle fixture and writes it to dir.
func WriteTriangle(t testing.TB, dir string, options ...Option) string {
	t.Helper()
	doc, bin := Triangle(options...)
	return Write(t, dir, "triangle", doc, bin)
}

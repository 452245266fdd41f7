// Package accessor provides typed, read-only views over glTF accessor data.
//
// A View borrows a sub-slice of the owning asset's buffer; it never copies
// the bytes and must not outlive the asset.
package accessor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/asset"

	"golang.org/x/exp/constraints"
)

var (
	errNoBufferView = errors.New("accessor has no bufferView")
	errNotIndices   = errors.New("indices must be unsigned SCALAR")
)

// Component is the set of element types a View can produce.
type Component interface {
	constraints.Integer | constraints.Float
}

// View is a random-access typed view over an accessor.
type View[T Component] struct {
	acc *asset.Accessor

	// data starts at element 0 and ends after the last element.
	data []byte

	arity   int
	stride  int
	offsets []int
	decode  func([]byte) T

	// exact is true when T has the accessor's in-memory representation.
	exact bool
}

// New creates a view whose element type must match the accessor component type exactly.
//
// Parameters:
//   - acc: the accessor to view
//
// Returns:
//   - *View[T]: the view
//   - error: ErrSchema if T does not match acc.ComponentType
func New[T Component](acc *asset.Accessor) (*View[T], error) {
	ct, ok := componentOf[T]()
	if !ok || acc == nil || ct != acc.ComponentType {
		have := "<nil>"
		if acc != nil {
			have = acc.ComponentType.String()
		}
		return nil, common.Errorf(common.ErrSchema, "accessor", indexOf(acc), "cannot view %s components as %T", have, *new(T))
	}
	return newView(acc, decoder[T](acc.ComponentType), true)
}

// NewIndices creates a uint32 view over an index accessor, widening
// UNSIGNED_BYTE and UNSIGNED_SHORT data.
//
// Parameters:
//   - acc: an unsigned SCALAR accessor
//
// Returns:
//   - *View[uint32]: the view
//   - error: ErrSchema if acc is not unsigned SCALAR
func NewIndices(acc *asset.Accessor) (*View[uint32], error) {
	if acc == nil || acc.Type != asset.Scalar || !acc.ComponentType.Unsigned() {
		return nil, common.NewError(common.ErrSchema, "accessor", indexOf(acc), errNotIndices)
	}
	return newView(acc, decoder[uint32](acc.ComponentType), acc.ComponentType == asset.UnsignedInt)
}

// NewFloat creates a float32 view over any accessor. Normalized integer
// components are mapped to [0, 1] or [-1, 1]; other integers are converted.
//
// Parameters:
//   - acc: the accessor to view
//
// Returns:
//   - *View[float32]: the view
//   - error: ErrSchema if acc has no bufferView
func NewFloat(acc *asset.Accessor) (*View[float32], error) {
	if acc == nil {
		return nil, common.NewError(common.ErrSchema, "accessor", -1, errNoBufferView)
	}
	decode := decoder[float32](acc.ComponentType)
	if acc.Normalized && acc.ComponentType != asset.Float {
		decode = normalized(acc.ComponentType)
	}
	return newView(acc, decode, acc.ComponentType == asset.Float)
}

func newView[T Component](acc *asset.Accessor, decode func([]byte) T, exact bool) (*View[T], error) {
	if acc.BufferView == nil || acc.BufferView.Buffer == nil {
		return nil, common.NewError(common.ErrSchema, "accessor", acc.Index, errNoBufferView)
	}
	if decode == nil {
		return nil, common.Errorf(common.ErrSchema, "accessor", acc.Index, "unsupported componentType %s", acc.ComponentType)
	}
	buf := acc.BufferView.Buffer.Bytes()
	start := acc.Start()
	end := start + acc.Span()
	if start < 0 || end < start || end > len(buf) {
		return nil, common.Errorf(common.ErrRange, "accessor", acc.Index,
			"bytes [%d, %d) exceed buffer %d length %d", start, end, acc.BufferView.Buffer.Index, len(buf))
	}

	arity := acc.Type.Components()
	offsets := make([]int, arity)
	for j := range offsets {
		offsets[j] = acc.ComponentOffset(j)
	}
	return &View[T]{
		acc:     acc,
		data:    buf[start:end:end],
		arity:   arity,
		stride:  acc.Stride(),
		offsets: offsets,
		decode:  decode,
		exact:   exact,
	}, nil
}

// Accessor returns the viewed accessor.
func (v *View[T]) Accessor() *asset.Accessor {
	return v.acc
}

// Len returns the number of elements.
func (v *View[T]) Len() int {
	return v.acc.Count
}

// Arity returns the number of components per element.
func (v *View[T]) Arity() int {
	return v.arity
}

// Stride returns the byte distance between consecutive elements.
func (v *View[T]) Stride() int {
	return v.stride
}

// Get decodes element i.
//
// Parameters:
//   - i: the element index
//
// Returns:
//   - []T: Arity() components, in column-major order for matrices
//   - error: ErrBounds if i is outside [0, Len())
func (v *View[T]) Get(i int) ([]T, error) {
	out := make([]T, v.arity)
	if err := v.Read(i, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Read decodes element i into dst, which must hold at least Arity() values.
func (v *View[T]) Read(i int, dst []T) error {
	if i < 0 || i >= v.acc.Count {
		return common.Errorf(common.ErrBounds, "accessor", v.acc.Index, "element %d outside [0, %d)", i, v.acc.Count)
	}
	if len(dst) < v.arity {
		return fmt.Errorf("destination holds %d values, need %d", len(dst), v.arity)
	}
	elem := v.data[i*v.stride:]
	for j, off := range v.offsets {
		dst[j] = v.decode(elem[off:])
	}
	return nil
}

// AsSlice returns the elements as one contiguous slice of Len()*Arity()
// components that aliases the buffer. It is only available when the data is
// tightly packed, unpadded, aligned, stored as T, and the host is little-endian;
// otherwise ok is false and callers must use Get.
func (v *View[T]) AsSlice() (s []T, ok bool) {
	if !v.exact || v.stride != v.acc.ElementSize() || v.acc.Padded() || !common.HostLittleEndian() {
		return nil, false
	}
	return common.BytesAs[T](v.data, v.acc.Count*v.arity)
}

// Collect decodes every element into a new flat slice.
func (v *View[T]) Collect() []T {
	out := make([]T, v.acc.Count*v.arity)
	for i := 0; i < v.acc.Count; i++ {
		// Bounds are guaranteed by the loop.
		_ = v.Read(i, out[i*v.arity:])
	}
	return out
}

// --- Decoding ---

// componentOf maps T to the component type with the same representation.
func componentOf[T Component]() (asset.ComponentType, bool) {
	switch any(*new(T)).(type) {
	case int8:
		return asset.Byte, true
	case uint8:
		return asset.UnsignedByte, true
	case int16:
		return asset.Short, true
	case uint16:
		return asset.UnsignedShort, true
	case uint32:
		return asset.UnsignedInt, true
	case float32:
		return asset.Float, true
	default:
		return 0, false
	}
}

// decoder returns a little-endian reader converting one component to T.
func decoder[T Component](ct asset.ComponentType) func([]byte) T {
	switch ct {
	case asset.Byte:
		return func(b []byte) T { return T(int8(b[0])) }
	case asset.UnsignedByte:
		return func(b []byte) T { return T(b[0]) }
	case asset.Short:
		return func(b []byte) T { return T(int16(binary.LittleEndian.Uint16(b))) }
	case asset.UnsignedShort:
		return func(b []byte) T { return T(binary.LittleEndian.Uint16(b)) }
	case asset.UnsignedInt:
		return func(b []byte) T { return T(binary.LittleEndian.Uint32(b)) }
	case asset.Float:
		return func(b []byte) T { return T(math.Float32frombits(binary.LittleEndian.Uint32(b))) }
	default:
		return nil
	}
}

// normalized returns a reader mapping normalized integers to floats.
func normalized(ct asset.ComponentType) func([]byte) float32 {
	switch ct {
	case asset.Byte:
		return func(b []byte) float32 { return max(float32(int8(b[0]))/127, -1) }
	case asset.UnsignedByte:
		return func(b []byte) float32 { return float32(b[0]) / 255 }
	case asset.Short:
		return func(b []byte) float32 {
			return max(float32(int16(binary.LittleEndian.Uint16(b)))/32767, -1)
		}
	case asset.UnsignedShort:
		return func(b []byte) float32 { return float32(binary.LittleEndian.Uint16(b)) / 65535 }
	case asset.UnsignedInt:
		return func(b []byte) float32 { return float32(float64(binary.LittleEndian.Uint32(b)) / math.MaxUint32) }
	default:
		return nil
	}
}

func indexOf(acc *asset.Accessor) int {
	if acc == nil {
		return -1
	}
	return acc.Index
}

package asset

import (
	"fmt"
)

// ComponentType is the glTF accessor component type code.
type ComponentType int

const (
	Byte          ComponentType = 5120
	UnsignedByte  ComponentType = 5121
	Short         ComponentType = 5122
	UnsignedShort ComponentType = 5123
	UnsignedInt   ComponentType = 5125
	Float         ComponentType = 5126
)

// Size returns the byte size of one component, or 0 for unknown codes.
func (c ComponentType) Size() int {
	switch c {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort:
		return 2
	case UnsignedInt, Float:
		return 4
	default:
		return 0
	}
}

// Valid reports whether c is one of the six supported codes.
func (c ComponentType) Valid() bool {
	return c.Size() != 0
}

// Unsigned reports whether c is an unsigned integer type (valid for indices).
func (c ComponentType) Unsigned() bool {
	return c == UnsignedByte || c == UnsignedShort || c == UnsignedInt
}

func (c ComponentType) String() string {
	switch c {
	case Byte:
		return "BYTE"
	case UnsignedByte:
		return "UNSIGNED_BYTE"
	case Short:
		return "SHORT"
	case UnsignedShort:
		return "UNSIGNED_SHORT"
	case UnsignedInt:
		return "UNSIGNED_INT"
	case Float:
		return "FLOAT"
	default:
		return fmt.Sprintf("ComponentType(%d)", int(c))
	}
}

// AccessorType is the element shape of an accessor.
type AccessorType int

const (
	Scalar AccessorType = iota + 1
	Vec2
	Vec3
	Vec4
	Mat2
	Mat3
	Mat4
)

var accessorTypeNames = [...]string{
	Scalar: "SCALAR",
	Vec2:   "VEC2",
	Vec3:   "VEC3",
	Vec4:   "VEC4",
	Mat2:   "MAT2",
	Mat3:   "MAT3",
	Mat4:   "MAT4",
}

// ParseAccessorType maps a glTF type string to an AccessorType.
// Returns false for unknown strings.
func ParseAccessorType(s string) (AccessorType, bool) {
	for t, name := range accessorTypeNames {
		if t != 0 && name == s {
			return AccessorType(t), true
		}
	}
	return 0, false
}

func (t AccessorType) String() string {
	if t > 0 && int(t) < len(accessorTypeNames) {
		return accessorTypeNames[t]
	}
	return fmt.Sprintf("AccessorType(%d)", int(t))
}

// Components returns the number of components per element.
func (t AccessorType) Components() int {
	switch t {
	case Scalar:
		return 1
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4, Mat2:
		return 4
	case Mat3:
		return 9
	case Mat4:
		return 16
	default:
		return 0
	}
}

// Rows returns the column height of a matrix type, or 0 for non-matrix types.
func (t AccessorType) Rows() int {
	switch t {
	case Mat2:
		return 2
	case Mat3:
		return 3
	case Mat4:
		return 4
	default:
		return 0
	}
}

// PrimitiveMode is the topology of a primitive.
type PrimitiveMode int

const (
	Points PrimitiveMode = iota
	Lines
	LineLoop
	LineStrip
	Triangles
	TriangleStrip
	TriangleFan
)

var primitiveModeNames = [...]string{
	Points:        "POINTS",
	Lines:         "LINES",
	LineLoop:      "LINE_LOOP",
	LineStrip:     "LINE_STRIP",
	Triangles:     "TRIANGLES",
	TriangleStrip: "TRIANGLE_STRIP",
	TriangleFan:   "TRIANGLE_FAN",
}

// Valid reports whether m is one of the seven glTF modes.
func (m PrimitiveMode) Valid() bool {
	return m >= Points && m <= TriangleFan
}

func (m PrimitiveMode) String() string {
	if m.Valid() {
		return primitiveModeNames[m]
	}
	return fmt.Sprintf("PrimitiveMode(%d)", int(m))
}

// Well-known attribute semantics.
const (
	SemanticPosition  = "POSITION"
	SemanticNormal    = "NORMAL"
	SemanticTangent   = "TANGENT"
	SemanticTexCoord0 = "TEXCOORD_0"
	SemanticColor0    = "COLOR_0"
	SemanticJoints0   = "JOINTS_0"
	SemanticWeights0  = "WEIGHTS_0"
)

// bufferView.target values.
const (
	TargetArrayBuffer        = 34962
	TargetElementArrayBuffer = 34963
)

// types.go contains the glTF 2.0 JSON records read by Parse.
// These types map directly to the glTF 2.0 JSON schema; indices are kept as
// integers and resolved later by the asset package.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package document

// --- glTF Root Structure ---

// Document represents the root of a glTF JSON document.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-gltf
type Document struct {
	// Asset contains metadata about the glTF asset.
	Asset Asset `json:"asset"`

	// Scene is the index of the default scene.
	Scene *int `json:"scene,omitempty"`

	// Scenes is an array of scenes.
	Scenes []Scene `json:"scenes,omitempty"`

	// Nodes is an array of nodes (transform hierarchy).
	Nodes []Node `json:"nodes,omitempty"`

	// Meshes is an array of meshes.
	Meshes []Mesh `json:"meshes,omitempty"`

	// Accessors define how to interpret buffer data.
	Accessors []Accessor `json:"accessors,omitempty"`

	// BufferViews define portions of buffers.
	BufferViews []BufferView `json:"bufferViews,omitempty"`

	// Buffers are raw binary data containers.
	Buffers []Buffer `json:"buffers,omitempty"`

	// ExtensionsUsed lists extensions used by this asset.
	ExtensionsUsed []string `json:"extensionsUsed,omitempty"`

	// ExtensionsRequired lists extensions required to load this asset.
	ExtensionsRequired []string `json:"extensionsRequired,omitempty"`
}

// Asset contains metadata about the glTF asset.
type Asset struct {
	Version    string `json:"version"`
	MinVersion string `json:"minVersion,omitempty"`
	Generator  string `json:"generator,omitempty"`
	Copyright  string `json:"copyright,omitempty"`
}

// --- Scene Graph ---

// Scene is a set of root nodes.
type Scene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// Node is a node in the node hierarchy.
type Node struct {
	Name     string `json:"name,omitempty"`
	Children []int  `json:"children,omitempty"`
	Mesh     *int   `json:"mesh,omitempty"`

	// Matrix is a 4x4 transformation matrix (column-major).
	Matrix *[16]float32 `json:"matrix,omitempty"`

	Translation *[3]float32 `json:"translation,omitempty"`

	// Rotation is a quaternion (x, y, z, w).
	Rotation *[4]float32 `json:"rotation,omitempty"`

	Scale *[3]float32 `json:"scale,omitempty"`
}

// --- Mesh Data ---

// Mesh is a set of primitives to be rendered.
type Mesh struct {
	Name       string      `json:"name,omitempty"`
	Primitives []Primitive `json:"primitives"`
	Weights    []float32   `json:"weights,omitempty"`
}

// Primitive defines geometry for rendering.
type Primitive struct {
	// Attributes maps attribute semantic to accessor index.
	Attributes map[string]int `json:"attributes"`

	Indices  *int `json:"indices,omitempty"`
	Material *int `json:"material,omitempty"`

	// Mode is the primitive topology, 4 (TRIANGLES) when absent.
	Mode *int `json:"mode,omitempty"`
}

// --- Buffer Data ---

// Accessor defines how to interpret buffer data.
type Accessor struct {
	Name          string    `json:"name,omitempty"`
	BufferView    *int      `json:"bufferView,omitempty"`
	ByteOffset    int       `json:"byteOffset,omitempty"` // Default is 0.
	ComponentType int       `json:"componentType"`
	Normalized    bool      `json:"normalized,omitempty"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Max           []float32 `json:"max,omitempty"`
	Min           []float32 `json:"min,omitempty"`

	// Sparse is only checked for presence; sparse storage is not supported.
	Sparse *AccessorSparse `json:"sparse,omitempty"`
}

// AccessorSparse retains only Count; Indices and Values are never read.
type AccessorSparse struct {
	Count int `json:"count"`
}

// BufferView represents a subset of a buffer.
type BufferView struct {
	Name       string `json:"name,omitempty"`
	Buffer     int    `json:"buffer"`
	ByteOffset int    `json:"byteOffset,omitempty"` // Default is 0.
	ByteLength int    `json:"byteLength"`
	ByteStride *int   `json:"byteStride,omitempty"` // Absent or 0 for tightly packed.
	Target     *int   `json:"target,omitempty"`
}

// Buffer represents binary data stored outside the document.
type Buffer struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

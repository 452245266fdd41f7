package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-gltf/engine/asset"
)

// loaderBackend defines the generic interface for loading assets from files or streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load performs a full asset import from the given file path, including
	// every buffer the document references.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *asset.Asset: the resolved asset
	//   - error: error if loading fails
	Load(path string) (*asset.Asset, error)

	// LoadReader imports an asset from a reader stream.
	//
	// Parameters:
	//   - r: the reader providing the document
	//   - baseDir: directory used to resolve relative buffer URIs
	//
	// Returns:
	//   - *asset.Asset: the resolved asset
	//   - error: error if loading fails
	LoadReader(r io.Reader, baseDir string) (*asset.Asset, error)

	// Dependencies lists the external files an asset was built from, so they
	// can be watched for changes. Embedded data URIs are not included.
	//
	// Parameters:
	//   - a: a loaded asset
	//
	// Returns:
	//   - []string: absolute or baseDir-relative file paths
	Dependencies(a *asset.Asset) []string
}

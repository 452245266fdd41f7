package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/asset"
	"github.com/Carmen-Shannon/oxy-gltf/engine/buffer"
	"github.com/Carmen-Shannon/oxy-gltf/engine/document"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	allowDataURI bool
}

// gltfImporter defines the interface for orchestrating a glTF import.
// It combines the document parser and the asset builder to produce a resolved Asset.
type gltfImporter interface {
	// Import loads a glTF file and resolves it together with its buffers.
	//
	// Parameters:
	//   - path: the file path to the glTF file
	//
	// Returns:
	//   - *asset.Asset: the resolved asset
	//   - error: error if import fails
	Import(path string) (*asset.Asset, error)

	// ImportReader loads a glTF document from a reader and resolves it.
	// Relative buffer URIs are resolved against baseDir.
	//
	// Parameters:
	//   - r: the reader providing glTF JSON
	//   - baseDir: directory used to resolve relative buffer URIs
	//
	// Returns:
	//   - *asset.Asset: the resolved asset
	//   - error: error if import fails
	ImportReader(r io.Reader, baseDir string) (*asset.Asset, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Parameters:
//   - allowDataURI: whether base64 data URIs are accepted for buffers
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(allowDataURI bool) gltfImporter {
	return &gltfImporterImpl{allowDataURI: allowDataURI}
}

func (imp *gltfImporterImpl) Import(path string) (*asset.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &common.Error{Kind: common.ErrIO, Index: -1, Name: path, Err: err}
	}
	defer f.Close()

	return imp.importFrom(f, filepath.Dir(path), path)
}

func (imp *gltfImporterImpl) ImportReader(r io.Reader, baseDir string) (*asset.Asset, error) {
	return imp.importFrom(r, baseDir, "")
}

// importFrom decodes a document from r and builds it into an Asset.
//
// Parameters:
//   - r: the reader providing glTF JSON
//   - baseDir: directory used to resolve relative buffer URIs
//   - fallbackPath: optional file path used for logging
func (imp *gltfImporterImpl) importFrom(r io.Reader, baseDir, fallbackPath string) (*asset.Asset, error) {
	doc, err := document.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	store := buffer.NewStore(buffer.WithDataURIs(imp.allowDataURI))
	a, err := asset.Build(doc, baseDir, asset.WithStore(store))
	if err != nil {
		return nil, err
	}

	common.LogDebug("asset loaded",
		"id", a.ID,
		"name", gltfAssetName(doc, fallbackPath),
		"buffers", len(a.Buffers),
		"accessors", len(a.Accessors),
		"meshes", len(a.Meshes),
		"nodes", len(a.Nodes),
	)
	return a, nil
}

// gltfAssetName derives a display name from the default scene, the first
// scene, or a file path fallback.
func gltfAssetName(doc *document.Document, fallbackPath string) string {
	var sceneName string
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		sceneName = doc.Scenes[*doc.Scene].Name
	}
	var firstName string
	if len(doc.Scenes) > 0 {
		firstName = doc.Scenes[0].Name
	}
	var fileName string
	if fallbackPath != "" {
		fileName = filepath.Base(fallbackPath)
	}
	return common.Coalesce(sceneName, firstName, fileName, "unnamed_asset")
}

package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-gltf/engine/asset"
	"github.com/Carmen-Shannon/oxy-gltf/engine/buffer"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	importer gltfImporter
}

// gltfLoaderBackend is a loaderBackend implementation for glTF JSON files.
// It delegates to the gltfImporter for parsing and resolution.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Parameters:
//   - allowDataURI: whether base64 data URIs are accepted for buffers
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF files
func newGLTFLoaderBackend(allowDataURI bool) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{
		importer: newGLTFImporter(allowDataURI),
	}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*asset.Asset, error) {
	return b.importer.Import(path)
}

func (b *gltfLoaderBackendImpl) LoadReader(r io.Reader, baseDir string) (*asset.Asset, error) {
	return b.importer.ImportReader(r, baseDir)
}

func (b *gltfLoaderBackendImpl) Dependencies(a *asset.Asset) []string {
	var paths []string
	for _, buf := range a.Buffers {
		if buffer.IsDataURI(buf.URI) {
			continue
		}
		path, err := buffer.ResolvePath(a.BaseDir, buf.URI)
		if err != nil {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

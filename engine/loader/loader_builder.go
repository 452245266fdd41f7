package loader

import (
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/engine/asset"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithAsset is an option builder that pre-populates the asset cache with an asset.
//
// Parameters:
//   - key: the cache key for the asset
//   - a: the asset to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the asset option to a loader
func WithAsset(key string, a *asset.Asset) LoaderBuilderOption {
	return func(l *loader) {
		l.assetCache[key] = a
	}
}

// WithWorkers is an option builder that sets the size of the LoadAll worker pool.
// Values below 1 are ignored.
//
// Parameters:
//   - n: the maximum number of concurrent loads
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.loadWorkers = n
		}
	}
}

// WithDataURIs is an option builder that enables or disables base64 data URI buffers.
//
// Parameters:
//   - allow: whether data URIs are accepted
//
// Returns:
//   - LoaderBuilderOption: a function that applies the data URI option to a loader
func WithDataURIs(allow bool) LoaderBuilderOption {
	return func(l *loader) {
		l.allowDataURI = allow
	}
}

// WithDebounce is an option builder that sets how long Watch waits for file
// events to settle before reloading.
//
// Parameters:
//   - d: the debounce interval
//
// Returns:
//   - LoaderBuilderOption: a function that applies the debounce option to a loader
func WithDebounce(d time.Duration) LoaderBuilderOption {
	return func(l *loader) {
		if d >= 0 {
			l.debounce = d
		}
	}
}

package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/asset"
	"github.com/Carmen-Shannon/oxy-gltf/engine/profiler"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// LoaderBackendType identifies the asset file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF JSON loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

const (
	defaultWorkers  = 4
	defaultDebounce = 100 * time.Millisecond
)

var errGLBUnsupported = errors.New("GLB containers are not supported")

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	assetCache map[string]*asset.Asset

	backend loaderBackend

	allowDataURI bool
	debounce     time.Duration

	// loadWorkers bounds the number of concurrent loads issued by LoadAll.
	loadWorkers int

	profiler *profiler.Profiler
}

// Loader defines the public-facing interface for loading and caching glTF assets.
// It abstracts the file format behind a generic backend and manages a cache of
// previously loaded assets.
type Loader interface {
	// Load imports an asset file and caches the result.
	// If the asset is already cached (by file path), the cached version is returned.
	// The backend is selected based on the file extension (.gltf → glTF backend).
	//
	// Parameters:
	//   - path: the file path to the asset file
	//
	// Returns:
	//   - *asset.Asset: the loaded and cached asset
	//   - error: error if loading fails
	Load(path string) (*asset.Asset, error)

	// LoadReader imports an asset from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded asset
	//   - r: the reader providing glTF JSON
	//   - baseDir: directory used to resolve relative buffer URIs
	//
	// Returns:
	//   - *asset.Asset: the loaded asset
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, baseDir string) (*asset.Asset, error)

	// LoadAll loads several asset files concurrently on a worker pool that is
	// started for the call and stopped before it returns.
	// Results are returned in input order. If any load fails, the error of the
	// first failing path (in input order) is returned.
	//
	// Parameters:
	//   - paths: the file paths to load
	//
	// Returns:
	//   - []*asset.Asset: the loaded assets, one per path
	//   - error: error if any load fails
	LoadAll(paths []string) ([]*asset.Asset, error)

	// Get retrieves a cached asset by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *asset.Asset: the cached asset or nil
	Get(name string) *asset.Asset

	// Assets returns a copy of the asset cache.
	//
	// Returns:
	//   - map[string]*asset.Asset: all cached assets keyed by name
	Assets() map[string]*asset.Asset

	// Evict removes an asset from the cache.
	//
	// Parameters:
	//   - name: the cache key to remove
	//
	// Returns:
	//   - bool: true if an asset was removed
	Evict(name string) bool

	// Watch reloads path whenever it or one of its external buffers changes,
	// calling fn with the fresh asset or the reload error. Events are debounced.
	// Watch blocks until ctx is done.
	//
	// Parameters:
	//   - ctx: controls the lifetime of the watch
	//   - path: the asset file to watch
	//   - fn: called after every reload
	//
	// Returns:
	//   - error: error if the watcher cannot be set up
	Watch(ctx context.Context, path string, fn WatchFunc) error

	// Stats returns load counts and timings recorded since the Loader was created.
	// Cache hits are not counted.
	//
	// Returns:
	//   - profiler.Stats: the accumulated totals
	Stats() profiler.Stats
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:           sync.RWMutex{},
		assetCache:   make(map[string]*asset.Asset),
		allowDataURI: true,
		debounce:     defaultDebounce,
		loadWorkers:  defaultWorkers,
		profiler:     profiler.NewProfiler(),
	}

	for _, option := range options {
		option(l)
	}

	// The backend is created after options so WithDataURIs can take effect.
	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(l.allowDataURI)
	}

	return l
}

func (l *loader) Load(path string) (*asset.Asset, error) {
	l.mu.RLock()
	if cached, ok := l.assetCache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	a, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	l.profiler.Record(time.Since(start), bufferBytes(a))

	l.mu.Lock()
	l.assetCache[path] = a
	l.mu.Unlock()

	return a, nil
}

func (l *loader) LoadReader(name string, r io.Reader, baseDir string) (*asset.Asset, error) {
	l.mu.RLock()
	if cached, ok := l.assetCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	start := time.Now()
	a, err := l.backend.LoadReader(r, baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	l.profiler.Record(time.Since(start), bufferBytes(a))

	l.mu.Lock()
	l.assetCache[name] = a
	l.mu.Unlock()

	return a, nil
}

func (l *loader) LoadAll(paths []string) ([]*asset.Asset, error) {
	results := make([]*asset.Asset, len(paths))
	errs := make([]error, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	workers := min(l.loadWorkers, len(paths))
	pool := worker.NewDynamicWorkerPool(workers, len(paths), 1*time.Second)
	defer retire(pool, workers)

	// A WaitGroup is the barrier; the pool itself only bounds concurrency.
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				results[i], errs[i] = l.Load(path)
				return results[i], errs[i]
			},
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (l *loader) Get(name string) *asset.Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.assetCache[name]
}

func (l *loader) Assets() map[string]*asset.Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*asset.Asset, len(l.assetCache))
	for k, v := range l.assetCache {
		result[k] = v
	}
	return result
}

func (l *loader) Evict(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.assetCache[name]
	delete(l.assetCache, name)
	return ok
}

func (l *loader) Stats() profiler.Stats {
	return l.profiler.Stats()
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Only glTF JSON is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf":
		return l.backend, nil
	case ".glb":
		return nil, &common.Error{Kind: common.ErrSchema, Index: -1, Name: path, Err: errGLBUnsupported}
	default:
		return nil, common.Errorf(common.ErrSchema, "", -1, "unsupported asset format: %q", ext)
	}
}

// retire ends every worker goroutine of pool, then stops it.
// Workers never exit on idle, and a stop signal can be consumed by a worker it
// was not addressed to, so each worker is ended by a task that exits its goroutine.
func retire(pool worker.DynamicWorkerPool, workers int) {
	for i := 0; i < workers; i++ {
		pool.SubmitTask(worker.Task{
			ID: -1,
			Do: func() (any, error) {
				runtime.Goexit()
				return nil, nil
			},
		})
	}
	pool.Stop()
}

// bufferBytes sums the sizes of an asset's buffers.
func bufferBytes(a *asset.Asset) int {
	n := 0
	for _, b := range a.Buffers {
		n += len(b.Bytes())
	}
	return n
}

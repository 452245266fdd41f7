package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/asset"
	"github.com/Carmen-Shannon/oxy-gltf/internal/gltftest"
)

func TestLoadCaches(t *testing.T) {
	path := gltftest.WriteTriangle(t, t.TempDir())
	l := NewLoader(BackendTypeGLTF)

	a, err := l.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	again, err := l.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if a != again || l.Get(path) != a {
		t.Fatal("Load: want the cached asset on the second call")
	}
	if st := l.Stats(); st.Loads != 1 || st.Bytes != int64(len(a.Buffers[0].Bytes())) {
		t.Fatalf("Stats after a cache hit: have %+v", st)
	}
	if n := len(l.Assets()); n != 1 {
		t.Fatalf("len(Assets()):\nwant 1\nhave %d", n)
	}
	if !l.Evict(path) || l.Get(path) != nil {
		t.Fatal("Evict: asset still cached")
	}
	if l.Evict(path) {
		t.Fatal("Evict: want false for a missing key")
	}

	fresh, err := l.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if fresh == a || fresh.ID == a.ID {
		t.Fatal("Load after Evict: want a new asset")
	}
}

func TestLoadFormats(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	for _, path := range []string{"model.glb", "model.obj", "model"} {
		_, err := l.Load(filepath.Join(t.TempDir(), path))
		if !errors.Is(err, common.ErrSchema) {
			t.Fatalf("Load(%q):\nwant %v\nhave %v", path, common.ErrSchema, err)
		}
	}
	// The extension check is case-insensitive.
	path := gltftest.WriteTriangle(t, t.TempDir())
	upper := strings.TrimSuffix(path, ".gltf") + ".GLTF"
	if err := os.Rename(path, upper); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(upper); err != nil {
		t.Fatal(err)
	}
}

func TestLoadErrors(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	_, err := l.Load(filepath.Join(t.TempDir(), "missing.gltf"))
	if !errors.Is(err, common.ErrIO) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load(missing):\nwant %v\nhave %v", common.ErrIO, err)
	}

	path := gltftest.WriteTriangle(t, t.TempDir(), gltftest.WithPositionCount(1000))
	_, err = l.Load(path)
	if !errors.Is(err, common.ErrRange) {
		t.Fatalf("Load(inflated count):\nwant %v\nhave %v", common.ErrRange, err)
	}
	if l.Get(path) != nil {
		t.Fatal("failed load was cached")
	}

	bad := filepath.Join(t.TempDir(), "bad.gltf")
	if err := os.WriteFile(bad, []byte(`{"asset": {"version": "2.0"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(bad); !errors.Is(err, common.ErrJSON) {
		t.Fatalf("Load(truncated):\nwant %v\nhave %v", common.ErrJSON, err)
	}
}

func TestLoadReader(t *testing.T) {
	path := gltftest.WriteTriangle(t, t.TempDir())
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	l := NewLoader(BackendTypeGLTF)
	a, err := l.LoadReader("mem", f, filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if l.Get("mem") != a {
		t.Fatal("LoadReader: asset not cached by name")
	}
	if a.BaseDir != filepath.Dir(path) {
		t.Fatalf("BaseDir:\nwant %s\nhave %s", filepath.Dir(path), a.BaseDir)
	}

	// Relative buffers cannot be found without the right base directory.
	g, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()
	if _, err := l.LoadReader("elsewhere", g, t.TempDir()); !errors.Is(err, common.ErrIO) {
		t.Fatalf("LoadReader(wrong dir):\nwant %v\nhave %v", common.ErrIO, err)
	}
}

func TestWithDataURIs(t *testing.T) {
	path := gltftest.WriteTriangle(t, t.TempDir(), gltftest.WithDataURI())

	if _, err := NewLoader(BackendTypeGLTF).Load(path); err != nil {
		t.Fatal(err)
	}
	_, err := NewLoader(BackendTypeGLTF, WithDataURIs(false)).Load(path)
	if !errors.Is(err, common.ErrDecode) {
		t.Fatalf("Load with data URIs disabled:\nwant %v\nhave %v", common.ErrDecode, err)
	}
}

func TestWithAsset(t *testing.T) {
	a := &asset.Asset{}
	l := NewLoader(BackendTypeGLTF, WithAsset("preloaded.gltf", a))
	have, err := l.Load("preloaded.gltf")
	if err != nil {
		t.Fatal(err)
	}
	if have != a {
		t.Fatal("Load: want the preloaded asset")
	}
}

func TestLoadAll(t *testing.T) {
	var paths []string
	for n := 1; n <= 5; n++ {
		paths = append(paths, gltftest.WriteTriangle(t, t.TempDir(), gltftest.WithPrimitives(n)))
	}

	l := NewLoader(BackendTypeGLTF, WithWorkers(2))
	assets, err := l.LoadAll(paths)
	if err != nil {
		t.Fatal(err)
	}
	if len(assets) != len(paths) {
		t.Fatalf("len(LoadAll):\nwant %d\nhave %d", len(paths), len(assets))
	}
	for i, a := range assets {
		if have := len(a.Meshes[0].Primitives); have != i+1 {
			t.Fatalf("asset %d primitives:\nwant %d\nhave %d", i, i+1, have)
		}
		if l.Get(paths[i]) != a {
			t.Fatalf("asset %d not cached", i)
		}
	}
}

func TestLoadAllFirstError(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		gltftest.WriteTriangle(t, t.TempDir()),
		filepath.Join(dir, "first-missing.gltf"),
		filepath.Join(dir, "second-missing.gltf"),
	}
	_, err := NewLoader(BackendTypeGLTF).LoadAll(paths)
	if !errors.Is(err, common.ErrIO) {
		t.Fatalf("LoadAll:\nwant %v\nhave %v", common.ErrIO, err)
	}
	if !strings.Contains(err.Error(), "first-missing.gltf") {
		t.Fatalf("LoadAll: error does not name the first failing path: %v", err)
	}
}

func TestLoadAllReleasesWorkers(t *testing.T) {
	var paths []string
	for i := 0; i < 8; i++ {
		paths = append(paths, gltftest.WriteTriangle(t, t.TempDir()))
	}

	base := runtime.NumGoroutine()
	l := NewLoader(BackendTypeGLTF, WithWorkers(8))
	if have := runtime.NumGoroutine(); have > base {
		t.Fatalf("NewLoader: started %d goroutines", have-base)
	}
	if _, err := l.LoadAll(paths); err != nil {
		t.Fatal(err)
	}
	if _, err := l.LoadAll(nil); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > base {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines after LoadAll:\nwant <= %d\nhave %d", base, runtime.NumGoroutine())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := gltftest.WriteTriangle(t, dir)
	l := NewLoader(BackendTypeGLTF, WithDebounce(20*time.Millisecond))
	first, err := l.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloads := make(chan *asset.Asset, 16)
	done := make(chan error, 1)
	go func() {
		done <- l.Watch(ctx, path, func(a *asset.Asset, err error) {
			if err != nil {
				return
			}
			select {
			case reloads <- a:
			default:
			}
		})
	}()

	// The watcher may not be registered yet; keep rewriting until it reports.
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	var reloaded *asset.Asset
	for reloaded == nil {
		select {
		case a := <-reloads:
			if len(a.Meshes[0].Primitives) == 2 {
				reloaded = a
			}
		case <-tick.C:
			gltftest.WriteTriangle(t, dir, gltftest.WithPrimitives(2))
		case <-deadline:
			t.Fatal("Watch: no reload observed")
		}
	}
	if reloaded == first || l.Get(path) == first {
		t.Fatal("Watch: cache still holds the original asset")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

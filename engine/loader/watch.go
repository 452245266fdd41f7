package loader

import (
	"context"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/asset"

	"github.com/fsnotify/fsnotify"
)

// WatchFunc receives the result of every reload triggered by Watch.
// Exactly one of a and err is non-nil.
type WatchFunc func(a *asset.Asset, err error)

// watchSet tracks the files a watched asset depends on and the directories
// registered with fsnotify to observe them.
type watchSet struct {
	w     *fsnotify.Watcher
	files map[string]bool
	dirs  map[string]bool
}

func newWatchSet(w *fsnotify.Watcher) *watchSet {
	return &watchSet{w: w, files: make(map[string]bool), dirs: make(map[string]bool)}
}

// add starts watching path. Directories are watched instead of files so that
// editors replacing a file by rename are still observed.
func (ws *watchSet) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	ws.files[abs] = true

	dir := filepath.Dir(abs)
	if ws.dirs[dir] {
		return nil
	}
	if err := ws.w.Add(dir); err != nil {
		return err
	}
	ws.dirs[dir] = true
	return nil
}

// matches reports whether the event concerns a tracked file.
func (ws *watchSet) matches(e fsnotify.Event) bool {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) && !e.Has(fsnotify.Rename) && !e.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(e.Name)
	if err != nil {
		return false
	}
	return ws.files[abs]
}

func (l *loader) Watch(ctx context.Context, path string, fn WatchFunc) error {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return common.NewError(common.ErrIO, "", -1, err)
	}
	defer fsWatch.Close()

	ws := newWatchSet(fsWatch)
	if err := ws.add(path); err != nil {
		return common.NewError(common.ErrIO, "", -1, err)
	}
	if a := l.Get(path); a != nil {
		l.trackDependencies(ws, a)
	}

	// timer is nil while no reload is pending.
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-fsWatch.Events:
			if !ok {
				return nil
			}
			if !ws.matches(e) {
				continue
			}
			common.LogDebug("watch event", "file", e.Name, "op", e.Op.String())
			if timer == nil {
				timer = time.NewTimer(l.debounce)
			} else {
				timer.Reset(l.debounce)
			}
			fire = timer.C

		case err, ok := <-fsWatch.Errors:
			if !ok {
				return nil
			}
			common.LogWarn("watch error", "err", err)

		case <-fire:
			fire = nil
			l.Evict(path)
			a, err := l.Load(path)
			if err != nil {
				common.LogDebug("reload failed", "path", path, "err", err)
				fn(nil, err)
				continue
			}
			l.trackDependencies(ws, a)
			common.LogDebug("reloaded", "path", path, "id", a.ID)
			fn(a, nil)
		}
	}
}

// trackDependencies adds an asset's external buffers to the watch set.
func (l *loader) trackDependencies(ws *watchSet, a *asset.Asset) {
	for _, dep := range l.backend.Dependencies(a) {
		if err := ws.add(dep); err != nil {
			common.LogWarn("cannot watch buffer", "path", dep, "err", err)
		}
	}
}

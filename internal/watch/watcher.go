// Package watch reloads the registry and the active collection when their
// backing files are modified by another process (an editor, a sync tool).
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/WayBetterSolutions/LEAF/internal/notestore"
	"github.com/WayBetterSolutions/LEAF/internal/registry"
)

// debounce coalesces bursts of write events before reloading.
const debounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher over the registry file and the
// collections directory and processes events until ctx is cancelled.
// Self-inflicted writes are recognized by comparing the file content
// against the in-memory state and skipped; external changes trigger a
// debounced reload, which re-publishes the usual change events.
func Watch(ctx context.Context, reg *registry.Registry, store *notestore.Store, registryFile, collectionsDir string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(collectionsDir); err != nil {
		return err
	}
	// The registry file lives next to the collections dir; watch its parent
	// so atomic renames over it are observed.
	if err := w.Add(filepath.Dir(registryFile)); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", collectionsDir))

	var flushTimer *time.Timer
	var flushCh <-chan time.Time
	registryDirty := false
	notesDirty := false

	schedule := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			if registryDirty {
				registryDirty = false
				if changed(registryFile, reg.InSync) {
					logger.Info("watcher: registry changed externally, reloading")
					reg.Load()
				}
			}
			if notesDirty {
				notesDirty = false
				active := store.Collection()
				if active != "" && changed(reg.FilePath(active), store.InSync) {
					logger.Info("watcher: active collection changed externally, reloading",
						slog.String("collection", active))
					store.Load()
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			switch {
			case ev.Name == registryFile:
				registryDirty = true
				schedule()
			case store.Collection() != "" && ev.Name == reg.FilePath(store.Collection()):
				notesDirty = true
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// changed reads path and reports whether its content diverges from memory.
// A missing or unreadable file counts as changed so the reload path can
// self-heal.
func changed(path string, inSync func([]byte) bool) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	return !inSync(data)
}

package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/eringen/wikiengine/config"
)

const debounceDelay = 300 * time.Millisecond

// watch calls rebuild after changes below the wiki's source directories
// settle, until ctx is done.
func watch(ctx context.Context, cfg *config.Config, rebuild func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, dir := range watchRoots(cfg) {
		addDirsRecursive(watcher, dir)
	}
	slog.Info("watching for changes", "output", cfg.OutputDir)

	rebuildReq, trigger := newDebouncer(debounceDelay)
	out, _ := filepath.Abs(cfg.OutputDir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-rebuildReq:
			slog.Info("change detected; rebuilding site")
			rebuild()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreEvent(ev.Name, out) {
				continue
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					addDirsRecursive(watcher, ev.Name)
				}
			}
			slog.Debug("file change detected", "path", ev.Name, "op", ev.Op.String())
			trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

// watchRoots lists the directories whose contents feed an export.
func watchRoots(cfg *config.Config) []string {
	roots := []string{cfg.EntriesDir, filepath.Dir(cfg.MetadataPath), cfg.ImagesDir}
	roots = append(roots, cfg.AssetSources...)
	seen := map[string]bool{}
	out := roots[:0]
	for _, r := range roots {
		r = filepath.Clean(r)
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// newDebouncer returns a channel that receives once per burst of trigger
// calls, delay after the last one.
func newDebouncer(delay time.Duration) (<-chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	return rebuildReq, trigger
}

func addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}

// shouldIgnoreEvent skips hidden, swap and temp files and anything inside
// the output directory.
func shouldIgnoreEvent(path, outputAbs string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp") {
		return true
	}
	if outputAbs == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == outputAbs || strings.HasPrefix(abs, outputAbs+string(filepath.Separator))
}

package mcp

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/pullup/internal/config"
	"github.com/standardbeagle/pullup/internal/debug"
	"github.com/standardbeagle/pullup/internal/model"
	"github.com/standardbeagle/pullup/internal/parser"
	"github.com/standardbeagle/pullup/internal/snapshot"
)

// watchSkip mirrors the directories the source walk prunes; changes
// inside them can never alter parse results.
var watchSkip = map[string]bool{
	".git":         true,
	".idea":        true,
	".gradle":      true,
	"node_modules": true,
}

// modelCache holds one parsed model per source-root set. A filesystem
// watcher over each set's directories drops the entry when Java sources
// change, so a cached model is never served stale. Builds run under the
// cache lock; concurrent first calls for distinct root sets serialize.
type modelCache struct {
	cfg *config.Config

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	model   *model.Model
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func newModelCache(cfg *config.Config) *modelCache {
	return &modelCache{cfg: cfg, entries: make(map[string]*cacheEntry)}
}

// cacheKey canonicalizes a root set; order never matters.
func cacheKey(roots []string) string {
	sorted := append([]string(nil), roots...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// Model returns the parsed model for the root set, building and caching
// it on the first call.
func (c *modelCache) Model(ctx context.Context, roots []string) (*model.Model, error) {
	key := cacheKey(roots)
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		debug.LogMCP("model cache hit for %d roots", len(roots))
		return e.model, nil
	}

	m, err := c.build(ctx, roots)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Without invalidation a cached model would go stale silently;
		// serve this one uncached.
		debug.LogMCP("watcher unavailable, model not cached: %v", err)
		return m, nil
	}
	for _, root := range roots {
		addWatches(watcher, root)
	}

	e := &cacheEntry{model: m, watcher: watcher, done: make(chan struct{})}
	c.entries[key] = e
	go c.watch(key, e)
	return m, nil
}

// build parses the root set into a fresh model. Per-file parse failures
// are logged and skipped, matching the builder's contract.
func (c *modelCache) build(ctx context.Context, roots []string) (*model.Model, error) {
	cfg := *c.cfg
	cfg.Project.Root = snapshot.CommonRoot(roots)
	cfg.Source.Roots = roots

	result, err := parser.NewBuilder(&cfg).Build(ctx)
	if err != nil {
		return nil, err
	}
	if ferr := result.Failures(); ferr != nil {
		debug.LogMCP("model built with skipped files: %v", ferr)
	}
	debug.LogMCP("parsed %d files (%d classes) in %s", result.Parsed,
		result.Model.ClassCount(), result.Elapsed)
	return result.Model, nil
}

// Invalidate drops the cached model for the root set, if any.
func (c *modelCache) Invalidate(roots []string) {
	c.invalidateKey(cacheKey(roots))
}

// invalidateKey removes one entry and releases its watcher. Only the
// caller that actually removed the entry closes it, so concurrent
// invalidations are safe.
func (c *modelCache) invalidateKey(key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	close(e.done)
	e.watcher.Close()
}

// Close releases every cached entry and its watcher.
func (c *modelCache) Close() {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
	for _, e := range entries {
		close(e.done)
		e.watcher.Close()
	}
}

// watch consumes filesystem events for one entry until the first event
// that could change parse results, then drops the entry and exits. The
// next Model call reparses and starts a fresh watcher.
func (c *modelCache) watch(key string, e *cacheEntry) {
	for {
		select {
		case <-e.done:
			return

		case event, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			if !invalidates(event) {
				continue
			}
			debug.LogMCP("source change %s (%v), dropping cached model", event.Name, event.Op)
			c.invalidateKey(key)
			return

		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			debug.LogMCP("watcher error, dropping cached model: %v", err)
			c.invalidateKey(key)
			return
		}
	}
}

// invalidates reports whether one event can change parse results: any
// touch of a Java source, removal or renaming of anything that might
// hold them, or a new directory appearing.
func invalidates(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if strings.HasSuffix(event.Name, ".java") {
		return true
	}
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		return true
	}
	if event.Op&fsnotify.Create != 0 {
		info, err := os.Stat(event.Name)
		return err == nil && info.IsDir()
	}
	return false
}

// addWatches registers every directory under root, skipping the pruned
// vendor dirs. Watch failures are logged and walked past; a partially
// watched tree still invalidates on the directories that registered.
func addWatches(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if watchSkip[d.Name()] && path != root {
			return filepath.SkipDir
		}
		if werr := w.Add(path); werr != nil {
			debug.LogMCP("cannot watch %s: %v", path, werr)
		}
		return nil
	})
}

// # internal/watcher/watcher.go
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"serialguard/internal/core/ports"
	"serialguard/internal/shared/observability"
	"serialguard/internal/shared/util"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// DefaultBatchWindow groups the burst of raw events an editor save produces.
const DefaultBatchWindow = 50 * time.Millisecond

// Watcher turns fsnotify events under a set of roots into batches of
// ChangeEvents for source files. Writes that leave the content unchanged
// are dropped.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	window       time.Duration
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	extensions   []string
	onChange     ports.ChangeHandler
	callbackMu   sync.Mutex

	pending   map[string]ports.ChangeKind
	pendingMu sync.Mutex
	timer     *time.Timer

	hashes   map[string]uint64
	hashesMu sync.Mutex
}

func NewWatcher(window time.Duration, excludeDirs, excludeFiles, extensions []string, onChange ports.ChangeHandler) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	if window <= 0 {
		window = DefaultBatchWindow
	}

	compiledDirs, err := compileAll(excludeDirs)
	if err != nil {
		return nil, err
	}
	compiledFiles, err := compileAll(excludeFiles)
	if err != nil {
		return nil, err
	}

	extensions = util.NormalizeExtensions(extensions)
	if len(extensions) == 0 {
		extensions = []string{".java"}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:    fsw,
		window:       window,
		excludeDirs:  compiledDirs,
		excludeFiles: compiledFiles,
		extensions:   extensions,
		onChange:     onChange,
		pending:      make(map[string]ports.ChangeKind),
		hashes:       make(map[string]uint64),
	}, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if err := w.watchRecursive(path); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && w.ShouldExcludeDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			if !w.ShouldExcludeDir(event.Name) {
				if err := w.watchRecursive(event.Name); err != nil {
					slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
				} else {
					w.enqueueExistingFiles(event.Name)
				}
			}
			return
		}
	}

	if w.ShouldExcludeFile(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove):
		w.forgetHash(event.Name)
		w.schedule(event.Name, ports.Removed)
	case event.Has(fsnotify.Rename):
		w.forgetHash(event.Name)
		w.schedule(event.Name, ports.Renamed)
	case event.Has(fsnotify.Create):
		w.schedule(event.Name, ports.Created)
	case event.Has(fsnotify.Write):
		w.schedule(event.Name, ports.ContentChanged)
	}
}

// fingerprint records the fingerprint of path. seen reports whether an
// earlier one existed, changed whether it differs. Unreadable files count as
// changed. It runs when a batch is flushed, after the editor finished writing.
func (w *Watcher) fingerprint(path string) (seen, changed bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, true
	}
	sum := xxhash.Sum64(content)

	w.hashesMu.Lock()
	defer w.hashesMu.Unlock()
	prev, seen := w.hashes[path]
	w.hashes[path] = sum
	return seen, !seen || prev != sum
}

func (w *Watcher) forgetHash(path string) {
	w.hashesMu.Lock()
	delete(w.hashes, path)
	w.hashesMu.Unlock()
}

func (w *Watcher) schedule(path string, kind ports.ChangeKind) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = mergeKind(w.pending[path], kind, w.hasPending(path))

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.window, w.flush)
}

// caller must hold pendingMu
func (w *Watcher) hasPending(path string) bool {
	_, ok := w.pending[path]
	return ok
}

// mergeKind folds a new event into the one already pending for a path. A
// write right after a create is still a new file.
func mergeKind(prev, next ports.ChangeKind, hadPrev bool) ports.ChangeKind {
	if hadPrev && prev == ports.Created && next == ports.ContentChanged {
		return ports.Created
	}
	return next
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	pending := w.pending
	w.pending = make(map[string]ports.ChangeKind)
	w.pendingMu.Unlock()

	events := make([]ports.ChangeEvent, 0, len(pending))
	for path, kind := range pending {
		switch kind {
		case ports.Created:
			// A temp file renamed over a known path is a save, not a new file.
			seen, changed := w.fingerprint(path)
			if seen {
				if !changed {
					observability.UnchangedContentTotal.Inc()
					continue
				}
				kind = ports.ContentChanged
			}
		case ports.ContentChanged:
			if _, changed := w.fingerprint(path); !changed {
				observability.UnchangedContentTotal.Inc()
				continue
			}
		}
		events = append(events, ports.ChangeEvent{Path: path, Kind: kind})
	}

	if len(events) == 0 {
		return
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(events)
}

// ShouldExcludeDir matches the directory's base name against the exclude globs.
func (w *Watcher) ShouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// ShouldExcludeFile reports whether path is outside the watched extensions
// or matches a file exclude glob.
func (w *Watcher) ShouldExcludeFile(path string) bool {
	if !util.HasExtension(path, w.extensions) {
		return true
	}
	base := strings.ToLower(filepath.Base(path))
	for _, g := range w.excludeFiles {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if w.ShouldExcludeFile(path) {
			return nil
		}
		w.schedule(path, ports.Created)
		return nil
	})
}

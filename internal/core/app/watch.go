package app

import "serialguard/internal/watcher"

// StartWatcher begins delivering change events under the watch roots to
// the pipeline.
func (a *App) StartWatcher() error {
	w, err := watcher.NewWatcher(
		watcher.DefaultBatchWindow,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		a.Config.Source.Extensions,
		a.Pipeline.HandleEvents,
	)
	if err != nil {
		return err
	}
	if err := w.Watch(uniqueScanRoots(a.Config.WatchPaths)); err != nil {
		_ = w.Close()
		return err
	}

	a.watcherMu.Lock()
	a.activeWatcher = w
	a.watcherMu.Unlock()
	return nil
}

package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"serialguard/internal/core/config"
	"serialguard/internal/core/ports"
	"serialguard/internal/data/history"
	"serialguard/internal/data/queue"
	"serialguard/internal/engine/javasrc"
	"serialguard/internal/engine/qualify"
	"serialguard/internal/notify"
	"serialguard/internal/pipeline"
	"serialguard/internal/shared/util"
	"serialguard/internal/watcher"

	"github.com/gobwas/glob"
	"github.com/jonboulle/clockwork"
)

// Options carries collaborators that differ between the CLI, the TUI and tests.
type Options struct {
	Clock clockwork.Clock
	// Sinks receive every notification in addition to the history store.
	Sinks []ports.NotificationSink
	// History overrides the store opened from [db].
	History ports.NotificationStore
	// DisableHistory skips opening the sqlite store.
	DisableHistory bool
}

type App struct {
	Config   *config.Config
	Model    *javasrc.Model
	Engine   *qualify.Engine
	Cache    *qualify.Cache
	Index    *qualify.QualifyingIndex
	Settings *config.SettingsStore
	Pipeline *pipeline.Pipeline

	sink         notify.Fanout
	history      ports.NotificationStore
	historyStore *history.Store
	historyQueue *queue.AsyncSink
	clock        clockwork.Clock
	scope        string

	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob

	watcherMu     sync.Mutex
	activeWatcher *watcher.Watcher
}

func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	excludeDirs, err := compileGlobs(cfg.Exclude.Dirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	excludeFiles, err := compileGlobs(cfg.Exclude.Files, "exclude file")
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:       cfg,
		Settings:     config.NewSettingsStoreFrom(cfg.Notifications),
		clock:        opts.Clock,
		scope:        ProjectScope(cfg),
		excludeDirs:  excludeDirs,
		excludeFiles: excludeFiles,
	}

	a.Model = javasrc.NewModel(javasrc.NewParser(), cfg.Source.Extensions)
	a.Engine = qualify.NewEngine(qualify.NewMarkerSet(cfg.Markers.Names))
	a.Cache = qualify.NewCache(a.Engine, a.Model, cfg.Analysis.CacheSize)
	a.Index = qualify.NewQualifyingIndex(a.Cache)

	switch {
	case opts.History != nil:
		a.history = opts.History
	case cfg.DBEnabled() && !opts.DisableHistory:
		store, err := history.Open(cfg.DBPath())
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.historyStore = store
		a.history = store
	}

	a.sink = append(a.sink, opts.Sinks...)
	if a.history != nil {
		a.historyQueue = queue.NewAsyncSink(notify.NewHistorySink(a.history), queue.DefaultCapacity, queue.DefaultBatchSize)
		a.sink = append(a.sink, a.historyQueue)
	}

	a.Pipeline = pipeline.New(pipeline.Deps{
		Model:     a.Model,
		Qualifier: a.Cache,
		Prefilter: qualify.NewPrefilter(a.Engine.Markers(), a.Index),
		Index:     a.Index,
		Settings:  a.Settings,
		Sink:      a.sink,
		Limiter:   util.NewLimiter(cfg.Notifications.MaxPerSecond, cfg.Notifications.Burst),
	}, pipeline.Options{
		Clock:           opts.Clock,
		QuietPeriod:     cfg.Debounce.QuietPeriod,
		Mode:            pipeline.DebounceMode(cfg.Debounce.Mode),
		MaxTrackedFiles: cfg.Notifications.MaxTrackedFiles,
		Scope:           a.scope,
	})

	return a, nil
}

// Scope identifies this workspace in notifications and history.
func (a *App) Scope() string {
	return a.scope
}

// SyncHistory waits until queued notifications reach the history store.
func (a *App) SyncHistory() {
	if a.historyQueue != nil {
		a.historyQueue.Sync()
	}
}

// History returns the notification store, or nil when history is disabled.
func (a *App) History() ports.NotificationStore {
	return a.history
}

// ApplyConfig pushes a reloaded configuration into the live settings.
// Markers, paths and the debounce mode need a restart.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Settings.Apply(cfg.Notifications)
	settings, _ := a.Settings.Snapshot()
	slog.Info("settings reloaded",
		"notifications_enabled", settings.NotificationsEnabled,
		"cooldown", settings.Cooldown,
	)
}

func (a *App) Close() error {
	a.Pipeline.Close()

	a.watcherMu.Lock()
	w := a.activeWatcher
	a.activeWatcher = nil
	a.watcherMu.Unlock()

	var firstErr error
	if w != nil {
		if err := w.Close(); err != nil {
			firstErr = err
		}
	}
	if a.historyQueue != nil {
		_ = a.historyQueue.Close()
	}
	if a.historyStore != nil {
		if err := a.historyStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// ProjectScope is the absolute project root, used to scope notifications
// and history rows.
func ProjectScope(cfg *config.Config) string {
	root := cfg.Paths.ProjectRoot
	if root == "" && len(cfg.WatchPaths) > 0 {
		root = cfg.WatchPaths[0]
	}
	if root == "" {
		if wd, err := os.Getwd(); err == nil {
			root = wd
		}
	}
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return root
}

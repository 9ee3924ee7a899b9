// Package pipeline turns file change events into throttled warnings about
// serialization-sensitive classes.
package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"serialguard/internal/shared/observability"

	"github.com/jonboulle/clockwork"
)

// DebounceMode selects what happens when a timer fires before the quiet
// period since the latest edit has elapsed.
type DebounceMode string

const (
	// ModeRearm arms one timer for the remaining quiet time.
	ModeRearm DebounceMode = "rearm"
	// ModeDrop skips the cycle without rescheduling.
	ModeDrop DebounceMode = "drop"
)

// pendingFile exists only between the first edit of a burst and the fire
// that consumes it.
type pendingFile struct {
	lastEdit time.Time
}

// Debouncer coalesces edit bursts per path into one deferred check. At most
// one timer per path is outstanding; timers are never cancelled.
type Debouncer struct {
	clock clockwork.Clock
	quiet time.Duration
	mode  DebounceMode
	check func(path string)

	mu      sync.Mutex
	pending map[string]*pendingFile
	closed  bool
}

func NewDebouncer(clock clockwork.Clock, quiet time.Duration, mode DebounceMode, check func(path string)) *Debouncer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if quiet < 0 {
		quiet = 0
	}
	if mode != ModeDrop {
		mode = ModeRearm
	}
	return &Debouncer{
		clock:   clock,
		quiet:   quiet,
		mode:    mode,
		check:   check,
		pending: make(map[string]*pendingFile),
	}
}

// OnEdit records an edit of path. It never blocks on analysis.
func (d *Debouncer) OnEdit(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	now := d.clock.Now()
	if p, ok := d.pending[path]; ok {
		p.lastEdit = now
		observability.DebounceTotal.WithLabelValues("coalesced").Inc()
		return
	}

	d.pending[path] = &pendingFile{lastEdit: now}
	observability.PendingChecks.Set(float64(len(d.pending)))
	observability.DebounceTotal.WithLabelValues("scheduled").Inc()
	d.arm(path, d.quiet)
}

// caller must hold d.mu
func (d *Debouncer) arm(path string, after time.Duration) {
	d.clock.AfterFunc(after, func() { d.fire(path) })
}

func (d *Debouncer) fire(path string) {
	d.mu.Lock()
	p, ok := d.pending[path]
	if !ok || d.closed {
		d.mu.Unlock()
		return
	}

	if since := d.clock.Since(p.lastEdit); since < d.quiet {
		if d.mode == ModeDrop {
			delete(d.pending, path)
			observability.PendingChecks.Set(float64(len(d.pending)))
			observability.DebounceTotal.WithLabelValues("dropped").Inc()
			d.mu.Unlock()
			slog.Debug("edit burst still active, check skipped", "path", path)
			return
		}
		observability.DebounceTotal.WithLabelValues("rearmed").Inc()
		d.arm(path, d.quiet-since)
		d.mu.Unlock()
		return
	}

	delete(d.pending, path)
	observability.PendingChecks.Set(float64(len(d.pending)))
	observability.DebounceTotal.WithLabelValues("fired").Inc()
	d.mu.Unlock()

	d.run(path)
}

func (d *Debouncer) run(path string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("deferred check panicked", "path", path, "panic", r)
		}
	}()
	if d.check != nil {
		d.check(path)
	}
}

// Pending returns the number of paths with a scheduled check.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// IsPending reports whether path has a scheduled check.
func (d *Debouncer) IsPending(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[path]
	return ok
}

// Close stops accepting edits. Timers already armed fire as no-ops.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.pending = make(map[string]*pendingFile)
	observability.PendingChecks.Set(0)
}

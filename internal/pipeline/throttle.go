package pipeline

import (
	"time"

	"serialguard/internal/core/config"
	"serialguard/internal/shared/lru"
)

// CooldownSource supplies the live cooldown. *config.SettingsStore satisfies it.
type CooldownSource interface {
	Snapshot() (config.Settings, bool)
}

// Throttle suppresses repeat notifications for the same path within the
// cooldown. Records live in a bounded LRU so long sessions over huge trees
// cannot grow it without limit; an evicted path simply notifies again.
type Throttle struct {
	settings CooldownSource
	records  *lru.Cache[string, time.Time]
}

func NewThrottle(settings CooldownSource, maxTracked int) *Throttle {
	if maxTracked <= 0 {
		maxTracked = config.DefaultMaxTrackedFiles
	}
	return &Throttle{
		settings: settings,
		records:  lru.New[string, time.Time](maxTracked),
	}
}

// Cooldown returns the current cooldown, or the default when no settings
// are available.
func (t *Throttle) Cooldown() time.Duration {
	if t.settings != nil {
		if s, ok := t.settings.Snapshot(); ok && s.Cooldown > 0 {
			return s.Cooldown
		}
	}
	return config.DefaultCooldown
}

// ShouldNotify reports whether path may be notified at now.
func (t *Throttle) ShouldNotify(path string, now time.Time) bool {
	last, ok := t.records.Peek(path)
	return !ok || now.Sub(last) >= t.Cooldown()
}

// RecordNotified stores now as the last notification time of path.
func (t *Throttle) RecordNotified(path string, now time.Time) {
	t.records.Put(path, now)
}

// Allow checks and records in one step, so concurrent callers for the same
// path cannot both pass.
func (t *Throttle) Allow(path string, now time.Time) bool {
	cooldown := t.Cooldown()
	allowed := false
	t.records.Update(path, func(last time.Time, ok bool) (time.Time, bool) {
		if ok && now.Sub(last) < cooldown {
			return last, false
		}
		allowed = true
		return now, true
	})
	return allowed
}

// Tracked returns the number of paths with a notification record.
func (t *Throttle) Tracked() int {
	return t.records.Len()
}

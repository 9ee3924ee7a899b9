package config

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	domainerrors "serialguard/internal/core/errors"
)

// Settings is the user-adjustable part of the configuration that the
// asynchronous pipeline consults on every edit and every notification.
type Settings struct {
	NotificationsEnabled bool
	Cooldown             time.Duration
}

// SettingsStore holds the live Settings. The zero value is uninitialized and
// reports the feature as disabled; use NewSettingsStore for defaults.
type SettingsStore struct {
	mu          sync.RWMutex
	settings    Settings
	initialized bool
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{
		settings: Settings{
			NotificationsEnabled: false,
			Cooldown:             DefaultCooldown,
		},
		initialized: true,
	}
}

// NewSettingsStoreFrom builds a store from the [notifications] section.
func NewSettingsStoreFrom(n Notifications) *SettingsStore {
	s := NewSettingsStore()
	s.Apply(n)
	return s
}

// Snapshot returns the current settings. ok is false for a nil or
// uninitialized store, which callers treat as "feature disabled".
func (s *SettingsStore) Snapshot() (Settings, bool) {
	if s == nil {
		return Settings{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return Settings{}, false
	}
	return s.settings, true
}

// Enabled reports whether the asynchronous notification pipeline may run.
func (s *SettingsStore) Enabled() bool {
	settings, ok := s.Snapshot()
	return ok && settings.NotificationsEnabled
}

func (s *SettingsStore) SetNotificationsEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.NotificationsEnabled = enabled
	s.initialized = true
}

// SetCooldown stores d, clamped to MinCooldown.
func (s *SettingsStore) SetCooldown(d time.Duration) {
	if d < MinCooldown {
		d = MinCooldown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Cooldown = d
	if !s.initialized {
		s.settings.NotificationsEnabled = false
		s.initialized = true
	}
}

func (s *SettingsStore) SetCooldownMillis(ms int64) {
	s.SetCooldown(time.Duration(ms) * time.Millisecond)
}

// SetCooldownText parses a millisecond value as typed by a user. A
// non-numeric value leaves the current cooldown untouched.
func (s *SettingsStore) SetCooldownText(raw string) error {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeValidationError, "cooldown must be a whole number of milliseconds"),
			domainerrors.CtxKey, "notifications.cooldown_ms",
		)
	}
	s.SetCooldownMillis(ms)
	return nil
}

// Apply pushes a [notifications] section into the store.
func (s *SettingsStore) Apply(n Notifications) {
	s.SetNotificationsEnabled(n.Enabled)
	if !n.CooldownMS.Set {
		return
	}
	if err := s.SetCooldownText(n.CooldownMS.Text); err != nil {
		current, _ := s.Snapshot()
		slog.Warn("ignoring malformed cooldown, keeping previous value",
			"value", n.CooldownMS.Text,
			"cooldown", current.Cooldown,
			"error", err,
		)
	}
}

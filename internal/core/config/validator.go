package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Validate checks a defaulted configuration. A malformed cooldown is not an
// error here; the settings store keeps its previous value instead.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateMarkers(cfg); err != nil {
		return err
	}
	if err := validateSource(cfg); err != nil {
		return err
	}
	if err := validateExclude(cfg); err != nil {
		return err
	}
	if err := validateDebounce(cfg); err != nil {
		return err
	}
	if err := validateNotifications(cfg); err != nil {
		return err
	}
	if cfg.Analysis.CacheSize < 0 {
		return fmt.Errorf("analysis.cache_size must be >= 0, got %d", cfg.Analysis.CacheSize)
	}
	if cfg.Observability.Enabled && strings.TrimSpace(cfg.Observability.Address) == "" {
		return fmt.Errorf("observability.address must not be empty when observability is enabled")
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateMarkers(cfg *Config) error {
	if len(cfg.Markers.Names) == 0 {
		return fmt.Errorf("markers.names must contain at least one marker")
	}
	for i, name := range cfg.Markers.Names {
		if strings.ContainsAny(name, " \t\r\n") {
			return fmt.Errorf("markers.names[%d] %q must not contain whitespace", i, name)
		}
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
			return fmt.Errorf("markers.names[%d] %q is not a valid type name", i, name)
		}
	}
	return nil
}

func validateSource(cfg *Config) error {
	for i, ext := range cfg.Source.Extensions {
		if strings.TrimSpace(ext) == "" {
			return fmt.Errorf("source.extensions[%d] must not be empty", i)
		}
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, pattern := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.dirs pattern %q: %w", pattern, err)
		}
	}
	for _, pattern := range cfg.Exclude.Files {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.files pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func validateDebounce(cfg *Config) error {
	if cfg.Debounce.QuietPeriod < 0 {
		return fmt.Errorf("debounce.quiet_period must be positive, got %s", cfg.Debounce.QuietPeriod)
	}
	switch cfg.Debounce.Mode {
	case DebounceModeRearm, DebounceModeDrop:
		return nil
	default:
		return fmt.Errorf("debounce.mode must be one of: %s, %s", DebounceModeRearm, DebounceModeDrop)
	}
}

func validateNotifications(cfg *Config) error {
	if cfg.Notifications.MaxTrackedFiles < 0 {
		return fmt.Errorf("notifications.max_tracked_files must be >= 0, got %d", cfg.Notifications.MaxTrackedFiles)
	}
	if cfg.Notifications.MaxPerSecond < 0 {
		return fmt.Errorf("notifications.max_per_second must be >= 0, got %v", cfg.Notifications.MaxPerSecond)
	}
	if cfg.Notifications.Burst < 0 {
		return fmt.Errorf("notifications.burst must be >= 0, got %d", cfg.Notifications.Burst)
	}
	return nil
}

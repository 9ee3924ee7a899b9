package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: SERIALGUARD_[SECTION]_[KEY] (e.g., SERIALGUARD_DEBOUNCE_MODE).
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "SERIALGUARD_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.StateDir, "SERIALGUARD_PATHS_STATE_DIR")

	// Markers
	setEnvList(&cfg.Markers.Names, "SERIALGUARD_MARKERS_NAMES")

	// Notifications
	setEnvBool(&cfg.Notifications.Enabled, "SERIALGUARD_NOTIFICATIONS_ENABLED")
	if val, ok := os.LookupEnv("SERIALGUARD_NOTIFICATIONS_COOLDOWN_MS"); ok {
		slog.Debug("applying env override", "key", "SERIALGUARD_NOTIFICATIONS_COOLDOWN_MS", "value", val)
		cfg.Notifications.CooldownMS = RawMillis{Text: val, Set: true}
	}
	setEnvInt(&cfg.Notifications.MaxTrackedFiles, "SERIALGUARD_NOTIFICATIONS_MAX_TRACKED_FILES")
	setEnvFloat64(&cfg.Notifications.MaxPerSecond, "SERIALGUARD_NOTIFICATIONS_MAX_PER_SECOND")

	// Debounce
	setEnvDuration(&cfg.Debounce.QuietPeriod, "SERIALGUARD_DEBOUNCE_QUIET_PERIOD")
	setEnvString(&cfg.Debounce.Mode, "SERIALGUARD_DEBOUNCE_MODE")

	// Database
	if val, ok := os.LookupEnv("SERIALGUARD_DB_ENABLED"); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", "SERIALGUARD_DB_ENABLED", "value", val)
			cfg.DB.Enabled = &b
		}
	}
	setEnvString(&cfg.DB.Path, "SERIALGUARD_DB_PATH")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "SERIALGUARD_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.Address, "SERIALGUARD_OBSERVABILITY_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "SERIALGUARD_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "SERIALGUARD_OBSERVABILITY_ENABLE_TRACING")

	normalize(cfg)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = out
		}
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}

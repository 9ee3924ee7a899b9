package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultQuietPeriod     = 1000 * time.Millisecond
	DefaultCooldown        = 10000 * time.Millisecond
	MinCooldown            = 1000 * time.Millisecond
	DefaultMaxTrackedFiles = 10000
	DefaultCacheSize       = 4096

	DebounceModeRearm = "rearm"
	DebounceModeDrop  = "drop"
)

// DefaultMarkers are the annotation / interface names that denote the
// serialization contract when no [markers] section is configured.
var DefaultMarkers = []string{
	"Autoserializable",
	"com.brotech.Autoserializable",
	"com.yourcompany.Autoserializable",
}

type Config struct {
	Version       int           `toml:"version"`
	WatchPaths    []string      `toml:"watch_paths"`
	Paths         Paths         `toml:"paths"`
	Source        Source        `toml:"source"`
	Exclude       Exclude       `toml:"exclude"`
	Markers       Markers       `toml:"markers"`
	Notifications Notifications `toml:"notifications"`
	Debounce      Debounce      `toml:"debounce"`
	Analysis      Analysis      `toml:"analysis"`
	DB            Database      `toml:"db"`
	Observability Observability `toml:"observability"`
	Alerts        Alerts        `toml:"alerts"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	StateDir    string `toml:"state_dir"`
}

type Source struct {
	Extensions []string `toml:"extensions"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Markers struct {
	Names []string `toml:"names"`
}

type Notifications struct {
	Enabled         bool      `toml:"enabled"`
	CooldownMS      RawMillis `toml:"cooldown_ms"`
	MaxTrackedFiles int       `toml:"max_tracked_files"`
	MaxPerSecond    float64   `toml:"max_per_second"`
	Burst           int       `toml:"burst"`
}

type Debounce struct {
	QuietPeriod time.Duration `toml:"quiet_period"`
	Mode        string        `toml:"mode"`
}

type Analysis struct {
	CacheSize int `toml:"cache_size"`
}

type Database struct {
	Enabled *bool  `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Address       string `toml:"address"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
}

type Alerts struct {
	Beep     bool `toml:"beep"`
	Terminal bool `toml:"terminal"`
}

// RawMillis keeps the cooldown exactly as written so that a malformed value
// can be ignored on its own instead of rejecting the whole file.
type RawMillis struct {
	Text string
	Set  bool
}

func (r *RawMillis) UnmarshalTOML(v interface{}) error {
	switch x := v.(type) {
	case int64:
		r.Text = strconv.FormatInt(x, 10)
	case float64:
		r.Text = strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		r.Text = x
	default:
		r.Text = fmt.Sprint(x)
	}
	r.Set = true
	return nil
}

// Millis parses the raw value. ok is false when unset or not numeric.
func (r RawMillis) Millis() (int64, bool) {
	if !r.Set {
		return 0, false
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(r.Text), 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}

// DBEnabled reports whether the warning history store should be opened.
func (c *Config) DBEnabled() bool {
	return c.DB.Enabled != nil && *c.DB.Enabled
}

// DBPath resolves the history database path relative to the state dir.
func (c *Config) DBPath() string {
	if filepath.IsAbs(c.DB.Path) {
		return c.DB.Path
	}
	return filepath.Join(c.Paths.StateDir, c.DB.Path)
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when the file is absent.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return nil, err
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.WatchPaths) == 0 {
		cfg.WatchPaths = []string{"."}
	}
	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = "data/state"
	}
	if len(cfg.Source.Extensions) == 0 {
		cfg.Source.Extensions = []string{".java"}
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", ".idea", "build", "target", "out", "node_modules"}
	}
	if len(cfg.Markers.Names) == 0 {
		cfg.Markers.Names = append([]string(nil), DefaultMarkers...)
	}
	if !cfg.Notifications.CooldownMS.Set {
		cfg.Notifications.CooldownMS = RawMillis{Text: strconv.FormatInt(DefaultCooldown.Milliseconds(), 10), Set: true}
	}
	if cfg.Notifications.MaxTrackedFiles == 0 {
		cfg.Notifications.MaxTrackedFiles = DefaultMaxTrackedFiles
	}
	if cfg.Notifications.Burst == 0 {
		cfg.Notifications.Burst = 10
	}
	if cfg.Debounce.QuietPeriod == 0 {
		cfg.Debounce.QuietPeriod = DefaultQuietPeriod
	}
	if strings.TrimSpace(cfg.Debounce.Mode) == "" {
		cfg.Debounce.Mode = DebounceModeRearm
	}
	if cfg.Analysis.CacheSize == 0 {
		cfg.Analysis.CacheSize = DefaultCacheSize
	}
	if cfg.DB.Enabled == nil {
		enabled := true
		cfg.DB.Enabled = &enabled
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "serialguard.db"
	}
	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = "127.0.0.1:9464"
	}
}

func normalize(cfg *Config) {
	cfg.Debounce.Mode = strings.ToLower(strings.TrimSpace(cfg.Debounce.Mode))
	names := make([]string, 0, len(cfg.Markers.Names))
	for _, name := range cfg.Markers.Names {
		name = strings.TrimPrefix(strings.TrimSpace(name), "@")
		if name != "" {
			names = append(names, name)
		}
	}
	cfg.Markers.Names = names
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
}

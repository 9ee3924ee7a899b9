package cliapp

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"serialguard/internal/core/config"
)

// loadConfig reads the config file. The default path may be absent, an
// explicitly named one may not. Environment overrides apply last.
func (c *CLI) loadConfig() (*config.Config, string, error) {
	path := c.opts.configPath
	var (
		cfg *config.Config
		err error
	)
	if path == defaultConfigPath {
		cfg, err = config.LoadOrDefault(path)
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("load config %q: %w", path, err)
	}

	config.ApplyEnvOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}

	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		path = ""
	}
	return cfg, path, nil
}

// applyPathArgs lets positional paths replace the configured watch roots.
func applyPathArgs(cfg *config.Config, args []string) {
	if len(args) == 0 {
		return
	}
	cfg.WatchPaths = append([]string(nil), args...)
	if cfg.Paths.ProjectRoot == "" {
		cfg.Paths.ProjectRoot = args[0]
	}
}

func configureLogging(out io.Writer, uiMode, verbose bool, stateDir string) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := out
	var closeFn func() = func() {}
	if uiMode {
		logPath := resolveLogPath(stateDir)
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath(stateDir string) string {
	if strings.TrimSpace(stateDir) != "" {
		return filepath.Join(stateDir, "serialguard.log")
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "serialguard", "serialguard.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "serialguard", "serialguard.log")
	}

	return "serialguard.log"
}

func parseSince(value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, nil
	}

	rfc3339, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return rfc3339.UTC(), nil
	}

	dateOnly, err := time.Parse("2006-01-02", raw)
	if err == nil {
		return dateOnly.UTC(), nil
	}

	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return time.Now().Add(-d).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("--since must be RFC3339, YYYY-MM-DD or a duration like 24h, got %q", value)
}

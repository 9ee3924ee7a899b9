package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsValidChangesOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "serialguard.toml")
	require.NoError(t, os.WriteFile(path, []byte("[notifications]\nenabled = false\n"), 0o644))

	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// Give fsnotify a moment to register the directory.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("version = \"broken\"\n"), 0o644))
	select {
	case cfg := <-reloaded:
		t.Fatalf("broken config must not be delivered, got %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte("[notifications]\nenabled = true\ncooldown_ms = 2000\n"), 0o644))
	select {
	case cfg := <-reloaded:
		require.True(t, cfg.Notifications.Enabled)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

// # internal/watcher/watcher_test.go
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"serialguard/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrInvalid))
	assert.Nil(t, w)
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	_, err := NewWatcher(0, []string{"[unclosed"}, nil, nil, func([]ports.ChangeEvent) {})
	assert.Error(t, err)
}

func startWatcher(t *testing.T, dir string) (*Watcher, chan []ports.ChangeEvent) {
	t.Helper()
	batches := make(chan []ports.ChangeEvent, 16)
	w, err := NewWatcher(50*time.Millisecond, []string{"exclude_dir"}, []string{"*Generated.java"}, []string{"java"}, func(events []ports.ChangeEvent) {
		batches <- events
	})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	require.NoError(t, w.Watch([]string{dir}))
	return w, batches
}

func waitFor(t *testing.T, batches chan []ports.ChangeEvent, path string, kinds ...ports.ChangeKind) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case events := <-batches:
			for _, ev := range events {
				if ev.Path != path {
					continue
				}
				for _, kind := range kinds {
					if ev.Kind == kind {
						return
					}
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %v on %s", kinds, path)
		}
	}
}

func expectQuiet(t *testing.T, batches chan []ports.ChangeEvent, path string) {
	t.Helper()
	deadline := time.After(250 * time.Millisecond)
	for {
		select {
		case events := <-batches:
			for _, ev := range events {
				if ev.Path == path {
					t.Fatalf("unexpected %s event for %s", ev.Kind, path)
				}
			}
		case <-deadline:
			return
		}
	}
}

func TestWatcher_EmitsJavaChanges(t *testing.T) {
	dir := t.TempDir()
	_, batches := startWatcher(t, dir)

	foo := filepath.Join(dir, "Foo.java")
	require.NoError(t, os.WriteFile(foo, []byte("class Foo {}"), 0o644))
	waitFor(t, batches, foo, ports.Created, ports.ContentChanged)

	require.NoError(t, os.WriteFile(foo, []byte("@Autoserializable class Foo {}"), 0o644))
	waitFor(t, batches, foo, ports.ContentChanged)

	require.NoError(t, os.Remove(foo))
	waitFor(t, batches, foo, ports.Removed)
}

func TestWatcher_DropsIdenticalRewrites(t *testing.T) {
	dir := t.TempDir()
	_, batches := startWatcher(t, dir)

	foo := filepath.Join(dir, "Foo.java")
	content := []byte("class Foo {}")
	require.NoError(t, os.WriteFile(foo, content, 0o644))
	waitFor(t, batches, foo, ports.Created, ports.ContentChanged)

	require.NoError(t, os.WriteFile(foo, content, 0o644))
	expectQuiet(t, batches, foo)

	require.NoError(t, os.WriteFile(foo, []byte("class Foo { int x; }"), 0o644))
	waitFor(t, batches, foo, ports.ContentChanged)
}

func TestWatcher_RenameOverKnownFileIsContentChange(t *testing.T) {
	dir := t.TempDir()
	_, batches := startWatcher(t, dir)

	foo := filepath.Join(dir, "Foo.java")
	require.NoError(t, os.WriteFile(foo, []byte("class Foo {}"), 0o644))
	waitFor(t, batches, foo, ports.Created, ports.ContentChanged)

	tmp := filepath.Join(dir, "Foo.java.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("@Autoserializable class Foo {}"), 0o644))
	require.NoError(t, os.Rename(tmp, foo))
	waitFor(t, batches, foo, ports.ContentChanged)

	// Same bytes renamed over again: nothing to report.
	require.NoError(t, os.WriteFile(tmp, []byte("@Autoserializable class Foo {}"), 0o644))
	require.NoError(t, os.Rename(tmp, foo))
	expectQuiet(t, batches, foo)
}

func TestWatcher_Exclusions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "exclude_dir"), 0o755))
	_, batches := startWatcher(t, dir)

	excludedDir := filepath.Join(dir, "exclude_dir", "Hidden.java")
	excludedFile := filepath.Join(dir, "FooGenerated.java")
	notJava := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(excludedDir, []byte("class Hidden {}"), 0o644))
	require.NoError(t, os.WriteFile(excludedFile, []byte("class FooGenerated {}"), 0o644))
	require.NoError(t, os.WriteFile(notJava, []byte("text"), 0o644))

	expectQuiet(t, batches, excludedDir)
	expectQuiet(t, batches, excludedFile)
	expectQuiet(t, batches, notJava)
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()
	_, batches := startWatcher(t, dir)

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)

	bar := filepath.Join(sub, "Bar.java")
	require.NoError(t, os.WriteFile(bar, []byte("class Bar {}"), 0o644))
	waitFor(t, batches, bar, ports.Created, ports.ContentChanged)
}

func TestMergeKind(t *testing.T) {
	assert.Equal(t, ports.Created, mergeKind(ports.Created, ports.ContentChanged, true))
	assert.Equal(t, ports.ContentChanged, mergeKind(ports.ContentChanged, ports.ContentChanged, false))
	assert.Equal(t, ports.Removed, mergeKind(ports.Created, ports.Removed, true))
	// Zero value of a missing entry is ContentChanged; it must not be
	// mistaken for a pending event.
	assert.Equal(t, ports.Created, mergeKind(ports.ContentChanged, ports.Created, false))
}

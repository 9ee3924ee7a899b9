package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"serialguard/internal/core/config"
	"serialguard/internal/core/ports"
	"serialguard/internal/engine/javasrc"
	"serialguard/internal/engine/qualify"
	"serialguard/internal/notify"
	"serialguard/internal/shared/util"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t        *testing.T
	dir      string
	clock    clockwork.FakeClock
	model    *javasrc.Model
	index    *qualify.QualifyingIndex
	settings *config.SettingsStore
	sink     *notify.Recorder
	p        *Pipeline
	done     chan string
}

func newFixture(t *testing.T, limiter *util.Limiter) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		dir:      t.TempDir(),
		clock:    clockwork.NewFakeClock(),
		model:    javasrc.NewModel(nil, nil),
		settings: config.NewSettingsStore(),
		sink:     &notify.Recorder{},
		done:     make(chan string, 16),
	}
	f.settings.SetNotificationsEnabled(true)

	engine := qualify.NewEngine(qualify.NewMarkerSet(config.DefaultMarkers))
	cache := qualify.NewCache(engine, f.model, 128)
	f.index = qualify.NewQualifyingIndex(cache)

	f.p = New(Deps{
		Model:     f.model,
		Qualifier: cache,
		Prefilter: qualify.NewPrefilter(engine.Markers(), f.index),
		Index:     f.index,
		Settings:  f.settings,
		Sink:      f.sink,
		Limiter:   limiter,
	}, Options{
		Clock:       f.clock,
		QuietPeriod: time.Second,
		Mode:        ModeRearm,
		Scope:       "test-session",
	})
	f.p.checkDone = func(path string) { f.done <- path }
	t.Cleanup(f.p.Close)
	return f
}

func (f *fixture) write(name, src string) string {
	f.t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(f.t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func (f *fixture) edit(path string) {
	f.p.HandleEvents([]ports.ChangeEvent{{Path: path, Kind: ports.ContentChanged}})
}

// settle advances past the quiet period and waits for the resulting check.
func (f *fixture) settle(path string) {
	f.t.Helper()
	f.clock.Advance(time.Second)
	select {
	case got := <-f.done:
		require.Equal(f.t, path, got)
	case <-time.After(2 * time.Second):
		f.t.Fatalf("no check ran for %s", path)
	}
}

func TestPipeline_WarnsOnceWithinCooldown(t *testing.T) {
	f := newFixture(t, nil)
	foo := f.write("Foo.java", "package com.acme;\n@Autoserializable\npublic class Foo {}\n")

	f.edit(foo)
	f.settle(foo)
	require.Equal(t, 1, f.sink.Len())

	n := f.sink.All()[0]
	assert.Equal(t, notify.TitleModified, n.Title)
	assert.Equal(t, "com.acme.Foo", n.Class)
	assert.Equal(t, foo, n.Path)
	assert.Equal(t, "test-session", n.Scope)
	assert.Equal(t, ports.SeverityWarning, n.Severity)

	// Five seconds later: inside the cooldown, suppressed.
	f.clock.Advance(4 * time.Second)
	f.edit(foo)
	f.settle(foo)
	assert.Equal(t, 1, f.sink.Len())

	// Past the cooldown: warned again.
	f.clock.Advance(5 * time.Second)
	f.edit(foo)
	f.settle(foo)
	assert.Equal(t, 2, f.sink.Len())
}

func TestPipeline_DisabledSettingsDoNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.settings.SetNotificationsEnabled(false)
	foo := f.write("Foo.java", "@Autoserializable class Foo {}")

	f.edit(foo)
	assert.Equal(t, 0, f.p.Debouncer().Pending())
	assert.Equal(t, 0, f.sink.Len())
}

func TestPipeline_NilSettingsDisableThePipeline(t *testing.T) {
	model := javasrc.NewModel(nil, nil)
	engine := qualify.NewEngine(qualify.NewMarkerSet(config.DefaultMarkers))
	p := New(Deps{Model: model, Qualifier: engine, Sink: &notify.Recorder{}}, Options{Clock: clockwork.NewFakeClock()})
	defer p.Close()

	p.HandleEvents([]ports.ChangeEvent{{Path: "/src/Foo.java", Kind: ports.ContentChanged}})
	assert.Equal(t, 0, p.Debouncer().Pending())
}

func TestPipeline_PrefilterAndEventKinds(t *testing.T) {
	f := newFixture(t, nil)
	plain := f.write("Plain.java", "public class Plain {}")
	notes := f.write("notes.txt", "Autoserializable")
	marked := f.write("Marked.java", "@Autoserializable class Marked {}")

	f.edit(plain)
	f.edit(notes)
	f.p.HandleEvents([]ports.ChangeEvent{{Path: marked, Kind: ports.Created}})
	assert.Equal(t, 0, f.p.Debouncer().Pending())

	f.p.HandleEvents([]ports.ChangeEvent{{Path: filepath.Join(f.dir, "Gone.java"), Kind: ports.ContentChanged}})
	assert.Equal(t, 0, f.p.Debouncer().Pending(), "unreadable files are skipped")
	assert.Equal(t, 0, f.sink.Len())
}

func TestPipeline_InheritedQualification(t *testing.T) {
	f := newFixture(t, nil)
	f.write("AnnotatedBase.java", "package com.acme;\n@Autoserializable\npublic class AnnotatedBase {}\n")
	child := f.write("Child.java", "package com.acme;\npublic class Child extends AnnotatedBase {}\n")

	_, err := f.model.LoadTree(t.Context(), []string{f.dir}, nil)
	require.NoError(t, err)
	require.NoError(t, f.model.Read(func(view ports.StructureView) error {
		f.index.Refresh(f.model.Revision(), view)
		return nil
	}))

	f.edit(child)
	f.settle(child)
	require.Equal(t, 1, f.sink.Len())
	assert.Equal(t, "com.acme.Child", f.sink.All()[0].Class)
}

func TestPipeline_EditRemovesMarker(t *testing.T) {
	f := newFixture(t, nil)
	foo := f.write("Foo.java", "@Autoserializable class Foo {}")
	f.edit(foo)
	f.settle(foo)
	require.Equal(t, 1, f.sink.Len())

	// Class text still mentions the marker in a comment, so the prefilter
	// passes, but the structure no longer qualifies.
	f.write("Foo.java", "// was Autoserializable\nclass Foo {}")
	f.clock.Advance(11 * time.Second)
	f.edit(foo)
	f.settle(foo)
	assert.Equal(t, 1, f.sink.Len())
}

func TestPipeline_GlobalRateLimit(t *testing.T) {
	f := newFixture(t, util.NewLimiter(0.001, 1))
	a := f.write("A.java", "@Autoserializable class A {}")
	b := f.write("B.java", "@Autoserializable class B {}")

	f.edit(a)
	f.settle(a)
	f.edit(b)
	f.settle(b)

	require.Equal(t, 1, f.sink.Len())
	assert.Equal(t, "A", f.sink.All()[0].Class)
	// The rate-limited path was not recorded by the throttle.
	assert.True(t, f.p.Throttle().ShouldNotify(b, f.clock.Now()))
}

func TestPipeline_RemovedFileLeavesModel(t *testing.T) {
	f := newFixture(t, nil)
	foo := f.write("Foo.java", "class Foo {}")
	_, err := f.model.LoadTree(t.Context(), []string{f.dir}, nil)
	require.NoError(t, err)
	require.Len(t, f.model.Files(), 1)

	f.p.HandleEvents([]ports.ChangeEvent{{Path: foo, Kind: ports.Removed}})
	assert.Empty(t, f.model.Files())
}

func TestPipeline_RenameOverKnownFileIsAnEdit(t *testing.T) {
	f := newFixture(t, nil)
	foo := f.write("Foo.java", "class Foo {}")
	_, err := f.model.LoadTree(t.Context(), []string{f.dir}, nil)
	require.NoError(t, err)

	tmp := f.write("Foo.java.tmp", "@Autoserializable class Foo {}")
	require.NoError(t, os.Rename(tmp, foo))
	f.p.HandleEvents([]ports.ChangeEvent{{Path: foo, Kind: ports.Created}})
	require.Equal(t, 1, f.p.Debouncer().Pending())

	f.settle(foo)
	require.Equal(t, 1, f.sink.Len())
	assert.Equal(t, "Foo", f.sink.All()[0].Class)
}

func TestPipeline_SubclassEditedBeforeBaseCheckRuns(t *testing.T) {
	f := newFixture(t, nil)
	base := f.write("Base.java", "package com.acme;\npublic class Base {}\n")
	foo := f.write("Foo.java", "package com.acme;\npublic class Foo extends Base {}\n")

	_, err := f.model.LoadTree(t.Context(), []string{f.dir}, nil)
	require.NoError(t, err)
	require.NoError(t, f.model.Read(func(view ports.StructureView) error {
		f.index.Refresh(f.model.Revision(), view)
		return nil
	}))

	f.write("Base.java", "package com.acme;\n@Autoserializable\npublic class Base {}\n")
	f.edit(base)
	f.edit(foo)
	require.Equal(t, 2, f.p.Debouncer().Pending())

	f.clock.Advance(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case <-f.done:
		case <-time.After(2 * time.Second):
			t.Fatal("checks did not run")
		}
	}

	var classes []string
	for _, n := range f.sink.All() {
		classes = append(classes, n.Class)
	}
	assert.ElementsMatch(t, []string{"com.acme.Base", "com.acme.Foo"}, classes)
}

func TestPipeline_MarkerAddedWhileDisabled(t *testing.T) {
	f := newFixture(t, nil)
	base := f.write("Base.java", "package com.acme;\npublic class Base {}\n")
	foo := f.write("Foo.java", "package com.acme;\npublic class Foo extends Base {}\n")
	_, err := f.model.LoadTree(t.Context(), []string{f.dir}, nil)
	require.NoError(t, err)

	f.settings.SetNotificationsEnabled(false)
	f.write("Base.java", "package com.acme;\n@Autoserializable\npublic class Base {}\n")
	f.edit(base)
	require.Equal(t, 0, f.p.Debouncer().Pending())

	f.settings.SetNotificationsEnabled(true)
	f.edit(foo)
	require.Equal(t, 1, f.p.Debouncer().Pending())

	f.settle(foo)
	require.Equal(t, 1, f.sink.Len())
	assert.Equal(t, "com.acme.Foo", f.sink.All()[0].Class)
}

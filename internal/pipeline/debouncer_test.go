package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quiet = 1000 * time.Millisecond

type checkRecorder struct {
	ch chan string
}

func newCheckRecorder() *checkRecorder {
	return &checkRecorder{ch: make(chan string, 16)}
}

func (r *checkRecorder) check(path string) { r.ch <- path }

func (r *checkRecorder) expect(t *testing.T, path string) {
	t.Helper()
	select {
	case got := <-r.ch:
		assert.Equal(t, path, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a check for %s", path)
	}
}

func (r *checkRecorder) expectNone(t *testing.T) {
	t.Helper()
	select {
	case got := <-r.ch:
		t.Fatalf("unexpected check for %s", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebouncer_SingleEdit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newCheckRecorder()
	d := NewDebouncer(clock, quiet, ModeRearm, rec.check)

	d.OnEdit("Foo.java")
	assert.True(t, d.IsPending("Foo.java"))

	clock.Advance(quiet - time.Millisecond)
	rec.expectNone(t)

	clock.Advance(time.Millisecond)
	rec.expect(t, "Foo.java")
	require.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_BurstRearmsRelativeToLatestEdit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newCheckRecorder()
	d := NewDebouncer(clock, quiet, ModeRearm, rec.check)

	d.OnEdit("Foo.java") // t=0
	clock.Advance(300 * time.Millisecond)
	d.OnEdit("Foo.java") // t=300
	clock.Advance(600 * time.Millisecond)
	d.OnEdit("Foo.java") // t=900

	// The only timer fires at t=1000, too early, and arms one more.
	clock.Advance(100 * time.Millisecond)
	clock.BlockUntil(1)
	rec.expectNone(t)
	assert.True(t, d.IsPending("Foo.java"))

	clock.Advance(899 * time.Millisecond) // t=1899
	rec.expectNone(t)

	clock.Advance(time.Millisecond) // t=1900
	rec.expect(t, "Foo.java")
	rec.expectNone(t)
	assert.False(t, d.IsPending("Foo.java"))
}

func TestDebouncer_DropModeSkipsActiveBurst(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newCheckRecorder()
	d := NewDebouncer(clock, quiet, ModeDrop, rec.check)

	d.OnEdit("Foo.java")
	clock.Advance(300 * time.Millisecond)
	d.OnEdit("Foo.java")
	clock.Advance(600 * time.Millisecond)
	d.OnEdit("Foo.java")

	clock.Advance(100 * time.Millisecond)
	require.Eventually(t, func() bool { return !d.IsPending("Foo.java") }, time.Second, 5*time.Millisecond)

	clock.Advance(5 * quiet)
	rec.expectNone(t)

	// The next edit starts a fresh cycle.
	d.OnEdit("Foo.java")
	clock.Advance(quiet)
	rec.expect(t, "Foo.java")
}

func TestDebouncer_OneTimerPerPath(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newCheckRecorder()
	d := NewDebouncer(clock, quiet, ModeRearm, rec.check)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.OnEdit("Foo.java")
		}()
	}
	wg.Wait()
	d.OnEdit("Bar.java")

	clock.BlockUntil(2)
	assert.Equal(t, 2, d.Pending())

	clock.Advance(quiet)
	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case p := <-rec.ch:
			got[p] = true
		case <-time.After(2 * time.Second):
			t.Fatal("expected two checks")
		}
	}
	assert.Equal(t, map[string]bool{"Foo.java": true, "Bar.java": true}, got)
	rec.expectNone(t)
}

func TestDebouncer_PanickingCheckIsContained(t *testing.T) {
	clock := clockwork.NewFakeClock()
	calls := make(chan string, 4)
	d := NewDebouncer(clock, quiet, ModeRearm, func(path string) {
		calls <- path
		panic("analysis exploded")
	})

	d.OnEdit("Foo.java")
	clock.Advance(quiet)
	<-calls

	require.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, 5*time.Millisecond)
	d.OnEdit("Foo.java")
	clock.Advance(quiet)
	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer stopped working after a panic")
	}
}

func TestDebouncer_Close(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newCheckRecorder()
	d := NewDebouncer(clock, quiet, ModeRearm, rec.check)

	d.OnEdit("Foo.java")
	d.Close()
	clock.Advance(quiet)
	rec.expectNone(t)

	d.OnEdit("Bar.java")
	assert.Equal(t, 0, d.Pending())
}

func TestNewDebouncer_Defaults(t *testing.T) {
	d := NewDebouncer(nil, -time.Second, "bogus", nil)
	assert.Equal(t, ModeRearm, d.mode)
	assert.Equal(t, time.Duration(0), d.quiet)
	assert.NotNil(t, d.clock)
}

package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"serialguard/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModifiedWarning(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n := ModifiedWarning("session", "/src/com/acme/Foo.java", "com.acme.Foo", at)

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, TitleModified, n.Title)
	assert.Equal(t, ports.SeverityWarning, n.Severity)
	assert.Equal(t, "session", n.Scope)
	assert.Equal(t, at, n.At)
	assert.Contains(t, n.Body, "Foo.java")
	assert.Contains(t, n.Body, "com.acme.Foo")
	assert.Contains(t, n.Body, "backward compatible")
	assert.Contains(t, n.Body, "serialVersionUID")
	assert.Contains(t, n.Body, "document")

	other := ModifiedWarning("session", "/src/com/acme/Foo.java", "com.acme.Foo", at)
	assert.NotEqual(t, n.ID, other.ID)
}

func TestCheckSummary(t *testing.T) {
	at := time.Now()

	none := CheckSummary("s", "/src/Plain.java", nil, at)
	assert.Equal(t, TitleAnalysisDone, none.Title)
	assert.Equal(t, ports.SeverityInfo, none.Severity)

	some := CheckSummary("s", "/src/Foo.java", []string{"com.acme.Foo", "com.acme.Foo.Inner"}, at)
	assert.Equal(t, TitleSensitiveFound, some.Title)
	assert.Equal(t, ports.SeverityWarning, some.Severity)
	assert.Contains(t, some.Body, "- com.acme.Foo\n")
	assert.Contains(t, some.Body, "- com.acme.Foo.Inner\n")

	assert.Equal(t, TitleNotJava, NotJavaFile("s", "/x/readme.txt", at).Title)

	failed := CheckFailed("s", "/src/Foo.java", errors.New("boom"), at)
	assert.Equal(t, ports.SeverityError, failed.Severity)
	assert.Contains(t, failed.Body, "boom")
}

func TestInspectionText(t *testing.T) {
	assert.Equal(t, InspectionMessage, InspectionText("com.yourcompany.Autoserializable"))
	assert.Equal(t, InspectionMessage, InspectionText(""))
	assert.Equal(t,
		"This class uses @Persisted. Be careful when modifying to maintain serialization compatibility.",
		InspectionText("org.acme.Persisted"))
}

func TestTerminalSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminalSink(&buf, true)

	sink.Notify(context.Background(), ports.Notification{Title: "Hello", Body: "World", Severity: ports.SeverityWarning})
	out := buf.String()
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "World")
	assert.True(t, strings.HasSuffix(out, "\a"))

	buf.Reset()
	sink.Notify(context.Background(), ports.Notification{Title: "Quiet", Severity: ports.SeverityInfo})
	assert.NotContains(t, buf.String(), "\a")
}

type panicSink struct{}

func (panicSink) Notify(context.Context, ports.Notification) { panic("broken sink") }

func TestFanout_IsolatesPanics(t *testing.T) {
	rec := &Recorder{}
	f := Fanout{panicSink{}, nil, rec, LogSink{}}

	require.NotPanics(t, func() {
		f.Notify(context.Background(), ports.Notification{Title: "x"})
	})
	assert.Equal(t, 1, rec.Len())
}

func TestChannelSink_DropsWhenFull(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Notify(context.Background(), ports.Notification{ID: "1"})
	sink.Notify(context.Background(), ports.Notification{ID: "2"})

	got := <-sink.C()
	assert.Equal(t, "1", got.ID)
	select {
	case extra := <-sink.C():
		t.Fatalf("unexpected notification %s", extra.ID)
	default:
	}
}

type failingStore struct {
	saved []ports.Notification
	err   error
}

func (s *failingStore) SaveNotification(n ports.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, n)
	return nil
}

func (s *failingStore) LoadNotifications(string, time.Time, int) ([]ports.Notification, error) {
	return s.saved, nil
}

func TestHistorySink(t *testing.T) {
	store := &failingStore{}
	NewHistorySink(store).Notify(context.Background(), ports.Notification{ID: "a"})
	require.Len(t, store.saved, 1)

	store.err = errors.New("disk full")
	assert.NotPanics(t, func() {
		NewHistorySink(store).Notify(context.Background(), ports.Notification{ID: "b"})
	})

	var nilSink *HistorySink
	assert.NotPanics(t, func() { nilSink.Notify(context.Background(), ports.Notification{}) })
}

package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"serialguard/internal/core/ports"

	"github.com/charmbracelet/lipgloss"
)

// LogSink writes notifications to the default slog logger.
type LogSink struct{}

func (LogSink) Notify(_ context.Context, n ports.Notification) {
	attrs := []any{"title", n.Title, "path", n.Path}
	if n.Class != "" {
		attrs = append(attrs, "class", n.Class)
	}
	switch n.Severity {
	case ports.SeverityError:
		slog.Error("notification", attrs...)
	case ports.SeverityWarning:
		slog.Warn("notification", attrs...)
	default:
		slog.Info("notification", attrs...)
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	warningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FBBF24"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F87171"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	bodyStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("#CBD5E1"))
)

// TerminalSink prints styled notifications, optionally ringing the bell for
// warnings and errors.
type TerminalSink struct {
	mu   sync.Mutex
	out  io.Writer
	beep bool
}

func NewTerminalSink(out io.Writer, beep bool) *TerminalSink {
	return &TerminalSink{out: out, beep: beep}
}

func (s *TerminalSink) Notify(_ context.Context, n ports.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintln(s.out, severityLabel(n.Severity)+" "+titleStyle.Render(n.Title))
	if n.Body != "" {
		fmt.Fprintln(s.out, bodyStyle.Render(n.Body))
	}
	if s.beep && n.Severity != ports.SeverityInfo {
		fmt.Fprint(s.out, "\a")
	}
}

func severityLabel(severity ports.Severity) string {
	switch severity {
	case ports.SeverityError:
		return errorStyle.Render("[error]")
	case ports.SeverityWarning:
		return warningStyle.Render("[warning]")
	default:
		return infoStyle.Render("[info]")
	}
}

// HistorySink persists notifications. Store failures are logged and dropped.
type HistorySink struct {
	store ports.NotificationStore
}

func NewHistorySink(store ports.NotificationStore) *HistorySink {
	return &HistorySink{store: store}
}

func (s *HistorySink) Notify(_ context.Context, n ports.Notification) {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.SaveNotification(n); err != nil {
		slog.Warn("failed to record notification", "id", n.ID, "path", n.Path, "error", err)
	}
}

// ChannelSink hands notifications to a consumer such as the TUI. When the
// buffer is full the notification is dropped rather than blocking a check.
type ChannelSink struct {
	ch chan ports.Notification
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelSink{ch: make(chan ports.Notification, buffer)}
}

func (s *ChannelSink) C() <-chan ports.Notification {
	return s.ch
}

func (s *ChannelSink) Notify(_ context.Context, n ports.Notification) {
	select {
	case s.ch <- n:
	default:
		slog.Debug("notification buffer full, dropping", "id", n.ID)
	}
}

// Fanout delivers to every sink in order. A panicking sink is isolated so
// the remaining sinks still receive the notification.
type Fanout []ports.NotificationSink

func (f Fanout) Notify(ctx context.Context, n ports.Notification) {
	for _, sink := range f {
		if sink == nil {
			continue
		}
		deliver(ctx, sink, n)
	}
}

func deliver(ctx context.Context, sink ports.NotificationSink, n ports.Notification) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("notification sink panicked", "sink", fmt.Sprintf("%T", sink), "panic", r)
		}
	}()
	sink.Notify(ctx, n)
}

// Recorder keeps every notification in memory. It backs the on-demand
// command output and tests.
type Recorder struct {
	mu    sync.Mutex
	items []ports.Notification
}

func (r *Recorder) Notify(_ context.Context, n ports.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *Recorder) All() []ports.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.Notification(nil), r.items...)
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

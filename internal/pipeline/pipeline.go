package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"time"

	"serialguard/internal/core/config"
	"serialguard/internal/core/errors"
	"serialguard/internal/core/ports"
	"serialguard/internal/engine/javasrc"
	"serialguard/internal/engine/qualify"
	"serialguard/internal/notify"
	"serialguard/internal/shared/observability"
	"serialguard/internal/shared/util"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Model is the structural model as seen by the pipeline.
type Model interface {
	ports.StructureProvider
	IsSource(path string) bool
	Contains(path string) bool
}

type Deps struct {
	Model     Model
	Qualifier qualify.Qualifier
	Prefilter *qualify.Prefilter
	// Index is refreshed inside every check so the prefilter learns about
	// newly qualifying classes.
	Index    *qualify.QualifyingIndex
	Settings *config.SettingsStore
	Sink     ports.NotificationSink
	// Limiter caps notifications across all paths. Nil means unlimited.
	Limiter *util.Limiter
}

type Options struct {
	Clock           clockwork.Clock
	QuietPeriod     time.Duration
	Mode            DebounceMode
	MaxTrackedFiles int
	Scope           string
	ReadFile        func(string) ([]byte, error)
}

// Pipeline wires change events through the prefilter, the debouncer, the
// qualification engine and the throttle to a notification sink.
type Pipeline struct {
	deps      Deps
	clock     clockwork.Clock
	scope     string
	readFile  func(string) ([]byte, error)
	throttle  *Throttle
	debouncer *Debouncer

	// checkDone observes completed checks in tests.
	checkDone func(path string)
}

func New(deps Deps, opts Options) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	if opts.Mode == "" {
		opts.Mode = ModeRearm
	}
	p := &Pipeline{
		deps:     deps,
		clock:    opts.Clock,
		scope:    opts.Scope,
		readFile: opts.ReadFile,
		throttle: NewThrottle(deps.Settings, opts.MaxTrackedFiles),
	}
	p.debouncer = NewDebouncer(opts.Clock, opts.QuietPeriod, opts.Mode, p.check)
	return p
}

func (p *Pipeline) Debouncer() *Debouncer { return p.debouncer }
func (p *Pipeline) Throttle() *Throttle   { return p.throttle }

// HandleEvents is the change-event entry point. Model bookkeeping happens
// for every source path; only content changes can lead to a warning.
func (p *Pipeline) HandleEvents(events []ports.ChangeEvent) {
	for _, ev := range events {
		if !p.deps.Model.IsSource(ev.Path) {
			continue
		}
		switch ev.Kind {
		case ports.Removed:
			p.deps.Model.Forget(ev.Path)
			continue
		case ports.Renamed:
			p.deps.Model.Touch(ev.Path)
			continue
		case ports.Created:
			// Editors that save through a temp file and a rename produce a
			// create on a path the model already holds.
			if !p.deps.Model.Contains(ev.Path) {
				p.deps.Model.Touch(ev.Path)
				continue
			}
		}

		p.deps.Model.Touch(ev.Path)
		if !p.deps.Settings.Enabled() {
			continue
		}
		p.onContentChanged(ev.Path)
	}
}

func (p *Pipeline) onContentChanged(path string) {
	if p.deps.Prefilter != nil {
		p.refreshIndex()
		content, err := p.readFile(path)
		if err != nil {
			slog.Debug("skipping unreadable file", "path", path, "error", err)
			return
		}
		if !p.deps.Prefilter.MightQualify(content) {
			observability.PrefilterTotal.WithLabelValues("skip").Inc()
			return
		}
		observability.PrefilterTotal.WithLabelValues("pass").Inc()
	}
	p.debouncer.OnEdit(path)
}

// check runs on a timer goroutine once the edit burst on path is over.
func (p *Pipeline) check(path string) {
	if p.checkDone != nil {
		defer p.checkDone(path)
	}
	ctx, span := observability.Tracer.Start(context.Background(), "pipeline.check",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.CheckDuration.WithLabelValues("watch").Observe(time.Since(start).Seconds())
	}()

	if !p.deps.Settings.Enabled() {
		return
	}
	now := p.clock.Now()
	if !p.throttle.ShouldNotify(path, now) {
		observability.NotificationsTotal.WithLabelValues("throttled").Inc()
		return
	}

	class, err := p.firstQualifying(path)
	if err != nil {
		if stderrors.Is(err, javasrc.ErrNotParseable) || errors.IsCode(err, errors.CodeNotFound) {
			slog.Debug("check skipped", "path", path, "error", err)
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("check failed", "path", path, "error", err)
		return
	}
	if class == "" {
		return
	}
	span.SetAttributes(attribute.String("class", class))

	if !p.deps.Limiter.AllowAt(now) {
		observability.NotificationsTotal.WithLabelValues("rate_limited").Inc()
		slog.Debug("notification rate limited", "path", path, "class", class)
		return
	}
	if !p.throttle.Allow(path, now) {
		observability.NotificationsTotal.WithLabelValues("throttled").Inc()
		return
	}

	observability.NotificationsTotal.WithLabelValues("sent").Inc()
	if p.deps.Sink != nil {
		p.deps.Sink.Notify(ctx, notify.ModifiedWarning(p.scope, path, class, now))
	}
}

// refreshIndex brings the qualifying index up to the model's revision so
// the prefilter knows about markers added by edits still being debounced.
func (p *Pipeline) refreshIndex() {
	if p.deps.Index == nil {
		return
	}
	err := p.deps.Model.Read(func(view ports.StructureView) error {
		p.deps.Index.Refresh(p.deps.Model.Revision(), view)
		return nil
	})
	if err != nil {
		slog.Debug("qualifying index refresh failed", "error", err)
	}
}

// firstQualifying returns the qualified name of the first class in path
// that qualifies, or "".
func (p *Pipeline) firstQualifying(path string) (string, error) {
	var found string
	err := p.deps.Model.Read(func(view ports.StructureView) error {
		if p.deps.Index != nil {
			p.deps.Index.Refresh(p.deps.Model.Revision(), view)
		}
		classes, err := view.Classes(path)
		if err != nil {
			return err
		}
		for _, class := range classes {
			if p.deps.Qualifier.Qualify(class).Qualifies {
				found = class.QualifiedName()
				return nil
			}
		}
		return nil
	})
	return found, err
}

// Close stops the debouncer; pending checks are abandoned.
func (p *Pipeline) Close() {
	p.debouncer.Close()
}

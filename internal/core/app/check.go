package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"serialguard/internal/core/errors"
	"serialguard/internal/core/ports"
	"serialguard/internal/engine/javasrc"
	"serialguard/internal/engine/qualify"
	"serialguard/internal/notify"
	"serialguard/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ClassResult is the on-demand verdict for one class.
type ClassResult struct {
	ClassName string
	Qualifies bool
	Evidence  qualify.Evidence
	Marker    string
	Via       string
	Location  ports.Location
}

// CheckFile qualifies every class declared in path. It ignores the
// notification settings and never touches the debouncer or the throttle.
func (a *App) CheckFile(ctx context.Context, path string) ([]ClassResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.CheckFile",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.CheckDuration.WithLabelValues("on_demand").Observe(time.Since(start).Seconds())
	}()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "resolve path")
	}
	if !a.Model.IsSource(abs) {
		return nil, errors.AddContext(
			errors.Wrap(javasrc.ErrNotParseable, errors.CodeNotParseable, "check file"),
			errors.CtxPath, abs)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeNotFound, "check file"),
			errors.CtxPath, abs)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.Model.Touch(abs)

	var results []ClassResult
	err = a.Model.Read(func(view ports.StructureView) error {
		a.Index.Refresh(a.Model.Revision(), view)
		classes, err := view.Classes(abs)
		if err != nil {
			return err
		}
		results = make([]ClassResult, 0, len(classes))
		for _, class := range classes {
			res := a.Cache.Get(class)
			results = append(results, ClassResult{
				ClassName: class.QualifiedName(),
				Qualifies: res.Qualifies,
				Evidence:  res.Evidence,
				Marker:    res.Marker,
				Via:       res.Via,
				Location:  class.Location(),
			})
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("classes", len(results)))
	return results, nil
}

// RunCheck is the user-triggered check. Every outcome, including failures
// and panics, ends up as exactly one notification on the app's sinks.
func (a *App) RunCheck(ctx context.Context, path string) (n ports.Notification) {
	now := a.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("check panicked", "path", path, "panic", r)
			n = notify.CheckFailed(a.scope, path, fmt.Errorf("panic: %v", r), now)
		}
		a.sink.Notify(ctx, n)
	}()

	results, err := a.CheckFile(ctx, path)
	switch {
	case stderrors.Is(err, javasrc.ErrNotParseable):
		return notify.NotJavaFile(a.scope, path, now)
	case err != nil:
		slog.Warn("check failed", "path", path, "error", err)
		return notify.CheckFailed(a.scope, path, err, now)
	}

	var qualifying []string
	for _, r := range results {
		if r.Qualifies {
			qualifying = append(qualifying, r.ClassName)
		}
	}
	return notify.CheckSummary(a.scope, path, qualifying, now)
}

// Inspect returns one finding per qualifying class under paths. Directories
// are expanded to their source files; non-source files are skipped.
func (a *App) Inspect(ctx context.Context, paths []string) ([]ports.Finding, error) {
	files, err := a.expandPaths(ctx, paths)
	if err != nil {
		return nil, err
	}

	var findings []ports.Finding
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		results, err := a.CheckFile(ctx, file)
		if err != nil {
			if stderrors.Is(err, javasrc.ErrNotParseable) || errors.IsCode(err, errors.CodeNotFound) {
				continue
			}
			return findings, err
		}
		for _, r := range results {
			if !r.Qualifies {
				continue
			}
			findings = append(findings, ports.Finding{
				Path:     r.Location.File,
				Line:     r.Location.Line,
				Column:   r.Location.Column,
				Class:    r.ClassName,
				Message:  notify.InspectionText(r.Marker),
				Evidence: string(r.Evidence),
				Marker:   r.Marker,
			})
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		return findings[i].Line < findings[j].Line
	})
	return findings, nil
}

func (a *App) expandPaths(ctx context.Context, paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = a.Config.WatchPaths
	}
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if a.Model.IsSource(p) && !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "resolve path")
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "inspect"), errors.CtxPath, abs)
		}
		if !info.IsDir() {
			add(abs)
			continue
		}
		err = filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if path != abs && a.skipPath(path, d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

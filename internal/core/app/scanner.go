package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"serialguard/internal/core/ports"
)

// InitialScan loads every source file under the watch roots into the model
// so supertypes declared in other files resolve, then primes the prefilter
// with the classes that already qualify.
func (a *App) InitialScan(ctx context.Context) (int, error) {
	start := time.Now()
	roots := uniqueScanRoots(a.Config.WatchPaths)

	loaded, err := a.Model.LoadTree(ctx, roots, a.skipPath)
	if err != nil {
		return loaded, err
	}

	var qualifying int
	err = a.Model.Read(func(view ports.StructureView) error {
		a.Index.Refresh(a.Model.Revision(), view)
		qualifying = len(a.Index.QualifyingSimpleNames())
		return nil
	})
	slog.Info("initial scan complete",
		"files", loaded,
		"qualifying_classes", qualifying,
		"duration", time.Since(start),
	)
	return loaded, err
}

func (a *App) skipPath(path string, dir bool) bool {
	base := filepath.Base(path)
	globs := a.excludeFiles
	if dir {
		globs = a.excludeDirs
	} else {
		base = strings.ToLower(base)
	}
	for _, g := range globs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// uniqueScanRoots drops duplicates and roots nested inside other roots.
func uniqueScanRoots(paths []string) []string {
	cleaned := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		abs = filepath.Clean(abs)
		if !seen[abs] {
			seen[abs] = true
			cleaned = append(cleaned, abs)
		}
	}
	sort.Strings(cleaned)

	out := make([]string, 0, len(cleaned))
	for _, p := range cleaned {
		nested := false
		for _, parent := range out {
			if strings.HasPrefix(p, parent+string(filepath.Separator)) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, p)
		}
	}
	return out
}

package javasrc

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"serialguard/internal/core/errors"
	"serialguard/internal/core/ports"
	"serialguard/internal/shared/observability"
	"serialguard/internal/shared/util"
)

// Model is the in-memory structural model of a Java tree. Reads happen in
// read sections; every mutation takes the write side and advances the
// revision.
type Model struct {
	parser     *Parser
	extensions []string
	readFile   func(string) ([]byte, error)

	mu      sync.RWMutex
	files   map[string]*SourceFile
	byQName map[string][]*Class
	classes int

	dirtyMu sync.Mutex
	dirty   map[string]struct{}

	revision atomic.Uint64
}

var _ ports.StructureProvider = (*Model)(nil)

func NewModel(parser *Parser, extensions []string) *Model {
	if parser == nil {
		parser = NewParser()
	}
	extensions = util.NormalizeExtensions(extensions)
	if len(extensions) == 0 {
		extensions = []string{".java"}
	}
	return &Model{
		parser:     parser,
		extensions: extensions,
		readFile:   os.ReadFile,
		files:      make(map[string]*SourceFile),
		byQName:    make(map[string][]*Class),
		dirty:      make(map[string]struct{}),
	}
}

func (m *Model) Revision() uint64 {
	return m.revision.Load()
}

// IsSource reports whether path has one of the model's source extensions.
func (m *Model) IsSource(path string) bool {
	return util.HasExtension(path, m.extensions)
}

// Touch marks path for reparse before the next read section.
func (m *Model) Touch(path string) {
	if !m.IsSource(path) {
		return
	}
	m.dirtyMu.Lock()
	m.dirty[filepath.Clean(path)] = struct{}{}
	m.dirtyMu.Unlock()
}

func (m *Model) Forget(path string) {
	path = filepath.Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeLocked(path) {
		m.revision.Add(1)
	}
}

// Update parses content as path and swaps it into the model. It reports
// whether the structure changed; identical content is a no-op.
func (m *Model) Update(path string, content []byte) (bool, error) {
	if !m.IsSource(path) {
		return false, errors.Wrap(ErrNotParseable, errors.CodeNotParseable, path)
	}
	path = filepath.Clean(path)

	m.mu.RLock()
	current := m.files[path]
	m.mu.RUnlock()
	if current != nil && current.Fingerprint == Fingerprint(content) {
		return false, nil
	}

	file, err := m.parser.Parse(path, content)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(path)
	m.addLocked(file)
	m.revision.Add(1)
	return true, nil
}

// LoadTree parses every source file under roots. skip may veto paths; a
// true result for a directory prunes it.
func (m *Model) LoadTree(ctx context.Context, roots []string, skip func(path string, dir bool) bool) (int, error) {
	loaded := 0
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Debug("model walk error", "path", path, "error", err)
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if skip != nil && path != root && skip(path, d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !m.IsSource(path) {
				return nil
			}
			content, err := m.readFile(path)
			if err != nil {
				slog.Warn("failed to read source", "path", path, "error", err)
				return nil
			}
			if _, err := m.Update(path, content); err != nil {
				slog.Warn("failed to parse source", "path", path, "error", err)
				return nil
			}
			loaded++
			return nil
		})
		if err != nil {
			return loaded, err
		}
	}
	return loaded, nil
}

// Read applies pending reparses, then runs fn under the read lock.
func (m *Model) Read(fn func(view ports.StructureView) error) error {
	m.flush()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(modelView{m: m})
}

// Contains reports whether path is currently held by the model.
func (m *Model) Contains(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

// Files returns the paths currently held by the model.
func (m *Model) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return util.SortedStringKeys(m.files)
}

func (m *Model) flush() {
	m.dirtyMu.Lock()
	if len(m.dirty) == 0 {
		m.dirtyMu.Unlock()
		return
	}
	pending := util.SortedStringKeys(m.dirty)
	m.dirty = make(map[string]struct{})
	m.dirtyMu.Unlock()

	for _, path := range pending {
		content, err := m.readFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				m.Forget(path)
				continue
			}
			slog.Warn("failed to read source", "path", path, "error", err)
			continue
		}
		if _, err := m.Update(path, content); err != nil {
			slog.Warn("failed to parse source", "path", path, "error", err)
		}
	}
}

// caller must hold m.mu for writing
func (m *Model) addLocked(file *SourceFile) {
	m.files[file.Path] = file
	for _, c := range file.Classes {
		c.model = m
		m.byQName[c.qname] = append(m.byQName[c.qname], c)
	}
	m.classes += len(file.Classes)
	observability.ModelClasses.Set(float64(m.classes))
}

// caller must hold m.mu for writing
func (m *Model) removeLocked(path string) bool {
	old, ok := m.files[path]
	if !ok {
		return false
	}
	delete(m.files, path)
	for _, c := range old.Classes {
		kept := m.byQName[c.qname][:0]
		for _, other := range m.byQName[c.qname] {
			if other != c {
				kept = append(kept, other)
			}
		}
		if len(kept) == 0 {
			delete(m.byQName, c.qname)
		} else {
			m.byQName[c.qname] = kept
		}
	}
	m.classes -= len(old.Classes)
	observability.ModelClasses.Set(float64(m.classes))
	return true
}

// lookup returns the first candidate declared in the model. Callers hold
// the read lock through the enclosing read section.
func (m *Model) lookup(candidates []string) *Class {
	for _, name := range candidates {
		if found := m.byQName[name]; len(found) > 0 {
			return found[0]
		}
	}
	return nil
}

type modelView struct {
	m *Model
}

func (v modelView) Classes(path string) ([]ports.ClassDeclaration, error) {
	if !v.m.IsSource(path) {
		return nil, errors.Wrap(ErrNotParseable, errors.CodeNotParseable, path)
	}
	file, ok := v.m.files[filepath.Clean(path)]
	if !ok {
		return nil, errors.AddContext(errors.New(errors.CodeNotFound, "file not in model"), errors.CtxPath, path)
	}
	out := make([]ports.ClassDeclaration, 0, len(file.Classes))
	for _, c := range file.Classes {
		out = append(out, c)
	}
	return out, nil
}

func (v modelView) AllClasses() []ports.ClassDeclaration {
	paths := make([]string, 0, len(v.m.files))
	for path := range v.m.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	out := make([]ports.ClassDeclaration, 0, v.m.classes)
	for _, path := range paths {
		for _, c := range v.m.files[path].Classes {
			out = append(out, c)
		}
	}
	return out
}

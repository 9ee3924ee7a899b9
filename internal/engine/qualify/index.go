package qualify

import (
	"sort"
	"sync"

	"serialguard/internal/core/ports"
)

// QualifyingIndex remembers the simple names of every class that qualified
// at the last refresh. It is the prefilter's TokenSource, so a file that only
// extends a qualifying project class still passes the gate.
type QualifyingIndex struct {
	q Qualifier

	mu        sync.RWMutex
	revision  uint64
	refreshed bool
	names     []string
}

func NewQualifyingIndex(q Qualifier) *QualifyingIndex {
	return &QualifyingIndex{q: q}
}

// Refresh recomputes the index from view unless it already reflects
// revision. It must be called inside the provider's read section.
func (x *QualifyingIndex) Refresh(revision uint64, view ports.StructureView) {
	x.mu.RLock()
	current := x.refreshed && x.revision == revision
	x.mu.RUnlock()
	if current {
		return
	}

	seen := make(map[string]bool)
	for _, class := range view.AllClasses() {
		if x.q.Qualify(class).Qualifies {
			seen[class.Name()] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	x.mu.Lock()
	x.revision = revision
	x.refreshed = true
	x.names = names
	x.mu.Unlock()
}

func (x *QualifyingIndex) QualifyingSimpleNames() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.names
}

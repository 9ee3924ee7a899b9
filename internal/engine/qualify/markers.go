package qualify

import (
	"strings"

	"serialguard/internal/shared/util"
)

// MarkerSet is the set of annotation / interface names that denote the
// serialization contract. Entries may be simple ("Autoserializable") or
// qualified ("com.yourcompany.Autoserializable").
type MarkerSet struct {
	names   map[string]bool
	simple  map[string]bool
	ordered []string
}

func NewMarkerSet(names []string) MarkerSet {
	m := MarkerSet{
		names:  make(map[string]bool, len(names)),
		simple: make(map[string]bool, len(names)),
	}
	for _, name := range names {
		name = strings.TrimPrefix(strings.TrimSpace(name), "@")
		if name == "" || m.names[name] {
			continue
		}
		m.names[name] = true
		m.simple[util.SimpleName(name)] = true
		m.ordered = append(m.ordered, name)
	}
	return m
}

// Names returns the configured markers in declaration order.
func (m MarkerSet) Names() []string {
	return append([]string(nil), m.ordered...)
}

// SimpleNames returns the distinct simple names, sorted.
func (m MarkerSet) SimpleNames() []string {
	return util.SortedStringKeys(m.simple)
}

// MatchAnnotation reports the marker an annotation name matches. An
// annotation matches when its qualified name is a marker or its simple name
// is the simple name of a marker.
func (m MarkerSet) MatchAnnotation(annotation string) (string, bool) {
	annotation = strings.TrimPrefix(strings.TrimSpace(annotation), "@")
	if annotation == "" {
		return "", false
	}
	if m.names[annotation] {
		return annotation, true
	}
	simple := util.SimpleName(annotation)
	if !m.simple[simple] {
		return "", false
	}
	for _, name := range m.ordered {
		if util.SimpleName(name) == simple {
			return name, true
		}
	}
	return "", false
}

// MatchInterface reports the marker an implemented interface matches, using
// exact or "."+marker suffix comparison only. Substrings never match, so
// com.other.NotAutoserializableThing is not a marker.
func (m MarkerSet) MatchInterface(qualifiedName string) (string, bool) {
	qualifiedName = strings.TrimSpace(qualifiedName)
	if qualifiedName == "" {
		return "", false
	}
	for _, name := range m.ordered {
		if qualifiedName == name || strings.HasSuffix(qualifiedName, "."+name) {
			return name, true
		}
	}
	return "", false
}

// Len returns the number of configured markers.
func (m MarkerSet) Len() int {
	return len(m.ordered)
}

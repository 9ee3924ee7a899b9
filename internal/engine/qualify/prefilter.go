package qualify

import (
	"bytes"
	"sort"
	"sync"
)

// TokenSource supplies additional tokens that may make a file qualify, such
// as the simple names of project classes already known to qualify.
type TokenSource interface {
	QualifyingSimpleNames() []string
}

// Prefilter is a cheap substring gate in front of structural analysis.
// It may pass files that turn out not to qualify; it never rejects a file
// whose full analysis could qualify.
type Prefilter struct {
	markers []string
	extra   TokenSource

	mu       sync.Mutex
	lastSeen []string
	tokens   [][]byte
}

func NewPrefilter(markers MarkerSet, extra TokenSource) *Prefilter {
	p := &Prefilter{
		markers: markers.SimpleNames(),
		extra:   extra,
	}
	p.tokens = toTokens(p.markers, nil)
	return p
}

// MightQualify reports whether text could contain a qualifying class.
func (p *Prefilter) MightQualify(text []byte) bool {
	for _, token := range p.currentTokens() {
		if bytes.Contains(text, token) {
			return true
		}
	}
	return false
}

func (p *Prefilter) currentTokens() [][]byte {
	if p.extra == nil {
		return p.tokens
	}
	extra := p.extra.QualifyingSimpleNames()

	p.mu.Lock()
	defer p.mu.Unlock()
	if !sameStrings(extra, p.lastSeen) {
		p.lastSeen = append([]string(nil), extra...)
		p.tokens = toTokens(p.markers, extra)
	}
	return p.tokens
}

func toTokens(markers, extra []string) [][]byte {
	seen := make(map[string]bool, len(markers)+len(extra))
	all := make([]string, 0, len(markers)+len(extra))
	for _, group := range [][]string{markers, extra} {
		for _, name := range group {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			all = append(all, name)
		}
	}
	sort.Strings(all)
	tokens := make([][]byte, len(all))
	for i, name := range all {
		tokens[i] = []byte(name)
	}
	return tokens
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package qualify

import (
	"serialguard/internal/core/ports"
)

// MaxSupertypeDepth bounds the supertype walk. Classes further than this
// from the one being evaluated are never inspected.
const MaxSupertypeDepth = 10

// Evidence names what made a class qualify.
type Evidence string

const (
	EvidenceNone       Evidence = "none"
	EvidenceAnnotation Evidence = "annotation"
	EvidenceInterface  Evidence = "interface"
	EvidenceInherited  Evidence = "inherited"
)

// Result is the outcome of qualifying one class.
type Result struct {
	Qualifies bool
	Evidence  Evidence
	// Marker is the configured marker that matched.
	Marker string
	// Via is the qualified name of the class that carried the marker.
	Via string
	// Depth is the distance from the evaluated class to Via.
	Depth int
}

// Qualifier decides whether a class is serialization-sensitive.
type Qualifier interface {
	Qualify(class ports.ClassDeclaration) Result
}

// Engine is the uncached Qualifier. It is safe for concurrent use; callers
// must hold the structural model's read section while calling Qualify.
type Engine struct {
	markers   MarkerSet
	rootTypes map[string]bool
	maxDepth  int
}

func NewEngine(markers MarkerSet) *Engine {
	return &Engine{
		markers: markers,
		rootTypes: map[string]bool{
			"java.lang.Object": true,
			"Object":           true,
		},
		maxDepth: MaxSupertypeDepth,
	}
}

func (e *Engine) Markers() MarkerSet {
	return e.markers
}

// Qualify walks class and its supertypes. The walk is a loop with an
// explicit depth counter, so cyclic chains stop at the guard.
func (e *Engine) Qualify(class ports.ClassDeclaration) Result {
	current := class
	for depth := 0; current != nil; depth++ {
		if marker, ok := e.matchAnnotations(current); ok {
			return e.result(EvidenceAnnotation, marker, current, depth)
		}
		if marker, ok := e.matchInterfaces(current); ok {
			return e.result(EvidenceInterface, marker, current, depth)
		}
		if depth >= e.maxDepth {
			break
		}
		super, ok := current.Supertype()
		if !ok || super == nil || e.rootTypes[super.QualifiedName()] {
			break
		}
		current = super
	}
	return Result{Evidence: EvidenceNone}
}

func (e *Engine) result(kind Evidence, marker string, carrier ports.ClassDeclaration, depth int) Result {
	if depth > 0 {
		kind = EvidenceInherited
	}
	return Result{
		Qualifies: true,
		Evidence:  kind,
		Marker:    marker,
		Via:       carrier.QualifiedName(),
		Depth:     depth,
	}
}

func (e *Engine) matchAnnotations(class ports.ClassDeclaration) (string, bool) {
	for _, annotation := range class.Annotations() {
		if marker, ok := e.markers.MatchAnnotation(annotation); ok {
			return marker, true
		}
	}
	return "", false
}

func (e *Engine) matchInterfaces(class ports.ClassDeclaration) (string, bool) {
	for _, iface := range class.Interfaces() {
		if marker, ok := e.markers.MatchInterface(iface); ok {
			return marker, true
		}
	}
	return "", false
}

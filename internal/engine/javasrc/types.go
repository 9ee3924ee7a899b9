package javasrc

import (
	"time"

	"serialguard/internal/core/ports"
	"serialguard/internal/shared/util"
)

// SourceFile is the parsed form of one .java file.
type SourceFile struct {
	Path        string
	Package     string
	Imports     []Import
	Classes     []*Class
	Fingerprint uint64
	ParsedAt    time.Time
	HasErrors   bool
}

// Import is a single import declaration. Static imports are kept but never
// used for type resolution.
type Import struct {
	Path     string
	Wildcard bool
	Static   bool
}

// DeclKind is the declaration keyword of a class-like type.
type DeclKind string

const (
	KindClass     DeclKind = "class"
	KindInterface DeclKind = "interface"
	KindEnum      DeclKind = "enum"
	KindRecord    DeclKind = "record"
)

// typeRef is a type name as written in source, the qualified names it may
// denote inside the model (in resolution order), and the spelling used when
// none of them is declared in the model.
type typeRef struct {
	Written    string
	Candidates []string
	Fallback   string
}

// Class is one class-like declaration. Its methods read the owning model
// and are only valid inside a read section.
type Class struct {
	name        string
	qname       string
	kind        DeclKind
	file        *SourceFile
	loc         ports.Location
	annotations []typeRef
	interfaces  []typeRef
	super       *typeRef

	model *Model
}

var _ ports.ClassDeclaration = (*Class)(nil)

func (c *Class) ID() string              { return c.file.Path + "#" + c.qname }
func (c *Class) Name() string            { return c.name }
func (c *Class) QualifiedName() string   { return c.qname }
func (c *Class) Kind() DeclKind          { return c.kind }
func (c *Class) Location() ports.Location { return c.loc }

// SuperclassName returns the superclass as written, or "".
func (c *Class) SuperclassName() string {
	if c.super == nil {
		return ""
	}
	return c.super.Written
}

// Supertype resolves the declared superclass against the model. Superclasses
// declared outside the model resolve to a bare external handle so the walk
// can still match them by name.
func (c *Class) Supertype() (ports.ClassDeclaration, bool) {
	if c.super == nil {
		return nil, false
	}
	if c.model != nil {
		if found := c.model.lookup(c.super.Candidates); found != nil {
			return found, true
		}
	}
	return externalClass{qname: c.super.Fallback}, true
}

func (c *Class) Annotations() []string {
	return c.resolveAll(c.annotations)
}

func (c *Class) Interfaces() []string {
	return c.resolveAll(c.interfaces)
}

// resolveAll picks, for each reference, the first candidate declared in the
// model, else its fallback spelling.
func (c *Class) resolveAll(refs []typeRef) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		name := ref.Fallback
		if c.model != nil {
			if found := c.model.lookup(ref.Candidates); found != nil {
				name = found.qname
			}
		}
		out = append(out, name)
	}
	return out
}

// externalClass stands in for a supertype declared outside the model, such
// as a library class. It carries no annotations or interfaces and ends the walk.
type externalClass struct {
	qname string
}

func (e externalClass) ID() string                                 { return "external#" + e.qname }
func (e externalClass) Name() string                               { return util.SimpleName(e.qname) }
func (e externalClass) QualifiedName() string                      { return e.qname }
func (e externalClass) Supertype() (ports.ClassDeclaration, bool) { return nil, false }
func (e externalClass) Annotations() []string                      { return nil }
func (e externalClass) Interfaces() []string                       { return nil }
func (e externalClass) Location() ports.Location                   { return ports.Location{} }

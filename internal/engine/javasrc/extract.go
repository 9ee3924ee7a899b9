package javasrc

import (
	"strings"

	"serialguard/internal/core/ports"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// nodeHandler processes a node. Returning true tells the walker the handler
// already visited the node's children.
type nodeHandler func(ctx *extractContext, node *sitter.Node) bool

type walker struct {
	handlers map[string]nodeHandler
}

func (w *walker) walk(ctx *extractContext, node *sitter.Node) {
	if node == nil {
		return
	}
	if handler, ok := w.handlers[node.Kind()]; ok && handler(ctx, node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(ctx, node.Child(i))
	}
}

// rawClass is a declaration before its type names are resolved.
type rawClass struct {
	class       *Class
	annotations []string
	interfaces  []string
	super       string
}

type extractContext struct {
	source    []byte
	file      *SourceFile
	enclosing []string
	classes   []*rawClass
}

func (c *extractContext) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.source[node.StartByte():node.EndByte()])
}

// compactText is the node text with all whitespace removed, which turns
// "com . acme . Foo" into "com.acme.Foo".
func (c *extractContext) compactText(node *sitter.Node) string {
	return strings.Join(strings.Fields(c.text(node)), "")
}

func (c *extractContext) location(node *sitter.Node) ports.Location {
	pos := node.StartPosition()
	return ports.Location{
		File:   c.file.Path,
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
	}
}

func childOfKind(node *sitter.Node, kinds ...string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		for _, kind := range kinds {
			if child.Kind() == kind {
				return child
			}
		}
	}
	return nil
}

type javaExtractor struct {
	walker *walker
}

func newJavaExtractor() *javaExtractor {
	x := &javaExtractor{}
	x.walker = &walker{handlers: map[string]nodeHandler{
		"package_declaration":   x.extractPackage,
		"import_declaration":    x.extractImport,
		"class_declaration":     x.declaration(KindClass),
		"interface_declaration": x.declaration(KindInterface),
		"enum_declaration":      x.declaration(KindEnum),
		"record_declaration":    x.declaration(KindRecord),
		// Method bodies can hold local and anonymous classes; they are not
		// addressable by name and never take part in the contract.
		"method_declaration":      skip,
		"constructor_declaration": skip,
	}}
	return x
}

func skip(*extractContext, *sitter.Node) bool { return true }

func (x *javaExtractor) extract(root *sitter.Node, source []byte, file *SourceFile) {
	ctx := &extractContext{source: source, file: file}
	x.walker.walk(ctx, root)
	resolveFile(file, ctx.classes)
}

func (x *javaExtractor) extractPackage(ctx *extractContext, node *sitter.Node) bool {
	name := childOfKind(node, "scoped_identifier", "identifier")
	ctx.file.Package = ctx.compactText(name)
	return true
}

func (x *javaExtractor) extractImport(ctx *extractContext, node *sitter.Node) bool {
	raw := strings.TrimSpace(ctx.text(node))
	raw = strings.TrimPrefix(raw, "import")
	raw = strings.TrimSpace(strings.TrimSuffix(raw, ";"))
	if raw == "" {
		return true
	}

	imp := Import{}
	if strings.HasPrefix(raw, "static ") {
		imp.Static = true
		raw = strings.TrimPrefix(raw, "static ")
	}
	raw = strings.Join(strings.Fields(raw), "")
	if strings.HasSuffix(raw, ".*") {
		imp.Wildcard = true
		raw = strings.TrimSuffix(raw, ".*")
	}
	imp.Path = raw
	ctx.file.Imports = append(ctx.file.Imports, imp)
	return true
}

func (x *javaExtractor) declaration(kind DeclKind) nodeHandler {
	return func(ctx *extractContext, node *sitter.Node) bool {
		nameNode := node.ChildByFieldName("name")
		name := strings.TrimSpace(ctx.text(nameNode))
		if name == "" {
			return false
		}

		qname := name
		if len(ctx.enclosing) > 0 {
			qname = ctx.enclosing[len(ctx.enclosing)-1] + "." + name
		} else if ctx.file.Package != "" {
			qname = ctx.file.Package + "." + name
		}

		raw := &rawClass{class: &Class{
			name:  name,
			qname: qname,
			kind:  kind,
			file:  ctx.file,
			loc:   ctx.location(nameNode),
		}}
		raw.annotations = x.annotationNames(ctx, childOfKind(node, "modifiers"))
		if super := node.ChildByFieldName("superclass"); super != nil {
			raw.super = x.typeName(ctx, lastNamedChild(super))
		}
		list := childOfKind(node, "super_interfaces", "extends_interfaces")
		raw.interfaces = x.typeList(ctx, childOfKind(list, "type_list"))
		ctx.classes = append(ctx.classes, raw)

		ctx.enclosing = append(ctx.enclosing, qname)
		x.walker.walk(ctx, node.ChildByFieldName("body"))
		ctx.enclosing = ctx.enclosing[:len(ctx.enclosing)-1]
		return true
	}
}

func (x *javaExtractor) annotationNames(ctx *extractContext, modifiers *sitter.Node) []string {
	if modifiers == nil {
		return nil
	}
	var names []string
	for i := uint(0); i < modifiers.NamedChildCount(); i++ {
		child := modifiers.NamedChild(i)
		if child.Kind() != "marker_annotation" && child.Kind() != "annotation" {
			continue
		}
		if name := ctx.compactText(child.ChildByFieldName("name")); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (x *javaExtractor) typeList(ctx *extractContext, list *sitter.Node) []string {
	if list == nil {
		return nil
	}
	var names []string
	for i := uint(0); i < list.NamedChildCount(); i++ {
		if name := x.typeName(ctx, list.NamedChild(i)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// typeName strips type arguments and type annotations from a type node.
func (x *javaExtractor) typeName(ctx *extractContext, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "generic_type":
		return x.typeName(ctx, node.NamedChild(0))
	case "annotated_type":
		return x.typeName(ctx, lastNamedChild(node))
	case "scoped_type_identifier":
		var parts []string
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			switch child.Kind() {
			case "type_identifier", "scoped_type_identifier", "generic_type":
				parts = append(parts, x.typeName(ctx, child))
			}
		}
		return strings.Join(parts, ".")
	default:
		name := ctx.compactText(node)
		if i := strings.IndexByte(name, '<'); i >= 0 {
			name = name[:i]
		}
		return name
	}
}

func lastNamedChild(node *sitter.Node) *sitter.Node {
	if node == nil || node.NamedChildCount() == 0 {
		return nil
	}
	return node.NamedChild(node.NamedChildCount() - 1)
}

package javasrc

import (
	"strings"

	"serialguard/internal/shared/util"
)

const implicitPackage = "java.lang"

// resolveFile turns the written type names of every declaration into
// resolution candidates and attaches the classes to the file.
func resolveFile(file *SourceFile, raws []*rawClass) {
	local := make(map[string]string, len(raws))
	for _, raw := range raws {
		if _, ok := local[raw.class.name]; !ok {
			local[raw.class.name] = raw.class.qname
		}
	}

	r := resolver{file: file, local: local}
	for _, raw := range raws {
		c := raw.class
		for _, name := range raw.annotations {
			c.annotations = append(c.annotations, r.resolve(name))
		}
		for _, name := range raw.interfaces {
			c.interfaces = append(c.interfaces, r.resolve(name))
		}
		if raw.super != "" {
			ref := r.resolve(raw.super)
			c.super = &ref
		}
		file.Classes = append(file.Classes, c)
	}
}

type resolver struct {
	file  *SourceFile
	local map[string]string
}

// resolve follows Java's lookup order for a type name: declarations in the
// same file, single-type imports, the current package, on-demand imports,
// then java.lang.
func (r resolver) resolve(written string) typeRef {
	ref := typeRef{Written: written, Fallback: written}
	if written == "" {
		return ref
	}

	head, rest, qualified := strings.Cut(written, ".")
	if qualified {
		// Either a fully qualified name or Outer.Inner relative to a
		// resolvable outer type.
		ref.Candidates = append(ref.Candidates, written)
		for _, outer := range r.simpleCandidates(head) {
			if outer != head {
				ref.Candidates = appendUnique(ref.Candidates, outer+"."+rest)
			}
		}
		return ref
	}

	ref.Candidates = r.simpleCandidates(written)
	for _, imp := range r.file.Imports {
		if !imp.Static && !imp.Wildcard && util.SimpleName(imp.Path) == written {
			ref.Fallback = imp.Path
			break
		}
	}
	return ref
}

func (r resolver) simpleCandidates(name string) []string {
	var out []string
	if qname, ok := r.local[name]; ok {
		out = append(out, qname)
	}
	for _, imp := range r.file.Imports {
		if !imp.Static && !imp.Wildcard && util.SimpleName(imp.Path) == name {
			out = appendUnique(out, imp.Path)
		}
	}
	if r.file.Package != "" {
		out = appendUnique(out, r.file.Package+"."+name)
	}
	for _, imp := range r.file.Imports {
		if imp.Wildcard && !imp.Static {
			out = appendUnique(out, imp.Path+"."+name)
		}
	}
	out = appendUnique(out, implicitPackage+"."+name)
	return appendUnique(out, name)
}

func appendUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}

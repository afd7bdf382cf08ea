package codegen

import (
	"sort"
	"strings"

	"github.com/standardbeagle/pullup/internal/debug"
	"github.com/standardbeagle/pullup/internal/model"
)

// AddMissingImports extends a class's import list so every simple type
// name its members use stays resolvable after members migrated in from
// another file. New imports are appended sorted; the stored order of
// existing imports is never touched. Returns what was added.
//
// Qualified names, primitives, java.lang types, same-package types and
// names already covered by an explicit or wildcard import need nothing.
func AddMissingImports(m *model.Model, id model.ClassID) []string {
	c := m.Class(id)
	if c == nil {
		return nil
	}

	needed := map[string]bool{}
	for _, fid := range c.Fields {
		f := m.Field(fid)
		if f == nil {
			continue
		}
		collectTypeNames(f.Type, needed)
		for _, ref := range f.Refs {
			if ref.Kind == model.RefConstructorCall {
				collectTypeNames(ref.TypeName, needed)
			}
		}
	}
	for _, mid := range c.Methods {
		mm := m.Method(mid)
		if mm == nil {
			continue
		}
		collectTypeNames(mm.ReturnType, needed)
		for _, p := range mm.Params {
			collectTypeNames(p.Type, needed)
		}
		for _, t := range mm.Throws {
			collectTypeNames(t, needed)
		}
		for _, ref := range mm.Refs {
			if ref.Kind == model.RefConstructorCall {
				collectTypeNames(ref.TypeName, needed)
			}
		}
		for _, lv := range mm.LocalVarTypes {
			collectTypeNames(lv.TypeName, needed)
		}
	}

	simpleImported := map[string]bool{}
	wildcardPkgs := map[string]bool{}
	existing := map[string]bool{}
	for _, imp := range c.Imports {
		existing[imp] = true
		name := strings.TrimPrefix(imp, "static ")
		if strings.HasSuffix(name, ".*") {
			wildcardPkgs[strings.TrimSuffix(name, ".*")] = true
			continue
		}
		if dot := strings.LastIndex(name, "."); dot >= 0 {
			simpleImported[name[dot+1:]] = true
		}
	}

	names := make([]string, 0, len(needed))
	for name := range needed {
		names = append(names, name)
	}
	sort.Strings(names)

	var added []string
	for _, name := range names {
		if model.IsPrimitive(name) || model.IsJavaLang(name) || strings.Contains(name, ".") {
			continue
		}
		if simpleImported[name] {
			continue
		}
		imp := resolveImport(m, c, name)
		if imp == "" {
			continue
		}
		pkg := imp
		if dot := strings.LastIndex(imp, "."); dot >= 0 {
			pkg = imp[:dot]
		}
		if wildcardPkgs[pkg] || existing[imp] {
			continue
		}
		existing[imp] = true
		added = append(added, imp)
	}
	sort.Strings(added)
	for _, imp := range added {
		c.Imports = append(c.Imports, imp)
		debug.Log("codegen", "added import %s to %s", imp, c.QualifiedName)
	}
	return added
}

// resolveImport finds the qualified name to import for a simple type
// name. Model classes win; otherwise any other class's explicit import
// of that name is borrowed, lowest path first for determinism.
func resolveImport(m *model.Model, c *model.ClassNode, name string) string {
	if target := m.ClassByName(name); target != model.NoClass {
		tc := m.Class(target)
		if tc.Package == c.Package || tc.Package == "" {
			return ""
		}
		return tc.QualifiedName
	}

	var candidates []string
	suffix := "." + name
	for _, id := range m.AllClasses() {
		other := m.Class(id)
		if other == nil {
			continue
		}
		for _, imp := range other.Imports {
			donor := strings.TrimPrefix(imp, "static ")
			if strings.HasSuffix(donor, suffix) {
				candidates = append(candidates, donor)
			}
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)
	return candidates[0]
}

// collectTypeNames splits a type string into its component names:
// generic arguments, array elements and bound targets all count.
func collectTypeNames(typ string, out map[string]bool) {
	if typ == "" {
		return
	}
	start := -1
	for i := 0; i <= len(typ); i++ {
		var ch byte
		if i < len(typ) {
			ch = typ[i]
		}
		isWord := ch == '.' || ch == '_' || ch == '$' ||
			(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
		if isWord {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			word := typ[start:i]
			start = -1
			if word == "extends" || word == "super" {
				continue
			}
			out[word] = true
		}
	}
}

package analysis

import (
	"strings"

	"github.com/standardbeagle/pullup/internal/model"
)

// TypeResolvable reports whether typeName can be named from the
// destination class's file once the import-fixup pass has run. This is
// the only dependency condition that blocks a migration outright.
//
// A type resolves when it is primitive, lives in java.lang, is part of
// the parsed model, is written fully qualified, is imported by either
// the origin or the destination file, or when origin and destination
// share a package. What remains is a package-local type of a foreign
// package, which the destination file has no way to reference.
func (a *Analyzer) TypeResolvable(typeName string, origin, destination model.ClassID) bool {
	base := model.BaseType(typeName)
	if base == "" || base == "void" {
		return true
	}
	if model.IsPrimitive(base) || model.IsJavaLang(base) {
		return true
	}
	if strings.Contains(base, ".") {
		return true
	}
	if a.model.ClassByName(base) != model.NoClass {
		return true
	}

	org := a.model.Class(origin)
	dest := a.model.Class(destination)
	if importedBy(org, base) || importedBy(dest, base) {
		return true
	}
	if org != nil && dest != nil && org.Package == dest.Package {
		return true
	}
	return false
}

func importedBy(c *model.ClassNode, simple string) bool {
	if c == nil {
		return false
	}
	for _, imp := range c.Imports {
		if strings.HasSuffix(imp, "."+simple) || imp == simple {
			return true
		}
	}
	return false
}

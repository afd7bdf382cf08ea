package hierarchy

import (
	"strings"

	"github.com/standardbeagle/pullup/internal/model"
)

// IsObjectName reports whether name denotes the universal top type.
func IsObjectName(name string) bool {
	return name == "Object" || name == model.ObjectClassName
}

// IsSubtypeName reports whether sub names a type assignable to super.
// The relation is judged over the parsed model: external types are
// related only reflexively and through the universal top. Generic
// arguments and array suffixes are ignored.
func (n *Navigator) IsSubtypeName(sub, super string) bool {
	sb := model.BaseType(sub)
	pb := model.BaseType(super)
	if sb == "" || pb == "" {
		return false
	}
	if IsObjectName(pb) {
		// arrays are reference types even when the element is primitive
		return !model.IsPrimitive(sb) || strings.HasSuffix(strings.TrimSpace(sub), "[]")
	}
	if simpleName(sb) == simpleName(pb) {
		return true
	}
	if model.IsPrimitive(sb) || model.IsPrimitive(pb) {
		return false
	}
	subID := n.model.ClassByName(sb)
	superID := n.model.ClassByName(pb)
	if subID == model.NoClass || superID == model.NoClass {
		return false
	}
	return n.IsAncestor(superID, subID)
}

// NamedSuper returns the declared supertype name of the class named by
// typeName. It returns the linked ancestor's simple name when the model
// knows it, the written supertype name when only the text is known, and
// "" when the type itself is outside the model or has no supertype.
func (n *Navigator) NamedSuper(typeName string) string {
	id := n.model.ClassByName(model.BaseType(typeName))
	if id == model.NoClass {
		return ""
	}
	c := n.model.Class(id)
	if c.Super != model.NoClass {
		return n.model.Class(c.Super).SimpleName
	}
	return c.SuperName
}

func simpleName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

package refactor

import (
	"github.com/standardbeagle/pullup/internal/hierarchy"
	"github.com/standardbeagle/pullup/internal/model"
)

// universalTop is the type name written into source when no narrower
// common supertype exists.
const universalTop = "Object"

// maxWideningSteps bounds the ancestor walk so a malformed supertype
// chain cannot loop the unifier.
const maxWideningSteps = 64

// TypeUnifier folds conflicting return or field types into a common
// supertype. It always widens, never narrows, and visits conflicts in
// discovery order so the outcome is reproducible.
type TypeUnifier struct {
	model *model.Model
	nav   *hierarchy.Navigator
	warn  *Warnings
}

func NewTypeUnifier(m *model.Model, nav *hierarchy.Navigator, warn *Warnings) *TypeUnifier {
	return &TypeUnifier{model: m, nav: nav, warn: warn}
}

// Unify folds each conflicting type into current and returns the
// widened result.
func (u *TypeUnifier) Unify(current string, conflicting []string) string {
	for _, t := range conflicting {
		current = u.widen(current, t)
	}
	return current
}

// widen returns the narrowest type that can hold both current and t.
func (u *TypeUnifier) widen(current, t string) string {
	if current == "" {
		return t
	}
	if t == "" || t == current {
		return current
	}
	if u.nav.IsSubtypeName(t, current) {
		return current
	}
	if u.nav.IsSubtypeName(current, t) {
		return t
	}
	steps := 0
	for anc := u.nav.NamedSuper(current); anc != ""; anc = u.nav.NamedSuper(anc) {
		steps++
		if steps > maxWideningSteps {
			break
		}
		if u.nav.IsSubtypeName(t, anc) {
			return anc
		}
	}
	if u.warn != nil {
		u.warn.Add("types %q and %q share no supertype; falling back to %s", current, t, universalTop)
	}
	return universalTop
}

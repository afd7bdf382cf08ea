package refactor

import (
	"github.com/standardbeagle/pullup/internal/hierarchy"
	"github.com/standardbeagle/pullup/internal/model"
)

const overrideMarker = "@Override"

// VisibilityResolver computes the access level a pulled-up declaration
// needs so that every declaration of the same logical method across the
// destination's descendants still compiles, then applies that level
// uniformly.
type VisibilityResolver struct {
	model *model.Model
	nav   *hierarchy.Navigator
}

func NewVisibilityResolver(m *model.Model, nav *hierarchy.Navigator) *VisibilityResolver {
	return &VisibilityResolver{model: m, nav: nav}
}

// ResolveMethod joins the visibility of the candidate with every
// same-signature declaration found across the destination's descendant
// set. When every observed level is private or package-private the
// result is floored at protected, since neither survives a move across
// a class boundary; across build modules the floor is public instead.
func (r *VisibilityResolver) ResolveMethod(candidate model.MethodID, destination model.ClassID, crossModule bool) model.Visibility {
	cand := r.model.Method(candidate)
	if cand == nil {
		return model.VisibilityProtected
	}
	sig := model.SignatureOf(cand)
	level := cand.Visibility
	for _, mid := range r.counterparts(destination, sig) {
		level = level.Join(r.model.Method(mid).Visibility)
	}
	return r.floor(level, crossModule)
}

// ResolveField widens a field's visibility the same way, without the
// descendant scan: fields do not override.
func (r *VisibilityResolver) ResolveField(candidate model.FieldID, crossModule bool) model.Visibility {
	f := r.model.Field(candidate)
	if f == nil {
		return model.VisibilityProtected
	}
	return r.floor(f.Visibility, crossModule)
}

func (r *VisibilityResolver) floor(level model.Visibility, crossModule bool) model.Visibility {
	if level >= model.VisibilityProtected {
		return level
	}
	if crossModule {
		return model.VisibilityPublic
	}
	return model.VisibilityProtected
}

// Apply sets the resolved level on the destination declaration and on
// every same-signature descendant declaration, marking each descendant
// declaration as an explicit override. It returns the classes that
// actually changed; running it a second time returns none.
func (r *VisibilityResolver) Apply(destDecl model.MethodID, destination model.ClassID, level model.Visibility) []model.ClassID {
	dm := r.model.Method(destDecl)
	if dm == nil {
		return nil
	}

	var changed []model.ClassID
	seen := make(map[model.ClassID]bool)
	if dm.Visibility != level {
		dm.Visibility = level
		r.model.MarkModified(dm.Owner)
		seen[dm.Owner] = true
		changed = append(changed, dm.Owner)
	}

	sig := model.SignatureOf(dm)
	for _, mid := range r.counterparts(destination, sig) {
		if mid == destDecl {
			continue
		}
		m := r.model.Method(mid)
		touched := false
		if m.Visibility != level {
			m.Visibility = level
			touched = true
		}
		if !hasAnnotation(m, overrideMarker) {
			m.Annotations = append(m.Annotations, overrideMarker)
			touched = true
		}
		if touched {
			r.model.MarkModified(m.Owner)
			if !seen[m.Owner] {
				seen[m.Owner] = true
				changed = append(changed, m.Owner)
			}
		}
	}
	return changed
}

// counterparts lists every same-signature declaration on the
// destination's descendants, breadth-first, so join and unify walk the
// graph in a reproducible order.
func (r *VisibilityResolver) counterparts(destination model.ClassID, sig model.Signature) []model.MethodID {
	var out []model.MethodID
	for _, cid := range r.nav.DescendantsOf(destination) {
		for _, mid := range r.model.MethodsByName(cid, sig.Name) {
			if model.SignatureOf(r.model.Method(mid)).Equal(sig) {
				out = append(out, mid)
			}
		}
	}
	return out
}

func hasAnnotation(m *model.MethodNode, name string) bool {
	for _, a := range m.Annotations {
		if a == name {
			return true
		}
	}
	return false
}

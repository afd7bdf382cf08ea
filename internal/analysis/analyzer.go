// Package analysis classifies the members a method body touches so the
// migration engine knows which ones must travel with it.
package analysis

import (
	"fmt"

	"github.com/standardbeagle/pullup/internal/hierarchy"
	"github.com/standardbeagle/pullup/internal/model"
)

// Ownership places a referenced member relative to the migration route.
type Ownership uint8

const (
	// OwnedByOrigin marks members declared directly on the origin class.
	OwnedByOrigin Ownership = iota
	// OwnedByIntermediate marks members declared strictly between the
	// origin and the destination. They must travel too, otherwise the
	// destination would sit above a declaration it cannot see.
	OwnedByIntermediate
	// Unrelated marks members the migration leaves alone: declared on
	// the destination, above it, or outside the route entirely.
	Unrelated
)

func (o Ownership) String() string {
	switch o {
	case OwnedByOrigin:
		return "origin"
	case OwnedByIntermediate:
		return "intermediate"
	default:
		return "unrelated"
	}
}

// Finding is one classified member reference. Method or Field is set
// according to Kind; the other is zero.
type Finding struct {
	Kind      model.RefKind
	Name      string
	Method    model.MethodID
	Field     model.FieldID
	Owner     model.ClassID
	Ownership Ownership
	Issue     string
}

// Analyzer resolves body references against the class graph.
type Analyzer struct {
	model *model.Model
	nav   *hierarchy.Navigator
}

func New(m *model.Model, nav *hierarchy.Navigator) *Analyzer {
	return &Analyzer{model: m, nav: nav}
}

// FindDependencies returns every origin- or intermediate-owned member
// the method's body references, in body order, deduplicated. Members
// owned by the destination or unrelated classes are dropped. A private
// member is reported with an informational Issue; nothing here blocks
// a migration.
func (a *Analyzer) FindDependencies(id model.MethodID, origin, destination model.ClassID) []Finding {
	m := a.model.Method(id)
	if m == nil {
		return nil
	}
	return a.classifyRefs(m.Refs, origin, destination)
}

// FindFieldDependencies classifies the references inside a field's
// initializer expression.
func (a *Analyzer) FindFieldDependencies(id model.FieldID, origin, destination model.ClassID) []Finding {
	f := a.model.Field(id)
	if f == nil {
		return nil
	}
	return a.classifyRefs(f.Refs, origin, destination)
}

func (a *Analyzer) classifyRefs(refs []model.MemberRef, origin, destination model.ClassID) []Finding {
	var out []Finding
	seenFields := make(map[model.FieldID]bool)
	seenMethods := make(map[model.MethodID]bool)

	for _, ref := range refs {
		if ref.Receiver == model.ReceiverOther {
			continue
		}
		start := origin
		if ref.Receiver == model.ReceiverSuper {
			start = a.nav.DirectSuper(origin)
		}

		switch ref.Kind {
		case model.RefField:
			fieldID, owner := a.lookupField(start, ref.Name)
			if fieldID == model.NoField || seenFields[fieldID] {
				continue
			}
			ownership := a.classify(owner, origin, destination)
			if ownership == Unrelated {
				continue
			}
			seenFields[fieldID] = true
			out = append(out, Finding{
				Kind:      model.RefField,
				Name:      ref.Name,
				Field:     fieldID,
				Owner:     owner,
				Ownership: ownership,
				Issue:     a.privateIssue("field", ref.Name, owner, a.model.Field(fieldID).Visibility),
			})

		case model.RefMethodCall:
			methodID, owner := a.lookupMethod(start, ref.Name, ref.Arity)
			if methodID == model.NoMethod || seenMethods[methodID] {
				continue
			}
			ownership := a.classify(owner, origin, destination)
			if ownership == Unrelated {
				continue
			}
			seenMethods[methodID] = true
			out = append(out, Finding{
				Kind:      model.RefMethodCall,
				Name:      ref.Name,
				Method:    methodID,
				Owner:     owner,
				Ownership: ownership,
				Issue:     a.privateIssue("method", ref.Name, owner, a.model.Method(methodID).Visibility),
			})
		}
	}
	return out
}

// classify places owner on the origin→destination route.
func (a *Analyzer) classify(owner, origin, destination model.ClassID) Ownership {
	if owner == origin {
		return OwnedByOrigin
	}
	if owner == model.NoClass {
		return Unrelated
	}
	for _, mid := range a.nav.PathBetween(origin, destination) {
		if mid == owner {
			return OwnedByIntermediate
		}
	}
	return Unrelated
}

// lookupField walks upward from start and returns the first field with
// the given name, honoring shadowing.
func (a *Analyzer) lookupField(start model.ClassID, name string) (model.FieldID, model.ClassID) {
	for _, cid := range a.chainFrom(start) {
		if fid := a.model.FieldByName(cid, name); fid != model.NoField {
			return fid, cid
		}
	}
	return model.NoField, model.NoClass
}

// lookupMethod walks upward from start and returns the first method
// matching name and arity.
func (a *Analyzer) lookupMethod(start model.ClassID, name string, arity int) (model.MethodID, model.ClassID) {
	for _, cid := range a.chainFrom(start) {
		for _, mid := range a.model.MethodsByName(cid, name) {
			if len(a.model.Method(mid).Params) == arity {
				return mid, cid
			}
		}
	}
	return model.NoMethod, model.NoClass
}

func (a *Analyzer) chainFrom(start model.ClassID) []model.ClassID {
	if start == model.NoClass {
		return nil
	}
	return append([]model.ClassID{start}, a.nav.AncestorsOf(start)...)
}

func (a *Analyzer) privateIssue(kind, name string, owner model.ClassID, vis model.Visibility) string {
	if vis != model.VisibilityPrivate {
		return ""
	}
	ownerName := "?"
	if c := a.model.Class(owner); c != nil {
		ownerName = c.SimpleName
	}
	return fmt.Sprintf("%s %q on %s is private and will be widened", kind, name, ownerName)
}

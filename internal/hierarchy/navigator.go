// Package hierarchy provides read-only ancestor and descendant queries
// over a linked class model.
//
// All queries are pure: they never mutate the model, and repeated calls
// on an unchanged model return identical results. Every walk carries a
// visited guard so a malformed supertype cycle cannot hang a run.
package hierarchy

import (
	"github.com/standardbeagle/pullup/internal/model"
)

// Navigator answers hierarchy queries against a single model.
// The children index is built once at construction; supertype links do
// not change during a refactoring run, so the index stays valid.
type Navigator struct {
	model    *model.Model
	children map[model.ClassID][]model.ClassID
}

// New builds a Navigator over an already-linked model.
func New(m *model.Model) *Navigator {
	n := &Navigator{
		model:    m,
		children: make(map[model.ClassID][]model.ClassID),
	}
	for _, id := range m.AllClasses() {
		c := m.Class(id)
		if c != nil && c.Super != model.NoClass {
			n.children[c.Super] = append(n.children[c.Super], id)
		}
	}
	return n
}

// DirectSuper returns the linked supertype of id, or NoClass when the
// class has none inside the model (java.lang.Object and external
// library supertypes are never linked).
func (n *Navigator) DirectSuper(id model.ClassID) model.ClassID {
	return n.super(id)
}

// AncestorsOf returns every linked ancestor of id, ordered nearest to
// farthest. The universal top type is not part of the linked graph and
// never appears in the result.
func (n *Navigator) AncestorsOf(id model.ClassID) []model.ClassID {
	var out []model.ClassID
	seen := map[model.ClassID]bool{id: true}
	for cur := n.super(id); cur != model.NoClass; cur = n.super(cur) {
		if seen[cur] {
			break
		}
		seen[cur] = true
		out = append(out, cur)
	}
	return out
}

// Children returns the direct subclasses of id in registration order.
func (n *Navigator) Children(id model.ClassID) []model.ClassID {
	kids := n.children[id]
	if len(kids) == 0 {
		return nil
	}
	return append([]model.ClassID(nil), kids...)
}

// DescendantsOf returns all transitively reachable subclasses of id in
// breadth-first order, so nearer descendants sort before farther ones.
func (n *Navigator) DescendantsOf(id model.ClassID) []model.ClassID {
	var out []model.ClassID
	seen := map[model.ClassID]bool{id: true}
	queue := append([]model.ClassID(nil), n.children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		queue = append(queue, n.children[cur]...)
	}
	return out
}

// IsAncestor reports whether ancestor appears on descendant's upward
// chain. A class is not its own ancestor.
func (n *Navigator) IsAncestor(ancestor, descendant model.ClassID) bool {
	if ancestor == model.NoClass || descendant == model.NoClass || ancestor == descendant {
		return false
	}
	seen := map[model.ClassID]bool{descendant: true}
	for cur := n.super(descendant); cur != model.NoClass; cur = n.super(cur) {
		if cur == ancestor {
			return true
		}
		if seen[cur] {
			break
		}
		seen[cur] = true
	}
	return false
}

// PathBetween returns the classes strictly between descendant and
// ancestor, ordered from the descendant side upward. The result is
// empty both when ancestor is the direct supertype and when ancestor
// is not on the chain at all; callers distinguish the two cases with
// IsAncestor.
func (n *Navigator) PathBetween(descendant, ancestor model.ClassID) []model.ClassID {
	var out []model.ClassID
	seen := map[model.ClassID]bool{descendant: true}
	for cur := n.super(descendant); cur != model.NoClass; cur = n.super(cur) {
		if cur == ancestor {
			return out
		}
		if seen[cur] {
			break
		}
		seen[cur] = true
		out = append(out, cur)
	}
	return nil
}

func (n *Navigator) super(id model.ClassID) model.ClassID {
	c := n.model.Class(id)
	if c == nil {
		return model.NoClass
	}
	return c.Super
}

// Package conflict detects destination-side signature collisions for a
// method about to be pulled up. Every check runs before any mutation.
package conflict

import (
	"github.com/standardbeagle/pullup/internal/hierarchy"
	"github.com/standardbeagle/pullup/internal/model"
)

// Outcome classifies the candidate against the destination's own
// declarations.
type Outcome uint8

const (
	// Clear means the destination declares nothing that interferes.
	Clear Outcome = iota
	// Duplicate means an identical declaration (signature and
	// normalized body) already exists. Non-fatal: the migration for
	// that method is skipped and reported as a warning.
	Duplicate
	// SignatureConflict means the destination declares the same
	// signature with a different body. Fatal.
	SignatureConflict
	// OverloadAmbiguity means a same-name, same-arity overload with
	// subtype-related parameter types exists, so call sites could
	// become ambiguous after the move. Fatal.
	OverloadAmbiguity
)

func (o Outcome) String() string {
	switch o {
	case Clear:
		return "clear"
	case Duplicate:
		return "duplicate"
	case SignatureConflict:
		return "signature-conflict"
	case OverloadAmbiguity:
		return "overload-ambiguity"
	default:
		return "unknown"
	}
}

// Fatal reports whether the outcome must abort the migration.
func (o Outcome) Fatal() bool {
	return o == SignatureConflict || o == OverloadAmbiguity
}

// Report carries the outcome plus the destination declaration that
// produced it, for error and warning messages.
type Report struct {
	Outcome Outcome
	Match   model.MethodID
}

// Checker runs destination-side collision checks.
type Checker struct {
	model *model.Model
	nav   *hierarchy.Navigator
}

func New(m *model.Model, nav *hierarchy.Navigator) *Checker {
	return &Checker{model: m, nav: nav}
}

// Check compares the method under migration against the destination's
// direct declarations. Inherited declarations are not consulted; a
// pulled-up method overriding something higher still compiles.
func (c *Checker) Check(id model.MethodID, destination model.ClassID) Report {
	cand := c.model.Method(id)
	if cand == nil {
		return Report{Outcome: Clear}
	}
	sig := model.SignatureOf(cand)

	overloads := c.model.MethodsByName(destination, cand.Name)
	for _, did := range overloads {
		destM := c.model.Method(did)
		if !sig.Equal(model.SignatureOf(destM)) {
			continue
		}
		if model.SameBody(cand.Body, destM.Body) {
			return Report{Outcome: Duplicate, Match: did}
		}
		return Report{Outcome: SignatureConflict, Match: did}
	}

	for _, did := range overloads {
		destM := c.model.Method(did)
		if len(destM.Params) != len(cand.Params) {
			continue
		}
		if c.pairwiseRelated(cand, destM) {
			return Report{Outcome: OverloadAmbiguity, Match: did}
		}
	}
	return Report{Outcome: Clear}
}

// pairwiseRelated reports whether every parameter position holds
// subtype-related types in some direction.
func (c *Checker) pairwiseRelated(a, b *model.MethodNode) bool {
	for i := range a.Params {
		ta, tb := a.Params[i].Type, b.Params[i].Type
		if !c.nav.IsSubtypeName(ta, tb) && !c.nav.IsSubtypeName(tb, ta) {
			return false
		}
	}
	return true
}

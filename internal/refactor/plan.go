package refactor

import (
	"fmt"

	"github.com/standardbeagle/pullup/internal/model"
)

// StubPolicy selects the body synthesized for a non-void stub override.
type StubPolicy uint8

const (
	// StubThrow makes a stub signal "not implemented" at runtime.
	StubThrow StubPolicy = iota
	// StubDefaultValue makes a stub return the type's zero value.
	StubDefaultValue
)

func (p StubPolicy) String() string {
	switch p {
	case StubDefaultValue:
		return "default-value"
	default:
		return "throw"
	}
}

// ParseStubPolicy maps a config string to a policy.
func ParseStubPolicy(s string) (StubPolicy, error) {
	switch s {
	case "", "throw":
		return StubThrow, nil
	case "default-value":
		return StubDefaultValue, nil
	default:
		return StubThrow, fmt.Errorf("unknown stub policy %q (want throw or default-value)", s)
	}
}

// Plan is a fully resolved migration: the method under migration plus
// the origin and destination classes. CrossModule is true when origin
// and destination live in different build modules, which raises the
// visibility floor from protected to public.
type Plan struct {
	Method      model.MethodID
	Origin      model.ClassID
	Destination model.ClassID
	CrossModule bool
}

// PlanFinding is one dependency reported by a dry run.
type PlanFinding struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Owner     string `json:"owner"`
	Ownership string `json:"ownership"`
	Issue     string `json:"issue,omitempty"`
}

// PlanReport is the outcome of a dry run: the resolved route, the
// conflict outcome, and every member that would travel. Nothing is
// mutated while producing it.
type PlanReport struct {
	Origin      string        `json:"origin"`
	Method      string        `json:"method"`
	Destination string        `json:"destination"`
	Outcome     string        `json:"outcome"`
	Fatal       bool          `json:"fatal"`
	CrossModule bool          `json:"cross_module"`
	Findings    []PlanFinding `json:"findings,omitempty"`
}

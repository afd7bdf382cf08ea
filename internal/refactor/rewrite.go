package refactor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/pullup/internal/hierarchy"
	"github.com/standardbeagle/pullup/internal/model"
)

const superCallMarker = "/* pull-up removed a super call here: no concrete implementation remains above */"

// Edit is a single span replacement against a method body. Spans are
// body-relative and valid only against the unedited text, so every
// edit for a body must be collected first and applied in one batch.
type Edit struct {
	Span model.Span
	Text string
}

// Rewriter performs span surgery on method bodies: self-reference
// downcasts, local variable retyping, and super-call removal. It is
// the single scanning pass shared by method and field migration.
type Rewriter struct {
	model *model.Model
	nav   *hierarchy.Navigator
}

func NewRewriter(m *model.Model, nav *hierarchy.Navigator) *Rewriter {
	return &Rewriter{model: m, nav: nav}
}

// CollectDowncasts finds `this` arguments whose expected parameter type
// the destination class no longer satisfies and wraps each in a cast
// back to the origin type.
func (rw *Rewriter) CollectDowncasts(id model.MethodID, origin, destination model.ClassID) []Edit {
	m := rw.model.Method(id)
	org := rw.model.Class(origin)
	dest := rw.model.Class(destination)
	if m == nil || org == nil || dest == nil {
		return nil
	}

	var edits []Edit
	for _, ref := range m.ThisArgs {
		expected, ok := rw.findParamType(origin, ref.CallName, ref.Arity, ref.ArgIndex)
		if !ok {
			continue
		}
		if rw.nav.IsSubtypeName(dest.SimpleName, expected) {
			continue
		}
		if !rw.nav.IsSubtypeName(org.SimpleName, expected) {
			continue
		}
		edits = append(edits, Edit{
			Span: ref.Span,
			Text: fmt.Sprintf("((%s) this)", org.SimpleName),
		})
	}
	return edits
}

// CollectLocalRetypes rewrites local variable declarations of fromType
// to toType. Used when return-type unification widens the migrated
// method and its locals must follow.
func (rw *Rewriter) CollectLocalRetypes(id model.MethodID, fromType, toType string) []Edit {
	m := rw.model.Method(id)
	if m == nil || fromType == toType {
		return nil
	}
	var edits []Edit
	for _, ts := range m.LocalVarTypes {
		if ts.TypeName == fromType {
			edits = append(edits, Edit{Span: ts.Span, Text: toType})
		}
	}
	return edits
}

// RemovalEdit cuts a super call out of a body, leaving a marker in its
// place. Statement calls are removed whole; expression calls are
// replaced with null so the surrounding expression stays parseable.
func (rw *Rewriter) RemovalEdit(ref model.SuperCallRef) Edit {
	if ref.IsStatement {
		return Edit{Span: ref.StmtSpan, Text: superCallMarker}
	}
	return Edit{Span: ref.CallSpan, Text: "null " + superCallMarker}
}

// Apply rewrites the body with every collected edit and drops the
// now-stale span markers.
func (rw *Rewriter) Apply(id model.MethodID, edits []Edit) {
	m := rw.model.Method(id)
	if m == nil || len(edits) == 0 {
		return
	}
	m.Body = applyEdits(m.Body, edits)
	m.ThisArgs = nil
	m.LocalVarTypes = nil
	m.SuperCalls = nil
	rw.model.MarkModified(m.Owner)
}

// findParamType resolves a call from the origin's scope and returns the
// type of the parameter at argIndex.
func (rw *Rewriter) findParamType(origin model.ClassID, name string, arity, argIndex int) (string, bool) {
	chain := append([]model.ClassID{origin}, rw.nav.AncestorsOf(origin)...)
	for _, cid := range chain {
		for _, mid := range rw.model.MethodsByName(cid, name) {
			m := rw.model.Method(mid)
			if len(m.Params) != arity {
				continue
			}
			if argIndex < 0 || argIndex >= len(m.Params) {
				return "", false
			}
			return m.Params[argIndex].Type, true
		}
	}
	return "", false
}

func applyEdits(body string, edits []Edit) string {
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Span.Start > sorted[j].Span.Start })
	for _, e := range sorted {
		start, end := int(e.Span.Start), int(e.Span.End)
		if start < 0 || end > len(body) || start > end {
			continue
		}
		body = body[:start] + e.Text + body[end:]
	}
	return body
}

// ForwardingBody builds a destination body that relays the call to the
// concrete implementation above.
func ForwardingBody(m *model.MethodNode) string {
	args := make([]string, len(m.Params))
	for i, p := range m.Params {
		args[i] = p.Name
	}
	call := fmt.Sprintf("super.%s(%s)", m.Name, strings.Join(args, ", "))
	if m.ReturnType == "void" || m.ReturnType == "" {
		return fmt.Sprintf("{\n    %s;\n}", call)
	}
	return fmt.Sprintf("{\n    return %s;\n}", call)
}

// StubBody builds the minimal override body for a synthesized stub.
func StubBody(returnType string, policy StubPolicy) string {
	if returnType == "void" || returnType == "" {
		return "{\n}"
	}
	if policy == StubDefaultValue {
		return fmt.Sprintf("{\n    return %s;\n}", zeroValue(returnType))
	}
	return "{\n    throw new UnsupportedOperationException();\n}"
}

func zeroValue(typeName string) string {
	if strings.HasSuffix(strings.TrimSpace(typeName), "[]") {
		return "null"
	}
	switch model.BaseType(typeName) {
	case "int", "short", "byte":
		return "0"
	case "long":
		return "0L"
	case "float":
		return "0.0f"
	case "double":
		return "0.0"
	case "boolean":
		return "false"
	case "char":
		return "'\\0'"
	default:
		return "null"
	}
}

package refactor

import (
	"github.com/standardbeagle/pullup/internal/errors"
	"github.com/standardbeagle/pullup/internal/model"
)

// migrateField relocates one dependent field to the destination.
// Failures here block only this field; the surrounding migration
// continues and the reason lands in the warnings.
func (e *Engine) migrateField(fieldID model.FieldID, plan *Plan) bool {
	f := e.model.Field(fieldID)
	if f == nil {
		return false
	}
	if e.movedFields[fieldID] {
		return true
	}
	owner := f.Owner
	dest := e.model.Class(plan.Destination)

	// per-field gates
	if e.model.FieldByName(plan.Destination, f.Name) != model.NoField {
		e.warn.Add("field %q already exists on %s; left in place", f.Name, dest.SimpleName)
		return false
	}
	if !e.analyzer.TypeResolvable(f.Type, owner, plan.Destination) {
		e.warn.Add("%s", errors.NewUnresolvableType(dest.SimpleName, f.Type).Error())
		return false
	}
	e.movedFields[fieldID] = true

	// whatever the initializer touches travels first
	for _, dep := range e.analyzer.FindFieldDependencies(fieldID, owner, plan.Destination) {
		if dep.Issue != "" {
			e.warn.Add("%s", dep.Issue)
		}
		switch dep.Kind {
		case model.RefField:
			e.migrateField(dep.Field, plan)
		case model.RefMethodCall:
			e.abstractDependent(dep.Method, plan)
		}
	}

	// clone with widened visibility and a type every same-named
	// descendant field fits into
	cloneID := e.model.CloneField(fieldID, plan.Destination)
	clone := e.model.Field(cloneID)
	level := e.vis.ResolveField(fieldID, plan.CrossModule)
	if level != f.Visibility {
		e.warn.Add("visibility of field %q widened from %s to %s", f.Name, f.Visibility, level)
	}
	clone.Visibility = level

	var conflicting []string
	for _, did := range e.nav.DescendantsOf(plan.Destination) {
		if fid := e.model.FieldByName(did, f.Name); fid != model.NoField && fid != fieldID {
			conflicting = append(conflicting, e.model.Field(fid).Type)
		}
	}
	clone.Type = e.unifier.Unify(f.Type, conflicting)
	e.model.MarkModified(plan.Destination)

	// the original goes away, along with every shadow on the way up
	e.model.RemoveField(fieldID)
	for _, mid := range e.nav.PathBetween(owner, plan.Destination) {
		if sfid := e.model.FieldByName(mid, f.Name); sfid != model.NoField {
			e.model.RemoveField(sfid)
			e.warn.Add("removed shadowed field %q from %s", f.Name, e.className(mid))
		}
	}
	return true
}

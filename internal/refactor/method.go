package refactor

import (
	"github.com/standardbeagle/pullup/internal/analysis"
	"github.com/standardbeagle/pullup/internal/conflict"
	"github.com/standardbeagle/pullup/internal/errors"
	"github.com/standardbeagle/pullup/internal/hierarchy"
	"github.com/standardbeagle/pullup/internal/model"
)

// Engine drives one pull-up migration over the model. A fresh Engine
// is built per run; it is not safe for concurrent use and never logs,
// reporting every soft issue through the shared Warnings accumulator.
type Engine struct {
	model    *model.Model
	nav      *hierarchy.Navigator
	analyzer *analysis.Analyzer
	checker  *conflict.Checker
	vis      *VisibilityResolver
	unifier  *TypeUnifier
	rewriter *Rewriter
	warn     *Warnings
	policy   StubPolicy

	abstracted   map[string]model.MethodID
	processed    map[model.MethodID]bool
	movedFields  map[model.FieldID]bool
	pendingEdits map[model.MethodID][]Edit
	scanSet      []model.MethodID
	pendingStubs []stubRequest
	wasAbstract  bool
}

// stubRequest defers stub synthesis for one introduced declaration until
// super-call repair has run. A declaration that picked up a forwarding
// body in the meantime needs no stubs below it.
type stubRequest struct {
	decl model.MethodID
	sig  model.Signature
}

func NewEngine(m *model.Model, nav *hierarchy.Navigator, warn *Warnings, policy StubPolicy) *Engine {
	return &Engine{
		model:        m,
		nav:          nav,
		analyzer:     analysis.New(m, nav),
		checker:      conflict.New(m, nav),
		vis:          NewVisibilityResolver(m, nav),
		unifier:      NewTypeUnifier(m, nav, warn),
		rewriter:     NewRewriter(m, nav),
		warn:         warn,
		policy:       policy,
		abstracted:   make(map[string]model.MethodID),
		processed:    make(map[model.MethodID]bool),
		movedFields:  make(map[model.FieldID]bool),
		pendingEdits: make(map[model.MethodID][]Edit),
	}
}

// Run executes the migration described by plan. Hard-gate failures
// return before any mutation; everything after the gates downgrades to
// warnings on an otherwise successful run.
func (e *Engine) Run(plan *Plan) error {
	origin := e.model.Class(plan.Origin)
	dest := e.model.Class(plan.Destination)
	cand := e.model.Method(plan.Method)
	if origin == nil || dest == nil || cand == nil {
		return errors.NewRefactorError(errors.ErrorTypeInternal, "migration plan references nodes outside the model")
	}
	sig := model.SignatureOf(cand)

	if !e.nav.IsAncestor(plan.Destination, plan.Origin) {
		return errors.NewNotAnAncestor(dest.SimpleName, origin.SimpleName)
	}
	report := e.checker.Check(plan.Method, plan.Destination)
	switch report.Outcome {
	case conflict.SignatureConflict:
		return errors.NewSignatureConflict(dest.SimpleName, sig.String())
	case conflict.OverloadAmbiguity:
		return errors.NewOverloadAmbiguity(dest.SimpleName, sig.String())
	case conflict.Duplicate:
		e.warn.Add("method %s already exists on %s with an identical body; migration skipped", sig, dest.SimpleName)
		return nil
	}
	if !e.analyzer.TypeResolvable(cand.ReturnType, plan.Origin, plan.Destination) {
		return errors.NewUnresolvableType(dest.SimpleName, cand.ReturnType)
	}
	for _, p := range cand.Params {
		if !e.analyzer.TypeResolvable(p.Type, plan.Origin, plan.Destination) {
			return errors.NewUnresolvableType(dest.SimpleName, p.Type)
		}
	}

	e.wasAbstract = dest.IsAbstract

	// step 1: clone and rehome
	cloneID := e.model.CloneMethod(plan.Method, plan.Destination)
	clone := e.model.Method(cloneID)
	if clone.IsAbstract {
		dest.IsAbstract = true
	}
	e.model.MarkModified(plan.Destination)
	e.model.MarkModified(plan.Origin)

	// step 2: one visibility for the clone and every counterpart
	level := e.vis.ResolveMethod(cloneID, plan.Destination, plan.CrossModule)
	e.vis.Apply(cloneID, plan.Destination, level)
	if level != cand.Visibility {
		e.warn.Add("visibility of %s widened from %s to %s", sig, cand.Visibility, level)
	}

	// step 3: return type against sibling and descendant declarations
	originalRet := clone.ReturnType
	if newRet := e.unifier.Unify(originalRet, e.counterpartReturnTypes(plan.Destination, sig)); newRet != originalRet {
		clone.ReturnType = newRet
		e.pendEdits(cloneID, e.rewriter.CollectLocalRetypes(cloneID, originalRet, newRet))
	}

	// step 4: self-reference arguments the new home cannot satisfy
	e.pendEdits(cloneID, e.rewriter.CollectDowncasts(cloneID, plan.Origin, plan.Destination))
	e.scanSet = append(e.scanSet, cloneID)

	// step 5: everything the body touches travels or gets abstracted
	e.processDependencies(plan.Method, plan)

	// step 6: super calls whose target went abstract
	e.repairSuperCalls(plan)
	e.flushEdits()

	// step 7: stubs under declarations that stayed abstract
	for _, req := range e.pendingStubs {
		e.synthesizeStubs(req.decl, req.sig, plan)
	}

	// step 8: drop the abstract marker again if nothing abstract remains
	if !e.wasAbstract && dest.IsAbstract && !e.model.HasAbstractMethod(plan.Destination) {
		dest.IsAbstract = false
	}

	// step 9: the origin loses its declaration
	e.model.RemoveMethod(plan.Method)
	return nil
}

// processDependencies walks a body's classified references. Dependent
// fields are migrated outright; dependent methods are abstracted on
// the destination and recursed into.
func (e *Engine) processDependencies(id model.MethodID, plan *Plan) {
	if e.processed[id] {
		return
	}
	e.processed[id] = true
	m := e.model.Method(id)
	if m == nil {
		return
	}
	for _, f := range e.analyzer.FindDependencies(id, m.Owner, plan.Destination) {
		if f.Issue != "" {
			e.warn.Add("%s", f.Issue)
		}
		switch f.Kind {
		case model.RefField:
			e.migrateField(f.Field, plan)
		case model.RefMethodCall:
			e.abstractDependent(f.Method, plan)
		}
	}
}

// abstractDependent introduces an abstract declaration for a dependent
// method on the destination, keeps the concrete body in place as an
// explicit override, back-fills stubs, and recurses into the
// dependent's own body.
func (e *Engine) abstractDependent(depID model.MethodID, plan *Plan) {
	dep := e.model.Method(depID)
	if dep == nil {
		return
	}
	sig := model.SignatureOf(dep)
	if _, done := e.abstracted[sig.String()]; done {
		e.processDependencies(depID, plan)
		return
	}

	destDecl := e.findDeclared(plan.Destination, sig)
	if destDecl == model.NoMethod {
		destDecl = e.synthesizeAbstract(depID, plan)
	}
	e.abstracted[sig.String()] = destDecl

	level := e.vis.ResolveMethod(depID, plan.Destination, plan.CrossModule)
	e.vis.Apply(destDecl, plan.Destination, level)
	if level != dep.Visibility {
		e.warn.Add("visibility of %s widened from %s to %s", sig, dep.Visibility, level)
	}

	dm := e.model.Method(destDecl)
	if newRet := e.unifier.Unify(dm.ReturnType, e.counterpartReturnTypes(plan.Destination, sig)); newRet != dm.ReturnType {
		dm.ReturnType = newRet
		e.model.MarkModified(dm.Owner)
	}

	e.pendingStubs = append(e.pendingStubs, stubRequest{decl: destDecl, sig: sig})

	e.scanSet = append(e.scanSet, depID)
	e.processDependencies(depID, plan)
}

// synthesizeAbstract clones the dependent onto the destination as a
// bodiless declaration and marks the destination abstract to hold it.
func (e *Engine) synthesizeAbstract(depID model.MethodID, plan *Plan) model.MethodID {
	id := e.model.CloneMethod(depID, plan.Destination)
	decl := e.model.Method(id)
	decl.IsAbstract = true
	decl.HasBody = false
	decl.Body = ""
	decl.Refs = nil
	decl.SuperCalls = nil
	decl.ThisArgs = nil
	decl.LocalVarTypes = nil
	decl.Annotations = removeString(decl.Annotations, overrideMarker)

	dest := e.model.Class(plan.Destination)
	dest.IsAbstract = true
	e.model.MarkModified(plan.Destination)
	return id
}

// synthesizeStubs walks the destination's descendants nearest-first and
// inserts a minimal override wherever a concrete class would otherwise
// inherit the abstract declaration with no body in between. Earlier
// stubs are visible to later checks, so a stub is never duplicated
// below a class that already provides one.
func (e *Engine) synthesizeStubs(destDecl model.MethodID, sig model.Signature, plan *Plan) {
	decl := e.model.Method(destDecl)
	if decl == nil || !decl.IsAbstract {
		return
	}
	for _, did := range e.nav.DescendantsOf(plan.Destination) {
		c := e.model.Class(did)
		if c == nil || c.IsAbstract || c.IsInterface {
			continue
		}
		if e.findDeclared(did, sig) != model.NoMethod {
			continue
		}
		if e.inheritsConcrete(did, sig, plan.Destination) {
			continue
		}
		e.stubOn(did, destDecl, sig)
	}
}

// inheritsConcrete looks upward from class, stopping below destination,
// and reports whether the nearest declaration found carries a body.
func (e *Engine) inheritsConcrete(class model.ClassID, sig model.Signature, destination model.ClassID) bool {
	for _, mid := range e.nav.PathBetween(class, destination) {
		if id := e.findDeclared(mid, sig); id != model.NoMethod {
			return e.model.Method(id).HasBody
		}
	}
	return false
}

func (e *Engine) stubOn(class model.ClassID, destDecl model.MethodID, sig model.Signature) {
	id := e.model.CloneMethod(destDecl, class)
	stub := e.model.Method(id)
	stub.IsAbstract = false
	stub.HasBody = true
	stub.Body = StubBody(stub.ReturnType, e.policy)
	if !hasAnnotation(stub, overrideMarker) {
		stub.Annotations = append(stub.Annotations, overrideMarker)
	}
	e.model.MarkModified(class)
	e.warn.Add("synthesized stub %s on %s", sig, e.className(class))
}

// repairSuperCalls resolves every recorded super call in the moved and
// co-migrated bodies. A call whose nearest target went abstract either
// gets a forwarding body on that declaration or is cut out of the
// caller.
func (e *Engine) repairSuperCalls(plan *Plan) {
	for _, id := range e.scanSet {
		m := e.model.Method(id)
		if m == nil {
			continue
		}
		for _, ref := range m.SuperCalls {
			e.repairOne(id, m, ref)
		}
	}
}

func (e *Engine) repairOne(id model.MethodID, m *model.MethodNode, ref model.SuperCallRef) {
	declID, declOwner := e.nearestDeclAbove(m.Owner, ref.Name, ref.Arity)
	if declID == model.NoMethod {
		e.pendEdits(id, []Edit{e.rewriter.RemovalEdit(ref)})
		e.warn.Add("removed super call to %s() in %s: nothing above declares it", ref.Name, e.className(m.Owner))
		return
	}
	decl := e.model.Method(declID)
	if decl.HasBody {
		return
	}
	if above, _ := e.concreteAbove(declOwner, ref.Name, ref.Arity); above != model.NoMethod {
		decl.Body = ForwardingBody(decl)
		decl.HasBody = true
		decl.IsAbstract = false
		e.model.MarkModified(declOwner)
		e.warn.Add("%s on %s forwards to the implementation above", model.SignatureOf(decl), e.className(declOwner))
		return
	}
	e.pendEdits(id, []Edit{e.rewriter.RemovalEdit(ref)})
	e.warn.Add("removed super call to %s() in %s: no concrete implementation remains above %s",
		ref.Name, e.className(m.Owner), e.className(declOwner))
}

// nearestDeclAbove finds the first declaration of name/arity strictly
// above class.
func (e *Engine) nearestDeclAbove(class model.ClassID, name string, arity int) (model.MethodID, model.ClassID) {
	for _, cid := range e.nav.AncestorsOf(class) {
		for _, mid := range e.model.MethodsByName(cid, name) {
			if len(e.model.Method(mid).Params) == arity {
				return mid, cid
			}
		}
	}
	return model.NoMethod, model.NoClass
}

func (e *Engine) concreteAbove(class model.ClassID, name string, arity int) (model.MethodID, model.ClassID) {
	id, owner := e.nearestDeclAbove(class, name, arity)
	if id != model.NoMethod && e.model.Method(id).HasBody {
		return id, owner
	}
	return model.NoMethod, model.NoClass
}

func (e *Engine) findDeclared(class model.ClassID, sig model.Signature) model.MethodID {
	for _, mid := range e.model.MethodsByName(class, sig.Name) {
		if model.SignatureOf(e.model.Method(mid)).Equal(sig) {
			return mid
		}
	}
	return model.NoMethod
}

func (e *Engine) counterpartReturnTypes(destination model.ClassID, sig model.Signature) []string {
	var out []string
	for _, cid := range e.nav.DescendantsOf(destination) {
		for _, mid := range e.model.MethodsByName(cid, sig.Name) {
			m := e.model.Method(mid)
			if model.SignatureOf(m).Equal(sig) {
				out = append(out, m.ReturnType)
			}
		}
	}
	return out
}

func (e *Engine) pendEdits(id model.MethodID, edits []Edit) {
	if len(edits) == 0 {
		return
	}
	e.pendingEdits[id] = append(e.pendingEdits[id], edits...)
}

func (e *Engine) flushEdits() {
	for _, id := range e.scanSet {
		if edits := e.pendingEdits[id]; len(edits) > 0 {
			e.rewriter.Apply(id, edits)
			delete(e.pendingEdits, id)
		}
	}
}

func (e *Engine) className(id model.ClassID) string {
	if c := e.model.Class(id); c != nil {
		return c.SimpleName
	}
	return "?"
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

package refactor

import (
	"fmt"
	"sort"

	"github.com/standardbeagle/pullup/internal/analysis"
	"github.com/standardbeagle/pullup/internal/conflict"
	"github.com/standardbeagle/pullup/internal/debug"
	"github.com/standardbeagle/pullup/internal/errors"
	"github.com/standardbeagle/pullup/internal/hierarchy"
	"github.com/standardbeagle/pullup/internal/model"
	"github.com/standardbeagle/pullup/internal/suggest"
)

// Options tune a run without changing its semantics.
type Options struct {
	StubPolicy StubPolicy
}

// Orchestrator resolves the caller's names against the model, runs the
// hard gates, and drives the migration engine. One Orchestrator serves
// one parsed model; runs must not overlap.
type Orchestrator struct {
	model *model.Model
	nav   *hierarchy.Navigator
	opts  Options
}

func NewOrchestrator(m *model.Model, opts Options) *Orchestrator {
	return &Orchestrator{model: m, nav: hierarchy.New(m), opts: opts}
}

// Navigator exposes the underlying hierarchy for read-only queries.
func (o *Orchestrator) Navigator() *hierarchy.Navigator { return o.nav }

// PullUpMethod relocates the named method from the origin class to the
// destination ancestor. An empty destination means the direct
// supertype. Among overloads the first declared one is taken; use
// PullUpOverload to pick by parameter types. On success the result
// lists every file that must be rewritten; gate failures return an
// error and leave the model untouched.
func (o *Orchestrator) PullUpMethod(originName, methodName, destName string) (*Result, error) {
	return o.PullUpOverload(originName, methodName, nil, destName)
}

// PullUpOverload is PullUpMethod for a specific overload: non-nil
// paramTypes selects the method whose parameter types match exactly.
func (o *Orchestrator) PullUpOverload(originName, methodName string, paramTypes []string, destName string) (*Result, error) {
	plan, err := o.resolve(originName, methodName, paramTypes, destName)
	if err != nil {
		return nil, err
	}
	cand := o.model.Method(plan.Method)
	sig := model.SignatureOf(cand)
	debug.LogRefactor("pull up %s from %s to %s (cross-module=%v)",
		sig, o.className(plan.Origin), o.className(plan.Destination), plan.CrossModule)

	warn := NewWarnings()
	engine := NewEngine(o.model, o.nav, warn, o.opts.StubPolicy)
	if err := engine.Run(plan); err != nil {
		debug.LogRefactor("aborted: %v", err)
		return nil, err
	}

	files := o.modifiedFiles()
	msg := fmt.Sprintf("pulled up %s from %s to %s", sig, o.qualifiedName(plan.Origin), o.qualifiedName(plan.Destination))
	if len(files) == 0 {
		msg = fmt.Sprintf("%s stayed on %s; nothing to change", sig, o.qualifiedName(plan.Origin))
	}
	debug.LogRefactor("done: %d files touched, %d warnings", len(files), warn.Len())
	return &Result{
		Success:       true,
		Message:       msg,
		ModifiedFiles: files,
		Warnings:      warn.List(),
	}, nil
}

// Check performs a dry run: resolution, conflict gate, and dependency
// analysis, with zero mutation.
func (o *Orchestrator) Check(originName, methodName, destName string) (*PlanReport, error) {
	return o.CheckOverload(originName, methodName, nil, destName)
}

// CheckOverload is Check for a specific overload.
func (o *Orchestrator) CheckOverload(originName, methodName string, paramTypes []string, destName string) (*PlanReport, error) {
	plan, err := o.resolve(originName, methodName, paramTypes, destName)
	if err != nil {
		return nil, err
	}
	cand := o.model.Method(plan.Method)
	report := conflict.New(o.model, o.nav).Check(plan.Method, plan.Destination)

	var findings []PlanFinding
	analyzer := analysis.New(o.model, o.nav)
	for _, f := range analyzer.FindDependencies(plan.Method, plan.Origin, plan.Destination) {
		findings = append(findings, PlanFinding{
			Kind:      f.Kind.String(),
			Name:      f.Name,
			Owner:     o.qualifiedName(f.Owner),
			Ownership: f.Ownership.String(),
			Issue:     f.Issue,
		})
	}
	return &PlanReport{
		Origin:      o.qualifiedName(plan.Origin),
		Method:      model.SignatureOf(cand).String(),
		Destination: o.qualifiedName(plan.Destination),
		Outcome:     report.Outcome.String(),
		Fatal:       report.Outcome.Fatal(),
		CrossModule: plan.CrossModule,
		Findings:    findings,
	}, nil
}

// resolve maps the caller's names to a concrete Plan. Every failure
// carries suggestions when close matches exist.
func (o *Orchestrator) resolve(originName, methodName string, paramTypes []string, destName string) (*Plan, error) {
	origin := o.model.ClassByName(originName)
	if origin == model.NoClass {
		return nil, errors.NewClassNotFound(originName).
			WithSuggestions(suggest.Rank(originName, o.model.ClassNames(), suggest.MaxSuggestions))
	}
	oc := o.model.Class(origin)

	method := o.model.FindMethod(origin, methodName, paramTypes)
	if method == model.NoMethod {
		wanted := methodName
		if paramTypes != nil {
			wanted = model.Signature{Name: methodName, ParamTypes: paramTypes}.String()
		}
		return nil, errors.NewMethodNotFound(oc.SimpleName, wanted).
			WithSuggestions(suggest.Rank(methodName, o.model.MethodNames(origin), suggest.MaxSuggestions))
	}

	var dest model.ClassID
	if destName == "" {
		dest = o.nav.DirectSuper(origin)
		if dest == model.NoClass {
			missing := oc.SuperName
			if missing == "" {
				missing = model.ObjectClassName
			}
			return nil, errors.NewNotAnAncestor(missing, oc.SimpleName)
		}
	} else {
		dest = o.model.ClassByName(destName)
		if dest == model.NoClass {
			return nil, errors.NewClassNotFound(destName).
				WithSuggestions(suggest.Rank(destName, o.model.ClassNames(), suggest.MaxSuggestions))
		}
		if !o.nav.IsAncestor(dest, origin) {
			return nil, errors.NewNotAnAncestor(o.className(dest), oc.SimpleName)
		}
	}

	return &Plan{
		Method:      method,
		Origin:      origin,
		Destination: dest,
		CrossModule: o.crossModule(origin, dest),
	}, nil
}

func (o *Orchestrator) crossModule(a, b model.ClassID) bool {
	ca, cb := o.model.Class(a), o.model.Class(b)
	if ca == nil || cb == nil {
		return false
	}
	return ca.Module != model.NoModule && cb.Module != model.NoModule && ca.Module != cb.Module
}

func (o *Orchestrator) modifiedFiles() []string {
	seen := make(map[string]bool)
	var files []string
	for _, cid := range o.model.ModifiedClasses() {
		c := o.model.Class(cid)
		if c == nil || c.FilePath == "" || seen[c.FilePath] {
			continue
		}
		seen[c.FilePath] = true
		files = append(files, c.FilePath)
	}
	sort.Strings(files)
	return files
}

func (o *Orchestrator) className(id model.ClassID) string {
	if c := o.model.Class(id); c != nil {
		return c.SimpleName
	}
	return "?"
}

func (o *Orchestrator) qualifiedName(id model.ClassID) string {
	if c := o.model.Class(id); c != nil {
		return c.QualifiedName
	}
	return "?"
}

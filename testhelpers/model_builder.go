package testhelpers

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/pullup/internal/model"
)

// ModelBuilder assembles in-memory class models for engine tests without
// touching the parser. Classes are registered in declaration order, so
// simple-name resolution in tests is deterministic.
type ModelBuilder struct {
	classes []*ClassSpec
}

// ClassSpec accumulates one class declaration
type ClassSpec struct {
	builder    *ModelBuilder
	name       string
	superName  string
	public     bool
	abstract   bool
	isIface    bool
	moduleDir  string
	filePath   string
	imports    []string
	interfaces []string
	fields     []model.FieldNode
	methods    []model.MethodNode
}

// NewModelBuilder creates a new model builder
func NewModelBuilder() *ModelBuilder {
	return &ModelBuilder{}
}

// Class starts a class declaration. Name may be simple or qualified.
func (b *ModelBuilder) Class(name string) *ClassSpec {
	spec := &ClassSpec{builder: b, name: name}
	b.classes = append(b.classes, spec)
	return spec
}

// Extends sets the supertype name as written in source
func (cs *ClassSpec) Extends(superName string) *ClassSpec {
	cs.superName = superName
	return cs
}

// Public marks the class public
func (cs *ClassSpec) Public() *ClassSpec {
	cs.public = true
	return cs
}

// Implements adds implemented interface names
func (cs *ClassSpec) Implements(names ...string) *ClassSpec {
	cs.interfaces = append(cs.interfaces, names...)
	return cs
}

// Abstract marks the class abstract
func (cs *ClassSpec) Abstract() *ClassSpec {
	cs.abstract = true
	return cs
}

// Interface marks the declaration as an interface
func (cs *ClassSpec) Interface() *ClassSpec {
	cs.isIface = true
	return cs
}

// InModule places the class's source file under a build module directory
func (cs *ClassSpec) InModule(dir string) *ClassSpec {
	cs.moduleDir = dir
	return cs
}

// InFile overrides the derived source file path
func (cs *ClassSpec) InFile(path string) *ClassSpec {
	cs.filePath = path
	return cs
}

// Imports adds import statements to the class's file
func (cs *ClassSpec) Imports(paths ...string) *ClassSpec {
	cs.imports = append(cs.imports, paths...)
	return cs
}

// WithField adds a field declaration
func (cs *ClassSpec) WithField(name, typeName string, vis model.Visibility) *ClassSpec {
	cs.fields = append(cs.fields, model.FieldNode{
		Name:       name,
		Type:       typeName,
		Visibility: vis,
	})
	return cs
}

// WithFieldInit adds a field declaration with an initializer
func (cs *ClassSpec) WithFieldInit(name, typeName string, vis model.Visibility, init string) *ClassSpec {
	cs.fields = append(cs.fields, model.FieldNode{
		Name:        name,
		Type:        typeName,
		Visibility:  vis,
		Initializer: init,
	})
	return cs
}

// WithMethod adds a finished method spec
func (cs *ClassSpec) WithMethod(spec *MethodSpec) *ClassSpec {
	cs.methods = append(cs.methods, spec.node)
	return cs
}

// MethodSpec accumulates one method declaration
type MethodSpec struct {
	node model.MethodNode
}

// Method starts a method spec with a default public visibility and an
// empty body
func Method(name, returnType string) *MethodSpec {
	return &MethodSpec{node: model.MethodNode{
		Name:       name,
		ReturnType: returnType,
		Visibility: model.VisibilityPublic,
		HasBody:    true,
		Body:       "{\n}",
	}}
}

// Vis sets the visibility level
func (ms *MethodSpec) Vis(v model.Visibility) *MethodSpec {
	ms.node.Visibility = v
	return ms
}

// Param appends a parameter
func (ms *MethodSpec) Param(name, typeName string) *MethodSpec {
	ms.node.Params = append(ms.node.Params, model.Param{Name: name, Type: typeName})
	return ms
}

// Body sets the raw body text including braces
func (ms *MethodSpec) Body(text string) *MethodSpec {
	ms.node.Body = text
	ms.node.HasBody = true
	return ms
}

// Abstract marks the method abstract and drops its body
func (ms *MethodSpec) Abstract() *MethodSpec {
	ms.node.IsAbstract = true
	ms.node.HasBody = false
	ms.node.Body = ""
	return ms
}

// Static marks the method static
func (ms *MethodSpec) Static() *MethodSpec {
	ms.node.IsStatic = true
	return ms
}

// Final marks the method final
func (ms *MethodSpec) Final() *MethodSpec {
	ms.node.IsFinal = true
	return ms
}

// Annotate appends an annotation line
func (ms *MethodSpec) Annotate(text string) *MethodSpec {
	ms.node.Annotations = append(ms.node.Annotations, text)
	return ms
}

// Throws appends thrown exception types
func (ms *MethodSpec) Throws(types ...string) *MethodSpec {
	ms.node.Throws = append(ms.node.Throws, types...)
	return ms
}

// ReadsField records a field reference marker
func (ms *MethodSpec) ReadsField(name string) *MethodSpec {
	ms.node.Refs = append(ms.node.Refs, model.MemberRef{
		Kind:     model.RefField,
		Name:     name,
		Receiver: model.ReceiverImplicit,
	})
	return ms
}

// Calls records a method call marker
func (ms *MethodSpec) Calls(name string, arity int) *MethodSpec {
	ms.node.Refs = append(ms.node.Refs, model.MemberRef{
		Kind:     model.RefMethodCall,
		Name:     name,
		Arity:    arity,
		Receiver: model.ReceiverImplicit,
	})
	return ms
}

// Constructs records a constructor call marker
func (ms *MethodSpec) Constructs(typeName string, arity int) *MethodSpec {
	ms.node.Refs = append(ms.node.Refs, model.MemberRef{
		Kind:     model.RefConstructorCall,
		Name:     typeName,
		Arity:    arity,
		Receiver: model.ReceiverImplicit,
		TypeName: typeName,
	})
	return ms
}

// CallsSuper records both the member reference and the super-call marker.
// Spans must match the body text handed to Body.
func (ms *MethodSpec) CallsSuper(name string, arity int, argsText string, callSpan, stmtSpan model.Span) *MethodSpec {
	ms.node.Refs = append(ms.node.Refs, model.MemberRef{
		Kind:     model.RefMethodCall,
		Name:     name,
		Arity:    arity,
		Receiver: model.ReceiverSuper,
	})
	ms.node.SuperCalls = append(ms.node.SuperCalls, model.SuperCallRef{
		Name:        name,
		Arity:       arity,
		ArgsText:    argsText,
		CallSpan:    callSpan,
		StmtSpan:    stmtSpan,
		IsStatement: true,
	})
	return ms
}

// PassesThis records a this-argument marker. The span must cover the `this`
// token in the body text.
func (ms *MethodSpec) PassesThis(callName string, arity, argIndex int, span model.Span) *MethodSpec {
	ms.node.ThisArgs = append(ms.node.ThisArgs, model.ThisArgRef{
		CallName: callName,
		Arity:    arity,
		ArgIndex: argIndex,
		Span:     span,
	})
	return ms
}

// DeclaresLocal records a local variable type span in the body text
func (ms *MethodSpec) DeclaresLocal(typeName string, span model.Span) *MethodSpec {
	ms.node.LocalVarTypes = append(ms.node.LocalVarTypes, model.TypeSpan{
		TypeName: typeName,
		Span:     span,
	})
	return ms
}

// Build assembles the final model: classes first, then members, then
// supertype linking
func (b *ModelBuilder) Build() *model.Model {
	m := model.NewModel()

	ids := make([]model.ClassID, len(b.classes))
	for i, cs := range b.classes {
		pkg, simple := splitName(cs.name)
		qualified := cs.name
		if pkg == "" {
			qualified = simple
		}
		filePath := cs.filePath
		if filePath == "" {
			filePath = derivePath(cs.moduleDir, pkg, simple)
		}
		moduleID := model.NoModule
		if cs.moduleDir != "" {
			moduleID = m.AddModule(cs.moduleDir, filepath.Join(cs.moduleDir, "pom.xml"))
		}
		ids[i] = m.AddClass(model.ClassNode{
			QualifiedName: qualified,
			SimpleName:    simple,
			Package:       pkg,
			FilePath:      filePath,
			SuperName:     cs.superName,
			Interfaces:    cs.interfaces,
			Imports:       cs.imports,
			IsPublic:      cs.public,
			IsAbstract:    cs.abstract,
			IsInterface:   cs.isIface,
			Module:        moduleID,
		})
	}

	for i, cs := range b.classes {
		for _, f := range cs.fields {
			f.Owner = ids[i]
			m.AddField(f)
		}
		for _, mt := range cs.methods {
			mt.Owner = ids[i]
			m.AddMethod(mt)
		}
	}

	m.LinkSupertypes()
	return m
}

func splitName(name string) (pkg, simple string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func derivePath(moduleDir, pkg, simple string) string {
	parts := []string{"src", "main", "java"}
	if moduleDir != "" {
		parts = append([]string{moduleDir}, parts...)
	}
	if pkg != "" {
		parts = append(parts, strings.Split(pkg, ".")...)
	}
	parts = append(parts, simple+".java")
	return filepath.Join(parts...)
}

package model

import (
	"sort"
	"strings"
)

// ObjectClassName is the universal top type terminating every inheritance chain
const ObjectClassName = "java.lang.Object"

// Node IDs index into the model arenas. 0 is the absent sentinel for all three.
type (
	ClassID  uint32
	MethodID uint32
	FieldID  uint32
	ModuleID uint32
)

const (
	NoClass  ClassID  = 0
	NoMethod MethodID = 0
	NoField  FieldID  = 0
	NoModule ModuleID = 0
)

// Param is one method parameter
type Param struct {
	Name string
	Type string
}

// ClassNode is one class declaration. Relationships are stored as IDs into
// the owning Model, never as pointers, so the graph is cycle-free by
// construction.
type ClassNode struct {
	ID            ClassID
	QualifiedName string
	SimpleName    string
	Package       string
	FilePath      string
	Span          Span
	Super         ClassID // 0 when the supertype is java.lang.Object or outside the model
	SuperName     string  // supertype name as written, "" when none
	Interfaces    []string
	Methods       []MethodID
	Fields        []FieldID
	Imports       []string
	IsPublic      bool
	IsAbstract    bool
	IsInterface   bool
	Module        ModuleID
	Modified      bool
}

// MethodNode is one method declaration with its parse-time body markers
type MethodNode struct {
	ID            MethodID
	Name          string
	Params        []Param
	ReturnType    string // "void" for void methods, "" for constructors
	Visibility    Visibility
	IsAbstract    bool
	IsStatic      bool
	IsFinal       bool
	IsConstructor bool
	HasBody       bool
	Owner         ClassID
	Annotations   []string
	Throws        []string
	Span          Span

	// Body is the raw text between and including the braces. Markers carry
	// body-relative spans and are consumed by the rewriter; they are invalid
	// after the first text edit to Body.
	Body          string
	Refs          []MemberRef
	SuperCalls    []SuperCallRef
	ThisArgs      []ThisArgRef
	LocalVarTypes []TypeSpan
}

// FieldNode is one field declaration
type FieldNode struct {
	ID          FieldID
	Name        string
	Type        string
	Visibility  Visibility
	IsStatic    bool
	IsFinal     bool
	Initializer string
	Owner       ClassID
	Refs        []MemberRef
	Span        Span
}

// ModuleInfo identifies one build module (nearest pom.xml above a source file)
type ModuleInfo struct {
	ID           ModuleID
	Dir          string
	ManifestPath string // "" when no build manifest was found
}

// Model is the arena holding every node of one parsed source tree.
// Index 0 of each arena is an unused sentinel so the zero ID means absent.
type Model struct {
	classes []ClassNode
	methods []MethodNode
	fields  []FieldNode
	modules []ModuleInfo

	byQualified map[string]ClassID
	bySimple    map[string][]ClassID
	moduleByDir map[string]ModuleID

	SourceRoots []string
}

// NewModel creates an empty model
func NewModel() *Model {
	return &Model{
		classes:     make([]ClassNode, 1),
		methods:     make([]MethodNode, 1),
		fields:      make([]FieldNode, 1),
		modules:     make([]ModuleInfo, 1),
		byQualified: make(map[string]ClassID),
		bySimple:    make(map[string][]ClassID),
		moduleByDir: make(map[string]ModuleID),
	}
}

// AddClass registers a class and returns its ID. Supertype linking happens
// in a second pass via LinkSupertypes once every class is registered.
func (m *Model) AddClass(node ClassNode) ClassID {
	id := ClassID(len(m.classes))
	node.ID = id
	m.classes = append(m.classes, node)
	m.byQualified[node.QualifiedName] = id
	m.bySimple[node.SimpleName] = append(m.bySimple[node.SimpleName], id)
	return id
}

// AddMethod registers a method and appends it to its owner's declaration list
func (m *Model) AddMethod(node MethodNode) MethodID {
	id := MethodID(len(m.methods))
	node.ID = id
	m.methods = append(m.methods, node)
	if owner := m.Class(node.Owner); owner != nil {
		owner.Methods = append(owner.Methods, id)
	}
	return id
}

// AddField registers a field and appends it to its owner's declaration list
func (m *Model) AddField(node FieldNode) FieldID {
	id := FieldID(len(m.fields))
	node.ID = id
	m.fields = append(m.fields, node)
	if owner := m.Class(node.Owner); owner != nil {
		owner.Fields = append(owner.Fields, id)
	}
	return id
}

// AddModule registers a build module keyed by its directory
func (m *Model) AddModule(dir, manifestPath string) ModuleID {
	if id, ok := m.moduleByDir[dir]; ok {
		return id
	}
	id := ModuleID(len(m.modules))
	m.modules = append(m.modules, ModuleInfo{ID: id, Dir: dir, ManifestPath: manifestPath})
	m.moduleByDir[dir] = id
	return id
}

// Class returns the node for an ID, nil for the absent sentinel
func (m *Model) Class(id ClassID) *ClassNode {
	if id == NoClass || int(id) >= len(m.classes) {
		return nil
	}
	return &m.classes[id]
}

// Method returns the node for an ID, nil for the absent sentinel
func (m *Model) Method(id MethodID) *MethodNode {
	if id == NoMethod || int(id) >= len(m.methods) {
		return nil
	}
	return &m.methods[id]
}

// Field returns the node for an ID, nil for the absent sentinel
func (m *Model) Field(id FieldID) *FieldNode {
	if id == NoField || int(id) >= len(m.fields) {
		return nil
	}
	return &m.fields[id]
}

// Module returns module info for an ID, nil for the absent sentinel
func (m *Model) Module(id ModuleID) *ModuleInfo {
	if id == NoModule || int(id) >= len(m.modules) {
		return nil
	}
	return &m.modules[id]
}

// ClassCount returns the number of registered classes
func (m *Model) ClassCount() int {
	return len(m.classes) - 1
}

// LinkSupertypes resolves every class's written supertype name to a class ID.
// Names that resolve to nothing (library types, java.lang.Object) stay 0.
func (m *Model) LinkSupertypes() {
	for i := 1; i < len(m.classes); i++ {
		c := &m.classes[i]
		if c.SuperName == "" || c.SuperName == ObjectClassName || c.SuperName == "Object" {
			c.Super = NoClass
			continue
		}
		c.Super = m.resolveName(c.SuperName, c.Package)
	}
}

// ClassByName resolves a simple or qualified class name. Qualified names win;
// simple names resolve to the first registered match, so results are
// deterministic for a given build order.
func (m *Model) ClassByName(name string) ClassID {
	if id, ok := m.byQualified[name]; ok {
		return id
	}
	if ids, ok := m.bySimple[name]; ok && len(ids) > 0 {
		return ids[0]
	}
	return NoClass
}

// resolveName prefers a same-package match for a simple name
func (m *Model) resolveName(name, pkg string) ClassID {
	if id, ok := m.byQualified[name]; ok {
		return id
	}
	ids := m.bySimple[name]
	for _, id := range ids {
		if m.classes[id].Package == pkg {
			return id
		}
	}
	if len(ids) > 0 {
		return ids[0]
	}
	return NoClass
}

// ClassNames returns every registered qualified and simple name, sorted.
// Feed for name suggestions.
func (m *Model) ClassNames() []string {
	seen := make(map[string]struct{}, len(m.byQualified)*2)
	names := make([]string, 0, len(m.byQualified)*2)
	for q := range m.byQualified {
		if _, ok := seen[q]; !ok {
			seen[q] = struct{}{}
			names = append(names, q)
		}
	}
	for s := range m.bySimple {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			names = append(names, s)
		}
	}
	sort.Strings(names)
	return names
}

// MethodNames returns the names of every method declared directly on a class
func (m *Model) MethodNames(classID ClassID) []string {
	c := m.Class(classID)
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Methods))
	for _, id := range c.Methods {
		names = append(names, m.methods[id].Name)
	}
	return names
}

// MethodsByName returns direct declarations of a class matching a name,
// in declaration order
func (m *Model) MethodsByName(classID ClassID, name string) []MethodID {
	c := m.Class(classID)
	if c == nil {
		return nil
	}
	var out []MethodID
	for _, id := range c.Methods {
		if m.methods[id].Name == name {
			out = append(out, id)
		}
	}
	return out
}

// FindMethod resolves a direct declaration by name and, when given, exact
// parameter types. With nil paramTypes the first declaration wins.
func (m *Model) FindMethod(classID ClassID, name string, paramTypes []string) MethodID {
	candidates := m.MethodsByName(classID, name)
	if len(candidates) == 0 {
		return NoMethod
	}
	if paramTypes == nil {
		return candidates[0]
	}
	for _, id := range candidates {
		method := &m.methods[id]
		if len(method.Params) != len(paramTypes) {
			continue
		}
		match := true
		for i, p := range method.Params {
			if p.Type != paramTypes[i] {
				match = false
				break
			}
		}
		if match {
			return id
		}
	}
	return NoMethod
}

// FieldByName returns a class's direct field declaration matching a name
func (m *Model) FieldByName(classID ClassID, name string) FieldID {
	c := m.Class(classID)
	if c == nil {
		return NoField
	}
	for _, id := range c.Fields {
		if m.fields[id].Name == name {
			return id
		}
	}
	return NoField
}

// RemoveMethod detaches a method from its owner. The arena slot survives so
// outstanding IDs stay valid, but the node no longer belongs to any class.
func (m *Model) RemoveMethod(id MethodID) {
	method := m.Method(id)
	if method == nil {
		return
	}
	if owner := m.Class(method.Owner); owner != nil {
		owner.Methods = removeID(owner.Methods, id)
		owner.Modified = true
	}
	method.Owner = NoClass
}

// RemoveField detaches a field from its owner
func (m *Model) RemoveField(id FieldID) {
	field := m.Field(id)
	if field == nil {
		return
	}
	if owner := m.Class(field.Owner); owner != nil {
		owner.Fields = removeID(owner.Fields, id)
		owner.Modified = true
	}
	field.Owner = NoClass
}

// CloneMethod deep-copies a method declaration onto a new owner and returns
// the clone's ID
func (m *Model) CloneMethod(id MethodID, newOwner ClassID) MethodID {
	src := m.Method(id)
	if src == nil {
		return NoMethod
	}
	clone := *src
	clone.Owner = newOwner
	clone.Params = append([]Param(nil), src.Params...)
	clone.Annotations = append([]string(nil), src.Annotations...)
	clone.Throws = append([]string(nil), src.Throws...)
	clone.Refs = append([]MemberRef(nil), src.Refs...)
	clone.SuperCalls = append([]SuperCallRef(nil), src.SuperCalls...)
	clone.ThisArgs = append([]ThisArgRef(nil), src.ThisArgs...)
	clone.LocalVarTypes = append([]TypeSpan(nil), src.LocalVarTypes...)
	return m.AddMethod(clone)
}

// CloneField deep-copies a field declaration onto a new owner
func (m *Model) CloneField(id FieldID, newOwner ClassID) FieldID {
	src := m.Field(id)
	if src == nil {
		return NoField
	}
	clone := *src
	clone.Owner = newOwner
	clone.Refs = append([]MemberRef(nil), src.Refs...)
	return m.AddField(clone)
}

// MarkModified flags a class for re-serialization
func (m *Model) MarkModified(id ClassID) {
	if c := m.Class(id); c != nil {
		c.Modified = true
	}
}

// ModifiedClasses returns every class flagged modified, in ID order
func (m *Model) ModifiedClasses() []ClassID {
	var out []ClassID
	for i := 1; i < len(m.classes); i++ {
		if m.classes[i].Modified {
			out = append(out, ClassID(i))
		}
	}
	return out
}

// AllClasses returns every class ID in registration order
func (m *Model) AllClasses() []ClassID {
	out := make([]ClassID, 0, len(m.classes)-1)
	for i := 1; i < len(m.classes); i++ {
		out = append(out, ClassID(i))
	}
	return out
}

// HasAbstractMethod reports whether any direct declaration is abstract
func (m *Model) HasAbstractMethod(classID ClassID) bool {
	c := m.Class(classID)
	if c == nil {
		return false
	}
	for _, id := range c.Methods {
		if m.methods[id].IsAbstract {
			return true
		}
	}
	return false
}

// IsPrimitive reports whether a Java type name is primitive or void
func IsPrimitive(typeName string) bool {
	switch typeName {
	case "void", "boolean", "byte", "short", "int", "long", "char", "float", "double":
		return true
	}
	return false
}

// IsJavaLang reports whether a type resolves implicitly without an import
func IsJavaLang(typeName string) bool {
	if strings.HasPrefix(typeName, "java.lang.") {
		return true
	}
	switch baseType(typeName) {
	case "Object", "String", "Integer", "Long", "Double", "Float", "Boolean",
		"Byte", "Short", "Character", "Number", "Void", "Math", "System",
		"Thread", "Runnable", "Exception", "RuntimeException", "Error",
		"Throwable", "IllegalArgumentException", "IllegalStateException",
		"UnsupportedOperationException", "NullPointerException",
		"StringBuilder", "StringBuffer", "Comparable", "Iterable", "Class":
		return true
	}
	return false
}

// baseType strips generic arguments and array suffixes from a type name
func baseType(typeName string) string {
	if i := strings.IndexByte(typeName, '<'); i >= 0 {
		typeName = typeName[:i]
	}
	return strings.TrimSuffix(typeName, "[]")
}

// BaseType exposes baseType for collaborators that need the raw class name
func BaseType(typeName string) string {
	return baseType(typeName)
}

func removeID[T comparable](list []T, target T) []T {
	for i, v := range list {
		if v == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

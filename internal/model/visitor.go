package model

// NodeKind tags the heterogeneous node types for uniform traversal
type NodeKind uint8

const (
	KindClass NodeKind = iota
	KindMethod
	KindField
)

// String returns string representation of the node kind
func (k NodeKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	default:
		return "unknown"
	}
}

// Node is implemented by every arena node type
type Node interface {
	NodeKind() NodeKind
}

// NodeKind implements Node
func (c *ClassNode) NodeKind() NodeKind { return KindClass }

// NodeKind implements Node
func (mn *MethodNode) NodeKind() NodeKind { return KindMethod }

// NodeKind implements Node
func (f *FieldNode) NodeKind() NodeKind { return KindField }

// Visitor receives typed callbacks during traversal. VisitClass returning
// false skips the class's members.
type Visitor interface {
	VisitClass(class *ClassNode) bool
	VisitField(field *FieldNode)
	VisitMethod(method *MethodNode)
}

// Walk visits one class and its members in declaration order: fields first,
// then methods, matching Java source layout.
func (m *Model) Walk(id ClassID, v Visitor) {
	class := m.Class(id)
	if class == nil {
		return
	}
	if !v.VisitClass(class) {
		return
	}
	for _, fid := range class.Fields {
		v.VisitField(&m.fields[fid])
	}
	for _, mid := range class.Methods {
		v.VisitMethod(&m.methods[mid])
	}
}

// WalkAll visits every class in registration order
func (m *Model) WalkAll(v Visitor) {
	for i := 1; i < len(m.classes); i++ {
		m.Walk(ClassID(i), v)
	}
}

package model

// Span is a byte range. Spans on class/method/field nodes are absolute file
// offsets; spans inside body markers are relative to the owning body text.
type Span struct {
	Start uint32
	End   uint32
}

// Len returns the span length in bytes
func (s Span) Len() int {
	return int(s.End) - int(s.Start)
}

// RefKind distinguishes the kinds of member references recorded in a body
type RefKind uint8

const (
	RefField RefKind = iota
	RefMethodCall
	RefConstructorCall
)

// String returns string representation of the reference kind
func (k RefKind) String() string {
	switch k {
	case RefField:
		return "field"
	case RefMethodCall:
		return "call"
	case RefConstructorCall:
		return "new"
	default:
		return "unknown"
	}
}

// Receiver classifies what a member reference is accessed through
type Receiver uint8

const (
	ReceiverImplicit Receiver = iota
	ReceiverThis
	ReceiverSuper
	ReceiverOther
)

// MemberRef records one member access or call found in a body or initializer.
// Only implicit/this/super receivers can resolve to hierarchy members; refs
// through other receivers are recorded for completeness and never migrate.
type MemberRef struct {
	Kind     RefKind
	Name     string
	Arity    int      // call references only
	Receiver Receiver
	TypeName string // constructor references: the type being constructed
}

// SuperCallRef marks one explicit super.name(...) call inside a body.
// Spans are relative to the body text.
type SuperCallRef struct {
	Name        string
	Arity       int
	ArgsText    string
	CallSpan    Span // the call expression itself
	StmtSpan    Span // the enclosing statement including terminator
	IsStatement bool // call is a standalone expression statement
}

// ThisArgRef marks a bare `this` passed as a call argument.
// Span covers the `this` token, relative to the body text.
type ThisArgRef struct {
	CallName string
	Arity    int
	ArgIndex int
	Span     Span
}

// TypeSpan marks a local variable declaration's type name inside a body,
// relative to the body text. Used when a unified return type must also
// rewrite locals declared with the original type.
type TypeSpan struct {
	TypeName string
	Span     Span
}

package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pullup/internal/model"
)

// bodyMarkers is everything one body walk records. Spans are relative
// to the body text so they survive the node being re-owned.
type bodyMarkers struct {
	refs          []model.MemberRef
	superCalls    []model.SuperCallRef
	thisArgs      []model.ThisArgRef
	localVarTypes []model.TypeSpan
}

// walkBody scans a method body (or field initializer) for member
// references. Names declared inside the body never count as members:
// the walk first collects every local declaration, then records the
// remaining identifier uses.
//
// Locals are tracked as one flat set rather than lexical scopes. A
// body that shadows a field with a later local therefore hides the
// field reference; qualified `this.name` accesses are still seen.
func walkBody(body *tree_sitter.Node, content []byte, params []model.Param) bodyMarkers {
	w := &bodyWalker{
		content: content,
		base:    uint32(body.StartByte()),
		locals:  make(map[string]bool, len(params)+8),
	}
	for _, p := range params {
		w.locals[p.Name] = true
	}
	w.collectLocals(body)
	w.visit(body)
	return w.markers
}

type bodyWalker struct {
	content []byte
	base    uint32
	locals  map[string]bool
	markers bodyMarkers
}

// collectLocals gathers every name the body declares: local variables,
// enhanced-for variables, catch parameters, lambda parameters, and
// instanceof pattern bindings.
func (w *bodyWalker) collectLocals(node *tree_sitter.Node) {
	switch node.Kind() {
	case "local_variable_declaration":
		childCount := node.ChildCount()
		for i := uint(0); i < childCount; i++ {
			child := node.Child(i)
			if child.Kind() != "variable_declarator" {
				continue
			}
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				w.locals[text(nameNode, w.content)] = true
			}
		}
	case "enhanced_for_statement", "catch_formal_parameter", "formal_parameter", "record_pattern_component":
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			w.locals[text(nameNode, w.content)] = true
		}
	case "instanceof_expression":
		// `x instanceof Foo f` binds f
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			w.locals[text(nameNode, w.content)] = true
		}
	case "lambda_expression":
		w.lambdaParams(node)
	}
	childCount := node.ChildCount()
	for i := uint(0); i < childCount; i++ {
		w.collectLocals(node.Child(i))
	}
}

// lambdaParams registers a lambda's parameter names. The parameters
// field is a bare identifier, an inferred list, or full formal
// parameters; formal_parameter names are caught by collectLocals.
func (w *bodyWalker) lambdaParams(node *tree_sitter.Node) {
	paramsNode := node.ChildByFieldName("parameters")
	if paramsNode == nil {
		return
	}
	switch paramsNode.Kind() {
	case "identifier":
		w.locals[text(paramsNode, w.content)] = true
	case "inferred_parameters":
		childCount := paramsNode.ChildCount()
		for i := uint(0); i < childCount; i++ {
			child := paramsNode.Child(i)
			if child.Kind() == "identifier" {
				w.locals[text(child, w.content)] = true
			}
		}
	}
}

// visit records member references in evaluation order.
func (w *bodyWalker) visit(node *tree_sitter.Node) {
	switch node.Kind() {
	case "method_invocation":
		w.methodInvocation(node)
	case "field_access":
		w.fieldAccess(node)
	case "object_creation_expression":
		w.objectCreation(node)
	case "local_variable_declaration":
		w.localVarType(node)
	case "identifier":
		w.bareIdentifier(node)
	case "argument_list":
		w.thisArguments(node)
	case "marker_annotation", "annotation":
		// annotation names are not member references
		return
	}
	childCount := node.ChildCount()
	for i := uint(0); i < childCount; i++ {
		w.visit(node.Child(i))
	}
}

func (w *bodyWalker) methodInvocation(node *tree_sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := text(nameNode, w.content)
	argsNode := node.ChildByFieldName("arguments")
	arity := argumentCount(argsNode)

	receiver := model.ReceiverImplicit
	if objNode := node.ChildByFieldName("object"); objNode != nil {
		switch objNode.Kind() {
		case "this":
			receiver = model.ReceiverThis
		case "super":
			receiver = model.ReceiverSuper
		default:
			receiver = model.ReceiverOther
		}
	}

	w.markers.refs = append(w.markers.refs, model.MemberRef{
		Kind:     model.RefMethodCall,
		Name:     name,
		Arity:    arity,
		Receiver: receiver,
	})

	if receiver == model.ReceiverSuper {
		w.superCall(node, name, arity, argsNode)
	}
}

// superCall records the spans the rewriter needs to excise or replace
// one super.name(...) call.
func (w *bodyWalker) superCall(node *tree_sitter.Node, name string, arity int, argsNode *tree_sitter.Node) {
	ref := model.SuperCallRef{
		Name:     name,
		Arity:    arity,
		CallSpan: w.rel(node),
	}
	if argsNode != nil {
		argsText := text(argsNode, w.content)
		// strip the surrounding parens
		if len(argsText) >= 2 {
			ref.ArgsText = argsText[1 : len(argsText)-1]
		}
	}
	if parent := node.Parent(); parent != nil && parent.Kind() == "expression_statement" {
		ref.IsStatement = true
		ref.StmtSpan = w.rel(parent)
	} else {
		ref.StmtSpan = ref.CallSpan
	}
	w.markers.superCalls = append(w.markers.superCalls, ref)
}

func (w *bodyWalker) fieldAccess(node *tree_sitter.Node) {
	fieldNode := node.ChildByFieldName("field")
	objNode := node.ChildByFieldName("object")
	if fieldNode == nil || objNode == nil {
		return
	}
	if fieldNode.Kind() != "identifier" {
		// Foo.this qualifiers
		return
	}
	receiver := model.ReceiverOther
	switch objNode.Kind() {
	case "this":
		receiver = model.ReceiverThis
	case "super":
		receiver = model.ReceiverSuper
	}
	w.markers.refs = append(w.markers.refs, model.MemberRef{
		Kind:     model.RefField,
		Name:     text(fieldNode, w.content),
		Receiver: receiver,
	})
}

func (w *bodyWalker) objectCreation(node *tree_sitter.Node) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	w.markers.refs = append(w.markers.refs, model.MemberRef{
		Kind:     model.RefConstructorCall,
		Name:     text(typeNode, w.content),
		Arity:    argumentCount(node.ChildByFieldName("arguments")),
		Receiver: model.ReceiverImplicit,
		TypeName: text(typeNode, w.content),
	})
}

func (w *bodyWalker) localVarType(node *tree_sitter.Node) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	w.markers.localVarTypes = append(w.markers.localVarTypes, model.TypeSpan{
		TypeName: text(typeNode, w.content),
		Span:     w.rel(typeNode),
	})
}

// bareIdentifier records an unqualified name in value position as an
// implicit field reference. Names that are locals, declaration sites,
// or the member half of a qualified access are skipped; names that
// turn out not to be fields resolve to nothing downstream and fall
// away there.
func (w *bodyWalker) bareIdentifier(node *tree_sitter.Node) {
	name := text(node, w.content)
	if w.locals[name] {
		return
	}
	parent := node.Parent()
	if parent == nil {
		return
	}
	switch parent.Kind() {
	case "variable_declarator", "labeled_statement", "break_statement", "continue_statement":
		return
	case "method_invocation":
		// the name field is the call itself; an identifier in object
		// position is a value read and stays
		if nameNode := parent.ChildByFieldName("name"); nameNode != nil && sameNode(nameNode, node) {
			return
		}
	case "field_access":
		if fieldNode := parent.ChildByFieldName("field"); fieldNode != nil && sameNode(fieldNode, node) {
			return
		}
	case "method_reference":
		return
	}
	w.markers.refs = append(w.markers.refs, model.MemberRef{
		Kind:     model.RefField,
		Name:     name,
		Receiver: model.ReceiverImplicit,
	})
}

// thisArguments records bare `this` passed directly as an argument.
func (w *bodyWalker) thisArguments(node *tree_sitter.Node) {
	parent := node.Parent()
	if parent == nil || parent.Kind() != "method_invocation" {
		return
	}
	nameNode := parent.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	callName := text(nameNode, w.content)
	arity := argumentCount(node)

	argIndex := -1
	childCount := node.ChildCount()
	for i := uint(0); i < childCount; i++ {
		child := node.Child(i)
		if !child.IsNamed() || isComment(child) {
			continue
		}
		argIndex++
		if child.Kind() == "this" {
			w.markers.thisArgs = append(w.markers.thisArgs, model.ThisArgRef{
				CallName: callName,
				Arity:    arity,
				ArgIndex: argIndex,
				Span:     w.rel(child),
			})
		}
	}
}

// argumentCount counts named children of an argument_list. Comments
// are extras and can land anywhere, so they never count.
func argumentCount(node *tree_sitter.Node) int {
	if node == nil {
		return 0
	}
	count := 0
	childCount := node.ChildCount()
	for i := uint(0); i < childCount; i++ {
		child := node.Child(i)
		if child.IsNamed() && !isComment(child) {
			count++
		}
	}
	return count
}

func isComment(node *tree_sitter.Node) bool {
	kind := node.Kind()
	return kind == "line_comment" || kind == "block_comment"
}

func (w *bodyWalker) rel(node *tree_sitter.Node) model.Span {
	return model.Span{
		Start: uint32(node.StartByte()) - w.base,
		End:   uint32(node.EndByte()) - w.base,
	}
}

func sameNode(a, b *tree_sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

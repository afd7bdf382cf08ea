// Package parser builds the source model from Java files using
// tree-sitter. Each worker owns one parser; extraction runs a
// declaration query per file and a marker walk per method body.
package parser

import (
	"fmt"
	"os"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/standardbeagle/pullup/internal/debug"
	"github.com/standardbeagle/pullup/internal/errors"
	"github.com/standardbeagle/pullup/internal/model"
)

// declQuery locates every type declaration in a compilation unit. Member
// extraction walks the captured class bodies directly; the query only has
// to find the containers.
const declQuery = `
        (class_declaration name: (identifier) @class.name) @class
        (interface_declaration name: (identifier) @interface.name) @interface
        (enum_declaration name: (identifier) @enum.name) @enum
        (import_declaration) @import
        (package_declaration) @package
    `

// JavaFile is the parse result for one compilation unit.
type JavaFile struct {
	Path    string
	Package string
	Imports []string
	Classes []ClassDecl
}

// ClassDecl is one type declaration before model assembly.
type ClassDecl struct {
	Name        string
	SuperName   string
	Interfaces  []string
	IsPublic    bool
	IsAbstract  bool
	IsInterface bool
	Span        model.Span
	Methods     []MethodDecl
	Fields      []FieldDecl
}

// MethodDecl mirrors model.MethodNode minus arena IDs.
type MethodDecl struct {
	Name          string
	Params        []model.Param
	ReturnType    string
	Visibility    model.Visibility
	IsAbstract    bool
	IsStatic      bool
	IsFinal       bool
	IsConstructor bool
	HasBody       bool
	Annotations   []string
	Throws        []string
	Span          model.Span
	Body          string
	Refs          []model.MemberRef
	SuperCalls    []model.SuperCallRef
	ThisArgs      []model.ThisArgRef
	LocalVarTypes []model.TypeSpan
}

// FieldDecl mirrors model.FieldNode minus arena IDs.
type FieldDecl struct {
	Name        string
	Type        string
	Visibility  model.Visibility
	IsStatic    bool
	IsFinal     bool
	Initializer string
	Refs        []model.MemberRef
	Span        model.Span
}

// Parser wraps one tree-sitter parser configured for Java. Not safe for
// concurrent use; the builder creates one per worker.
type Parser struct {
	parser   *tree_sitter.Parser
	language *tree_sitter.Language
	query    *tree_sitter.Query
}

// New creates a Java parser. The grammar is linked in, so failure means
// a broken build rather than a recoverable condition.
func New() (*Parser, error) {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_java.Language())
	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("setting java grammar: %w", err)
	}
	query, qerr := tree_sitter.NewQuery(language, declQuery)
	if qerr != nil {
		return nil, fmt.Errorf("compiling declaration query: %w", qerr)
	}
	return &Parser{parser: parser, language: language, query: query}, nil
}

// Close releases the underlying tree-sitter resources.
func (p *Parser) Close() {
	if p.query != nil {
		p.query.Close()
	}
	if p.parser != nil {
		p.parser.Close()
	}
}

// ParseFile reads and parses one Java file.
func (p *Parser) ParseFile(path string) (*JavaFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileError(errors.ErrorTypeParse, "read", path, err)
	}
	return p.ParseSource(path, content)
}

// ParseSource parses Java source text into a JavaFile.
func (p *Parser) ParseSource(path string, content []byte) (*JavaFile, error) {
	tree := p.parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.NewParseError(path, 0, 0, fmt.Errorf("parser returned no tree"))
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, col := firstErrorPosition(root)
		debug.LogParse("syntax errors in %s at %d:%d, extracting what parses", path, line, col)
	}

	file := &JavaFile{Path: path}

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()
	queryMatches := qc.Matches(p.query, root, content)
	captureNames := p.query.CaptureNames()

	for {
		match := queryMatches.Next()
		if match == nil {
			break
		}
		for _, c := range match.Captures {
			name := captureNames[c.Index]
			node := c.Node
			switch name {
			case "package":
				file.Package = packageName(&node, content)
			case "import":
				if imp := importName(&node, content); imp != "" {
					file.Imports = append(file.Imports, imp)
				}
			case "class", "interface", "enum":
				// Nested types are reachable from the query too; only
				// compilation-unit members become model classes.
				if !isTopLevel(&node) {
					continue
				}
				file.Classes = append(file.Classes, p.extractClass(&node, content, name == "interface"))
			}
		}
	}
	return file, nil
}

// extractClass pulls one type declaration apart into a ClassDecl.
func (p *Parser) extractClass(node *tree_sitter.Node, content []byte, isInterface bool) ClassDecl {
	decl := ClassDecl{
		IsInterface: isInterface,
		Span:        spanOf(node),
	}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		decl.Name = text(nameNode, content)
	}
	mods := modifierWords(node, content)
	decl.IsPublic = contains(mods, "public")
	decl.IsAbstract = contains(mods, "abstract") || isInterface

	if superNode := node.ChildByFieldName("superclass"); superNode != nil {
		// superclass is the `extends T` clause; the type is its last child
		childCount := superNode.ChildCount()
		for i := uint(0); i < childCount; i++ {
			child := superNode.Child(i)
			if child.IsNamed() {
				decl.SuperName = text(child, content)
			}
		}
	}
	if ifaceNode := node.ChildByFieldName("interfaces"); ifaceNode != nil {
		decl.Interfaces = typeList(ifaceNode, content)
	}
	if isInterface {
		// interface_declaration puts `extends A, B` in extends_interfaces
		childCount := node.ChildCount()
		for i := uint(0); i < childCount; i++ {
			child := node.Child(i)
			if child.Kind() == "extends_interfaces" {
				decl.Interfaces = append(decl.Interfaces, typeList(child, content)...)
			}
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return decl
	}
	p.extractMembers(body, content, isInterface, &decl)
	return decl
}

// extractMembers reads the members of a class, interface, or enum body.
// Enum bodies nest their members behind an enum_body_declarations node;
// interface constants parse as constant_declaration.
func (p *Parser) extractMembers(body *tree_sitter.Node, content []byte, isInterface bool, decl *ClassDecl) {
	bodyCount := body.ChildCount()
	for i := uint(0); i < bodyCount; i++ {
		member := body.Child(i)
		switch member.Kind() {
		case "method_declaration":
			decl.Methods = append(decl.Methods, p.extractMethod(member, content, isInterface, false))
		case "constructor_declaration":
			decl.Methods = append(decl.Methods, p.extractMethod(member, content, isInterface, true))
		case "field_declaration", "constant_declaration":
			decl.Fields = append(decl.Fields, extractFields(member, content, isInterface)...)
		case "enum_body_declarations":
			p.extractMembers(member, content, isInterface, decl)
		}
	}
}

// extractMethod reads one method or constructor declaration.
func (p *Parser) extractMethod(node *tree_sitter.Node, content []byte, inInterface, isConstructor bool) MethodDecl {
	decl := MethodDecl{
		IsConstructor: isConstructor,
		Span:          spanOf(node),
	}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		decl.Name = text(nameNode, content)
	}
	if !isConstructor {
		if typeNode := node.ChildByFieldName("type"); typeNode != nil {
			decl.ReturnType = text(typeNode, content)
		}
	}

	mods := modifierWords(node, content)
	decl.Annotations = annotations(node, content)
	decl.Visibility = model.ParseVisibility(mods)
	decl.IsStatic = contains(mods, "static")
	decl.IsFinal = contains(mods, "final")

	if paramsNode := node.ChildByFieldName("parameters"); paramsNode != nil {
		decl.Params = parameters(paramsNode, content)
	}
	decl.Throws = throwsList(node, content)

	bodyNode := node.ChildByFieldName("body")
	decl.HasBody = bodyNode != nil
	decl.IsAbstract = contains(mods, "abstract") || (inInterface && bodyNode == nil && !contains(mods, "default") && !contains(mods, "static"))
	if inInterface && decl.Visibility == model.VisibilityPackage && !contains(mods, "private") {
		// interface members are implicitly public
		decl.Visibility = model.VisibilityPublic
	}

	if bodyNode != nil {
		decl.Body = text(bodyNode, content)
		markers := walkBody(bodyNode, content, decl.Params)
		decl.Refs = markers.refs
		decl.SuperCalls = markers.superCalls
		decl.ThisArgs = markers.thisArgs
		decl.LocalVarTypes = markers.localVarTypes
	}
	return decl
}

// extractFields reads one field_declaration. Java allows several
// declarators per statement; each becomes its own FieldDecl.
func extractFields(node *tree_sitter.Node, content []byte, inInterface bool) []FieldDecl {
	mods := modifierWords(node, content)
	vis := model.ParseVisibility(mods)
	isStatic := contains(mods, "static")
	isFinal := contains(mods, "final")
	if inInterface {
		// interface constants are implicitly public static final
		vis = model.VisibilityPublic
		isStatic = true
		isFinal = true
	}

	var typeText string
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		typeText = text(typeNode, content)
	}

	var out []FieldDecl
	childCount := node.ChildCount()
	for i := uint(0); i < childCount; i++ {
		child := node.Child(i)
		if child.Kind() != "variable_declarator" {
			continue
		}
		field := FieldDecl{
			Type:       typeText,
			Visibility: vis,
			IsStatic:   isStatic,
			IsFinal:    isFinal,
			Span:       spanOf(node),
		}
		if nameNode := child.ChildByFieldName("name"); nameNode != nil {
			field.Name = text(nameNode, content)
		}
		if valueNode := child.ChildByFieldName("value"); valueNode != nil {
			field.Initializer = text(valueNode, content)
			markers := walkBody(valueNode, content, nil)
			field.Refs = markers.refs
		}
		out = append(out, field)
	}
	return out
}

// packageName extracts the dotted name from a package_declaration.
func packageName(node *tree_sitter.Node, content []byte) string {
	childCount := node.ChildCount()
	for i := uint(0); i < childCount; i++ {
		child := node.Child(i)
		if child.Kind() == "scoped_identifier" || child.Kind() == "identifier" {
			return text(child, content)
		}
	}
	return ""
}

// importName extracts the imported name, keeping a trailing .* for
// wildcard imports and a "static " prefix for static ones.
func importName(node *tree_sitter.Node, content []byte) string {
	var name string
	isStatic := false
	wildcard := false
	childCount := node.ChildCount()
	for i := uint(0); i < childCount; i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "scoped_identifier", "identifier":
			name = text(child, content)
		case "static":
			isStatic = true
		case "asterisk":
			wildcard = true
		}
	}
	if name == "" {
		return ""
	}
	if wildcard {
		name += ".*"
	}
	if isStatic {
		name = "static " + name
	}
	return name
}

// parameters reads formal_parameters into ordered name/type pairs.
func parameters(node *tree_sitter.Node, content []byte) []model.Param {
	var out []model.Param
	childCount := node.ChildCount()
	for i := uint(0); i < childCount; i++ {
		child := node.Child(i)
		kind := child.Kind()
		if kind != "formal_parameter" && kind != "spread_parameter" {
			continue
		}
		var param model.Param
		if kind == "spread_parameter" {
			// spread_parameter exposes no fields: the type is the first
			// named non-modifier child, the declarator carries the name.
			inner := child.ChildCount()
			for j := uint(0); j < inner; j++ {
				sub := child.Child(j)
				if !sub.IsNamed() || sub.Kind() == "modifiers" {
					continue
				}
				if sub.Kind() == "variable_declarator" {
					if nameNode := sub.ChildByFieldName("name"); nameNode != nil {
						param.Name = text(nameNode, content)
					}
				} else if param.Type == "" {
					param.Type = text(sub, content) + "..."
				}
			}
		} else {
			if typeNode := child.ChildByFieldName("type"); typeNode != nil {
				param.Type = text(typeNode, content)
			}
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				param.Name = text(nameNode, content)
			}
		}
		out = append(out, param)
	}
	return out
}

// throwsList reads the `throws A, B` clause when present.
func throwsList(node *tree_sitter.Node, content []byte) []string {
	childCount := node.ChildCount()
	for i := uint(0); i < childCount; i++ {
		child := node.Child(i)
		if child.Kind() != "throws" {
			continue
		}
		var out []string
		inner := child.ChildCount()
		for j := uint(0); j < inner; j++ {
			sub := child.Child(j)
			if sub.IsNamed() {
				out = append(out, text(sub, content))
			}
		}
		return out
	}
	return nil
}

// modifierWords returns the keyword modifiers of a declaration,
// annotations excluded.
func modifierWords(node *tree_sitter.Node, content []byte) []string {
	childCount := node.ChildCount()
	for i := uint(0); i < childCount; i++ {
		child := node.Child(i)
		if child.Kind() != "modifiers" {
			continue
		}
		var words []string
		inner := child.ChildCount()
		for j := uint(0); j < inner; j++ {
			sub := child.Child(j)
			kind := sub.Kind()
			if kind == "marker_annotation" || kind == "annotation" {
				continue
			}
			words = append(words, text(sub, content))
		}
		return words
	}
	return nil
}

// annotations returns annotation texts from a declaration's modifiers,
// at-sign included.
func annotations(node *tree_sitter.Node, content []byte) []string {
	childCount := node.ChildCount()
	for i := uint(0); i < childCount; i++ {
		child := node.Child(i)
		if child.Kind() != "modifiers" {
			continue
		}
		var out []string
		inner := child.ChildCount()
		for j := uint(0); j < inner; j++ {
			sub := child.Child(j)
			kind := sub.Kind()
			if kind == "marker_annotation" || kind == "annotation" {
				out = append(out, text(sub, content))
			}
		}
		return out
	}
	return nil
}

// typeList flattens a super_interfaces or extends_interfaces clause.
func typeList(node *tree_sitter.Node, content []byte) []string {
	var out []string
	childCount := node.ChildCount()
	for i := uint(0); i < childCount; i++ {
		child := node.Child(i)
		if child.Kind() == "type_list" {
			inner := child.ChildCount()
			for j := uint(0); j < inner; j++ {
				sub := child.Child(j)
				if sub.IsNamed() {
					out = append(out, text(sub, content))
				}
			}
		}
	}
	return out
}

// isTopLevel reports whether a declaration sits directly under the
// compilation unit.
func isTopLevel(node *tree_sitter.Node) bool {
	parent := node.Parent()
	return parent == nil || parent.Kind() == "program"
}

// firstErrorPosition finds the first ERROR node for diagnostics.
func firstErrorPosition(node *tree_sitter.Node) (int, int) {
	if node.IsError() {
		pos := node.StartPosition()
		return int(pos.Row) + 1, int(pos.Column) + 1
	}
	childCount := node.ChildCount()
	for i := uint(0); i < childCount; i++ {
		if child := node.Child(i); child.HasError() {
			return firstErrorPosition(child)
		}
	}
	pos := node.StartPosition()
	return int(pos.Row) + 1, int(pos.Column) + 1
}

func spanOf(node *tree_sitter.Node) model.Span {
	return model.Span{Start: uint32(node.StartByte()), End: uint32(node.EndByte())}
}

func text(node *tree_sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}

func contains(words []string, want string) bool {
	return strings.Contains(" "+strings.Join(words, " ")+" ", " "+want+" ")
}

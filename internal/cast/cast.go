// Package cast is the classifier/traversal boundary described in spec.md
// §6: it is the only package in this module that imports the C tree-sitter
// grammar. The builder (internal/cfgbuild) never sees a *sitter.Node; it
// only ever sees the small Node interface below, matching the "external
// facility produces an AST... the core consumes AST nodes only through the
// classifier/traversal interface" requirement.
//
// Grounded on hargabyte-cortex's internal/parser/c.go (tree-sitter C grammar
// setup, node-type-to-semantic-type mapping idiom) and internal/extract's
// declarator-name-extraction helpers.
package cast

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// Class is the classifier's view of a statement/expression kind, matching
// spec.md §6's "Recognized statement classes".
type Class int

const (
	ClassOther Class = iota
	ClassFuncDef
	ClassCompound
	ClassIf
	ClassWhile
	ClassCall
)

// Node is the minimal AST surface the builder needs. It is implemented by
// *astNode (tree-sitter backed); tests may supply their own implementation.
type Node interface {
	Class() Class
	Line() int
	// Name is the function name for a FuncDef or the callee identifier for
	// a Call (empty if the call target is not a plain identifier, e.g. a
	// function pointer or field expression — left unresolved per spec.md §7).
	Name() string
	// Body is the FuncDef's compound statement.
	Body() Node
	// Cond is the If/While condition.
	Cond() Node
	// Then/Else are the If branches; either may be nil.
	Then() Node
	Else() Node
	// Stmt is the While body; may be nil for an empty loop.
	Stmt() Node
	// Children iterates this node's direct children in source order, used
	// for Compound block items and the generic pre-order descent.
	Children() []Node
}

// astNode adapts a tree-sitter *sitter.Node to the Node interface.
type astNode struct {
	n      *sitter.Node
	source []byte
}

// wrap adapts n, looking through two tree-sitter wrappers the builder has no
// use for: an else_clause stands for the statement it holds, and an
// expression_statement holding one expression stands for that expression,
// so a bare "a();" reaches the builder as a call.
func wrap(n *sitter.Node, source []byte) Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "else_clause", "expression_statement":
		if n.NamedChildCount() == 1 {
			n = n.NamedChild(0)
		}
	}
	return &astNode{n: n, source: source}
}

func (a *astNode) Class() Class {
	switch a.n.Type() {
	case "function_definition":
		return ClassFuncDef
	case "compound_statement":
		return ClassCompound
	case "if_statement":
		return ClassIf
	case "while_statement":
		return ClassWhile
	case "call_expression":
		return ClassCall
	default:
		return ClassOther
	}
}

func (a *astNode) Line() int {
	return int(a.n.StartPoint().Row) + 1
}

func (a *astNode) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	end := n.EndByte()
	if end > uint32(len(a.source)) {
		return ""
	}
	return n.Content(a.source)
}

func (a *astNode) Name() string {
	switch a.n.Type() {
	case "function_definition":
		declarator := a.n.ChildByFieldName("declarator")
		return a.declaratorName(declarator)
	case "call_expression":
		fn := a.n.ChildByFieldName("function")
		if fn == nil && a.n.ChildCount() > 0 {
			fn = a.n.Child(0)
		}
		if fn != nil && fn.Type() == "identifier" {
			return a.text(fn)
		}
		return ""
	default:
		return ""
	}
}

// declaratorName descends through pointer_declarator wrappers to find the
// direct identifier child, matching the builder's need for only the plain
// function name (spec.md's Non-goals exclude pointer-indirect calls, so
// there is no need to model function-pointer-typed declarators further).
func (a *astNode) declaratorName(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	for i := uint32(0); i < n.ChildCount(); i++ {
		child := n.Child(int(i))
		switch child.Type() {
		case "identifier":
			return a.text(child)
		case "pointer_declarator", "function_declarator":
			if name := a.declaratorName(child); name != "" {
				return name
			}
		}
	}
	return ""
}

func (a *astNode) Body() Node {
	if a.n.Type() != "function_definition" {
		return nil
	}
	return wrap(a.n.ChildByFieldName("body"), a.source)
}

func (a *astNode) Cond() Node {
	return wrap(a.n.ChildByFieldName("condition"), a.source)
}

func (a *astNode) Then() Node {
	if a.n.Type() != "if_statement" {
		return nil
	}
	return wrap(a.n.ChildByFieldName("consequence"), a.source)
}

func (a *astNode) Else() Node {
	if a.n.Type() != "if_statement" {
		return nil
	}
	return wrap(a.n.ChildByFieldName("alternative"), a.source)
}

func (a *astNode) Stmt() Node {
	if a.n.Type() != "while_statement" {
		return nil
	}
	return wrap(a.n.ChildByFieldName("body"), a.source)
}

func (a *astNode) Children() []Node {
	count := int(a.n.ChildCount())
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		child := a.n.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		out = append(out, wrap(child, a.source))
	}
	return out
}

// File is a parsed translation unit: the root node plus the function
// definitions found at top level, in parse order (spec.md §3: "Functions
// are kept in parse order").
type File struct {
	Root      Node
	Functions []Node
}

// Parse runs the tree-sitter C grammar over source and returns the
// translation unit, discovering top-level function definitions in source
// order.
func Parse(source []byte) (*File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, err
	}

	root := tree.RootNode()
	rootNode := wrap(root, source)

	var funcs []Node
	count := int(root.ChildCount())
	for i := 0; i < count; i++ {
		child := root.Child(i)
		if child != nil && child.Type() == "function_definition" {
			funcs = append(funcs, wrap(child, source))
		}
	}

	return &File{Root: rootNode, Functions: funcs}, nil
}

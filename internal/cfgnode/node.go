package cfgnode

// Handle addresses a Node within a Graph's arena. Handles start at 0, so the
// zero value addresses the first node allocated; use InvalidHandle for "no
// node".
type Handle int

// InvalidHandle is the sentinel for an absent node reference.
const InvalidHandle Handle = -1

// ASTElement is the minimal surface cfgnode needs from whatever AST
// representation the front end uses, so that this package never imports the
// AST/classifier packages (see spec.md §6's external-boundary requirement:
// the core treats the AST only through the elements it was handed).
type ASTElement interface {
	// Line returns the 1-based source line this element starts at.
	Line() int
}

type refKind int

const (
	refNone refKind = iota
	refLoop
	refCallee
)

// ref is the dual-semantics back-reference described in spec.md §3/§9: for a
// PSEUDO node it points at the loop's WHILE condition node (refLoop); for a
// CALL node it points at the called function's entry (refCallee, by index
// into the owning Graph's entry list so it survives across functions).
type ref struct {
	kind   refKind
	loop   Handle
	callee int // index into Graph.entries
}

// Node is the flat tagged-variant CFG node record (spec.md §3). All kind-
// specific behavior switches on Kind rather than through subtyping, per the
// "tagged variants instead of a class hierarchy" design note.
type Node struct {
	Kind           Kind
	FuncOwner      string
	StartLine      int
	LastLine       int
	CallTargetName string // only meaningful for Call

	LoopIters int // only meaningful for While
	WCEC      int
	RWCEC     int

	Children []Handle

	els []ASTElement

	refTo ref
}

// AddChild appends a successor. Order is significant: it is exactly AST
// traversal order, and the if/then/else discrimination in the builder and
// the "first maximizing successor wins" RWCEC tie-break both depend on it.
func (n *Node) AddChild(h Handle) {
	n.Children = append(n.Children, h)
}

// AddASTElement records a source AST fragment that originated this node.
// Only used for line discovery (StartLine/LastLine), never re-visited by the
// cost or synthesis passes.
func (n *Node) AddASTElement(e ASTElement) {
	n.els = append(n.els, e)
	if n.StartLine == 0 {
		n.StartLine = e.Line()
	}
	n.LastLine = e.Line()
}

// ASTElements returns the AST fragments that originated this node, in the
// order they were added.
func (n *Node) ASTElements() []ASTElement {
	return n.els
}

// SetLoopRef wires a PSEUDO node to the WHILE condition node that is its
// loop body.
func (n *Node) SetLoopRef(while Handle) {
	n.refTo = ref{kind: refLoop, loop: while}
}

// SetCalleeRef wires a CALL node to the resolved entry index of its callee.
func (n *Node) SetCalleeRef(entryIdx int) {
	n.refTo = ref{kind: refCallee, callee: entryIdx}
}

// HasRef reports whether this node's ref has been set (loop or resolved
// call). An unresolved CALL (external or unknown target) reports false.
func (n *Node) HasRef() bool {
	return n.refTo.kind != refNone
}

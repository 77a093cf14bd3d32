// Package cfgbuild walks a parsed translation unit (internal/cast) and
// produces the control-flow graph for every function definition it finds
// (internal/cfgnode). It is a direct port of the original project's AST
// visitor: the same per-statement dispatch, the same three post-passes (call
// resolution, END_IF cleanup, terminator injection), with internal/cast as
// the only AST dependency so this package stays on the right side of the
// classifier/traversal boundary.
package cfgbuild

import (
	"github.com/cfgwcec/cfgwcec/internal/cast"
	"github.com/cfgwcec/cfgwcec/internal/cfgnode"
)

// Build constructs one CFG entry per function definition in file, in parse
// order, injecting each function's END node right after its walk, then runs
// call resolution and END_IF cleanup over the whole graph.
func Build(file *cast.File) *cfgnode.Graph {
	g := cfgnode.NewGraph()

	for _, fn := range file.Functions {
		b := &builder{g: g}
		b.currentFunc = fn.Name()
		b.currentNode = cfgnode.InvalidHandle
		b.createNewBlock = true
		b.isFirstNode = true

		if body := fn.Body(); body != nil {
			b.visit(body)
		}
		b.injectTerminator()
	}

	resolveCalls(g)
	cleanupEndIf(g)

	return g
}

// builder holds the per-function visitor state named in spec.md §4.2:
// currentFunctionName, currentNode, createNewBlock and isFirstNode.
type builder struct {
	g *cfgnode.Graph

	currentFunc    string
	currentNode    cfgnode.Handle
	createNewBlock bool
	isFirstNode    bool
}

// visit dispatches on the AST node's class, matching spec.md §4.2's
// statement-kind table.
func (b *builder) visit(n cast.Node) {
	if n == nil {
		return
	}
	switch n.Class() {
	case cast.ClassCompound:
		b.visitCompound(n)
	case cast.ClassIf:
		b.visitIf(n)
	case cast.ClassWhile:
		b.visitWhile(n)
	case cast.ClassCall:
		b.visitCall(n)
	default:
		b.genericVisit(n)
	}
}

// visitCompound opens a new basic block for the first statement that
// follows, then visits each block item in source order.
func (b *builder) visitCompound(n cast.Node) {
	b.createNewBlock = true
	for _, c := range n.Children() {
		b.visit(c)
	}
}

// genericVisit is the pre-order descent used for every statement or
// expression that is not itself a Compound/If/While/Call: it attaches the
// node to the current basic block (opening a new one if createNewBlock is
// set) and keeps walking its children so nested calls are still found, e.g.
// inside "x = foo();".
func (b *builder) genericVisit(n cast.Node) {
	b.addASTElem(n)
	for _, c := range n.Children() {
		b.visit(c)
	}
}

// addASTElem attaches n to the current basic block, opening a new COMMON
// block first if one is due.
func (b *builder) addASTElem(n cast.Node) {
	if b.createNewBlock {
		h := b.g.NewNode(cfgnode.Common, b.currentFunc)
		b.addNewNode(h)
		b.currentNode = h
		b.createNewBlock = false
	}
	if b.currentNode != cfgnode.InvalidHandle {
		b.g.Node(b.currentNode).AddASTElement(n)
	}
}

// addNewNode wires a freshly allocated node into the graph: as a child of
// the current node if there is one, or as the function's entry point if this
// is the very first node of the function.
func (b *builder) addNewNode(h cfgnode.Handle) {
	if b.currentNode != cfgnode.InvalidHandle {
		b.g.Node(b.currentNode).AddChild(h)
	}
	if b.isFirstNode {
		b.g.AddEntry(b.currentFunc, h)
		b.isFirstNode = false
	}
}

// visitIf builds the IF/ELSE_IF/END_IF shape described in spec.md §4.2: a
// single IF node carries the condition, its children are the branch heads
// (one or two of them), and an END_IF node rejoins whichever branches ran.
func (b *builder) visitIf(n cast.Node) {
	cond := n.Cond()
	if cond == nil {
		return
	}

	condHandle := b.g.NewNode(cfgnode.If, b.currentFunc)
	b.g.Node(condHandle).AddASTElement(cond)
	b.addNewNode(condHandle)

	b.currentNode = condHandle
	b.createNewBlock = false
	b.visit(cond)

	b.currentNode = condHandle
	b.createNewBlock = true
	iftrueLast := cfgnode.InvalidHandle
	if then := n.Then(); then != nil {
		b.visit(then)
		iftrueLast = b.currentNode
	}

	b.currentNode = condHandle
	b.createNewBlock = true
	iffalseLast := cfgnode.InvalidHandle
	if els := n.Else(); els != nil {
		b.visit(els)
		iffalseLast = b.currentNode
	}

	end := b.g.NewNode(cfgnode.EndIf, b.currentFunc)
	b.addChildCaseIf(condHandle, iftrueLast, iffalseLast, end)

	b.currentNode = end
	b.createNewBlock = true
}

// addChildCaseIf wires the END_IF node as the successor of whichever
// branches produced a tail node, and retags a bare-IF child as ELSE_IF when
// both branches were present. Mirrors _add_child_case_if exactly, including
// reading the condition node's child count before any of these appends.
func (b *builder) addChildCaseIf(cond, iftrueLast, iffalseLast, end cfgnode.Handle) {
	childCount := len(b.g.Node(cond).Children)

	if iftrueLast != cfgnode.InvalidHandle {
		b.g.Node(iftrueLast).AddChild(end)
	}

	switch childCount {
	case 1:
		b.g.Node(cond).AddChild(end)
	case 2:
		if iffalseLast != cfgnode.InvalidHandle {
			b.g.Node(iffalseLast).AddChild(end)
			elseChild := b.g.Node(cond).Children[1]
			if b.g.Node(elseChild).Kind == cfgnode.If {
				b.g.Node(elseChild).Kind = cfgnode.ElseIf
			}
		}
	}
}

// visitWhile builds the PSEUDO/WHILE loop shape: a PSEUDO wrapper node
// carries the condition's AST element and becomes the loop's place in its
// parent's successor list, the WHILE node holds the body, and the body's
// sink nodes are chased and wired back to the WHILE node to close the cycle.
func (b *builder) visitWhile(n cast.Node) {
	cond := n.Cond()
	if cond == nil {
		return
	}

	pseudo := b.g.NewNode(cfgnode.Pseudo, b.currentFunc)
	b.g.Node(pseudo).AddASTElement(cond)
	b.addNewNode(pseudo)

	while := b.g.NewNode(cfgnode.While, b.currentFunc)
	b.currentNode = while
	b.createNewBlock = false
	b.visit(cond)

	b.currentNode = while
	b.createNewBlock = true
	if stmt := n.Stmt(); stmt != nil {
		b.visit(stmt)
	}

	makeLoopCycle(b.g, while, while, map[cfgnode.Handle]bool{})
	b.g.Node(pseudo).SetLoopRef(while)

	b.currentNode = pseudo
	b.createNewBlock = true
}

// makeLoopCycle follows every path out of the loop body until it finds a
// node with no successors yet, and closes it back onto the WHILE node.
func makeLoopCycle(g *cfgnode.Graph, while, node cfgnode.Handle, visited map[cfgnode.Handle]bool) {
	visited[node] = true
	n := g.Node(node)
	if len(n.Children) == 0 {
		n.AddChild(while)
		return
	}
	for _, c := range n.Children {
		if !visited[c] {
			makeLoopCycle(g, while, c, visited)
		}
	}
}

// visitCall allocates a CALL node, recording the callee name for the later
// resolution pass, and always opens a fresh block for whatever follows: a
// call is a cost boundary the same way a branch is.
func (b *builder) visitCall(n cast.Node) {
	call := b.g.NewNode(cfgnode.Call, b.currentFunc)
	b.g.Node(call).CallTargetName = n.Name()
	b.g.Node(call).AddASTElement(n)
	b.addNewNode(call)

	b.currentNode = call
	b.createNewBlock = true
}

// injectTerminator appends one synthetic END node as the successor of every
// sink node reachable from this function's entry (spec.md §4.2 Post-pass 3).
// A WHILE node always already has the loop body as a child by construction,
// so this never needs to reach into a PSEUDO's ref to find more sinks.
func (b *builder) injectTerminator() {
	entries := b.g.Entries()
	if len(entries) == 0 {
		return
	}
	entry := entries[len(entries)-1]

	end := b.g.NewNode(cfgnode.End, entry.FuncName)
	injectTerminatorVisit(b.g, entry.FirstNode, end, map[cfgnode.Handle]bool{})
}

func injectTerminatorVisit(g *cfgnode.Graph, node, end cfgnode.Handle, visited map[cfgnode.Handle]bool) {
	visited[node] = true
	n := g.Node(node)
	for _, c := range n.Children {
		if !visited[c] {
			injectTerminatorVisit(g, c, end, visited)
		}
	}
	if n.Kind != cfgnode.End && len(n.Children) == 0 {
		n.AddChild(end)
	}
}

// resolveCalls is Post-pass 1: every CALL node whose target name matches a
// function defined in this translation unit gets its ref wired to that
// function's entry. Calls to unknown or external names are left unresolved,
// not an error (spec.md §7).
func resolveCalls(g *cfgnode.Graph) {
	for _, e := range g.Entries() {
		resolveCallsVisit(g, e.FirstNode, map[cfgnode.Handle]bool{})
	}
}

func resolveCallsVisit(g *cfgnode.Graph, node cfgnode.Handle, visited map[cfgnode.Handle]bool) {
	visited[node] = true
	n := g.Node(node)

	switch n.Kind {
	case cfgnode.Pseudo:
		if loop, ok := g.LoopTarget(node); ok && !visited[loop] {
			resolveCallsVisit(g, loop, visited)
		}
	case cfgnode.Call:
		if idx, ok := g.EntryByName(n.CallTargetName); ok {
			n.SetCalleeRef(idx)
		}
	}

	for _, c := range n.Children {
		if !visited[c] {
			resolveCallsVisit(g, c, visited)
		}
	}
}

// cleanupEndIf is Post-pass 2: every surviving reference to an END_IF node
// is replaced by that node's own (single) successor, repeatedly, so that no
// END_IF node remains reachable once the graph is handed to the cost passes.
func cleanupEndIf(g *cfgnode.Graph) {
	for _, e := range g.Entries() {
		cleanupEndIfVisit(g, e.FirstNode, map[cfgnode.Handle]bool{})
	}
}

func cleanupEndIfVisit(g *cfgnode.Graph, node cfgnode.Handle, visited map[cfgnode.Handle]bool) {
	visited[node] = true
	n := g.Node(node)

	for {
		idx := -1
		for i, c := range n.Children {
			if g.Node(c).Kind == cfgnode.EndIf {
				idx = i
				break
			}
		}
		if idx == -1 {
			break
		}
		rp := g.Node(n.Children[idx])
		if len(rp.Children) == 0 {
			// An END_IF always gets at least one child from
			// addChildCaseIf; this guards against looping forever if
			// that invariant is ever violated.
			break
		}
		n.Children[idx] = rp.Children[0]
	}

	if n.Kind == cfgnode.Pseudo {
		if loop, ok := g.LoopTarget(node); ok && !visited[loop] {
			cleanupEndIfVisit(g, loop, visited)
		}
	}

	for _, c := range n.Children {
		if !visited[c] {
			cleanupEndIfVisit(g, c, visited)
		}
	}
}

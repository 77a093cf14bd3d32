package cfgnode

// EntryNode records, per function, the function name and the handle of its
// first node. Entries are kept in parse order (spec.md §3).
type EntryNode struct {
	FuncName  string
	FirstNode Handle
}

// Graph is the arena that owns every Node and EntryNode produced while
// building the CFGs for one C source file. It is the unit that "the analyzer
// session owns" per spec.md §5: nothing in this package outlives a Graph,
// and a Graph can be dropped as a whole without untangling any cycles.
type Graph struct {
	nodes   []*Node
	entries []*EntryNode
}

// NewGraph creates an empty arena.
func NewGraph() *Graph {
	return &Graph{}
}

// NewNode allocates a new node of the given kind owned by function owner,
// returning its handle.
func (g *Graph) NewNode(kind Kind, owner string) Handle {
	g.nodes = append(g.nodes, &Node{Kind: kind, FuncOwner: owner})
	return Handle(len(g.nodes) - 1)
}

// NodeCount returns the number of nodes allocated in the arena across every
// function built into g.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Node dereferences a handle. It panics on an invalid handle, since every
// handle in this package is produced by NewNode and callers are
// expected to never invent their own.
func (g *Graph) Node(h Handle) *Node {
	return g.nodes[h]
}

// AddEntry registers a new function entry point, returning its index.
func (g *Graph) AddEntry(funcName string, first Handle) int {
	g.entries = append(g.entries, &EntryNode{FuncName: funcName, FirstNode: first})
	return len(g.entries) - 1
}

// Entries returns all function entries in parse order.
func (g *Graph) Entries() []*EntryNode {
	return g.entries
}

// EntryByName finds the entry whose function name matches, returning its
// index. Functions are looked up by linear scan over entries in parse order,
// matching the original call-resolution pass exactly (spec.md §4.2 Post-pass
// 1): there is no name index because function counts per file are small and
// resolution runs once per CALL node.
func (g *Graph) EntryByName(name string) (int, bool) {
	for i, e := range g.entries {
		if e.FuncName == name {
			return i, true
		}
	}
	return 0, false
}

// Entry dereferences an entry index.
func (g *Graph) Entry(idx int) *EntryNode {
	return g.entries[idx]
}

// LoopTarget returns the WHILE node a PSEUDO's ref points at, and whether
// the ref is set at all (it always is, by construction, once the builder has
// finished with a While statement).
func (g *Graph) LoopTarget(h Handle) (Handle, bool) {
	n := g.Node(h)
	if n.refTo.kind != refLoop {
		return InvalidHandle, false
	}
	return n.refTo.loop, true
}

// Callee returns the entry a CALL node's ref points at, and whether the call
// was resolved. An unresolved call (external or unknown target) returns
// false, which is not an error (spec.md §7).
func (g *Graph) Callee(h Handle) (*EntryNode, bool) {
	n := g.Node(h)
	if n.refTo.kind != refCallee {
		return nil, false
	}
	return g.entries[n.refTo.callee], true
}

// RefnodeRWCEC returns ref.rwcec for a PSEUDO (its loop's RWCEC) or
// ref.first_node.rwcec for a resolved CALL (the callee's RWCEC), else 0.
// This mirrors CFGNode.get_refnode_rwcec() exactly (spec.md §4.1).
func (g *Graph) RefnodeRWCEC(h Handle) int {
	n := g.Node(h)
	switch n.refTo.kind {
	case refLoop:
		return g.Node(n.refTo.loop).RWCEC
	case refCallee:
		first := g.entries[n.refTo.callee].FirstNode
		return g.Node(first).RWCEC
	default:
		return 0
	}
}

// EffectiveWCEC returns the node's own WCEC for most kinds, but for PSEUDO
// forwards to its ref's WCEC (a PSEUDO has no body of its own) and for a
// resolved CALL adds the call's own cost to the callee's RWCEC (spec.md
// §4.1's "effective wcec()").
func (g *Graph) EffectiveWCEC(h Handle) int {
	n := g.Node(h)
	switch {
	case n.Kind == Pseudo && n.refTo.kind == refLoop:
		return g.Node(n.refTo.loop).WCEC
	case n.Kind == Call && n.refTo.kind == refCallee:
		return n.WCEC + g.RefnodeRWCEC(h)
	default:
		return n.WCEC
	}
}

// EffectiveLoopIters returns LoopIters for a WHILE node directly, or forwards
// through a PSEUDO to its referenced WHILE, matching
// CFGNode.get_loop_iters()'s recursive-through-refnode behavior.
func (g *Graph) EffectiveLoopIters(h Handle) int {
	n := g.Node(h)
	if n.refTo.kind == refLoop {
		return g.Node(n.refTo.loop).LoopIters
	}
	return n.LoopIters
}

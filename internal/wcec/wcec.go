// Package wcec assigns Worst-Case Execution Cycles to every CFG node and
// propagates Remaining WCEC along each function's worst path, loop- and
// call-aware. It is a direct port of the original project's two-pass cost
// engine (instruction-cost assignment, then RWCEC propagation with a
// loop-refresh correction pass).
package wcec

import (
	"sort"

	"github.com/cfgwcec/cfgwcec/internal/asmcost"
	"github.com/cfgwcec/cfgwcec/internal/cfgnode"
)

// AssignWCEC walks every function's CFG and sets each node's WCEC from the
// assembly instructions the compiler attributed to the node's source line
// span. lineTable is consumed destructively: each instruction range is only
// ever charged to the one node that claims it. WHILE nodes also get their
// LoopIters set from the @LOOP annotation on their condition line.
func AssignWCEC(g *cfgnode.Graph, lineTable asmcost.LineTable, cycles asmcost.CycleTable, lines []string) error {
	for _, e := range g.Entries() {
		if err := assignWCECVisit(g, e.FirstNode, e.FirstNode, map[cfgnode.Handle]bool{}, lineTable, cycles, lines); err != nil {
			return err
		}
	}
	return nil
}

func assignWCECVisit(g *cfgnode.Graph, entryFirst, node cfgnode.Handle, visited map[cfgnode.Handle]bool, lineTable asmcost.LineTable, cycles asmcost.CycleTable, lines []string) error {
	visited[node] = true
	n := g.Node(node)

	if n.Kind == cfgnode.While {
		iters, err := LoopIters(lines, n.StartLine)
		if err != nil {
			return err
		}
		n.LoopIters = iters
	}

	if n.Kind == cfgnode.Pseudo {
		if loop, ok := g.LoopTarget(node); ok {
			if err := assignWCECVisit(g, entryFirst, loop, visited, lineTable, cycles, lines); err != nil {
				return err
			}
		}
	} else {
		funcTable := lineTable[n.FuncOwner]

		clines := make([]int, 0, len(funcTable))
		for cl := range funcTable {
			clines = append(clines, cl)
		}
		sort.Ints(clines)

		isFirst := node == entryFirst
		wcec := 0
		for _, cl := range clines {
			if (cl >= n.StartLine && cl <= n.LastLine) || (isFirst && cl <= n.LastLine) {
				for _, instr := range funcTable[cl] {
					c, err := cycles.Cost(instr)
					if err != nil {
						return err
					}
					wcec += c
				}
				delete(funcTable, cl)
			}
		}

		// The synthetic END node never owns a source line span of its own
		// (its StartLine/LastLine are both 0), so the loop above never
		// charges it anything; it instead absorbs the entry for the
		// highest line still unclaimed in the function when the walk
		// reaches it — the epilogue. Other unclaimed lines are not charged
		// to it.
		if n.Kind == cfgnode.End && len(clines) > 0 {
			last := clines[len(clines)-1]
			if instrs, ok := funcTable[last]; ok {
				for _, instr := range instrs {
					c, err := cycles.Cost(instr)
					if err != nil {
						return err
					}
					wcec += c
				}
				delete(funcTable, last)
			}
		}

		n.WCEC = wcec
	}

	for _, c := range n.Children {
		if !visited[c] {
			if err := assignWCECVisit(g, entryFirst, c, visited, lineTable, cycles, lines); err != nil {
				return err
			}
		}
	}
	return nil
}

// PropagateRWCEC computes each node's Remaining WCEC: the worst-case cycle
// cost of everything still to execute from that node to the end of the
// function, taking the maximizing successor at every branch, multiplying by
// loop iteration counts, and adding a resolved call's callee cost in place.
func PropagateRWCEC(g *cfgnode.Graph) {
	for _, e := range g.Entries() {
		if g.Node(e.FirstNode).RWCEC == 0 {
			propagateRWCECVisit(g, e.FirstNode, map[cfgnode.Handle]bool{}, 1)
		}
	}
}

func propagateRWCECVisit(g *cfgnode.Graph, node cfgnode.Handle, visited map[cfgnode.Handle]bool, loopIters int) {
	visited[node] = true
	n := g.Node(node)

	switch {
	case n.Kind == cfgnode.Pseudo:
		if loop, ok := g.LoopTarget(node); ok {
			propagateRWCECVisit(g, loop, visited, g.EffectiveLoopIters(node))
			updateLoopRWCEC(g, loop, map[cfgnode.Handle]bool{})
		}
	case n.Kind == cfgnode.Call:
		if callee, ok := g.Callee(node); ok && g.Node(callee.FirstNode).RWCEC == 0 {
			propagateRWCECVisit(g, callee.FirstNode, visited, 1)
		}
	}

	for _, c := range n.Children {
		if !visited[c] {
			propagateRWCECVisit(g, c, visited, loopIters)
		}
		child := g.Node(c)

		switch {
		case child.Kind == cfgnode.While:
			// The while condition itself has no RWCEC (it starts the loop
			// graph), so its WCEC stands in, scaled by the iteration count.
			if cand := (g.EffectiveWCEC(node) + child.WCEC) * loopIters; cand > n.RWCEC {
				n.RWCEC = cand
			}
		case n.Kind == cfgnode.While:
			// The condition is evaluated once more than the loop body runs,
			// to discover the loop is over.
			if cand := g.EffectiveWCEC(node) + child.RWCEC; cand > n.RWCEC {
				n.RWCEC = cand
			}
		case n.Kind == cfgnode.Pseudo:
			if cand := g.RefnodeRWCEC(node) + child.RWCEC; cand > n.RWCEC {
				n.RWCEC = cand
			}
		default:
			if cand := g.EffectiveWCEC(node)*loopIters + child.RWCEC; cand > n.RWCEC {
				n.RWCEC = cand
			}
		}
	}

	if len(n.Children) == 0 {
		n.RWCEC = n.WCEC
	}
}

// updateLoopRWCEC corrects the RWCEC of every node inside a loop body once
// the WHILE node's RWCEC (the cost of all iterations) is known: a node whose
// successor is the WHILE is raised to that total minus one iteration's cost
// plus its own effective WCEC, any other node to its successor's RWCEC plus
// its own effective WCEC, keeping the larger value. Code that runs after the
// loop exits is not included.
func updateLoopRWCEC(g *cfgnode.Graph, node cfgnode.Handle, visited map[cfgnode.Handle]bool) {
	visited[node] = true
	n := g.Node(node)

	for _, c := range n.Children {
		if !visited[c] {
			updateLoopRWCEC(g, c, visited)
		}
		child := g.Node(c)

		var rwcec int
		if child.Kind == cfgnode.While {
			loopMaxRWCEC := child.RWCEC
			oneRun := 0
			if child.LoopIters > 0 {
				oneRun = (loopMaxRWCEC - child.WCEC) / child.LoopIters
			}
			rwcec = loopMaxRWCEC - oneRun + g.EffectiveWCEC(node)
		} else {
			rwcec = child.RWCEC + g.EffectiveWCEC(node)
		}

		if rwcec > n.RWCEC {
			n.RWCEC = rwcec
		}
	}
}

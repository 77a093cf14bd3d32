package cfgnode

import (
	"fmt"
	"io"
	"strings"
)

// Show writes a human-readable dump of one function's CFG to w, in the same
// shape the analyzer's test suite has always used: one line per node giving
// its kind and start line, indented by tree depth, with a loop's body shown
// inline under its PSEUDO wrapper and WHILE back-edges shown as a single
// line rather than re-descended into (descending would loop forever).
func (g *Graph) Show(w io.Writer, entryIdx int) {
	e := g.entries[entryIdx]
	fmt.Fprintf(w, "  entry point - %s\n", e.FuncName)
	g.showNode(w, e.FirstNode, "  ")
}

func (g *Graph) showNode(w io.Writer, h Handle, lead string) {
	n := g.Node(h)
	lead += " "
	fmt.Fprintf(w, "%s- %s, %d\n", lead, n.Kind.String(), n.StartLine)

	if n.Kind == Pseudo {
		if loop, ok := g.LoopTarget(h); ok {
			g.showNode(w, loop, lead+"|")
		}
	}

	for _, c := range n.Children {
		child := g.Node(c)
		if child.Kind == While {
			fmt.Fprintf(w, "%s| - %s, %d\n", lead, child.Kind.String(), child.StartLine)
			continue
		}
		g.showNode(w, c, lead+"|")
	}
}

// ShowString is a convenience wrapper around Show for tests and the "cfgwcec
// graph" CLI command.
func (g *Graph) ShowString(entryIdx int) string {
	var b strings.Builder
	g.Show(&b, entryIdx)
	return b.String()
}

// Package dvfs splices runtime frequency-adjustment calls into a C source
// file at every branch (type-B) or loop-exit (type-L) edge that has
// exploitable slack, using the WCEC/RWCEC already computed for the CFG. It
// is a direct port of the original project's code generator, including its
// line-splicing strategy: C source is kept as a list of (line number, text)
// pairs, and every inserted block is tagged with line number -1 since it has
// no position of its own in the original file.
package dvfs

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/cfgwcec/cfgwcec/internal/cfgnode"
)

// ErrEmptySource is returned when there is no source to splice into.
var ErrEmptySource = errors.New("dvfs: source is empty")

// ErrNestedLoop is returned when a loop's body contains another loop,
// which this rewriter refuses to instrument rather than risk mis-splicing
// one loop's counters and frequency-adjustment call inside another's.
var ErrNestedLoop = errors.New("dvfs: nested loops are not supported")

//go:embed assets/cfg_wcec.h
var runtimeHeader []byte

// RuntimeHeader returns the cfg_wcec.h contents the generated code expects
// to find alongside it.
func RuntimeHeader() []byte {
	return bytes.Clone(runtimeHeader)
}

// Line is one line of the C source being spliced, or a synthetic inserted
// block (Num == -1).
type Line struct {
	Num  int
	Text string
}

const marker = "/*** auto generate DVFS code ***/"

// Synthesize walks every function's CFG looking for type-B and type-L
// edges and returns the DVFS-instrumented source text.
func Synthesize(g *cfgnode.Graph, source []byte) (string, error) {
	lines := splitLines(source)
	if len(lines) == 0 {
		return "", ErrEmptySource
	}

	s := &synthesizer{g: g, lines: insertHeader(lines)}
	for _, e := range g.Entries() {
		if err := s.visit(e.FirstNode, map[cfgnode.Handle]bool{}, false); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	for _, l := range s.lines {
		b.WriteString(l.Text)
	}
	return b.String(), nil
}

func splitLines(source []byte) []Line {
	raw := strings.Split(string(source), "\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	lines := make([]Line, 0, len(raw))
	for i, text := range raw {
		lines = append(lines, Line{Num: i + 1, Text: text + "\n"})
	}
	return lines
}

func insertHeader(lines []Line) []Line {
	code := `#include "cfg_wcec.h"
__cfg_edge_type __cfg_type;
float __cfg_rwcec_bi;
float __cfg_rwcec_bj;
int __cfg_loop_max_iter;
`
	block := Line{Num: -1, Text: block("", code)}
	return append([]Line{block}, lines...)
}

func block(spaces, code string) string {
	return fmt.Sprintf("\n%s%s\n%s\n", spaces, marker, code)
}

type synthesizer struct {
	g     *cfgnode.Graph
	lines []Line
}

// visit mirrors _insert_dvfs_info_visit: a pre-order walk that descends into
// a PSEUDO's loop body, and checks every not-yet-visited successor edge for
// type-B (leaving an IF) or type-L (leaving a PSEUDO's loop) shape before
// recursing into it. inLoop tracks whether the walk is currently inside a
// loop body, so a second PSEUDO reached while already inside one (a nested
// loop, per cfg_cdvfs_generator.py's own Note-II) is rejected rather than
// mis-rewritten.
func (s *synthesizer) visit(node cfgnode.Handle, visited map[cfgnode.Handle]bool, inLoop bool) error {
	visited[node] = true
	n := s.g.Node(node)

	if n.Kind == cfgnode.Pseudo {
		if inLoop {
			return fmt.Errorf("%w: function %s", ErrNestedLoop, n.FuncOwner)
		}
		if loop, ok := s.g.LoopTarget(node); ok {
			if err := s.visit(loop, visited, true); err != nil {
				return err
			}
		}
	}

	for _, c := range n.Children {
		if visited[c] {
			continue
		}
		switch n.Kind {
		case cfgnode.If:
			s.checkTypeB(node, c)
		case cfgnode.Pseudo:
			s.checkTypeL(node, c)
		}
		if err := s.visit(c, visited, inLoop); err != nil {
			return err
		}
	}
	return nil
}

// checkTypeB flags a branch as having slack when the branch taken costs
// less than the most expensive branch out of the same IF.
func (s *synthesizer) checkTypeB(node, child cfgnode.Handle) {
	n := s.g.Node(node)
	c := s.g.Node(child)

	succBi := n.RWCEC - n.WCEC
	bj := c.RWCEC
	if bj < succBi {
		s.insertTypeB(c.StartLine, succBi, bj)
	}
}

func (s *synthesizer) insertTypeB(bjLine, rwcecBi, rwcecBj int) {
	idx, spaces := s.lineIndexSpaces(bjLine)
	code := fmt.Sprintf(
		"%s__cfg_type = __CFG_TYPE_B;\n%s__cfg_rwcec_bi = %d;\n%s__cfg_rwcec_bj = %d;\n%s__cfg_change_freq(&__cfg_type, __cfg_rwcec_bi, __cfg_rwcec_bj, 0, 0);\n",
		spaces, spaces, rwcecBi, spaces, rwcecBj, spaces)
	s.insertAt(idx, Line{Num: -1, Text: block(spaces, code)})
}

// checkTypeL gathers the loop's per-iteration cost, its declared maximum
// iteration count, and whatever runs right after the loop exits.
func (s *synthesizer) checkTypeL(node, child cfgnode.Handle) {
	n := s.g.Node(node)
	c := s.g.Node(child)

	loopIters := s.g.EffectiveLoopIters(node)
	refRWCEC := s.g.RefnodeRWCEC(node)

	wcecOnce := refRWCEC
	if loopIters != 0 {
		wcecOnce = refRWCEC / loopIters
	}

	s.insertTypeL(n.StartLine, wcecOnce, loopIters, c.StartLine, c.RWCEC)
}

// insertTypeL splices three blocks: variable/counter setup right before the
// loop condition, a counter increment as the first statement of the loop
// body, and the frequency-adjustment call at the node that runs after the
// loop exits. The counter variable is named after the loop's condition line
// so that sibling loops in the same function never collide.
func (s *synthesizer) insertTypeL(condLine, wcecOnce, maxIter, afterLine, afterRWCEC int) {
	idx, spaces := s.lineIndexSpaces(condLine)
	pre := fmt.Sprintf(
		"%s__cfg_type = __CFG_TYPE_L;\n%s__cfg_rwcec_bi = %d;\n%s__cfg_rwcec_bj = %d;\n%s__cfg_loop_max_iter = %d;\n%sint __cfg_loop%d_iter = 0;\n",
		spaces, spaces, wcecOnce, spaces, afterRWCEC, spaces, maxIter, spaces, condLine)
	s.insertAt(idx, Line{Num: -1, Text: block(spaces, pre)})

	idx2, spaces2 := s.lineIndexSpaces(condLine + 1)
	in := fmt.Sprintf("%s__cfg_loop%d_iter++;\n", spaces2, condLine)
	s.insertAt(idx2, Line{Num: -1, Text: block(spaces2, in)})

	idx3, spaces3 := s.lineIndexSpaces(afterLine)
	post := fmt.Sprintf(
		"%s__cfg_change_freq(&__cfg_type, __cfg_rwcec_bi, __cfg_rwcec_bj, __cfg_loop_max_iter, __cfg_loop%d_iter);\n",
		spaces3, condLine)
	s.insertAt(idx3, Line{Num: -1, Text: block(spaces3, post)})
}

func (s *synthesizer) lineIndexSpaces(lineNum int) (int, string) {
	for i, l := range s.lines {
		if l.Num == lineNum {
			return i, leadingWhitespace(l.Text)
		}
	}
	return len(s.lines), ""
}

func leadingWhitespace(text string) string {
	trimmed := strings.TrimLeft(text, " \t")
	return text[:len(text)-len(trimmed)]
}

func (s *synthesizer) insertAt(idx int, l Line) {
	if idx < 0 {
		idx = 0
	}
	if idx > len(s.lines) {
		idx = len(s.lines)
	}
	s.lines = append(s.lines, Line{})
	copy(s.lines[idx+1:], s.lines[idx:])
	s.lines[idx] = l
}

package dvfs_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cfgwcec/cfgwcec/internal/cfgnode"
	"github.com/cfgwcec/cfgwcec/internal/dvfs"
)

// S4: if (c) heavy(); else light(); where rwcec(heavy) > rwcec(light) gets a
// type-B block inserted at light()'s line.
func TestSynthesizeInsertsTypeBAtCheaperBranch(t *testing.T) {
	t.Parallel()

	src := []byte(`int f(int x) {
    if (x) {
        heavy();
    } else {
        light();
    }
}
`)

	g := cfgnode.NewGraph()
	cond := g.NewNode(cfgnode.If, "f")
	g.Node(cond).WCEC = 1
	g.Node(cond).RWCEC = 11

	heavy := g.NewNode(cfgnode.Call, "f")
	g.Node(heavy).StartLine = 3
	g.Node(heavy).RWCEC = 10

	light := g.NewNode(cfgnode.Call, "f")
	g.Node(light).StartLine = 5
	g.Node(light).RWCEC = 4

	end := g.NewNode(cfgnode.End, "f")

	g.Node(cond).AddChild(heavy)
	g.Node(cond).AddChild(light)
	g.Node(heavy).AddChild(end)
	g.Node(light).AddChild(end)
	g.AddEntry("f", cond)

	out, err := dvfs.Synthesize(g, src)
	require.NoError(t, err)

	require.Contains(t, out, `#include "cfg_wcec.h"`)
	require.Contains(t, out, "__CFG_TYPE_B")
	require.Contains(t, out, "__cfg_rwcec_bi = 10;")
	require.Contains(t, out, "__cfg_rwcec_bj = 4;")

	bIdx := strings.Index(out, "__cfg_type = __CFG_TYPE_B;")
	lightIdx := strings.Index(out, "light();")
	require.True(t, bIdx >= 0 && lightIdx >= 0 && bIdx < lightIdx, "type-B block must precede the cheaper branch")

	heavyIdx := strings.Index(out, "heavy();")
	require.True(t, heavyIdx < bIdx, "the more expensive branch has no DVFS block inserted before it")
}

// S5: a tagged while of 5 iterations followed by post() gets three inserted
// blocks: pre-loop declarations with a unique counter, an in-loop counter
// increment, and a post-loop __cfg_change_freq call.
func TestSynthesizeInsertsTypeLAroundLoop(t *testing.T) {
	t.Parallel()

	src := []byte(`int g(int c) {
    while (c) { // @LOOP 5
        s();
    }
    post();
}
`)

	g := cfgnode.NewGraph()
	pseudo := g.NewNode(cfgnode.Pseudo, "g")
	g.Node(pseudo).StartLine = 2

	while := g.NewNode(cfgnode.While, "g")
	g.Node(while).StartLine = 2
	g.Node(while).LoopIters = 5
	g.Node(while).RWCEC = 20

	call := g.NewNode(cfgnode.Call, "g")
	g.Node(call).StartLine = 3

	post := g.NewNode(cfgnode.Common, "g")
	g.Node(post).AddASTElement(fakeLine{5})
	g.Node(post).RWCEC = 3
	end := g.NewNode(cfgnode.End, "g")
	g.Node(post).AddChild(end)

	g.Node(pseudo).SetLoopRef(while)
	g.Node(while).AddChild(call)
	g.Node(call).AddChild(while)
	g.Node(pseudo).AddChild(post)
	g.AddEntry("g", pseudo)

	out, err := dvfs.Synthesize(g, src)
	require.NoError(t, err)

	require.Contains(t, out, "__CFG_TYPE_L")
	require.Contains(t, out, "__cfg_loop2_iter = 0;")
	require.Contains(t, out, "__cfg_loop2_iter++;")
	require.Contains(t, out, "__cfg_loop_max_iter, __cfg_loop2_iter);")
	require.Contains(t, out, "__cfg_rwcec_bi = 4;", "20 RWCEC over 5 iterations is 4 per iteration")
	require.Contains(t, out, "__cfg_rwcec_bj = 3;")

	preIdx := strings.Index(out, "__cfg_type = __CFG_TYPE_L;")
	whileIdx := strings.Index(out, "while (c)")
	incIdx := strings.Index(out, "__cfg_loop2_iter++;")
	callIdx := strings.Index(out, "s();")
	postCallIdx := strings.Index(out, "__cfg_change_freq(&__cfg_type, __cfg_rwcec_bi, __cfg_rwcec_bj, __cfg_loop_max_iter")
	postIdx := strings.Index(out, "post();")

	require.True(t, preIdx >= 0 && preIdx < whileIdx, "declarations precede the loop")
	require.True(t, incIdx >= 0 && incIdx < callIdx, "counter increment precedes the loop body")
	require.True(t, postCallIdx >= 0 && postCallIdx < postIdx, "frequency adjustment precedes the statement after the loop")
}

// A loop nested directly inside another loop's body is refused rather than
// mis-rewritten.
func TestSynthesizeRejectsNestedLoop(t *testing.T) {
	t.Parallel()

	src := []byte(`int h(int c, int d) {
    while (c) {
        while (d) {
            s();
        }
    }
}
`)

	g := cfgnode.NewGraph()
	outerPseudo := g.NewNode(cfgnode.Pseudo, "h")
	outerWhile := g.NewNode(cfgnode.While, "h")
	innerPseudo := g.NewNode(cfgnode.Pseudo, "h")
	innerWhile := g.NewNode(cfgnode.While, "h")
	call := g.NewNode(cfgnode.Call, "h")
	end := g.NewNode(cfgnode.End, "h")

	g.Node(outerPseudo).SetLoopRef(outerWhile)
	g.Node(outerWhile).AddChild(innerPseudo)
	g.Node(innerPseudo).SetLoopRef(innerWhile)
	g.Node(innerWhile).AddChild(call)
	g.Node(call).AddChild(innerWhile)
	g.Node(innerPseudo).AddChild(outerWhile)
	g.Node(outerPseudo).AddChild(end)
	g.AddEntry("h", outerPseudo)

	_, err := dvfs.Synthesize(g, src)
	require.ErrorIs(t, err, dvfs.ErrNestedLoop)
}

type fakeLine struct{ line int }

func (f fakeLine) Line() int { return f.line }

package cfgbuild_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/cfgwcec/cfgwcec/internal/cast"
	"github.com/cfgwcec/cfgwcec/internal/cfgbuild"
	"github.com/cfgwcec/cfgwcec/internal/cfgnode"
)

func parse(t *testing.T, src string) *cast.File {
	t.Helper()
	file, err := cast.Parse([]byte(src))
	require.NoError(t, err)
	return file
}

// shape is a comparable, pointer-free projection of a node's reachable
// subtree (kind, call target, children), used to structurally diff whole
// CFG shapes with go-cmp instead of asserting field-by-field.
type shape struct {
	Kind     string
	Call     string
	Children []shape
}

func buildShape(g *cfgnode.Graph, h cfgnode.Handle, visited map[cfgnode.Handle]bool) shape {
	n := g.Node(h)
	s := shape{Kind: n.Kind.String(), Call: n.CallTargetName}
	if visited[h] {
		return s
	}
	visited[h] = true
	for _, c := range n.Children {
		s.Children = append(s.Children, buildShape(g, c, visited))
	}
	return s
}

// S1 restated as a single structural comparison: both branches are CALL
// nodes rejoining at one shared END.
func TestBuildIfThenElseShape(t *testing.T) {
	t.Parallel()

	file := parse(t, `
int f(int x) {
    if (x) {
        a();
    } else {
        b();
    }
}
`)
	g := cfgbuild.Build(file)
	entry := g.Entry(0)
	got := buildShape(g, entry.FirstNode, map[cfgnode.Handle]bool{})

	end := shape{Kind: "end"}
	want := shape{
		Kind: "if",
		Children: []shape{
			{Kind: "call", Call: "a", Children: []shape{end}},
			{Kind: "call", Call: "b", Children: []shape{end}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CFG shape mismatch (-want +got):\n%s", diff)
	}
}

// S1: entry -> IF -> {CALL a, CALL b} -> END, both branches merging.
func TestBuildIfThenElseMergesAtEnd(t *testing.T) {
	t.Parallel()

	file := parse(t, `
int f(int x) {
    if (x) {
        a();
    } else {
        b();
    }
}
`)
	g := cfgbuild.Build(file)

	require.Len(t, g.Entries(), 1)
	entry := g.Entry(0)
	ifNode := g.Node(entry.FirstNode)
	require.Equal(t, cfgnode.If, ifNode.Kind)
	require.Len(t, ifNode.Children, 2)

	thenCall := g.Node(ifNode.Children[0])
	elseCall := g.Node(ifNode.Children[1])
	require.Equal(t, cfgnode.Call, thenCall.Kind)
	require.Equal(t, cfgnode.Call, elseCall.Kind)
	require.Equal(t, "a", thenCall.CallTargetName)
	require.Equal(t, "b", elseCall.CallTargetName)

	require.Len(t, thenCall.Children, 1)
	require.Len(t, elseCall.Children, 1)
	require.Equal(t, thenCall.Children[0], elseCall.Children[0], "both branches rejoin at the same node")

	end := g.Node(thenCall.Children[0])
	require.Equal(t, cfgnode.End, end.Kind)
}

// S2: entry -> PSEUDO -> END; PSEUDO.ref -> WHILE -> CALL s -> WHILE (back-edge).
func TestBuildWhileProducesPseudoLoopShape(t *testing.T) {
	t.Parallel()

	file := parse(t, `
int g(int c) {
    while (c) {
        s();
    }
}
`)
	g := cfgbuild.Build(file)

	require.Len(t, g.Entries(), 1)
	entry := g.Entry(0)

	pseudo := g.Node(entry.FirstNode)
	require.Equal(t, cfgnode.Pseudo, pseudo.Kind)
	require.Len(t, pseudo.Children, 1)
	require.Equal(t, cfgnode.End, g.Node(pseudo.Children[0]).Kind)

	while, ok := g.LoopTarget(entry.FirstNode)
	require.True(t, ok)
	whileNode := g.Node(while)
	require.Equal(t, cfgnode.While, whileNode.Kind)
	require.Len(t, whileNode.Children, 1)

	call := g.Node(whileNode.Children[0])
	require.Equal(t, cfgnode.Call, call.Kind)
	require.Equal(t, "s", call.CallTargetName)
	require.Len(t, call.Children, 1)
	require.Equal(t, while, call.Children[0], "loop body closes back onto the WHILE node")
}

// S3: two functions where a calls b; a's CALL node resolves to b's entry.
func TestBuildResolvesCallsWithinTranslationUnit(t *testing.T) {
	t.Parallel()

	file := parse(t, `
int b(void) {
    return 0;
}

int a(void) {
    b();
}
`)
	g := cfgbuild.Build(file)
	require.Len(t, g.Entries(), 2)

	bIdx, ok := g.EntryByName("b")
	require.True(t, ok)

	aIdx, ok := g.EntryByName("a")
	require.True(t, ok)
	aEntry := g.Entry(aIdx)

	call := g.Node(aEntry.FirstNode)
	require.Equal(t, cfgnode.Call, call.Kind)
	require.Equal(t, "b", call.CallTargetName)

	callee, ok := g.Callee(aEntry.FirstNode)
	require.True(t, ok)
	require.Same(t, g.Entry(bIdx), callee)
}

// S6: a call to an externally-declared function stays unresolved, no error.
func TestBuildLeavesUnresolvedCallWithoutRef(t *testing.T) {
	t.Parallel()

	file := parse(t, `
int f(void) {
    ext();
}
`)
	g := cfgbuild.Build(file)
	require.Len(t, g.Entries(), 1)

	entry := g.Entry(0)
	call := g.Node(entry.FirstNode)
	require.Equal(t, cfgnode.Call, call.Kind)
	require.Equal(t, "ext", call.CallTargetName)
	require.False(t, call.HasRef())

	_, ok := g.Callee(entry.FirstNode)
	require.False(t, ok)
}

func TestBuildNoEndIfNodeReachable(t *testing.T) {
	t.Parallel()

	file := parse(t, `
int f(int x) {
    if (x) {
        a();
    }
}
`)
	g := cfgbuild.Build(file)
	entry := g.Entry(0)

	visited := map[cfgnode.Handle]bool{}
	var walk func(h cfgnode.Handle)
	walk = func(h cfgnode.Handle) {
		if visited[h] {
			return
		}
		visited[h] = true
		n := g.Node(h)
		require.NotEqual(t, cfgnode.EndIf, n.Kind)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(entry.FirstNode)
}

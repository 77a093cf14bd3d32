// Package graphml serializes a computed CFG to the GraphML interchange
// format, so the result of one analysis run can be opened in any graph
// viewer that understands it. Node IDs are assigned deterministically in
// traversal order (functions in parse order) using an insertion-ordered map;
// edges carry no IDs of their own. This is the same id-stability
// concern the original project's graph diagram generator solves with sorted
// keys (grounded on hargabyte-cortex's internal/graph/d2.go).
package graphml

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/cfgwcec/cfgwcec/internal/cfgnode"
	"github.com/cfgwcec/cfgwcec/internal/ordered"
)

type xmlGraphML struct {
	XMLName xml.Name `xml:"graphml"`
	XMLNS   string   `xml:"xmlns,attr"`
	Keys    []xmlKey `xml:"key"`
	Graph   xmlGraph `xml:"graph"`
}

type xmlKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
	Type string `xml:"attr.type,attr"`
}

type xmlGraph struct {
	ID      string    `xml:"id,attr"`
	EdgeDef string    `xml:"edgedefault,attr"`
	Nodes   []xmlNode `xml:"node"`
	Edges   []xmlEdge `xml:"edge"`
}

type xmlNode struct {
	ID   string    `xml:"id,attr"`
	Data []xmlData `xml:"data"`
}

type xmlEdge struct {
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
}

type xmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

const (
	keyFunc  = "func"
	keyKind  = "kind"
	keyLine  = "line"
	keyWCEC  = "wcec"
	keyRWCEC = "rwcec"
)

// Write serializes every function's CFG in g to w as one GraphML graph,
// with a node per CFG node (PSEUDO included) and an edge per successor.
func Write(w io.Writer, g *cfgnode.Graph) error {
	ids := ordered.New[cfgnode.Handle, string]()
	nextID := 0
	idFor := func(h cfgnode.Handle) string {
		if id, ok := ids.Load(h); ok {
			return id
		}
		id := fmt.Sprintf("n%d", nextID)
		nextID++
		ids.Store(h, id)
		return id
	}

	doc := xmlGraphML{
		XMLNS: "http://graphml.graphdrawing.org/xmlns",
		Keys: []xmlKey{
			{ID: keyFunc, For: "node", Name: "func", Type: "string"},
			{ID: keyKind, For: "node", Name: "kind", Type: "string"},
			{ID: keyLine, For: "node", Name: "line", Type: "int"},
			{ID: keyWCEC, For: "node", Name: "wcec", Type: "int"},
			{ID: keyRWCEC, For: "node", Name: "rwcec", Type: "int"},
		},
		Graph: xmlGraph{ID: "cfg", EdgeDef: "directed"},
	}

	for _, e := range g.Entries() {
		visited := map[cfgnode.Handle]bool{}
		var walk func(h cfgnode.Handle)
		walk = func(h cfgnode.Handle) {
			if visited[h] {
				return
			}
			visited[h] = true

			n := g.Node(h)
			id := idFor(h)
			doc.Graph.Nodes = append(doc.Graph.Nodes, xmlNode{
				ID: id,
				Data: []xmlData{
					{Key: keyFunc, Value: n.FuncOwner},
					{Key: keyKind, Value: n.Kind.String()},
					{Key: keyLine, Value: fmt.Sprint(n.StartLine)},
					{Key: keyWCEC, Value: fmt.Sprint(g.EffectiveWCEC(h))},
					{Key: keyRWCEC, Value: fmt.Sprint(n.RWCEC)},
				},
			})

			if loop, ok := g.LoopTarget(h); ok {
				doc.Graph.Edges = append(doc.Graph.Edges, xmlEdge{Source: id, Target: idFor(loop)})
				walk(loop)
			}

			for _, c := range n.Children {
				doc.Graph.Edges = append(doc.Graph.Edges, xmlEdge{Source: id, Target: idFor(c)})
				walk(c)
			}
		}
		walk(e.FirstNode)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(doc)
}

package graph

import (
	"github.com/matzehuels/gvbind/pkg/gv"
)

// Build validates g and creates the engine graph it describes. On failure
// nothing is left open.
func (g *Graph) Build() (*gv.Graph, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	b := gv.NewGraphBuilder(g.GraphName()).Directed(g.IsDirected()).Strict(g.Strict)
	for _, k := range sortedKeys(g.Attrs) {
		b.Attr(k, g.Attrs[k])
	}
	for _, k := range sortedKeys(g.NodeDefaults) {
		b.NodeDefault(k, g.NodeDefaults[k])
	}
	for _, k := range sortedKeys(g.EdgeDefaults) {
		b.EdgeDefault(k, g.EdgeDefaults[k])
	}
	out, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := g.populate(out); err != nil {
		out.Close()
		return nil, err
	}
	return out, nil
}

func (g *Graph) populate(out *gv.Graph) error {
	for _, n := range g.Nodes {
		nb := out.NodeBuilder(n.ID)
		for _, k := range sortedKeys(n.Attrs) {
			nb.Attr(k, n.Attrs[k])
		}
		if _, err := nb.Build(); err != nil {
			return err
		}
	}

	for _, e := range g.Edges {
		from, err := out.AddNode(e.From)
		if err != nil {
			return err
		}
		to, err := out.AddNode(e.To)
		if err != nil {
			return err
		}
		eb := out.EdgeBuilder(from, to).Name(e.Name)
		for _, k := range sortedKeys(e.Attrs) {
			eb.Attr(k, e.Attrs[k])
		}
		if _, err := eb.Build(); err != nil {
			return err
		}
	}
	return nil
}

// Describe captures the structure and explicit attributes of g. Attributes
// the engine computed during layout are not included.
func Describe(g *gv.Graph) *Graph {
	out := &Graph{
		Name:         g.Name(),
		Strict:       g.IsStrict(),
		Attrs:        nonEmpty(g.Attrs()),
		NodeDefaults: nonEmpty(g.NodeDefaults()),
		EdgeDefaults: nonEmpty(g.EdgeDefaults()),
	}
	if !g.IsDirected() {
		directed := false
		out.Directed = &directed
	}
	for n := range g.Nodes() {
		out.Nodes = append(out.Nodes, Node{ID: n.Name(), Attrs: nonEmpty(n.Attrs())})
	}
	for e := range g.Edges() {
		out.Edges = append(out.Edges, Edge{
			From:  e.From().Name(),
			To:    e.To().Name(),
			Name:  e.Name(),
			Attrs: nonEmpty(e.Attrs()),
		})
	}
	return out
}

func nonEmpty(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

package gv

import (
	"github.com/matzehuels/gvbind/pkg/errors"
)

// kv keeps attributes in call order so later calls win, matching what a
// sequence of SetAttr calls would do.
type kv struct{ key, value string }

func validateAll(attrs []kv) error {
	for _, a := range attrs {
		if err := errors.ValidateAttr(a.key, a.value); err != nil {
			return err
		}
	}
	return nil
}

// GraphBuilder accumulates graph configuration for a single validating
// [GraphBuilder.Build] call.
//
//	g, err := gv.NewGraphBuilder("G").
//	    Strict(true).
//	    Attr(attr.RankDir, attr.RankDirLR).
//	    NodeDefault(attr.Shape, attr.ShapeBox).
//	    Build()
type GraphBuilder struct {
	name         string
	directed     bool
	strict       bool
	attrs        []kv
	nodeDefaults []kv
	edgeDefaults []kv
}

// NewGraphBuilder starts a directed, non-strict graph called name.
func NewGraphBuilder(name string) *GraphBuilder {
	return &GraphBuilder{name: name, directed: true}
}

// Directed sets whether the graph is directed.
func (b *GraphBuilder) Directed(v bool) *GraphBuilder {
	b.directed = v
	return b
}

// Strict sets whether the graph is strict.
func (b *GraphBuilder) Strict(v bool) *GraphBuilder {
	b.strict = v
	return b
}

// Attr queues a graph attribute.
func (b *GraphBuilder) Attr(key, value string) *GraphBuilder {
	b.attrs = append(b.attrs, kv{key, value})
	return b
}

// NodeDefault queues a node default, see [Graph.SetNodeDefault].
func (b *GraphBuilder) NodeDefault(key, value string) *GraphBuilder {
	b.nodeDefaults = append(b.nodeDefaults, kv{key, value})
	return b
}

// EdgeDefault queues an edge default, see [Graph.SetEdgeDefault].
func (b *GraphBuilder) EdgeDefault(key, value string) *GraphBuilder {
	b.edgeDefaults = append(b.edgeDefaults, kv{key, value})
	return b
}

// Build validates the accumulated configuration and creates the graph.
// Nothing is allocated when validation fails, and a graph that fails
// while applying attributes is closed before the error is returned.
func (b *GraphBuilder) Build() (*Graph, error) {
	if err := errors.ValidateName("graph", b.name); err != nil {
		return nil, err
	}
	for _, attrs := range [][]kv{b.attrs, b.nodeDefaults, b.edgeDefaults} {
		if err := validateAll(attrs); err != nil {
			return nil, err
		}
	}

	g, err := NewGraph(b.name, Directed(b.directed), Strict(b.strict))
	if err != nil {
		return nil, err
	}
	if err := b.apply(g); err != nil {
		_ = g.Close()
		return nil, err
	}
	return g, nil
}

func (b *GraphBuilder) apply(g *Graph) error {
	for _, a := range b.attrs {
		if err := g.SetAttr(a.key, a.value); err != nil {
			return err
		}
	}
	for _, a := range b.nodeDefaults {
		if err := g.SetNodeDefault(a.key, a.value); err != nil {
			return err
		}
	}
	for _, a := range b.edgeDefaults {
		if err := g.SetEdgeDefault(a.key, a.value); err != nil {
			return err
		}
	}
	return nil
}

// NodeBuilder accumulates attributes for a node created by Build.
type NodeBuilder struct {
	g     *Graph
	name  string
	attrs []kv
}

// NodeBuilder starts a node called name.
func (g *Graph) NodeBuilder(name string) *NodeBuilder {
	return &NodeBuilder{g: g, name: name}
}

// Attr queues a node attribute.
func (b *NodeBuilder) Attr(key, value string) *NodeBuilder {
	b.attrs = append(b.attrs, kv{key, value})
	return b
}

// Build validates the attributes, then adds the node (or returns the
// existing node of that name) and applies them.
func (b *NodeBuilder) Build() (Node, error) {
	if err := validateAll(b.attrs); err != nil {
		return Node{}, err
	}
	n, err := b.g.AddNode(b.name)
	if err != nil {
		return Node{}, err
	}
	for _, a := range b.attrs {
		if err := n.SetAttr(a.key, a.value); err != nil {
			return Node{}, err
		}
	}
	return n, nil
}

// EdgeBuilder accumulates the name and attributes of an edge created by
// Build.
type EdgeBuilder struct {
	g        *Graph
	from, to Node
	name     string
	attrs    []kv
}

// EdgeBuilder starts an edge from -> to.
func (g *Graph) EdgeBuilder(from, to Node) *EdgeBuilder {
	return &EdgeBuilder{g: g, from: from, to: to}
}

// Name sets the edge key.
func (b *EdgeBuilder) Name(name string) *EdgeBuilder {
	b.name = name
	return b
}

// Attr queues an edge attribute.
func (b *EdgeBuilder) Attr(key, value string) *EdgeBuilder {
	b.attrs = append(b.attrs, kv{key, value})
	return b
}

// Build validates the attributes, then adds the edge and applies them.
func (b *EdgeBuilder) Build() (Edge, error) {
	if err := validateAll(b.attrs); err != nil {
		return Edge{}, err
	}
	e, err := b.g.AddEdge(b.from, b.to, b.name)
	if err != nil {
		return Edge{}, err
	}
	for _, a := range b.attrs {
		if err := e.SetAttr(a.key, a.value); err != nil {
			return Edge{}, err
		}
	}
	return e, nil
}

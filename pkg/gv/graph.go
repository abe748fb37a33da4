package gv

import (
	"context"
	"fmt"

	"github.com/goccy/go-graphviz/cgraph"

	"github.com/matzehuels/gvbind/pkg/errors"
)

// Graph owns a native graph together with the node and edge slots that
// back its [Node] and [Edge] handles.
type Graph struct {
	name     string
	directed bool
	strict   bool

	native *cgraph.Graph
	attrs  attrTable

	nodeDefaults attrTable
	edgeDefaults attrTable

	nodes  []nodeSlot
	edges  []edgeSlot
	byName map[string]int

	// anon numbers unnamed edges; see AddEdge.
	anon int

	// ctx is the Context that laid the graph out, nil when there is no
	// current layout.
	ctx    *Context
	closed bool
}

type nodeSlot struct {
	native *cgraph.Node
	name   string
	attrs  attrTable
	dead   bool
}

type edgeSlot struct {
	native   *cgraph.Edge
	name     string
	from, to int
	attrs    attrTable
	dead     bool
}

type graphConfig struct {
	directed bool
	strict   bool
}

// GraphOption configures [NewGraph].
type GraphOption func(*graphConfig)

// Directed selects a directed (the default) or undirected graph.
func Directed(v bool) GraphOption {
	return func(c *graphConfig) { c.directed = v }
}

// Strict forbids multi-edges between the same pair of nodes.
func Strict(v bool) GraphOption {
	return func(c *graphConfig) { c.strict = v }
}

// NewGraph creates an empty graph. Graphs are directed and non-strict
// unless configured otherwise.
func NewGraph(name string, opts ...GraphOption) (*Graph, error) {
	cfg := graphConfig{directed: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := errors.ValidateName("graph", name); err != nil {
		return nil, err
	}

	native, err := cgraph.Open(name, descriptor(cfg.directed, cfg.strict), nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeGraphCreation, err, "open graph %q", name).WithOp("new graph")
	}
	if native == nil {
		return nil, errors.New(errors.ErrCodeGraphCreation, "engine returned no graph for %q", name).WithOp("new graph")
	}

	return &Graph{
		name:     name,
		directed: cfg.directed,
		strict:   cfg.strict,
		native:   native,
		byName:   make(map[string]int),
	}, nil
}

// WithGraph creates a graph, passes it to fn and closes it on every exit
// path. The error from fn takes precedence over the close error.
func WithGraph(name string, fn func(*Graph) error, opts ...GraphOption) (err error) {
	g, err := NewGraph(name, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := g.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(g)
}

func descriptor(directed, strict bool) *cgraph.Desc {
	switch {
	case directed && strict:
		return cgraph.StrictDirected
	case directed:
		return cgraph.Directed
	case strict:
		return cgraph.StrictUnDirected
	default:
		return cgraph.UnDirected
	}
}

// Name returns the name the graph was created with.
func (g *Graph) Name() string { return g.name }

// IsDirected reports whether edges have a direction.
func (g *Graph) IsDirected() bool { return g.directed }

// IsStrict reports whether multi-edges are forbidden.
func (g *Graph) IsStrict() bool { return g.strict }

// Closed reports whether Close has been called.
func (g *Graph) Closed() bool { return g == nil || g.closed }

// LaidOut reports whether the graph currently carries layout data.
func (g *Graph) LaidOut() bool { return g != nil && g.ctx != nil }

// NodeCount returns the number of nodes, as counted by the engine.
func (g *Graph) NodeCount() int {
	if g.closed {
		return 0
	}
	if n, err := g.native.NodeNum(); err == nil {
		return n
	}
	return countLive(g.nodes, func(s nodeSlot) bool { return !s.dead })
}

// EdgeCount returns the number of edges, as counted by the engine.
func (g *Graph) EdgeCount() int {
	if g.closed {
		return 0
	}
	if n, err := g.native.EdgeNum(); err == nil {
		return n
	}
	return countLive(g.edges, func(s edgeSlot) bool { return !s.dead })
}

func countLive[T any](slots []T, live func(T) bool) int {
	n := 0
	for _, s := range slots {
		if live(s) {
			n++
		}
	}
	return n
}

// AddNode returns the node called name, creating it when absent. Adding a
// name that already exists returns the existing node, which is how the
// engine treats duplicate names in both strict and non-strict graphs.
func (g *Graph) AddNode(name string) (Node, error) {
	if err := g.check("add node"); err != nil {
		return Node{}, err
	}
	if name == "" {
		return Node{}, errors.New(errors.ErrCodeInvalidInput, "node name cannot be empty").WithOp("add node")
	}
	if err := errors.ValidateName("node", name); err != nil {
		return Node{}, err
	}
	if idx, ok := g.byName[name]; ok {
		return Node{g: g, idx: idx}, nil
	}

	native, err := g.native.CreateNodeByName(name)
	if err != nil {
		return Node{}, errors.Wrap(errors.ErrCodeNodeCreation, err, "create node %q", name).WithOp("add node")
	}
	if native == nil {
		return Node{}, errors.New(errors.ErrCodeNodeCreation, "engine returned no node for %q", name).WithOp("add node")
	}

	g.discardLayout()
	g.nodes = append(g.nodes, nodeSlot{native: native, name: name})
	idx := len(g.nodes) - 1
	g.byName[name] = idx
	return Node{g: g, idx: idx}, nil
}

// Node looks up a node by name.
func (g *Graph) Node(name string) (Node, bool) {
	if g.closed {
		return Node{}, false
	}
	idx, ok := g.byName[name]
	if !ok {
		return Node{}, false
	}
	return Node{g: g, idx: idx}, true
}

// AddEdge connects from and to. Both endpoints must be live nodes of g.
//
// A strict graph keeps at most one edge per endpoint pair (either
// orientation when undirected), so repeating the pair returns the existing
// edge. In any graph, repeating a non-empty name between the same endpoints
// returns the existing edge too. Unnamed edges in non-strict graphs are
// always distinct.
func (g *Graph) AddEdge(from, to Node, name string) (Edge, error) {
	if err := g.check("add edge"); err != nil {
		return Edge{}, err
	}
	if err := g.owns(from, "add edge"); err != nil {
		return Edge{}, err
	}
	if err := g.owns(to, "add edge"); err != nil {
		return Edge{}, err
	}
	if err := errors.ValidateName("edge", name); err != nil {
		return Edge{}, err
	}

	if idx, ok := g.existingEdge(from.idx, to.idx, name); ok {
		return Edge{g: g, idx: idx}, nil
	}

	key := name
	if key == "" {
		// The engine treats an empty key as a real key and would merge every
		// unnamed edge between two nodes. Local '%' keys are anonymous.
		g.anon++
		key = fmt.Sprintf("%%e%d", g.anon)
	}
	native, err := g.native.CreateEdgeByName(key, g.nodes[from.idx].native, g.nodes[to.idx].native)
	if err != nil {
		return Edge{}, errors.Wrap(errors.ErrCodeEdgeCreation, err, "create edge %s", g.edgeLabel(from.idx, to.idx)).WithOp("add edge")
	}
	if native == nil {
		return Edge{}, errors.New(errors.ErrCodeEdgeCreation, "engine refused edge %s", g.edgeLabel(from.idx, to.idx)).WithOp("add edge")
	}

	g.discardLayout()
	g.edges = append(g.edges, edgeSlot{native: native, name: name, from: from.idx, to: to.idx})
	return Edge{g: g, idx: len(g.edges) - 1}, nil
}

func (g *Graph) existingEdge(from, to int, name string) (int, bool) {
	for i, e := range g.edges {
		if e.dead || !g.connects(e, from, to) {
			continue
		}
		if g.strict || (name != "" && e.name == name) {
			return i, true
		}
	}
	return 0, false
}

func (g *Graph) connects(e edgeSlot, from, to int) bool {
	if e.from == from && e.to == to {
		return true
	}
	return !g.directed && e.from == to && e.to == from
}

// FindEdge returns an edge from -> to (either orientation for undirected
// graphs), preferring the earliest created.
func (g *Graph) FindEdge(from, to Node) (Edge, bool) {
	if g.closed || g.owns(from, "") != nil || g.owns(to, "") != nil {
		return Edge{}, false
	}
	for i, e := range g.edges {
		if !e.dead && g.connects(e, from.idx, to.idx) {
			return Edge{g: g, idx: i}, true
		}
	}
	return Edge{}, false
}

// RemoveNode deletes n and every edge incident to it. All handles to those
// objects become invalid.
func (g *Graph) RemoveNode(n Node) error {
	if err := g.check("remove node"); err != nil {
		return err
	}
	if err := g.owns(n, "remove node"); err != nil {
		return err
	}

	g.discardLayout()
	slot := &g.nodes[n.idx]
	if _, err := g.native.DeleteNode(slot.native); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete node %q", slot.name).WithOp("remove node")
	}
	for i := range g.edges {
		e := &g.edges[i]
		if !e.dead && (e.from == n.idx || e.to == n.idx) {
			e.dead, e.native = true, nil
		}
	}
	slot.dead, slot.native = true, nil
	delete(g.byName, slot.name)
	return nil
}

// RemoveEdge deletes e. The handle becomes invalid.
func (g *Graph) RemoveEdge(e Edge) error {
	if err := g.check("remove edge"); err != nil {
		return err
	}
	if err := g.ownsEdge(e, "remove edge"); err != nil {
		return err
	}

	g.discardLayout()
	slot := &g.edges[e.idx]
	if _, err := g.native.DeleteEdge(slot.native); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete edge %s", g.edgeLabel(slot.from, slot.to)).WithOp("remove edge")
	}
	slot.dead, slot.native = true, nil
	return nil
}

// Close frees the graph's layout (if its Context is still open) and the
// native graph. Every Node and Edge handle becomes invalid. Calling Close
// more than once is a no-op.
func (g *Graph) Close() error {
	if g == nil || g.closed {
		return nil
	}
	var first error
	if g.ctx != nil {
		if err := g.ctx.native.FreeLayout(context.Background(), g.native); err != nil {
			first = errors.Wrap(errors.ErrCodeInternal, err, "free layout of %q", g.name).WithOp("close graph")
		}
		g.ctx.untrack(g)
		g.ctx = nil
	}
	g.closed = true
	if err := g.native.Close(); err != nil && first == nil {
		first = errors.Wrap(errors.ErrCodeInternal, err, "close graph %q", g.name).WithOp("close graph")
	}
	g.native = nil
	g.nodes, g.edges, g.byName = nil, nil, nil
	return first
}

func (g *Graph) check(op string) error {
	if g == nil {
		return errors.New(errors.ErrCodeInvalidRef, "nil graph").WithOp(op)
	}
	if g.closed {
		return errors.New(errors.ErrCodeInvalidRef, "graph %q is closed", g.name).WithOp(op)
	}
	return nil
}

func (g *Graph) owns(n Node, op string) error {
	switch {
	case n.g == nil:
		return errors.New(errors.ErrCodeInvalidRef, "zero node handle").WithOp(op)
	case n.g != g:
		return errors.New(errors.ErrCodeInvalidRef, "node %q belongs to graph %q, not %q", n.g.nodeName(n.idx), n.g.name, g.name).WithOp(op)
	}
	return n.check(op)
}

func (g *Graph) ownsEdge(e Edge, op string) error {
	switch {
	case e.g == nil:
		return errors.New(errors.ErrCodeInvalidRef, "zero edge handle").WithOp(op)
	case e.g != g:
		return errors.New(errors.ErrCodeInvalidRef, "edge belongs to graph %q, not %q", e.g.name, g.name).WithOp(op)
	}
	return e.check(op)
}

func (g *Graph) nodeName(idx int) string {
	if idx < 0 || idx >= len(g.nodes) {
		return ""
	}
	return g.nodes[idx].name
}

func (g *Graph) edgeLabel(from, to int) string {
	op := "--"
	if g.directed {
		op = "->"
	}
	return fmt.Sprintf("%q %s %q", g.nodeName(from), op, g.nodeName(to))
}

// bind records that c laid the graph out.
func (g *Graph) bind(c *Context) {
	if g.ctx != nil && g.ctx != c {
		g.ctx.untrack(g)
	}
	g.ctx = c
	c.track(g)
}

// unbind forgets the current layout without touching the engine. Used by
// Context.Close, which frees the layout itself.
func (g *Graph) unbind() {
	g.ctx = nil
}

// discardLayout frees layout data before a structural change so the
// engine never renders positions computed for a different graph.
func (g *Graph) discardLayout() {
	if g.ctx == nil {
		return
	}
	if !g.ctx.closed {
		_ = g.ctx.native.FreeLayout(context.Background(), g.native)
		g.ctx.untrack(g)
	}
	g.ctx = nil
}

package gv

import (
	"github.com/matzehuels/gvbind/pkg/errors"
)

// Node is a handle to a node slot of its Graph. The zero Node is invalid.
type Node struct {
	g   *Graph
	idx int
}

// Valid reports whether the handle still refers to a live node.
func (n Node) Valid() bool { return n.check("") == nil }

// Graph returns the owning graph, or nil for the zero Node.
func (n Node) Graph() *Graph { return n.g }

// Name returns the node name, or "" when the handle is invalid.
func (n Node) Name() string {
	if !n.Valid() {
		return ""
	}
	return n.g.nodes[n.idx].name
}

func (n Node) String() string { return n.Name() }

func (n Node) check(op string) error {
	if n.g == nil {
		return errors.New(errors.ErrCodeInvalidRef, "zero node handle").WithOp(op)
	}
	if n.g.closed {
		return errors.New(errors.ErrCodeInvalidRef, "graph %q is closed", n.g.name).WithOp(op)
	}
	if n.idx < 0 || n.idx >= len(n.g.nodes) {
		return errors.New(errors.ErrCodeInvalidRef, "node handle out of range").WithOp(op)
	}
	if n.g.nodes[n.idx].dead {
		return errors.New(errors.ErrCodeInvalidRef, "node %q was removed", n.g.nodes[n.idx].name).WithOp(op)
	}
	return nil
}

func (n Node) slot() *nodeSlot { return &n.g.nodes[n.idx] }

// Edge is a handle to an edge slot of its Graph. The zero Edge is invalid.
type Edge struct {
	g   *Graph
	idx int
}

// Valid reports whether the handle still refers to a live edge.
func (e Edge) Valid() bool { return e.check("") == nil }

// Graph returns the owning graph, or nil for the zero Edge.
func (e Edge) Graph() *Graph { return e.g }

// Name returns the edge key given to AddEdge; unnamed edges return "".
func (e Edge) Name() string {
	if !e.Valid() {
		return ""
	}
	return e.g.edges[e.idx].name
}

// From returns the tail node.
func (e Edge) From() Node {
	if !e.Valid() {
		return Node{}
	}
	return Node{g: e.g, idx: e.g.edges[e.idx].from}
}

// To returns the head node.
func (e Edge) To() Node {
	if !e.Valid() {
		return Node{}
	}
	return Node{g: e.g, idx: e.g.edges[e.idx].to}
}

func (e Edge) String() string {
	if !e.Valid() {
		return ""
	}
	s := e.g.edges[e.idx]
	return e.g.edgeLabel(s.from, s.to)
}

func (e Edge) check(op string) error {
	if e.g == nil {
		return errors.New(errors.ErrCodeInvalidRef, "zero edge handle").WithOp(op)
	}
	if e.g.closed {
		return errors.New(errors.ErrCodeInvalidRef, "graph %q is closed", e.g.name).WithOp(op)
	}
	if e.idx < 0 || e.idx >= len(e.g.edges) {
		return errors.New(errors.ErrCodeInvalidRef, "edge handle out of range").WithOp(op)
	}
	if e.g.edges[e.idx].dead {
		return errors.New(errors.ErrCodeInvalidRef, "edge was removed").WithOp(op)
	}
	return nil
}

func (e Edge) slot() *edgeSlot { return &e.g.edges[e.idx] }

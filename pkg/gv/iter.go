package gv

import "iter"

// Nodes yields the live nodes in creation order. The sequence is lazy and
// may be ranged over any number of times.
func (g *Graph) Nodes() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if g.Closed() {
			return
		}
		for i := 0; i < len(g.nodes); i++ {
			if g.nodes[i].dead {
				continue
			}
			if !yield(Node{g: g, idx: i}) {
				return
			}
		}
	}
}

// Edges yields every live edge in creation order.
func (g *Graph) Edges() iter.Seq[Edge] {
	return g.edgesWhere(func(edgeSlot) bool { return true })
}

// OutEdges yields the edges whose tail is n. For undirected graphs these
// are the edges created with n as the first endpoint. An invalid handle
// yields nothing.
func (g *Graph) OutEdges(n Node) iter.Seq[Edge] {
	if g.owns(n, "") != nil {
		return func(func(Edge) bool) {}
	}
	return g.edgesWhere(func(e edgeSlot) bool { return e.from == n.idx })
}

// InEdges yields the edges whose head is n.
func (g *Graph) InEdges(n Node) iter.Seq[Edge] {
	if g.owns(n, "") != nil {
		return func(func(Edge) bool) {}
	}
	return g.edgesWhere(func(e edgeSlot) bool { return e.to == n.idx })
}

func (g *Graph) edgesWhere(match func(edgeSlot) bool) iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		if g.Closed() {
			return
		}
		for i := 0; i < len(g.edges); i++ {
			if g.edges[i].dead || !match(g.edges[i]) {
				continue
			}
			if !yield(Edge{g: g, idx: i}) {
				return
			}
		}
	}
}

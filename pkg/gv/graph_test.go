package gv

import (
	"context"
	"slices"
	"testing"

	"github.com/matzehuels/gvbind/pkg/errors"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	c, err := NewContext(context.Background())
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newTestGraph(t *testing.T, name string, opts ...GraphOption) *Graph {
	t.Helper()
	g, err := NewGraph(name, opts...)
	if err != nil {
		t.Fatalf("NewGraph(%q) error = %v", name, err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func mustNode(t *testing.T, g *Graph, name string) Node {
	t.Helper()
	n, err := g.AddNode(name)
	if err != nil {
		t.Fatalf("AddNode(%q) error = %v", name, err)
	}
	return n
}

func mustEdge(t *testing.T, g *Graph, from, to Node, name string) Edge {
	t.Helper()
	e, err := g.AddEdge(from, to, name)
	if err != nil {
		t.Fatalf("AddEdge(%s, %s) error = %v", from, to, err)
	}
	return e
}

func wantCode(t *testing.T, err error, code errors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %s", code)
	}
	if !errors.Is(err, code) {
		t.Fatalf("error = %v, want code %s", err, code)
	}
}

func TestNewGraph_Flags(t *testing.T) {
	tests := []struct {
		name     string
		directed bool
		strict   bool
	}{
		{"digraph", true, false},
		{"strict digraph", true, true},
		{"graph", false, false},
		{"strict graph", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGraph(t, tt.name, Directed(tt.directed), Strict(tt.strict))

			if g.IsDirected() != tt.directed {
				t.Errorf("IsDirected() = %v, want %v", g.IsDirected(), tt.directed)
			}
			if g.IsStrict() != tt.strict {
				t.Errorf("IsStrict() = %v, want %v", g.IsStrict(), tt.strict)
			}
			if g.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", g.Name(), tt.name)
			}
		})
	}
}

func TestNewGraph_Defaults(t *testing.T) {
	g := newTestGraph(t, "G")
	if !g.IsDirected() || g.IsStrict() {
		t.Errorf("defaults = directed %v strict %v, want directed non-strict", g.IsDirected(), g.IsStrict())
	}
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("counts = %d/%d, want 0/0", g.NodeCount(), g.EdgeCount())
	}
}

func TestNewGraph_RejectsNUL(t *testing.T) {
	_, err := NewGraph("bad\x00name")
	wantCode(t, err, errors.ErrCodeInvalidInput)
}

func TestAddNode_Counts(t *testing.T) {
	for _, strict := range []bool{false, true} {
		g := newTestGraph(t, "G", Strict(strict))
		names := []string{"A", "B", "C", "D"}
		for _, n := range names {
			mustNode(t, g, n)
		}
		if got := g.NodeCount(); got != len(names) {
			t.Errorf("strict=%v NodeCount() = %d, want %d", strict, got, len(names))
		}
	}
}

func TestAddNode_DuplicateReturnsExisting(t *testing.T) {
	for _, strict := range []bool{false, true} {
		g := newTestGraph(t, "G", Strict(strict))
		a1 := mustNode(t, g, "A")
		_ = a1.SetAttr("color", "red")
		a2 := mustNode(t, g, "A")

		if a1 != a2 {
			t.Errorf("strict=%v duplicate AddNode returned a different handle", strict)
		}
		if g.NodeCount() != 1 {
			t.Errorf("strict=%v NodeCount() = %d, want 1", strict, g.NodeCount())
		}
		if v, _ := a2.LookupAttr("color"); v != "red" {
			t.Errorf("strict=%v duplicate lost attributes: color = %q", strict, v)
		}
	}
}

func TestAddNode_EmptyName(t *testing.T) {
	g := newTestGraph(t, "G")
	_, err := g.AddNode("")
	wantCode(t, err, errors.ErrCodeInvalidInput)
}

func TestAddEdge_ForeignNode(t *testing.T) {
	g1 := newTestGraph(t, "g1")
	g2 := newTestGraph(t, "g2")
	a := mustNode(t, g1, "A")
	b := mustNode(t, g2, "B")

	_, err := g1.AddEdge(a, b, "")
	wantCode(t, err, errors.ErrCodeInvalidRef)

	_, err = g2.AddEdge(a, b, "")
	wantCode(t, err, errors.ErrCodeInvalidRef)

	if g1.EdgeCount() != 0 || g2.EdgeCount() != 0 {
		t.Error("failed AddEdge must not create edges")
	}
}

func TestAddEdge_ZeroHandle(t *testing.T) {
	g := newTestGraph(t, "G")
	a := mustNode(t, g, "A")
	_, err := g.AddEdge(a, Node{}, "")
	wantCode(t, err, errors.ErrCodeInvalidRef)
}

func TestAddEdge_Multiplicity(t *testing.T) {
	tests := []struct {
		name      string
		opts      []GraphOption
		edges     [][3]string // from, to, name
		wantEdges int
	}{
		{"non-strict unnamed parallel edges", nil, [][3]string{{"A", "B", ""}, {"A", "B", ""}}, 2},
		{"non-strict same name", nil, [][3]string{{"A", "B", "x"}, {"A", "B", "x"}}, 1},
		{"non-strict different names", nil, [][3]string{{"A", "B", "x"}, {"A", "B", "y"}}, 2},
		{"non-strict reverse direction", nil, [][3]string{{"A", "B", ""}, {"B", "A", ""}}, 2},
		{"strict parallel edges", []GraphOption{Strict(true)}, [][3]string{{"A", "B", ""}, {"A", "B", "x"}}, 1},
		{"strict directed reverse", []GraphOption{Strict(true)}, [][3]string{{"A", "B", ""}, {"B", "A", ""}}, 2},
		{"strict undirected reverse", []GraphOption{Strict(true), Directed(false)}, [][3]string{{"A", "B", ""}, {"B", "A", ""}}, 1},
		{"self loop", nil, [][3]string{{"A", "A", ""}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGraph(t, "G", tt.opts...)
			var first Edge
			for i, e := range tt.edges {
				edge := mustEdge(t, g, mustNode(t, g, e[0]), mustNode(t, g, e[1]), e[2])
				if i == 0 {
					first = edge
				}
			}
			if got := g.EdgeCount(); got != tt.wantEdges {
				t.Errorf("EdgeCount() = %d, want %d", got, tt.wantEdges)
			}
			if !first.Valid() {
				t.Error("first edge handle should stay valid")
			}
		})
	}
}

func TestEdge_Endpoints(t *testing.T) {
	g := newTestGraph(t, "G")
	a, b := mustNode(t, g, "A"), mustNode(t, g, "B")
	e := mustEdge(t, g, a, b, "link")

	if e.From() != a || e.To() != b {
		t.Errorf("endpoints = %s, %s; want A, B", e.From(), e.To())
	}
	if e.Name() != "link" {
		t.Errorf("Name() = %q, want link", e.Name())
	}
	if e.Graph() != g {
		t.Error("Graph() should return the owner")
	}
	if got := e.String(); got != `"A" -> "B"` {
		t.Errorf("String() = %s", got)
	}
}

func TestNodes_LazyRestartable(t *testing.T) {
	g := newTestGraph(t, "G")
	for _, n := range []string{"A", "B", "C"} {
		mustNode(t, g, n)
	}

	collect := func() []string {
		var out []string
		for n := range g.Nodes() {
			out = append(out, n.Name())
		}
		return out
	}

	first, second := collect(), collect()
	want := []string{"A", "B", "C"}
	if !slices.Equal(first, want) || !slices.Equal(second, want) {
		t.Errorf("Nodes() = %v then %v, want %v twice", first, second, want)
	}

	// Early exit must be honoured.
	count := 0
	for range g.Nodes() {
		count++
		break
	}
	if count != 1 {
		t.Errorf("break after first node visited %d nodes", count)
	}
}

func TestOutInEdges(t *testing.T) {
	g := newTestGraph(t, "G")
	a, b, c := mustNode(t, g, "A"), mustNode(t, g, "B"), mustNode(t, g, "C")
	mustEdge(t, g, a, b, "")
	mustEdge(t, g, a, c, "")
	mustEdge(t, g, b, c, "")

	heads := func(n Node) []string {
		var out []string
		for e := range g.OutEdges(n) {
			out = append(out, e.To().Name())
		}
		return out
	}
	tails := func(n Node) []string {
		var out []string
		for e := range g.InEdges(n) {
			out = append(out, e.From().Name())
		}
		return out
	}

	if got := heads(a); !slices.Equal(got, []string{"B", "C"}) {
		t.Errorf("OutEdges(A) heads = %v", got)
	}
	if got := heads(c); len(got) != 0 {
		t.Errorf("OutEdges(C) heads = %v, want none", got)
	}
	if got := tails(c); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("InEdges(C) tails = %v", got)
	}

	other := newTestGraph(t, "other")
	x := mustNode(t, other, "X")
	for range g.OutEdges(x) {
		t.Error("OutEdges with a foreign node must yield nothing")
	}

	n := 0
	for range g.Edges() {
		n++
	}
	if n != 3 {
		t.Errorf("Edges() yielded %d, want 3", n)
	}
}

func TestLookup(t *testing.T) {
	g := newTestGraph(t, "G", Directed(false))
	a, b := mustNode(t, g, "A"), mustNode(t, g, "B")
	e := mustEdge(t, g, a, b, "")

	if n, ok := g.Node("A"); !ok || n != a {
		t.Error("Node(A) should find A")
	}
	if _, ok := g.Node("Z"); ok {
		t.Error("Node(Z) should not exist")
	}
	if got, ok := g.FindEdge(b, a); !ok || got != e {
		t.Error("FindEdge should match either orientation in undirected graphs")
	}
}

func TestRemoveNode_InvalidatesHandles(t *testing.T) {
	g := newTestGraph(t, "G")
	a, b, c := mustNode(t, g, "A"), mustNode(t, g, "B"), mustNode(t, g, "C")
	ab := mustEdge(t, g, a, b, "")
	bc := mustEdge(t, g, b, c, "")
	ac := mustEdge(t, g, a, c, "")

	if err := g.RemoveNode(b); err != nil {
		t.Fatalf("RemoveNode() error = %v", err)
	}

	if b.Valid() || ab.Valid() || bc.Valid() {
		t.Error("removed node and its edges must be invalid")
	}
	if !a.Valid() || !ac.Valid() {
		t.Error("unrelated handles must stay valid")
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("counts = %d/%d, want 2/1", g.NodeCount(), g.EdgeCount())
	}

	wantCode(t, b.SetAttr("color", "red"), errors.ErrCodeInvalidRef)
	_, err := g.AddEdge(a, b, "")
	wantCode(t, err, errors.ErrCodeInvalidRef)
	wantCode(t, g.RemoveNode(b), errors.ErrCodeInvalidRef)

	// The name is free again and yields a fresh handle.
	b2 := mustNode(t, g, "B")
	if b2 == b {
		t.Error("re-added node must not reuse the removed handle")
	}
}

func TestRemoveEdge(t *testing.T) {
	g := newTestGraph(t, "G")
	a, b := mustNode(t, g, "A"), mustNode(t, g, "B")
	e := mustEdge(t, g, a, b, "")

	if err := g.RemoveEdge(e); err != nil {
		t.Fatalf("RemoveEdge() error = %v", err)
	}
	if e.Valid() {
		t.Error("removed edge must be invalid")
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
	wantCode(t, g.RemoveEdge(e), errors.ErrCodeInvalidRef)
}

func TestClose_InvalidatesEverything(t *testing.T) {
	g, err := NewGraph("G")
	if err != nil {
		t.Fatal(err)
	}
	a := mustNode(t, g, "A")
	e := mustEdge(t, g, a, a, "")

	if err := g.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := g.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if a.Valid() || e.Valid() {
		t.Error("handles must be invalid after Close")
	}
	_, err = g.AddNode("B")
	wantCode(t, err, errors.ErrCodeInvalidRef)
	wantCode(t, a.SetAttr("k", "v"), errors.ErrCodeInvalidRef)
	if g.NodeCount() != 0 {
		t.Error("closed graph should report no nodes")
	}
	for range g.Nodes() {
		t.Error("closed graph must yield no nodes")
	}
}

func TestWithGraph(t *testing.T) {
	var kept *Graph
	err := WithGraph("scoped", func(g *Graph) error {
		kept = g
		_, err := g.AddNode("A")
		return err
	})
	if err != nil {
		t.Fatalf("WithGraph() error = %v", err)
	}
	if !kept.Closed() {
		t.Error("WithGraph must close the graph")
	}

	sentinel := errors.New(errors.ErrCodeInternal, "boom")
	err = WithGraph("scoped", func(g *Graph) error {
		kept = g
		return sentinel
	})
	if err != sentinel {
		t.Errorf("WithGraph() error = %v, want sentinel", err)
	}
	if !kept.Closed() {
		t.Error("WithGraph must close the graph when fn fails")
	}
}

package gv

import (
	"testing"

	"github.com/matzehuels/gvbind/pkg/errors"
	"github.com/matzehuels/gvbind/pkg/gv/attr"
)

func TestGraphBuilder(t *testing.T) {
	g, err := NewGraphBuilder("built").
		Directed(false).
		Strict(true).
		Attr(attr.RankDir, attr.RankDirLR).
		Attr(attr.Label, "first").
		Attr(attr.Label, "second").
		EdgeDefault(attr.Color, "gray").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer g.Close()

	if g.IsDirected() || !g.IsStrict() {
		t.Errorf("flags = directed %v strict %v", g.IsDirected(), g.IsStrict())
	}
	if got, _ := g.Attr(attr.RankDir); got != attr.RankDirLR {
		t.Errorf("rankdir = %q", got)
	}
	if got, _ := g.Attr(attr.Label); got != "second" {
		t.Errorf("label = %q, want the last value", got)
	}
	if got := g.EdgeDefaults()[attr.Color]; got != "gray" {
		t.Errorf("edge default color = %q", got)
	}
}

func TestGraphBuilder_ValidatesFirst(t *testing.T) {
	tests := []struct {
		name string
		b    *GraphBuilder
	}{
		{"empty key", NewGraphBuilder("G").Attr("", "x")},
		{"NUL value", NewGraphBuilder("G").Attr("label", "a\x00")},
		{"NUL name", NewGraphBuilder("G\x00")},
		{"bad node default", NewGraphBuilder("G").NodeDefault("", "box")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.b.Build()
			if g != nil {
				t.Error("Build() must not return a graph on failure")
			}
			wantCode(t, err, errors.ErrCodeInvalidInput)
		})
	}
}

func TestNodeAndEdgeBuilder(t *testing.T) {
	g := newTestGraph(t, "G")

	a, err := g.NodeBuilder("A").Attr(attr.Shape, attr.ShapeBox).Attr(attr.Color, "red").Build()
	if err != nil {
		t.Fatalf("NodeBuilder.Build() error = %v", err)
	}
	b, err := g.NodeBuilder("B").Build()
	if err != nil {
		t.Fatalf("NodeBuilder.Build() error = %v", err)
	}

	e, err := g.EdgeBuilder(a, b).Name("ab").Attr(attr.Style, attr.StyleDashed).Build()
	if err != nil {
		t.Fatalf("EdgeBuilder.Build() error = %v", err)
	}

	if got, _ := a.Attr(attr.Shape); got != attr.ShapeBox {
		t.Errorf("A.shape = %q", got)
	}
	if e.Name() != "ab" {
		t.Errorf("edge name = %q", e.Name())
	}
	if got, _ := e.Attr(attr.Style); got != attr.StyleDashed {
		t.Errorf("edge style = %q", got)
	}

	_, err = g.NodeBuilder("C").Attr("", "x").Build()
	wantCode(t, err, errors.ErrCodeInvalidInput)
	if _, ok := g.Node("C"); ok {
		t.Error("failed NodeBuilder must not create the node")
	}

	other := newTestGraph(t, "other")
	x := mustNode(t, other, "X")
	_, err = g.EdgeBuilder(a, x).Build()
	wantCode(t, err, errors.ErrCodeInvalidRef)
}

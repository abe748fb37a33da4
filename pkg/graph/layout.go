package graph

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/matzehuels/gvbind/pkg/errors"
	"github.com/matzehuels/gvbind/pkg/gv"
	"github.com/matzehuels/gvbind/pkg/gv/attr"
)

// Layout is the geometry of a laid-out graph in points, with the origin at
// the bottom left as the engine reports it.
type Layout struct {
	Engine      string       `json:"engine" toml:"engine" bson:"engine"`
	BoundingBox [4]float64   `json:"bb" toml:"bb" bson:"bb"`
	Nodes       []NodeLayout `json:"nodes,omitempty" toml:"nodes,omitempty" bson:"nodes,omitempty"`
	Edges       []EdgeLayout `json:"edges,omitempty" toml:"edges,omitempty" bson:"edges,omitempty"`
	// DOT is the laid-out graph in DOT form, positions included.
	DOT string `json:"dot,omitempty" toml:"dot,omitempty" bson:"dot,omitempty"`
}

// Width is the bounding box width.
func (l *Layout) Width() float64 { return l.BoundingBox[2] - l.BoundingBox[0] }

// Height is the bounding box height.
func (l *Layout) Height() float64 { return l.BoundingBox[3] - l.BoundingBox[1] }

// NodeLayout is a node's center and size. Width and Height are in inches,
// as the engine reports them.
type NodeLayout struct {
	ID     string  `json:"id" toml:"id" bson:"id"`
	X      float64 `json:"x" toml:"x" bson:"x"`
	Y      float64 `json:"y" toml:"y" bson:"y"`
	Width  float64 `json:"width" toml:"width" bson:"width"`
	Height float64 `json:"height" toml:"height" bson:"height"`
}

// EdgeLayout keeps the engine's spline string ("e,x,y x,y ...") as is.
type EdgeLayout struct {
	From string `json:"from" toml:"from" bson:"from"`
	To   string `json:"to" toml:"to" bson:"to"`
	Name string `json:"name,omitempty" toml:"name,omitempty" bson:"name,omitempty"`
	Path string `json:"path,omitempty" toml:"path,omitempty" bson:"path,omitempty"`
}

// Extract reads the geometry of g, which must have been laid out by c.
// The engine attaches per-object positions when it emits DOT, so Extract
// renders DOT first and returns it as part of the layout.
func Extract(ctx context.Context, c *gv.Context, g *gv.Graph, engine gv.Engine) (*Layout, error) {
	dot, err := c.RenderString(ctx, g, gv.FormatDOT)
	if err != nil {
		return nil, err
	}

	l := &Layout{Engine: engine.String(), DOT: dot}
	if bb, ok := g.LookupAttr(attr.BoundingBox); ok {
		vals, err := parseFloats(bb, 4)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "parse bounding box %q", bb).WithOp("extract layout")
		}
		copy(l.BoundingBox[:], vals)
	}

	for n := range g.Nodes() {
		nl := NodeLayout{ID: n.Name()}
		if pos, ok := n.LookupAttr(attr.Pos); ok {
			xy, err := parseFloats(pos, 2)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "parse position of %q", n.Name()).WithOp("extract layout")
			}
			nl.X, nl.Y = xy[0], xy[1]
		}
		nl.Width = floatAttr(n, attr.Width)
		nl.Height = floatAttr(n, attr.Height)
		l.Nodes = append(l.Nodes, nl)
	}

	for e := range g.Edges() {
		path, _ := e.LookupAttr(attr.Pos)
		l.Edges = append(l.Edges, EdgeLayout{
			From: e.From().Name(),
			To:   e.To().Name(),
			Name: e.Name(),
			Path: path,
		})
	}
	return l, nil
}

// parseFloats parses a comma-separated list of exactly n numbers. A
// trailing "!" (pinned position) is ignored.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(strings.TrimSuffix(strings.TrimSpace(s), "!"), ",")
	if len(parts) != n {
		return nil, errors.New(errors.ErrCodeInvalidInput, "want %d values, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func floatAttr(a gv.Attributes, key string) float64 {
	s, ok := a.LookupAttr(key)
	if !ok {
		return 0
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// MarshalLayout serializes a Layout to indented JSON.
func MarshalLayout(l *Layout) ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode layout")
	}
	return data, nil
}

// UnmarshalLayout deserializes JSON into a Layout.
func UnmarshalLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode layout")
	}
	if l.Engine == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "layout has no engine")
	}
	return &l, nil
}

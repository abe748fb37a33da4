// Package gv is a lifetime-checked binding over the Graphviz layout and
// rendering engine.
//
// # Overview
//
// The engine itself (reached through [github.com/goccy/go-graphviz]) owns
// every native object. This package hides those objects behind Go values
// whose validity is checked on each call:
//
//   - [Context] owns the engine runtime. Layout and render go through it.
//   - [Graph] owns a native graph plus an arena of node and edge slots.
//   - [Node] and [Edge] are small value handles (graph, slot index) into that
//     arena. Removing a node or closing the graph invalidates them; using an
//     invalid handle fails with INVALID_REFERENCE instead of touching freed
//     native memory.
//
// # Usage
//
//	c, err := gv.NewContext(ctx)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	g, err := gv.NewGraph("deps")
//	if err != nil {
//	    return err
//	}
//	defer g.Close()
//
//	a, _ := g.AddNode("A")
//	b, _ := g.AddNode("B")
//	if _, err := g.AddEdge(a, b, ""); err != nil {
//	    return err
//	}
//	_ = g.SetAttr(attr.RankDir, attr.RankDirLR)
//
//	if err := c.Layout(ctx, g, gv.EngineDot); err != nil {
//	    return err
//	}
//	svg, err := c.RenderString(ctx, g, gv.FormatSVG)
//
// # Lifetimes
//
// A Context must outlive the graphs it lays out. Closing a Context frees the
// layout data of every graph it laid out, after which rendering those graphs
// fails with INVALID_CONTEXT. Closing a Graph frees its layout through its
// Context (when still open) and then the native graph. Both Close methods are
// idempotent, so they can be deferred unconditionally. [WithContext] and
// [WithGraph] wrap the acquire/release pair for callers that prefer scoped
// helpers.
//
// # Concurrency
//
// Nothing here is synchronized. A Graph and its handles must not be mutated
// from several goroutines at once, and the engine runtime is shared process
// wide, so concurrent layout or render calls must be serialized by the
// caller (see pkg/pipeline).
package gv

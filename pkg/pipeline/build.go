package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/gvbind/pkg/graph"
	"github.com/matzehuels/gvbind/pkg/gv"
	"github.com/matzehuels/gvbind/pkg/observability"
)

// Build creates the engine graph for desc and applies the resolved layout
// settings and render options to it. Render options go in before layout
// because size, dpi and scale affect the computed geometry.
//
// The caller owns the returned graph and must Close it.
func Build(ctx context.Context, desc *graph.Graph, opts Options) (*gv.Graph, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, desc.GraphName())
	start := time.Now()

	g, err := desc.Build()
	if err == nil {
		err = apply(g, opts)
		if err != nil {
			g.Close()
			g = nil
		}
	}

	nodes, edges := 0, 0
	if g != nil {
		nodes, edges = g.NodeCount(), g.EdgeCount()
	}
	hooks.OnBuildComplete(ctx, desc.GraphName(), nodes, edges, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func apply(g *gv.Graph, opts Options) error {
	if err := g.SetAttrs(opts.attrs); err != nil {
		return err
	}
	return opts.render.Apply(g)
}

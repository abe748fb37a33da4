package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/gvbind/pkg/gv"
	"github.com/matzehuels/gvbind/pkg/observability"
)

// LayOut runs the resolved engine on g.
func LayOut(ctx context.Context, c *gv.Context, g *gv.Graph, opts Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.engine.String(), g.NodeCount())
	start := time.Now()
	err := c.Layout(ctx, g, opts.engine)
	hooks.OnLayoutComplete(ctx, opts.engine.String(), time.Since(start), err)
	return err
}

// Render produces every requested format from a laid-out graph, keyed by
// format name. Either all formats succeed or none are returned.
func Render(ctx context.Context, c *gv.Context, g *gv.Graph, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(opts.formats))
	var err error
	for _, f := range opts.formats {
		var data []byte
		if data, err = c.RenderBytes(ctx, g, f); err != nil {
			break
		}
		artifacts[f.String()] = opts.render.Finish(f, data)
	}

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

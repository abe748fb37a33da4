package gv

import (
	"context"

	"github.com/matzehuels/gvbind/pkg/errors"
)

// Layout computes positions for g with engine, replacing any previous
// layout. Afterwards g is bound to c: it can only be rendered through c,
// and closing c releases the layout.
func (c *Context) Layout(ctx context.Context, g *Graph, engine Engine) error {
	if err := c.check("layout"); err != nil {
		return err
	}
	if err := g.check("layout"); err != nil {
		return err
	}
	if !engine.Valid() {
		return errors.New(errors.ErrCodeLayoutFailed, "unknown layout engine %d", int(engine)).WithOp("layout")
	}

	if g.ctx != nil && !g.ctx.closed {
		if err := g.ctx.native.FreeLayout(ctx, g.native); err != nil {
			return errors.Wrap(errors.ErrCodeLayoutFailed, err, "free previous layout of %q", g.name).WithOp("layout")
		}
		g.ctx.untrack(g)
		g.ctx = nil
	}

	if err := c.native.Layout(ctx, g.native, engine.String()); err != nil {
		return errors.Wrap(errors.ErrCodeLayoutFailed, err, "layout %q with %s", g.name, engine).WithOp("layout")
	}
	g.bind(c)
	return nil
}

// LayoutWith applies settings to g and then lays it out.
func (c *Context) LayoutWith(ctx context.Context, g *Graph, engine Engine, settings LayoutSettings) error {
	if err := settings.Apply(g); err != nil {
		return err
	}
	return c.Layout(ctx, g, engine)
}

// FreeLayout releases the layout data of g. Rendering g afterwards fails
// until it is laid out again. Freeing a graph without a layout is a no-op.
func (c *Context) FreeLayout(ctx context.Context, g *Graph) error {
	if err := c.check("free layout"); err != nil {
		return err
	}
	if err := g.check("free layout"); err != nil {
		return err
	}
	if g.ctx == nil {
		return nil
	}
	if g.ctx != c {
		return errors.New(errors.ErrCodeInvalidContext, "graph %q was laid out by another context", g.name).WithOp("free layout")
	}
	if err := c.native.FreeLayout(ctx, g.native); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "free layout of %q", g.name).WithOp("free layout")
	}
	c.untrack(g)
	g.ctx = nil
	return nil
}

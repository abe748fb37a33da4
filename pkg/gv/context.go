package gv

import (
	"context"

	"github.com/goccy/go-graphviz/gvc"

	"github.com/matzehuels/gvbind/pkg/errors"
	"github.com/matzehuels/gvbind/pkg/fonts"
)

// Context owns the engine runtime used for layout and rendering.
//
// A Context tracks the graphs it has laid out so that Close can release
// their layout data before the runtime itself goes away.
type Context struct {
	native *gvc.Context
	graphs map[*Graph]struct{}
	closed bool
}

type contextConfig struct {
	builtinsOnly  bool
	embeddedFonts bool
	plugins       []gvc.Plugin
}

// ContextOption configures [NewContext].
type ContextOption func(*contextConfig)

// WithoutRasterPlugins creates the runtime with the engine's built-in
// plugins only. PNG and JPEG output are unavailable on such a Context.
func WithoutRasterPlugins() ContextOption {
	return func(c *contextConfig) { c.builtinsOnly = true }
}

// WithPlugins registers additional render, device or image-loading plugins.
func WithPlugins(plugins ...gvc.Plugin) ContextOption {
	return func(c *contextConfig) { c.plugins = append(c.plugins, plugins...) }
}

// WithEmbeddedFonts rasterizes text with the fonts compiled into the
// binary instead of searching the host. The font loader is process-wide.
func WithEmbeddedFonts() ContextOption {
	return func(c *contextConfig) { c.embeddedFonts = true }
}

// NewContext starts the engine runtime.
func NewContext(ctx context.Context, opts ...ContextOption) (*Context, error) {
	var cfg contextConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.embeddedFonts {
		fonts.Install()
	}

	plugins := cfg.plugins
	if !cfg.builtinsOnly {
		defaults, err := gvc.DefaultPlugins(ctx)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeContextInit, err, "load default plugins").WithOp("new context")
		}
		plugins = append(defaults, plugins...)
	}

	native, err := gvc.NewWithPlugins(ctx, plugins...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeContextInit, err, "start engine runtime").WithOp("new context")
	}
	return &Context{native: native, graphs: make(map[*Graph]struct{})}, nil
}

// WithContext creates a Context, passes it to fn and closes it on every
// exit path. The error from fn takes precedence over the close error.
func WithContext(ctx context.Context, fn func(*Context) error, opts ...ContextOption) (err error) {
	c, err := NewContext(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(c)
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool {
	return c == nil || c.closed
}

// Close frees the layout data of every graph laid out with c and then
// the runtime. Calling Close more than once is a no-op.
func (c *Context) Close() error {
	if c == nil || c.closed {
		return nil
	}
	c.closed = true

	var first error
	for g := range c.graphs {
		if err := c.native.FreeLayout(context.Background(), g.native); err != nil && first == nil {
			first = errors.Wrap(errors.ErrCodeInternal, err, "free layout of %q", g.name).WithOp("close context")
		}
		g.unbind()
	}
	clear(c.graphs)

	if err := c.native.Close(); err != nil && first == nil {
		first = errors.Wrap(errors.ErrCodeInternal, err, "free engine runtime").WithOp("close context")
	}
	return first
}

func (c *Context) check(op string) error {
	if c == nil {
		return errors.New(errors.ErrCodeInvalidContext, "nil context").WithOp(op)
	}
	if c.closed {
		return errors.New(errors.ErrCodeInvalidContext, "context is closed").WithOp(op)
	}
	return nil
}

func (c *Context) track(g *Graph) {
	c.graphs[g] = struct{}{}
}

func (c *Context) untrack(g *Graph) {
	delete(c.graphs, g)
}

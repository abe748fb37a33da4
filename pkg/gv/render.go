package gv

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/gvbind/pkg/errors"
)

// RenderBytes renders the laid-out graph g in format f.
//
// It fails with RENDER_FAILED when g has no current layout or when the
// engine produces no output for f (the format is not compiled into this
// engine build), and with INVALID_CONTEXT when c is closed or is not the
// Context that laid g out.
func (c *Context) RenderBytes(ctx context.Context, g *Graph, f Format) ([]byte, error) {
	if err := c.renderable(g, f, "render"); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := c.native.RenderData(ctx, g.native, f.native(), &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "render %q as %s", g.name, f).WithOp("render")
	}
	if buf.Len() == 0 {
		return nil, errors.New(errors.ErrCodeRenderFailed, "engine produced no %s output for %q; format not supported by this build", f, g.name).WithOp("render")
	}
	return buf.Bytes(), nil
}

// RenderString renders g in a text format. Binary formats such as PNG
// fail with RENDER_FAILED; use RenderBytes for those.
func (c *Context) RenderString(ctx context.Context, g *Graph, f Format) (string, error) {
	if f.Valid() && !f.IsText() {
		return "", errors.New(errors.ErrCodeRenderFailed, "%s output is binary and cannot be rendered to a string", f).WithOp("render string")
	}
	b, err := c.RenderBytes(ctx, g, f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Render renders g and copies the output to w. Nothing is written to w
// when rendering fails.
func (c *Context) Render(ctx context.Context, g *Graph, f Format, w io.Writer) error {
	b, err := c.RenderBytes(ctx, g, f)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err, "write %s output", f).WithOp("render")
	}
	return nil
}

// RenderFile renders g to path. The output is written to a temporary file
// in the same directory and renamed into place, so a failed render never
// leaves a partial or empty file at path.
func (c *Context) RenderFile(ctx context.Context, g *Graph, f Format, path string) error {
	if err := errors.ValidateOutputPath(path); err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err, "invalid output path").WithOp("render file")
	}
	b, err := c.RenderBytes(ctx, g, f)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, b); err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err, "write %s", path).WithOp("render file")
	}
	return nil
}

func (c *Context) renderable(g *Graph, f Format, op string) error {
	if err := c.check(op); err != nil {
		return err
	}
	if err := g.check(op); err != nil {
		return err
	}
	if !f.Valid() {
		return errors.New(errors.ErrCodeRenderFailed, "unknown output format %d", int(f)).WithOp(op)
	}
	if g.ctx == nil {
		return errors.New(errors.ErrCodeRenderFailed, "graph %q is not laid out", g.name).WithOp(op)
	}
	if g.ctx != c {
		return errors.New(errors.ErrCodeInvalidContext, "graph %q was laid out by another context", g.name).WithOp(op)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

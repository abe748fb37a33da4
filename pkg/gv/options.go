package gv

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/matzehuels/gvbind/pkg/errors"
	"github.com/matzehuels/gvbind/pkg/gv/attr"
)

// RenderOptions tune output. They are graph attributes, so apply them
// before Layout: the engine reads DPI, scale and size while laying out.
// Zero values leave the engine defaults in place.
type RenderOptions struct {
	// AntiAlias smooths edges. It defaults to true; turning it off marks
	// SVG output with shape-rendering="crispEdges". Raster output from the
	// bundled renderers is always anti-aliased.
	AntiAlias bool `json:"anti_alias" toml:"anti_alias" bson:"anti_alias"`
	// Transparent renders without a background fill. It takes precedence
	// over Background.
	Transparent bool    `json:"transparent,omitempty" toml:"transparent,omitempty" bson:"transparent,omitempty"`
	DPI         float64 `json:"dpi,omitempty" toml:"dpi,omitempty" bson:"dpi,omitempty"`
	Background  string  `json:"background,omitempty" toml:"background,omitempty" bson:"background,omitempty"`
	Scale       float64 `json:"scale,omitempty" toml:"scale,omitempty" bson:"scale,omitempty"`
	// Width and Height bound the drawing, in inches.
	Width  float64 `json:"width,omitempty" toml:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" toml:"height,omitempty" bson:"height,omitempty"`
}

// DefaultRenderOptions returns options with anti-aliasing on and
// everything else unset.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{AntiAlias: true}
}

// Validate rejects negative numbers and half-specified sizes.
func (o RenderOptions) Validate() error {
	if o.DPI < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "dpi must be positive, got %g", o.DPI)
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", o.Scale)
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "size must be positive")
	}
	if (o.Width == 0) != (o.Height == 0) {
		return errors.New(errors.ErrCodeInvalidInput, "width and height must be set together")
	}
	return nil
}

// Attrs returns the graph attributes the options translate to.
func (o RenderOptions) Attrs() map[string]string {
	out := make(map[string]string)
	switch {
	case o.Transparent:
		out[attr.BgColor] = "transparent"
	case o.Background != "":
		out[attr.BgColor] = o.Background
	}
	if o.DPI > 0 {
		out[attr.DPI] = formatFloat(o.DPI)
	}
	if o.Scale > 0 {
		out[attr.Scale] = formatFloat(o.Scale)
	}
	if o.Width > 0 && o.Height > 0 {
		out[attr.Size] = fmt.Sprintf("%s,%s", formatFloat(o.Width), formatFloat(o.Height))
	}
	return out
}

// Apply validates o and writes it to g's graph attributes.
func (o RenderOptions) Apply(g *Graph) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return g.SetAttrs(o.Attrs())
}

var svgOpenTag = regexp.MustCompile(`<svg\b`)

// Finish applies the output-side part of o to data rendered in format f.
func (o RenderOptions) Finish(f Format, data []byte) []byte {
	if o.AntiAlias || f != FormatSVG {
		return data
	}
	loc := svgOpenTag.FindIndex(data)
	if loc == nil || bytes.Contains(data, []byte("shape-rendering=")) {
		return data
	}
	out := make([]byte, 0, len(data)+32)
	out = append(out, data[:loc[1]]...)
	out = append(out, ` shape-rendering=`+strconv.Quote("crispEdges")...)
	out = append(out, data[loc[1]:]...)
	return out
}

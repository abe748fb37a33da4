package gv

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/gvbind/pkg/errors"
	"github.com/matzehuels/gvbind/pkg/gv/attr"
)

// LayoutSettings are graph attributes that steer layout engines. Zero
// fields are left unset so the engine default applies.
type LayoutSettings struct {
	Overlap     string  `json:"overlap,omitempty" toml:"overlap,omitempty" bson:"overlap,omitempty"`
	Splines     string  `json:"splines,omitempty" toml:"splines,omitempty" bson:"splines,omitempty"`
	NodeSep     float64 `json:"nodesep,omitempty" toml:"nodesep,omitempty" bson:"nodesep,omitempty"`
	RankSep     float64 `json:"ranksep,omitempty" toml:"ranksep,omitempty" bson:"ranksep,omitempty"`
	RankDir     string  `json:"rankdir,omitempty" toml:"rankdir,omitempty" bson:"rankdir,omitempty"`
	Width       float64 `json:"width,omitempty" toml:"width,omitempty" bson:"width,omitempty"`    // inches, with Height forms "size"
	Height      float64 `json:"height,omitempty" toml:"height,omitempty" bson:"height,omitempty"` // inches
	Ratio       string  `json:"ratio,omitempty" toml:"ratio,omitempty" bson:"ratio,omitempty"`
	MarginX     float64 `json:"margin_x,omitempty" toml:"margin_x,omitempty" bson:"margin_x,omitempty"`
	MarginY     float64 `json:"margin_y,omitempty" toml:"margin_y,omitempty" bson:"margin_y,omitempty"`
	Label       string  `json:"label,omitempty" toml:"label,omitempty" bson:"label,omitempty"`
	FontName    string  `json:"fontname,omitempty" toml:"fontname,omitempty" bson:"fontname,omitempty"`
	FontSize    float64 `json:"fontsize,omitempty" toml:"fontsize,omitempty" bson:"fontsize,omitempty"`
	Orientation string  `json:"orientation,omitempty" toml:"orientation,omitempty" bson:"orientation,omitempty"`
	Concentrate bool    `json:"concentrate,omitempty" toml:"concentrate,omitempty" bson:"concentrate,omitempty"`
}

var boolLike = []string{"true", "false", "yes", "no", "1", "0"}

var rankDirs = []string{attr.RankDirTB, attr.RankDirLR, attr.RankDirBT, attr.RankDirRL}

// Validate checks every set field against the values the engine accepts.
func (s LayoutSettings) Validate() error {
	if s.Overlap != "" && !validOverlap(s.Overlap) {
		return invalidSetting("overlap", s.Overlap)
	}
	if s.Splines != "" && !slices.Contains(attr.SplineModes, strings.ToLower(s.Splines)) && !slices.Contains(boolLike, strings.ToLower(s.Splines)) {
		return invalidSetting("splines", s.Splines)
	}
	if s.RankDir != "" && !slices.Contains(rankDirs, strings.ToUpper(s.RankDir)) {
		return invalidSetting("rankdir", s.RankDir)
	}
	if s.Ratio != "" && !validRatio(s.Ratio) {
		return invalidSetting("ratio", s.Ratio)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"nodesep", s.NodeSep}, {"ranksep", s.RankSep},
		{"width", s.Width}, {"height", s.Height},
		{"margin_x", s.MarginX}, {"margin_y", s.MarginY},
		{"fontsize", s.FontSize},
	} {
		if f.v < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s must be positive, got %g", f.name, f.v)
		}
	}
	if (s.Width == 0) != (s.Height == 0) {
		return errors.New(errors.ErrCodeInvalidInput, "width and height must be set together")
	}
	return nil
}

func validOverlap(v string) bool {
	v = strings.ToLower(v)
	if slices.Contains(attr.OverlapModes, v) || slices.Contains(boolLike, v) {
		return true
	}
	if n, ok := strings.CutPrefix(v, attr.OverlapPrism); ok {
		_, err := strconv.Atoi(n)
		return err == nil
	}
	return false
}

func validRatio(v string) bool {
	switch v {
	case attr.RatioFill, attr.RatioCompress, attr.RatioExpand, attr.RatioAuto:
		return true
	}
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && f > 0
}

func invalidSetting(name, value string) error {
	return errors.New(errors.ErrCodeInvalidInput, "invalid %s value %q", name, value)
}

// Attrs returns the graph attributes the settings translate to.
func (s LayoutSettings) Attrs() map[string]string {
	out := make(map[string]string)
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set(attr.Overlap, s.Overlap)
	set(attr.Splines, s.Splines)
	set(attr.NodeSep, formatFloat(s.NodeSep))
	set(attr.RankSep, formatFloat(s.RankSep))
	set(attr.RankDir, strings.ToUpper(s.RankDir))
	if s.Width > 0 && s.Height > 0 {
		// The trailing '!' scales the drawing up to the size as well as down.
		out[attr.Size] = fmt.Sprintf("%s,%s!", formatFloat(s.Width), formatFloat(s.Height))
	}
	set(attr.Ratio, s.Ratio)
	if s.MarginX > 0 || s.MarginY > 0 {
		out[attr.Margin] = fmt.Sprintf("%s,%s", formatFloat(s.MarginX), formatFloat(s.MarginY))
	}
	set(attr.Label, s.Label)
	set(attr.FontName, s.FontName)
	set(attr.FontSize, formatFloat(s.FontSize))
	set(attr.Orientation, s.Orientation)
	if s.Concentrate {
		out[attr.Concentrate] = "true"
	}
	return out
}

// Apply validates s and writes it to g's graph attributes.
func (s LayoutSettings) Apply(g *Graph) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return g.SetAttrs(s.Attrs())
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// HierarchicalLayout suits dot: top-to-bottom ranks with curved edges.
func HierarchicalLayout() LayoutSettings {
	return LayoutSettings{RankDir: attr.RankDirTB, Splines: attr.SplinesSpline, NodeSep: 0.5, RankSep: 0.5}
}

// LeftToRightLayout is HierarchicalLayout with ranks running left to right.
func LeftToRightLayout() LayoutSettings {
	return LayoutSettings{RankDir: attr.RankDirLR, Splines: attr.SplinesSpline, NodeSep: 0.5, RankSep: 0.5}
}

// RadialLayout suits twopi.
func RadialLayout() LayoutSettings {
	return LayoutSettings{Overlap: attr.OverlapFalse, Splines: attr.SplinesSpline}
}

// ForceDirectedLayout suits fdp, sfdp and neato.
func ForceDirectedLayout() LayoutSettings {
	return LayoutSettings{Overlap: attr.OverlapPrism, Splines: attr.SplinesSpline}
}

// CircularLayout suits circo.
func CircularLayout() LayoutSettings {
	return LayoutSettings{Overlap: attr.OverlapFalse, Splines: attr.SplinesSpline}
}

// PresetInfo describes a named preset and the engine it is tuned for.
type PresetInfo struct {
	Name     string
	Engine   Engine
	Settings LayoutSettings
}

// Presets returns the named presets in a stable order.
func Presets() []PresetInfo {
	return []PresetInfo{
		{"hierarchical", EngineDot, HierarchicalLayout()},
		{"left-to-right", EngineDot, LeftToRightLayout()},
		{"radial", EngineTwopi, RadialLayout()},
		{"force-directed", EngineFdp, ForceDirectedLayout()},
		{"circular", EngineCirco, CircularLayout()},
	}
}

// Preset looks up a preset by name. Underscores are accepted in place of
// dashes.
func Preset(name string) (PresetInfo, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for _, p := range Presets() {
		if p.Name == name {
			return p, nil
		}
	}
	return PresetInfo{}, errors.New(errors.ErrCodeInvalidInput, "unknown layout preset %q", name)
}

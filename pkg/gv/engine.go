package gv

import (
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gvbind/pkg/errors"
)

// Engine selects a layout algorithm.
type Engine int

const (
	EngineDot       Engine = iota + 1 // hierarchical, layered drawings of directed graphs
	EngineNeato                       // spring model (stress majorization)
	EngineFdp                         // force-directed placement
	EngineSfdp                        // multiscale force-directed placement for large graphs
	EngineCirco                       // circular layout
	EngineTwopi                       // radial layout around a root node
	EngineOsage                       // clustered array packing
	EnginePatchwork                   // squarified treemap
)

var engines = []struct {
	engine Engine
	name   graphviz.Layout
	desc   string
}{
	{EngineDot, graphviz.DOT, "hierarchical layers"},
	{EngineNeato, graphviz.NEATO, "spring model"},
	{EngineFdp, graphviz.FDP, "force-directed"},
	{EngineSfdp, graphviz.SFDP, "multiscale force-directed"},
	{EngineCirco, graphviz.CIRCO, "circular"},
	{EngineTwopi, graphviz.TWOPI, "radial"},
	{EngineOsage, graphviz.OSAGE, "clustered array packing"},
	{EnginePatchwork, graphviz.PATCHWORK, "squarified treemap"},
}

// Engines returns every supported engine in declaration order.
func Engines() []Engine {
	out := make([]Engine, len(engines))
	for i, e := range engines {
		out[i] = e.engine
	}
	return out
}

// ParseEngine maps an engine name such as "dot" or "NEATO" to an Engine.
func ParseEngine(s string) (Engine, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, e := range engines {
		if string(e.name) == s {
			return e.engine, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidEngine, "unknown layout engine %q", s)
}

// Valid reports whether e is one of the declared engines.
func (e Engine) Valid() bool { return e >= EngineDot && e <= EnginePatchwork }

// String returns the engine's native name.
func (e Engine) String() string {
	if !e.Valid() {
		return "unknown"
	}
	return string(engines[e-1].name)
}

// Description is a short human-readable summary of the algorithm.
func (e Engine) Description() string {
	if !e.Valid() {
		return ""
	}
	return engines[e-1].desc
}

// MarshalText implements encoding.TextMarshaler.
func (e Engine) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidEngine, "invalid engine %d", int(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Engine) UnmarshalText(b []byte) error {
	v, err := ParseEngine(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

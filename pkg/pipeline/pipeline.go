// Package pipeline turns graph descriptions into rendered artifacts.
//
// This package implements the build → layout → render pipeline shared by the
// CLI and the HTTP server, so both apply presets, settings, caching and
// hooks the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Build: Turn a [graph.Graph] description into an engine graph
//  2. Layout: Run a layout engine with the resolved settings
//  3. Render: Produce output in every requested format
//
// Layout geometry can also be extracted on its own with [Runner.Layout].
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	defer runner.Close()
//
//	result, err := runner.Execute(ctx, desc, pipeline.Options{
//	    Preset:  "left-to-right",
//	    Formats: []string{"svg", "png"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"maps"
	"slices"
	"time"

	"github.com/matzehuels/gvbind/pkg/cache"
	"github.com/matzehuels/gvbind/pkg/errors"
	"github.com/matzehuels/gvbind/pkg/gv"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultEngine is used when neither Options.Engine nor a preset names one.
const DefaultEngine = gv.EngineDot

// DefaultFormat is rendered when Options.Formats is empty.
const DefaultFormat = gv.FormatSVG

// MaxFormats bounds the number of formats one run may request.
const MaxFormats = 8

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON and TOML serialization for API requests and
// the CLI config file.
type Options struct {
	// Layout options
	Engine   string            `json:"engine,omitempty" toml:"engine,omitempty"`
	Preset   string            `json:"preset,omitempty" toml:"preset,omitempty"`
	Settings gv.LayoutSettings `json:"settings,omitzero" toml:"settings,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty" toml:"formats,omitempty"`
	// Render defaults to gv.DefaultRenderOptions when nil.
	Render *gv.RenderOptions `json:"render,omitempty" toml:"render,omitempty"`

	// Refresh bypasses cache reads. Fresh results are still written.
	Refresh bool `json:"refresh,omitempty" toml:"-"`

	// resolved by ValidateAndSetDefaults
	engine    gv.Engine
	formats   []gv.Format
	attrs     map[string]string
	render    gv.RenderOptions
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// GraphHash is the content hash of the description.
	GraphHash string

	// Graph is the description's graph name.
	Graph string

	// Engine is the engine the graph was laid out with.
	Engine gv.Engine

	// Artifacts contains rendered outputs keyed by format name.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults resolves the engine, preset and formats and checks
// every setting. It is idempotent.
//
// A preset supplies the engine when Engine is empty, and its settings sit
// underneath Settings: a field set in both takes the value from Settings.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.Settings.Validate(); err != nil {
		return err
	}

	o.engine = DefaultEngine
	o.attrs = make(map[string]string)
	if o.Preset != "" {
		p, err := gv.Preset(o.Preset)
		if err != nil {
			return err
		}
		o.engine = p.Engine
		maps.Copy(o.attrs, p.Settings.Attrs())
	}
	maps.Copy(o.attrs, o.Settings.Attrs())

	if o.Engine != "" {
		e, err := gv.ParseEngine(o.Engine)
		if err != nil {
			return err
		}
		o.engine = e
	}
	o.Engine = o.engine.String()

	if err := o.resolveFormats(); err != nil {
		return err
	}

	o.render = gv.DefaultRenderOptions()
	if o.Render != nil {
		o.render = *o.Render
	}
	if err := o.render.Validate(); err != nil {
		return err
	}

	o.validated = true
	return nil
}

func (o *Options) resolveFormats() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat.String()}
	}
	if len(o.Formats) > MaxFormats {
		return errors.New(errors.ErrCodeInvalidInput, "at most %d formats per run, got %d", MaxFormats, len(o.Formats))
	}
	o.formats = o.formats[:0]
	names := make([]string, 0, len(o.Formats))
	for _, s := range o.Formats {
		f, err := gv.ParseFormat(s)
		if err != nil {
			return err
		}
		if slices.Contains(o.formats, f) {
			continue
		}
		o.formats = append(o.formats, f)
		names = append(names, f.String())
	}
	o.Formats = names
	return nil
}

// EngineValue returns the resolved engine. Valid after
// ValidateAndSetDefaults.
func (o *Options) EngineValue() gv.Engine {
	return o.engine
}

// FormatValues returns the resolved, de-duplicated formats.
func (o *Options) FormatValues() []gv.Format {
	return slices.Clone(o.formats)
}

// LayoutAttrs returns the graph attributes the preset and settings resolve
// to.
func (o *Options) LayoutAttrs() map[string]string {
	return maps.Clone(o.attrs)
}

// RenderOptions returns the resolved render options.
func (o *Options) RenderOptions() gv.RenderOptions {
	return o.render
}

// LayoutKeyOpts returns cache key options for layout extraction.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Engine:   o.engine.String(),
		Settings: o.attrs,
	}
}

// ArtifactKeyOpts returns cache key options for rendering format.
func (o *Options) ArtifactKeyOpts(format gv.Format) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Engine:    o.engine.String(),
		Format:    format.String(),
		Settings:  o.attrs,
		Options:   o.render.Attrs(),
		AntiAlias: o.render.AntiAlias,
	}
}

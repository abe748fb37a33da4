package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gvbind/pkg/cache"
	"github.com/matzehuels/gvbind/pkg/errors"
	"github.com/matzehuels/gvbind/pkg/graph"
	"github.com/matzehuels/gvbind/pkg/gv"
	"github.com/matzehuels/gvbind/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The layout engine is a single process-wide instance, so the Runner
// serializes engine work behind a mutex. Cache lookups happen outside the
// lock, which lets concurrent cache hits proceed while one render runs.
// Multiple goroutines can safely share a Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// ContextOptions configure the engine context, created on first use.
	ContextOptions []gv.ContextOption

	// TTL overrides the lifetime of cached layouts and artifacts. Zero
	// uses cache.TTLLayout and cache.TTLArtifact.
	TTL time.Duration

	mu     sync.Mutex
	gvctx  *gv.Context
	closed bool
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger, opts ...gv.ContextOption) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:          c,
		Keyer:          keyer,
		Logger:         logger,
		ContextOptions: opts,
	}
}

// Execute runs the complete build → layout → render pipeline with caching.
// Stats are only filled in when the engine actually ran.
func (r *Runner) Execute(ctx context.Context, desc *graph.Graph, opts Options) (*Result, error) {
	if desc == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no graph description").WithOp("execute")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		GraphHash: desc.Hash(),
		Graph:     desc.GraphName(),
		Engine:    opts.engine,
	}

	if !opts.Refresh {
		if artifacts, ok := r.cachedArtifacts(ctx, result.GraphHash, opts); ok {
			result.Artifacts = artifacts
			result.CacheInfo.RenderHit = true
			r.Logger.Debug("artifacts from cache", "graph", result.Graph, "formats", opts.Formats)
			return result, nil
		}
	}

	artifacts, err := r.run(ctx, desc, opts, result)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts

	for _, f := range opts.formats {
		data := artifacts[f.String()]
		key := r.Keyer.ArtifactKey(result.GraphHash, opts.ArtifactKeyOpts(f))
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err != nil {
			r.Logger.Warn("cache write failed", "format", f, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	r.Logger.Info("rendered",
		"graph", result.Graph,
		"engine", opts.engine,
		"formats", opts.Formats,
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.BuildTime+result.Stats.LayoutTime+result.Stats.RenderTime)
	return result, nil
}

// cachedArtifacts returns every requested format from the cache, or false
// if any one is missing.
func (r *Runner) cachedArtifacts(ctx context.Context, hash string, opts Options) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.formats))
	for _, f := range opts.formats {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(f))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, "artifact")
			return nil, false
		}
		observability.Cache().OnCacheHit(ctx, "artifact")
		artifacts[f.String()] = data
	}
	return artifacts, true
}

func (r *Runner) run(ctx context.Context, desc *graph.Graph, opts Options, result *Result) (map[string][]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.engineContext(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	g, err := Build(ctx, desc, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	defer g.Close()
	result.Stats.BuildTime = time.Since(start)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	start = time.Now()
	if err := LayOut(ctx, c, g, opts); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Stats.LayoutTime = time.Since(start)

	start = time.Now()
	artifacts, err := Render(ctx, c, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Stats.RenderTime = time.Since(start)
	return artifacts, nil
}

// Layout extracts node and edge geometry for desc with caching, and reports
// whether the layout came from the cache.
func (r *Runner) Layout(ctx context.Context, desc *graph.Graph, opts Options) (*graph.Layout, bool, error) {
	if desc == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "no graph description").WithOp("layout")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, fmt.Errorf("invalid options: %w", err)
	}

	key := r.Keyer.LayoutKey(desc.Hash(), opts.LayoutKeyOpts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if l, err := graph.UnmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return l, true, nil
			}
			// Corrupt entries fall through to recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	l, err := r.extract(ctx, desc, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := graph.MarshalLayout(l); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLLayout)); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	r.Logger.Info("computed layout", "graph", desc.GraphName(), "engine", opts.engine, "nodes", len(l.Nodes))
	return l, false, nil
}

func (r *Runner) extract(ctx context.Context, desc *graph.Graph, opts Options) (*graph.Layout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.engineContext(ctx)
	if err != nil {
		return nil, err
	}
	g, err := Build(ctx, desc, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	defer g.Close()

	if err := LayOut(ctx, c, g, opts); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return graph.Extract(ctx, c, g, opts.engine)
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// engineContext returns the shared engine context, creating it on first
// use. r.mu must be held.
func (r *Runner) engineContext(ctx context.Context) (*gv.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.closed {
		return nil, errors.New(errors.ErrCodeInvalidContext, "runner is closed")
	}
	if r.gvctx == nil {
		c, err := gv.NewContext(ctx, r.ContextOptions...)
		if err != nil {
			return nil, err
		}
		r.gvctx = c
	}
	return r.gvctx, nil
}

// Close releases the engine context and the cache.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	if r.gvctx != nil {
		if err := r.gvctx.Close(); err != nil {
			errs = append(errs, err)
		}
		r.gvctx = nil
	}
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

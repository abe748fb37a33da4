package pipeline

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gvbind/pkg/cache"
	"github.com/matzehuels/gvbind/pkg/errors"
	"github.com/matzehuels/gvbind/pkg/graph"
	"github.com/matzehuels/gvbind/pkg/gv"
	"github.com/matzehuels/gvbind/pkg/gv/attr"
	"github.com/matzehuels/gvbind/pkg/observability"
)

func testDesc() *graph.Graph {
	return &graph.Graph{
		Name:  "deps",
		Nodes: []graph.Node{{ID: "app"}, {ID: "lib", Attrs: map[string]string{attr.Shape: attr.ShapeBox}}},
		Edges: []graph.Edge{{From: "app", To: "lib"}, {From: "lib", To: "libc"}},
	}
}

func testRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	r := NewRunner(c, nil, log.New(&bytes.Buffer{}))
	t.Cleanup(func() { r.Close() })
	return r
}

func fileCache(t *testing.T) *cache.FileCache {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestOptions_ValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name        string
		opts        Options
		wantEngine  gv.Engine
		wantFormats []string
		wantRankDir string
		wantCode    errors.Code
	}{
		{
			name:        "defaults",
			wantEngine:  gv.EngineDot,
			wantFormats: []string{"svg"},
		},
		{
			name:        "preset supplies engine and settings",
			opts:        Options{Preset: "left-to-right"},
			wantEngine:  gv.EngineDot,
			wantFormats: []string{"svg"},
			wantRankDir: attr.RankDirLR,
		},
		{
			name:        "radial preset",
			opts:        Options{Preset: "radial"},
			wantEngine:  gv.EngineTwopi,
			wantFormats: []string{"svg"},
		},
		{
			name:        "engine overrides preset",
			opts:        Options{Preset: "radial", Engine: "neato"},
			wantEngine:  gv.EngineNeato,
			wantFormats: []string{"svg"},
		},
		{
			name:        "settings override preset",
			opts:        Options{Preset: "left-to-right", Settings: gv.LayoutSettings{RankDir: attr.RankDirBT}},
			wantEngine:  gv.EngineDot,
			wantFormats: []string{"svg"},
			wantRankDir: attr.RankDirBT,
		},
		{
			name:        "formats normalized and de-duplicated",
			opts:        Options{Formats: []string{"SVG", "svg", ".png", "jpg"}},
			wantEngine:  gv.EngineDot,
			wantFormats: []string{"svg", "png", "jpeg"},
		},
		{name: "unknown preset", opts: Options{Preset: "spiral"}, wantCode: errors.ErrCodeInvalidInput},
		{name: "unknown engine", opts: Options{Engine: "graphite"}, wantCode: errors.ErrCodeInvalidEngine},
		{name: "unknown format", opts: Options{Formats: []string{"svg", "docx"}}, wantCode: errors.ErrCodeInvalidFormat},
		{name: "too many formats", opts: Options{Formats: make([]string, MaxFormats+1)}, wantCode: errors.ErrCodeInvalidInput},
		{name: "bad settings", opts: Options{Settings: gv.LayoutSettings{Overlap: "maybe"}}, wantCode: errors.ErrCodeInvalidInput},
		{name: "bad render options", opts: Options{Render: &gv.RenderOptions{DPI: -1}}, wantCode: errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.ValidateAndSetDefaults()
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateAndSetDefaults() error = %v", err)
			}
			if opts.EngineValue() != tt.wantEngine {
				t.Errorf("engine = %s, want %s", opts.EngineValue(), tt.wantEngine)
			}
			if opts.Engine != tt.wantEngine.String() {
				t.Errorf("Engine = %q", opts.Engine)
			}
			if len(opts.Formats) != len(tt.wantFormats) {
				t.Fatalf("Formats = %v, want %v", opts.Formats, tt.wantFormats)
			}
			for i, f := range tt.wantFormats {
				if opts.Formats[i] != f {
					t.Errorf("Formats[%d] = %q, want %q", i, opts.Formats[i], f)
				}
			}
			if got := opts.LayoutAttrs()[attr.RankDir]; got != tt.wantRankDir {
				t.Errorf("rankdir = %q, want %q", got, tt.wantRankDir)
			}
			if !opts.RenderOptions().AntiAlias {
				t.Error("render options should default to anti-aliased")
			}
		})
	}
}

func TestOptions_Idempotent(t *testing.T) {
	opts := Options{Preset: "circular", Formats: []string{"png", "png"}}
	for range 2 {
		if err := opts.ValidateAndSetDefaults(); err != nil {
			t.Fatal(err)
		}
	}
	if len(opts.FormatValues()) != 1 || opts.EngineValue() != gv.EngineCirco {
		t.Errorf("formats %v engine %s", opts.FormatValues(), opts.EngineValue())
	}
}

func TestOptions_KeyOpts(t *testing.T) {
	keyer := cache.NewDefaultKeyer()
	key := func(opts Options, f gv.Format) string {
		t.Helper()
		if err := opts.ValidateAndSetDefaults(); err != nil {
			t.Fatal(err)
		}
		return keyer.ArtifactKey("hash", opts.ArtifactKeyOpts(f))
	}

	base := key(Options{}, gv.FormatSVG)
	if base != key(Options{Engine: "dot"}, gv.FormatSVG) {
		t.Error("an explicit default engine must not change the key")
	}
	if base == key(Options{}, gv.FormatPNG) {
		t.Error("format must change the key")
	}
	if base == key(Options{Engine: "neato"}, gv.FormatSVG) {
		t.Error("engine must change the key")
	}
	if base == key(Options{Preset: "left-to-right"}, gv.FormatSVG) {
		t.Error("settings must change the key")
	}
	if base == key(Options{Render: &gv.RenderOptions{}}, gv.FormatSVG) {
		t.Error("anti-aliasing must change the key")
	}
	if base == key(Options{Render: &gv.RenderOptions{AntiAlias: true, DPI: 144}}, gv.FormatSVG) {
		t.Error("render options must change the key")
	}
}

func TestRunner_Execute(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t, fileCache(t))
	opts := Options{Preset: "left-to-right", Formats: []string{"svg", "dot", "png"}}

	res, err := r.Execute(ctx, testDesc(), opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.CacheInfo.RenderHit {
		t.Error("first run must not hit the cache")
	}
	if res.Graph != "deps" || res.Engine != gv.EngineDot || res.GraphHash == "" {
		t.Errorf("result = %+v", res)
	}
	if res.Stats.NodeCount != 3 || res.Stats.EdgeCount != 2 {
		t.Errorf("stats = %+v, want 3 nodes (libc is implicit) and 2 edges", res.Stats)
	}
	if !bytes.Contains(res.Artifacts["svg"], []byte("<svg")) {
		t.Error("svg artifact is not SVG")
	}
	if !bytes.Contains(res.Artifacts["dot"], []byte("rankdir=LR")) {
		t.Errorf("dot artifact does not carry the preset:\n%s", res.Artifacts["dot"])
	}
	if !bytes.HasPrefix(res.Artifacts["png"], []byte("\x89PNG")) {
		t.Error("png artifact is not PNG")
	}

	again, err := r.Execute(ctx, testDesc(), opts)
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !again.CacheInfo.RenderHit {
		t.Error("second run should come from the cache")
	}
	if !bytes.Equal(again.Artifacts["png"], res.Artifacts["png"]) {
		t.Error("cached artifact differs from the rendered one")
	}

	opts.Refresh = true
	fresh, err := r.Execute(ctx, testDesc(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.CacheInfo.RenderHit {
		t.Error("Refresh must bypass the cache")
	}
}

func TestRunner_Execute_Errors(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t, nil)

	_, err := r.Execute(ctx, nil, Options{})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil description error = %v", err)
	}

	dup := &graph.Graph{Nodes: []graph.Node{{ID: "a"}, {ID: "a"}}}
	_, err = r.Execute(ctx, dup, Options{})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("duplicate node error = %v", err)
	}

	_, err = r.Execute(ctx, testDesc(), Options{Formats: []string{"svg", "gif"}})
	if !errors.Is(err, errors.ErrCodeRenderFailed) {
		t.Errorf("gif error = %v, want RENDER_FAILED", err)
	}

	_, err = r.Execute(ctx, testDesc(), Options{Engine: "bogus"})
	if !errors.Is(err, errors.ErrCodeInvalidEngine) {
		t.Errorf("engine error = %v", err)
	}
}

func TestRunner_FailedRenderNotCached(t *testing.T) {
	ctx := context.Background()
	c := fileCache(t)
	r := testRunner(t, c)

	opts := Options{Formats: []string{"svg", "gif"}}
	if _, err := r.Execute(ctx, testDesc(), opts); err == nil {
		t.Fatal("expected failure")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	key := r.Keyer.ArtifactKey(testDesc().Hash(), opts.ArtifactKeyOpts(gv.FormatSVG))
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("a partially failed run must not populate the cache")
	}
}

func TestRunner_Layout(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t, fileCache(t))

	l, hit, err := r.Layout(ctx, testDesc(), Options{Preset: "hierarchical"})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if hit {
		t.Error("first layout must not hit the cache")
	}
	if l.Engine != "dot" || len(l.Nodes) != 3 || len(l.Edges) != 2 {
		t.Errorf("layout = engine %s, %d nodes, %d edges", l.Engine, len(l.Nodes), len(l.Edges))
	}
	if l.Width() <= 0 || l.Height() <= 0 {
		t.Errorf("bounding box = %v", l.BoundingBox)
	}

	cached, hit, err := r.Layout(ctx, testDesc(), Options{Preset: "hierarchical"})
	if err != nil || !hit {
		t.Fatalf("second Layout() hit = %v, err = %v", hit, err)
	}
	if cached.DOT != l.DOT {
		t.Error("cached layout differs")
	}

	_, hit, _ = r.Layout(ctx, testDesc(), Options{Preset: "circular"})
	if hit {
		t.Error("a different preset must miss the cache")
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	builds, layouts, renders atomic.Int32
	hits, misses, sets       atomic.Int32
}

func (h *countingHooks) OnBuildComplete(context.Context, string, int, int, time.Duration, error) {
	h.builds.Add(1)
}

func (h *countingHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {
	h.layouts.Add(1)
}

func (h *countingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.renders.Add(1)
}

func (h *countingHooks) OnCacheHit(context.Context, string)      { h.hits.Add(1) }
func (h *countingHooks) OnCacheMiss(context.Context, string)     { h.misses.Add(1) }
func (h *countingHooks) OnCacheSet(context.Context, string, int) { h.sets.Add(1) }

func TestRunner_Hooks(t *testing.T) {
	h := &countingHooks{}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	r := testRunner(t, fileCache(t))
	opts := Options{Formats: []string{"svg", "json"}}

	for range 2 {
		if _, err := r.Execute(ctx, testDesc(), opts); err != nil {
			t.Fatal(err)
		}
	}

	if h.builds.Load() != 1 || h.layouts.Load() != 1 || h.renders.Load() != 1 {
		t.Errorf("stage events = %d/%d/%d, want one run", h.builds.Load(), h.layouts.Load(), h.renders.Load())
	}
	if h.misses.Load() != 1 || h.sets.Load() != 2 || h.hits.Load() != 2 {
		t.Errorf("cache events: %d misses, %d sets, %d hits", h.misses.Load(), h.sets.Load(), h.hits.Load())
	}
}

func TestRunner_Concurrent(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine := gv.Engines()[i%len(gv.Engines())]
			_, err := r.Execute(ctx, testDesc(), Options{Engine: engine.String()})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent Execute() error = %v", err)
		}
	}
}

func TestRunner_Closed(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	_, err := r.Execute(context.Background(), testDesc(), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidContext) {
		t.Errorf("Execute() after Close error = %v", err)
	}
}

func TestRunner_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := testRunner(t, nil)
	if _, err := r.Execute(ctx, testDesc(), Options{}); err == nil {
		t.Error("Execute() with a canceled context should fail")
	}
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gvbind/pkg/errors"
	"github.com/matzehuels/gvbind/pkg/graph"
	"github.com/matzehuels/gvbind/pkg/gv"
	"github.com/matzehuels/gvbind/pkg/pipeline"
)

// stdinPath reads the description from standard input.
const stdinPath = "-"

// pipelineFlags are the layout and render flags shared by render and layout.
type pipelineFlags struct {
	engine      string
	preset      string
	rankDir     string
	splines     string
	overlap     string
	nodeSep     float64
	rankSep     float64
	dpi         float64
	scale       float64
	background  string
	transparent bool
	noAntiAlias bool
	noCache     bool
	refresh     bool
	inputFormat string
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.engine, "engine", "e", "", "layout engine: dot, neato, fdp, sfdp, circo, twopi, osage, patchwork")
	fs.StringVarP(&f.preset, "preset", "p", "", "layout preset (see 'gvbind presets')")
	fs.StringVar(&f.rankDir, "rankdir", "", "rank direction: TB, LR, BT, RL")
	fs.StringVar(&f.splines, "splines", "", "edge routing: true, false, line, polyline, ortho, curved, spline, none")
	fs.StringVar(&f.overlap, "overlap", "", "node overlap removal for force-directed engines")
	fs.Float64Var(&f.nodeSep, "nodesep", 0, "minimum space between nodes in one rank (inches)")
	fs.Float64Var(&f.rankSep, "ranksep", 0, "minimum space between ranks (inches)")
	fs.Float64Var(&f.dpi, "dpi", 0, "output resolution for raster formats")
	fs.Float64Var(&f.scale, "scale", 0, "scale factor applied after layout")
	fs.StringVar(&f.background, "background", "", "background color")
	fs.BoolVar(&f.transparent, "transparent", false, "transparent background")
	fs.BoolVar(&f.noAntiAlias, "no-antialias", false, "render SVG with crisp edges")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fs.BoolVar(&f.refresh, "refresh", false, "ignore cached results and recompute")
	fs.StringVar(&f.inputFormat, "input-format", "", "description encoding: json, toml (default: from file extension)")
}

// pipelineOptions merges the config file and the flags. A flag the user set wins
// over the config file.
func (c *CLI) pipelineOptions(cmd *cobra.Command, f *pipelineFlags) pipeline.Options {
	cfg := c.Config
	changed := cmd.Flags().Changed

	opts := pipeline.Options{
		Engine:  cfg.Layout.Engine,
		Preset:  cfg.Layout.Preset,
		Refresh: f.refresh,
		Settings: gv.LayoutSettings{
			RankDir: f.rankDir,
			Splines: f.splines,
			Overlap: f.overlap,
			NodeSep: f.nodeSep,
			RankSep: f.rankSep,
		},
	}
	if changed("preset") {
		opts.Preset = f.preset
		// a preset on the command line picks its own engine
		opts.Engine = ""
	}
	if changed("engine") {
		opts.Engine = f.engine
	}

	ro := gv.DefaultRenderOptions()
	ro.AntiAlias = cfg.Render.AntiAlias && !f.noAntiAlias
	ro.Transparent = cfg.Render.Transparent || f.transparent
	ro.DPI = cfg.Render.DPI
	ro.Background = cfg.Render.Background
	ro.Scale = f.scale
	if changed("dpi") {
		ro.DPI = f.dpi
	}
	if changed("background") {
		ro.Background = f.background
	}
	opts.Render = &ro
	return opts
}

// readDescription decodes the description at path, or standard input for
// "-". The encoding comes from encoding when set, else the extension.
func readDescription(stdin io.Reader, path, encoding string) (*graph.Graph, error) {
	var enc graph.Encoding
	switch strings.ToLower(encoding) {
	case "":
		enc = graph.EncodingForPath(path)
	case "json":
		enc = graph.JSON
	case "toml":
		enc = graph.TOML
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "input format must be json or toml, got %q", encoding)
	}

	if path == stdinPath {
		return graph.Read(stdin, enc)
	}
	if encoding == "" {
		return graph.ReadFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return graph.Read(f, enc)
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      pipelineFlags
		output     string
		formatsStr string
		stdout     bool
		pickEngine bool
	)

	cmd := &cobra.Command{
		Use:   "render <file|->",
		Short: "Render a graph description to SVG, PNG, PDF, DOT, ...",
		Long: `Render a graph description to one or more output formats.

The description is a JSON or TOML file ('-' reads standard input). Output
files are named after the input unless -o is given; with several formats
-o is a base path and every format gets its own extension.

Results are cached locally for faster subsequent runs.`,
		Example: `  gvbind render graph.json
  gvbind render graph.toml -f svg,png --preset left-to-right
  cat graph.json | gvbind render - -f dot --stdout`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions(cmd, &flags)
			opts.Formats = parseFormats(formatsStr, c.Config.Render.Formats)

			if pickEngine {
				engine, ok, err := pickEngineInteractive(opts.Engine)
				if err != nil {
					return err
				}
				if !ok {
					printWarning("No engine selected")
					return nil
				}
				opts.Engine = engine.String()
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			if stdout && len(opts.FormatValues()) != 1 {
				return errors.New(errors.ErrCodeInvalidInput, "--stdout needs exactly one format, got %d", len(opts.FormatValues()))
			}

			desc, err := readDescription(cmd.InOrStdin(), args[0], flags.inputFormat)
			if err != nil {
				return err
			}
			if stdout {
				return c.renderToWriter(cmd.Context(), cmd.OutOrStdout(), desc, opts, flags.noCache)
			}
			return c.runRender(cmd.Context(), args[0], output, desc, opts, flags.noCache)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s), comma-separated (default: svg)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write the single output to standard output")
	cmd.Flags().BoolVar(&pickEngine, "pick-engine", false, "choose the layout engine interactively")

	registerFlagCompletions(cmd)
	return cmd
}

func (c *CLI) runRender(ctx context.Context, input, output string, desc *graph.Graph, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering %s...", desc.GraphName()))
	spinner.Start()
	result, err := runner.Execute(ctx, desc, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	formats := opts.FormatValues()
	paths := outputPaths(basePath(output, input, desc.GraphName()), output, input, formats)
	for _, p := range paths {
		if samePath(p, input) {
			return fmt.Errorf("output %s would overwrite the input", p)
		}
	}
	for i, f := range formats {
		if err := writeOutput(paths[i], result.Artifacts[f.String()]); err != nil {
			return err
		}
	}

	printSuccess("Rendered %s with %s", StyleHighlight.Render(desc.GraphName()), result.Engine)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, prog.elapsed(), result.CacheInfo.RenderHit)
	for _, p := range paths {
		printFile(p)
	}
	c.Logger.Debug("render complete", "graph_hash", result.GraphHash, "formats", len(paths))
	return nil
}

// renderToWriter renders the single requested format to w with no status
// output, so it can be piped.
func (c *CLI) renderToWriter(ctx context.Context, w io.Writer, desc *graph.Graph, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	result, err := runner.Execute(ctx, desc, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(result.Artifacts[opts.FormatValues()[0].String()])
	return err
}

// basePath derives the base output path. Without an output it is the
// input path minus its extension, or the graph name for standard input.
// A known format extension on output is stripped.
func basePath(output, input, graphName string) string {
	if output == "" {
		if input == stdinPath {
			return graphName
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if _, err := gv.ParseFormat(ext); ext != "" && err == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPaths names one file per format. A single format with an explicit
// output uses it as is. Formats that share an extension (dot and canon,
// imap and cmapx) get the format name as an extra suffix, as does a derived
// name that would land on the input file.
func outputPaths(base, output, input string, formats []gv.Format) []string {
	if len(formats) == 1 && output != "" {
		return []string{output}
	}

	seen := make(map[string]int, len(formats))
	for _, f := range formats {
		seen[f.Extension()]++
	}

	paths := make([]string, len(formats))
	for i, f := range formats {
		p := base + "." + f.Extension()
		if seen[f.Extension()] > 1 || samePath(p, input) {
			p = fmt.Sprintf("%s.%s.%s", base, f, f.Extension())
		}
		paths[i] = p
	}
	return paths
}

func samePath(a, b string) bool {
	return b != stdinPath && filepath.Clean(a) == filepath.Clean(b)
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

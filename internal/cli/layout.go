package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gvbind/pkg/graph"
	"github.com/matzehuels/gvbind/pkg/pipeline"
)

// layoutCommand creates the layout command for computing node and edge geometry.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  pipelineFlags
		output string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "layout <file|->",
		Short: "Compute the layout of a graph description",
		Long: `Compute the layout of a graph description without rendering it.

By default the laid-out graph is printed as DOT with every node and edge
position filled in. With --json the node centers, sizes, edge splines and
bounding box are printed as JSON instead.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions(cmd, &flags)
			desc, err := readDescription(cmd.InOrStdin(), args[0], flags.inputFormat)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), cmd.OutOrStdout(), args[0], desc, opts, output, asJSON, flags.noCache)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: standard output)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print geometry as JSON instead of DOT")

	registerFlagCompletions(cmd)
	return cmd
}

func (c *CLI) runLayout(ctx context.Context, stdout io.Writer, input string, desc *graph.Graph, opts pipeline.Options, output string, asJSON, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	l, cached, err := runner.Layout(ctx, desc, opts)
	if err != nil {
		return err
	}

	data := []byte(l.DOT)
	if asJSON {
		if data, err = graph.MarshalLayout(l); err != nil {
			return err
		}
	}

	if output == "" {
		if _, err := stdout.Write(data); err != nil {
			return err
		}
		prog.done("Laid out " + desc.GraphName())
		return nil
	}
	if err := writeOutput(output, data); err != nil {
		return err
	}

	printSuccess("Laid out %s with %s", StyleHighlight.Render(desc.GraphName()), l.Engine)
	printStats(len(l.Nodes), len(l.Edges), prog.elapsed(), cached)
	printDetail("Bounding box %.0f x %.0f pt", l.Width(), l.Height())
	printFile(output)
	printNextStep("Render it", fmt.Sprintf("%s render %s", appName, input))
	return nil
}

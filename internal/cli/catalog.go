package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gvbind/pkg/gv"
)

func catalogTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader.Padding(0, 1)
			case col == 0:
				return StyleHighlight.Padding(0, 1)
			}
			return StyleDim.Padding(0, 1)
		}).
		Render()
}

func enginesTable() string {
	rows := make([][]string, 0, len(gv.Engines()))
	for _, e := range gv.Engines() {
		rows = append(rows, []string{e.String(), e.Description()})
	}
	return catalogTable([]string{"Engine", "Description"}, rows)
}

func formatsTable() string {
	rows := make([][]string, 0, len(gv.Formats()))
	for _, f := range gv.Formats() {
		enc := "text"
		if f.IsBinary() {
			enc = "binary"
		}
		rows = append(rows, []string{f.String(), f.Kind().String(), enc, "." + f.Extension(), f.MIMEType()})
	}
	return catalogTable([]string{"Format", "Kind", "Encoding", "Ext", "MIME type"}, rows)
}

func presetsTable() string {
	rows := make([][]string, 0, len(gv.Presets()))
	for _, p := range gv.Presets() {
		rows = append(rows, []string{p.Name, p.Engine.String(), formatAttrs(p.Settings.Attrs())})
	}
	return catalogTable([]string{"Preset", "Engine", "Settings"}, rows)
}

// formatAttrs renders attributes as sorted key=value pairs.
func formatAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return "-"
	}
	pairs := make([]string, 0, len(attrs))
	for k, v := range attrs {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, " ")
}

func (c *CLI) enginesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the layout engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), enginesTable())
			return nil
		},
	}
}

func (c *CLI) formatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the output formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), formatsTable())
			return nil
		},
	}
}

func (c *CLI) presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the layout presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), presetsTable())
			return nil
		},
	}
}

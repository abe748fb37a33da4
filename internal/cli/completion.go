package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gvbind/pkg/gv"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for gvbind.

Besides command names, the scripts complete layout engines for --engine,
presets for --preset and output formats for --format (including each entry
of a comma-separated list).

Bash:
  $ source <(gvbind completion bash)
  $ gvbind completion bash > /etc/bash_completion.d/gvbind

Zsh:
  $ gvbind completion zsh > "${fpath[1]}/_gvbind"

Fish:
  $ gvbind completion fish > ~/.config/fish/completions/gvbind.fish

PowerShell:
  PS> gvbind completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// registerFlagCompletions completes the pipeline flags cmd defines.
func registerFlagCompletions(cmd *cobra.Command) {
	complete := func(flag string, fn cobra.CompletionFunc) {
		if cmd.Flags().Lookup(flag) != nil {
			_ = cmd.RegisterFlagCompletionFunc(flag, fn)
		}
	}

	complete("engine", cobra.FixedCompletions(engineNames(), cobra.ShellCompDirectiveNoFileComp))
	complete("preset", cobra.FixedCompletions(presetNames(), cobra.ShellCompDirectiveNoFileComp))
	complete("input-format", cobra.FixedCompletions([]string{"json", "toml"}, cobra.ShellCompDirectiveNoFileComp))
	complete("format", completeFormatList)
}

func engineNames() []string {
	var names []string
	for _, e := range gv.Engines() {
		names = append(names, cobra.CompletionWithDesc(e.String(), e.Description()))
	}
	return names
}

func presetNames() []string {
	var names []string
	for _, p := range gv.Presets() {
		names = append(names, p.Name)
	}
	return names
}

// completeFormatList completes the last entry of a comma-separated format
// list, skipping formats already listed.
func completeFormatList(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
	}
	listed := make(map[string]bool)
	for _, f := range strings.Split(prefix, ",") {
		listed[strings.TrimSpace(f)] = true
	}

	var out []string
	for _, f := range gv.Formats() {
		if !listed[f.String()] {
			out = append(out, prefix+f.String())
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

package cli

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fragtree/pkg/pipeline"
	"github.com/matzehuels/fragtree/pkg/solver"
)

// completionCommand prints shell completion scripts. Besides subcommands and
// flags, the scripts complete strategy names, output formats and candidate
// graph files (*.json).
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for fragtree.

Load it into the current shell:

  bash:        source <(fragtree completion bash)
  zsh:         fragtree completion zsh > "${fpath[1]}/_fragtree"
  fish:        fragtree completion fish | source
  powershell:  fragtree completion powershell | Out-String | Invoke-Expression

To keep completions across sessions, write the script to your shell's
completion directory instead (for bash usually /etc/bash_completion.d/).`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Annotations:           map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeStrategies offers builder names for --strategy.
func completeStrategies(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, s := range solver.Strategies() {
		if strings.HasPrefix(string(s), toComplete) {
			out = append(out, string(s))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats offers output formats for --format.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for f := range pipeline.ValidFormats {
		if strings.HasPrefix(f, toComplete) {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeGraphFiles restricts file completion to JSON documents.
func completeGraphFiles(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
}

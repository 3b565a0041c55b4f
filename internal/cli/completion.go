package cli

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sbrg/gds/pkg/pipeline"
	"github.com/sbrg/gds/pkg/radiate"
	"github.com/sbrg/gds/pkg/trace"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for gds. Besides commands and flags,
the scripts complete output formats, trace modes, radiate directions and
edge weight kinds.

  source <(gds completion bash)
  gds completion zsh > "${fpath[1]}/_gds"
  gds completion fish > ~/.config/fish/completions/gds.fish
  gds completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
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
}

// flagValues lists the values completed for a flag, keyed by command name
// and then flag name. The same flag name means different things on
// different commands, e.g. --direction on load and radiate.
var flagValues = map[string]map[string][]string{
	"trace": {
		"format": analysisFormats(),
		"mode":   {string(trace.EachPair), string(trace.SetToSet)},
		"weight": weightKinds,
	},
	"radiate": {
		"format":    analysisFormats(),
		"direction": {string(radiate.Forward), string(radiate.Reverse), string(radiate.Both)},
		"weight":    weightKinds,
	},
	"load": {
		"direction": {"out", "in", "both"},
	},
	"render": {
		"format": {pipeline.FormatSVG, pipeline.FormatDOT},
	},
}

var weightKinds = []string{pipeline.WeightUnit, pipeline.WeightHub, "property:"}

// commaFlags take comma-separated lists.
var commaFlags = map[string]bool{"format": true}

func analysisFormats() []string {
	var out []string
	for f := range pipeline.ValidFormats {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// registerCompletions attaches value completion to the flags in flagValues.
func registerCompletions(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		for flag, values := range flagValues[cmd.Name()] {
			if cmd.Flags().Lookup(flag) == nil {
				continue
			}
			_ = cmd.RegisterFlagCompletionFunc(flag, completeValues(values, commaFlags[flag]))
		}
	}
}

// completeValues completes one of values. For list flags it completes the
// item after the last comma and skips items already given.
func completeValues(values []string, list bool) cobra.CompletionFunc {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		directive := cobra.ShellCompDirectiveNoFileComp
		prefix, partial := "", toComplete
		var given []string
		if list {
			if i := strings.LastIndex(toComplete, ","); i >= 0 {
				prefix, partial = toComplete[:i+1], toComplete[i+1:]
				given = strings.Split(toComplete[:i], ",")
			}
			directive |= cobra.ShellCompDirectiveNoSpace
		}
		var out []cobra.Completion
		for _, v := range values {
			if strings.HasPrefix(v, partial) && !slices.Contains(given, v) {
				out = append(out, prefix+v)
			}
		}
		if slices.Contains(out, "property:") {
			directive |= cobra.ShellCompDirectiveNoSpace
		}
		return out, directive
	}
}

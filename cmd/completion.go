package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// detectShell guesses the shell from $SHELL, falling back to bash
func detectShell() string {
	shell := strings.ToLower(os.Getenv("SHELL"))
	switch {
	case strings.Contains(shell, "fish"):
		return "fish"
	case strings.Contains(shell, "zsh"):
		return "zsh"
	case strings.Contains(shell, "pwsh"), strings.Contains(shell, "powershell"):
		return "powershell"
	}
	return "bash"
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate the shell completion script for slurmit.

Without an argument the shell is taken from $SHELL.

Bash:
  $ source <(slurmit completion bash)
  $ slurmit completion bash > ~/.local/share/bash-completion/completions/slurmit

Zsh:
  $ slurmit completion zsh > "${fpath[1]}/_slurmit"

Fish:
  $ slurmit completion fish > ~/.config/fish/completions/slurmit.fish

PowerShell:
  PS> slurmit completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		shell := detectShell()
		if len(args) > 0 {
			shell = args[0]
		}

		// Completion lists long options only.
		saved := stripShortFlagShorthands(cmd.Root())
		defer restoreShortFlagShorthands(cmd.Root(), saved)

		root := cmd.Root()
		switch shell {
		case "zsh":
			return root.GenZshCompletion(os.Stdout)
		case "fish":
			return root.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return root.GenBashCompletionV2(os.Stdout, true)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// walkFlags calls fn for every flag reachable from root, including inherited ones
func walkFlags(root *cobra.Command, fn func(*pflag.Flag)) {
	root.LocalFlags().VisitAll(fn)
	root.PersistentFlags().VisitAll(fn)
	root.InheritedFlags().VisitAll(fn)
	for _, child := range root.Commands() {
		walkFlags(child, fn)
	}
}

// stripShortFlagShorthands clears every flag shorthand and returns them keyed
// by flag name.
func stripShortFlagShorthands(root *cobra.Command) map[string]string {
	saved := make(map[string]string)
	walkFlags(root, func(f *pflag.Flag) {
		if f.Shorthand != "" {
			saved[f.Name] = f.Shorthand
			f.Shorthand = ""
		}
	})
	return saved
}

func restoreShortFlagShorthands(root *cobra.Command, saved map[string]string) {
	walkFlags(root, func(f *pflag.Flag) {
		if old, ok := saved[f.Name]; ok {
			f.Shorthand = old
		}
	})
}

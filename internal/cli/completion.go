package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for flowcanvas.

To load completions:

Bash:
  $ source <(flowcanvas completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ flowcanvas completion bash > /etc/bash_completion.d/flowcanvas
  # macOS:
  $ flowcanvas completion bash > $(brew --prefix)/etc/bash_completion.d/flowcanvas

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ flowcanvas completion zsh > "${fpath[1]}/_flowcanvas"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ flowcanvas completion fish | source

  # To load completions for each session, execute once:
  $ flowcanvas completion fish > ~/.config/fish/completions/flowcanvas.fish

PowerShell:
  PS> flowcanvas completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> flowcanvas completion powershell > flowcanvas.ps1
  # and source this file from your PowerShell profile.
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

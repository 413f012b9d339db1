// Package cmd provides the CLI commands for quill.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// options holds the persistent flags shared by every command.
type options struct {
	configFile string
	ephemeral  bool
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Running it without a subcommand
// launches the terminal UI.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "quill",
		Short: "quill - a terminal client for the blog",
		Long: `quill is a terminal client for the blog API.

Run without arguments to open the reader. Sign in from the UI or with
"quill login"; the session is kept in ~/.quill until you log out.

Configuration:
  Config is loaded from ~/.quill/config.yaml (or --config). Environment
  variables override config values with the QUILL_ prefix.
  Example: QUILL_API_URL=https://blog.example.com/api`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, _ []string) error {
			return runTUI(c, opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: ~/.quill/config.yaml)")
	root.PersistentFlags().BoolVar(&opts.ephemeral, "ephemeral", false, "keep the session in memory only")

	root.AddCommand(
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newRelayCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

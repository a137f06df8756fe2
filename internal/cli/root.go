package cli

import "github.com/spf13/cobra"

type rootOptions struct {
	configPath string
}

// Execute runs the synister command line.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "synister",
		Short:         "SynisterChat server and session tooling",
		Long:          "synister serves the SynisterChat API and manages the encrypted per-owner session store behind it.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default synister.yaml in ., ./config or ~/.synister)")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newAccountsCmd(opts),
		newSessionsCmd(opts),
	)

	return rootCmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage provisioned owners",
	}

	cmd.AddCommand(
		newAccountsProvisionCmd(opts),
		newAccountsCheckCmd(opts),
	)

	return cmd
}

func newAccountsProvisionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "provision <owner>",
		Short: "Provision an owner so its sessions can be stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.backend.Provision(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "provisioned %s\n", args[0])
			return nil
		},
	}
}

func newAccountsCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <owner>",
		Short: "Report whether an owner is provisioned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ok, err := a.backend.Exists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			state := "not provisioned"
			if ok {
				state = "provisioned"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", args[0], state)
			return nil
		},
	}
}

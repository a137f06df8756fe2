package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and remove stored sessions",
	}

	cmd.PersistentFlags().StringVar(&owner, "owner", "", "Owner whose sessions to act on")
	_ = cmd.MarkPersistentFlagRequired("owner")

	cmd.AddCommand(
		newSessionsListCmd(opts, &owner),
		newSessionsDeleteCmd(opts, &owner),
		newSessionsClearCmd(opts, &owner),
	)

	return cmd
}

func newSessionsListCmd(opts *rootOptions, owner *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List an owner's sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			all, err := a.store.GetAll(cmd.Context(), *owner)
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(all))
			for id := range all {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool {
				ci, cj := all[ids[i]].Created, all[ids[j]].Created
				if ci != cj {
					return ci > cj
				}
				return ids[i] < ids[j]
			})

			for _, id := range ids {
				rec := all[id]
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d messages\t%d facts\n",
					rec.ID, rec.Title, rec.CreatedAt().UTC().Format(time.RFC3339),
					len(rec.DisplayMessages), len(rec.Memory))
			}
			return nil
		},
	}
}

func newSessionsDeleteCmd(opts *rootOptions, owner *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Delete(cmd.Context(), *owner, args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newSessionsClearCmd(opts *rootOptions, owner *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every session of an owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Clear(cmd.Context(), *owner); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleared sessions of %s\n", *owner)
			return nil
		},
	}
}

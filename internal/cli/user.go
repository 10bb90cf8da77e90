package cli

import (
	"github.com/spf13/cobra"
)

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Inspect and repair funnel users",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <identity>",
			Short: "Show the user's stage, quota and subscription",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withAdmin(cmd.Context(), func(svc AdminService) error {
					view, err := svc.User(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), view)
				})
			},
		},
		&cobra.Command{
			Use:   "reset-quota <identity>",
			Short: "Zero today's message counters",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withAdmin(cmd.Context(), func(svc AdminService) error {
					view, err := svc.ResetQuota(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), view)
				})
			},
		},
	)
	return cmd
}

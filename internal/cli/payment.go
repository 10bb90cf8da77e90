package cli

import (
	"github.com/spf13/cobra"
)

func newPaymentCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Inspect payment requests",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status <reference>",
		Short: "Show a stored payment request with its live gateway status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withAdmin(cmd.Context(), func(svc AdminService) error {
				view, err := svc.Payment(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), view)
			})
		},
	})
	return cmd
}

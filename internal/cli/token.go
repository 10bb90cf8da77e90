package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/subscription-bot/internal/lib/jwt"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		operator string
		role     string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			maker := jwt.NewJWTMaker(cfg.Admin.JWTSecretKey, cfg.Admin.TokenTTL)
			token, err := maker.GenerateToken(operator, role)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "Operator name recorded in the token")
	cmd.Flags().StringVar(&role, "role", jwt.RoleAdmin, "Role claim")
	_ = cmd.MarkFlagRequired("operator")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/username/mgscheck/src/security"
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token SUBJECT",
		Short: "Issue a bearer token for the report API.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup()
			auth, err := security.NewAuthService(cfg.JWTSecret, cfg.AccessTokenExpiry)
			if err != nil {
				return err
			}
			token, err := auth.GenerateToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

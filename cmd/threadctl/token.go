package main

import (
	"fmt"
	"time"

	"threadline/internal/config"
	"threadline/internal/identity"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:     "token <external-id>",
	Short:   "Mint a bearer token for local testing",
	GroupID: "api",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if cfg.Env == "production" {
			return fmt.Errorf("refusing to mint tokens in production")
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")

		provider := identity.NewJWTProvider(cfg.IdentitySecret, cfg.IdentityIssuer, cfg.IdentityAudience)
		token, err := provider.Issue(args[0], ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

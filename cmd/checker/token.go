package main

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/schedule-checker/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

var tokenSubject string

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API access token",
		Long: `Mint a bearer token for the validation API, signed with JWT_SECRET_KEY
and valid for JWT_ACCESS_EXPIRATION_TIME.

Examples:
  checker token --subject ci`,
		RunE: runToken,
	}

	cmd.Flags().StringVar(&tokenSubject, "subject", "checker", "Token subject")

	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is not set")
	}

	svc := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	token, expiresAt, err := svc.GenerateAccessToken(tokenSubject)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	if outputFmt == "json" {
		fmt.Fprintf(cmd.OutOrStdout(), "{\"token\":%q,\"expires_at\":%q}\n", token, time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

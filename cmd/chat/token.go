package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"charachat/internal/middleware"
)

var (
	tokenSecret  string
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token signed with the relay's JWT secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenSecret == "" {
			return errors.New("--secret (or JWT_SECRET) is required")
		}

		signed, err := middleware.NewJWTAuth(tokenSecret).GenerateToken(tokenSubject, tokenTTL)
		if err != nil {
			return fmt.Errorf("signing token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", envOr("JWT_SECRET", ""), "HS256 secret shared with the relay")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "chat-client", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "token lifetime; 0 for no expiry")
}

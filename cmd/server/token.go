// cmd/server/token.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vials-labs/vials-backend/internal/utils"
)

var (
	tokenSubject string
	tokenTTL     int
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a relayer token for write routes",
	Long: `Sign an HS256 relayer token with JWT_SECRET. Write routes require it
when REQUIRE_RELAYER_TOKEN=true.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.JWT.RelayerTokenTTL
		}

		utils.SetJWTSecret(cfg.JWT.SecretKey)
		token, err := utils.GenerateRelayerToken(tokenSubject, ttl)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "relayer", "Name of the service the token is issued to")
	tokenCmd.Flags().IntVar(&tokenTTL, "ttl-hours", 0, "Token lifetime in hours (default JWT_RELAYER_TTL)")
}

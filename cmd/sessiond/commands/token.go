package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/sessiond/pkg/api"
	"github.com/marmos91/sessiond/pkg/api/auth"
)

var (
	tokenOperator string
	tokenDuration time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin API bearer token",
	Long: `Issue a bearer token signed with the configured API secret.

Examples:
  # Token valid for the configured api.token_duration
  sessiond token

  # Token for a named operator, valid for 15 minutes
  sessiond token --operator alice --duration 15m`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "cli", "Subject recorded in the token")
	tokenCmd.Flags().DurationVar(&tokenDuration, "duration", 0, "Token lifetime (default: api.token_duration)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	secret := cfg.API.GetSecret()
	if secret == "" {
		return fmt.Errorf("no API secret configured; set api.secret or %s", api.EnvAPISecret)
	}

	duration := cfg.API.TokenDuration
	if tokenDuration > 0 {
		duration = tokenDuration
	}

	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: secret, TokenDuration: duration})
	if err != nil {
		return err
	}
	token, expires, err := svc.GenerateToken(tokenOperator)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Local().Format(time.RFC3339))
	return nil
}

// Package sessions implements the session management subcommands.
package sessions

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/sessiond/internal/cli/output"
	"github.com/marmos91/sessiond/pkg/api/auth"
	"github.com/marmos91/sessiond/pkg/apiclient"
	"github.com/marmos91/sessiond/pkg/config"
)

// EnvAPIToken supplies a bearer token when --token is not given.
const EnvAPIToken = "SESSIOND_API_TOKEN"

// Cmd is the sessions subcommand.
var Cmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session", "s"},
	Short:   "Inspect and disconnect sessions on a running server",
	Long: `Inspect and disconnect sessions through the admin API.

The API address and token default to the values derived from the
configuration file; a token is minted locally when api.secret is set.

Subcommands:
  list      List live sessions
  get       Show one session
  kick      Disconnect one or all sessions
  history   Show connect/disconnect events from the journal`,
}

func init() {
	Cmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	addClientFlags(Cmd.PersistentFlags())

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(kickCmd)
	Cmd.AddCommand(historyCmd)
}

type flagAdder interface {
	String(name, value, usage string) *string
}

func addClientFlags(fs flagAdder) {
	fs.String("api-url", "", "Admin API base URL (default: derived from config)")
	fs.String("token", "", "Bearer token (default: $"+EnvAPIToken+" or minted from api.secret)")
}

// AddClientFlags adds --api-url and --token to a command outside this group.
func AddClientFlags(cmd *cobra.Command) {
	addClientFlags(cmd.Flags())
}

// NewClient builds an API client from flags, environment and config.
func NewClient(cmd *cobra.Command) (*apiclient.Client, error) {
	apiURL, _ := cmd.Flags().GetString("api-url")
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv(EnvAPIToken)
	}

	if apiURL != "" && token != "" {
		return apiclient.New(apiURL).WithToken(token), nil
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if apiURL == "" {
		host := cfg.API.Address
		if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
			host = "127.0.0.1"
		}
		apiURL = "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.API.Port))
	}

	if token == "" {
		if secret := cfg.API.GetSecret(); secret != "" {
			svc, err := auth.NewJWTService(auth.JWTConfig{Secret: secret, TokenDuration: cfg.API.TokenDuration})
			if err != nil {
				return nil, fmt.Errorf("failed to mint API token: %w", err)
			}
			if token, _, err = svc.GenerateToken("cli"); err != nil {
				return nil, err
			}
		}
	}

	return apiclient.New(apiURL).WithToken(token), nil
}

func printer(cmd *cobra.Command) (*output.Printer, error) {
	raw, _ := cmd.Flags().GetString("output")
	format, err := output.ParseFormat(raw)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(cmd.OutOrStdout(), format, false), nil
}

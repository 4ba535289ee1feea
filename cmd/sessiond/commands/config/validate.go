package config

import (
	"fmt"

	"github.com/marmos91/sessiond/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the sessiond configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  sessiond config validate

  # Validate specific config file
  sessiond config validate --config /etc/sessiond/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.API.Enabled && cfg.API.GetSecret() == "" {
		warnings = append(warnings, "API secret not configured - the admin API will accept unauthenticated requests")
	}
	if cfg.Journal.Enabled && cfg.Journal.Type == "badger" && cfg.Journal.Path == "" {
		warnings = append(warnings, "Badger journal has no path - history is lost on restart")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Server:        %s (%s:%d)\n", cfg.Server.Name, cfg.Server.Protocol, cfg.Server.Port)
	_, _ = fmt.Fprintf(out, "  Session mode:  %s\n", cfg.Session.Mode)
	_, _ = fmt.Fprintf(out, "  API port:      %d\n", cfg.API.Port)
	_, _ = fmt.Fprintf(out, "  Log level:     %s\n", cfg.Logging.Level)

	return nil
}

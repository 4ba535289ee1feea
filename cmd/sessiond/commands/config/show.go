package config

import (
	"fmt"

	"github.com/marmos91/sessiond/internal/cli/output"
	"github.com/marmos91/sessiond/pkg/config"
	"github.com/spf13/cobra"
)

var showFormat string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults and environment overrides
have been applied. The API secret is redacted.

Examples:
  sessiond config show
  sessiond config show -o json`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showFormat, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}
	if cfg.API.Secret != "" {
		cfg.API.Secret = "<redacted>"
	}

	switch showFormat {
	case "yaml":
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	case "json":
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	default:
		return fmt.Errorf("unsupported output format %q (use yaml or json)", showFormat)
	}
}

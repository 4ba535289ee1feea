package config

import (
	"fmt"

	"github.com/marmos91/sessiond/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default configuration file with a freshly generated API secret.

Examples:
  # Write to $XDG_CONFIG_HOME/sessiond/config.yaml
  sessiond config init

  # Write to a specific path, replacing any existing file
  sessiond config init --config ./sessiond.yaml --force`,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	if configPath != "" {
		if err := config.InitConfigToPath(configPath, initForce); err != nil {
			return err
		}
	} else {
		path, err := config.InitConfig(initForce)
		if err != nil {
			return err
		}
		configPath = path
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", configPath)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "\nStart the server with:")
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  sessiond start --config %s\n", configPath)
	return nil
}

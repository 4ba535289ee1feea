// Package commands implements the sessiond CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/sessiond/cmd/sessiond/commands/config"
	"github.com/marmos91/sessiond/cmd/sessiond/commands/sessions"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "sessiond",
	Short: "sessiond - TCP session server",
	Long: `sessiond accepts TCP connections, tracks each one as a session, and
exposes them through an admin HTTP API and Prometheus metrics.

Use "sessiond [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/sessiond/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(sessions.Cmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

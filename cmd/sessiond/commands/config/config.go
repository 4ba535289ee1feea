// Package config implements the config subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the sessiond configuration file",
	Long: `Manage the sessiond configuration file.

Subcommands:
  init       Write a default configuration file
  show       Print the effective configuration
  validate   Check a configuration file for errors
  edit       Open the configuration file in $EDITOR
  schema     Print the JSON schema of the configuration`,
}

func init() {
	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(editCmd)
	Cmd.AddCommand(schemaCmd)
}

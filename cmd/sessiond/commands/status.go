package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/sessiond/cmd/sessiond/commands/sessions"
	"github.com/marmos91/sessiond/internal/cli/output"
	"github.com/marmos91/sessiond/internal/cli/timeutil"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running server",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
	sessions.AddClientFlags(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	client, err := sessions.NewClient(cmd)
	if err != nil {
		return err
	}

	info, err := client.Server()
	if err != nil {
		return err
	}

	if format != output.FormatTable {
		return output.NewPrinter(cmd.OutOrStdout(), format, false).Print(info)
	}
	state := "stopped"
	if info.Running {
		state = "running"
	}
	return output.PrintKeyValues(cmd.OutOrStdout(), [][2]string{
		{"Name", info.Name},
		{"Address", info.Address},
		{"State", state},
		{"Sessions", strconv.Itoa(info.ActiveSessions)},
		{"Uptime", timeutil.FormatDuration(info.Uptime)},
	})
}

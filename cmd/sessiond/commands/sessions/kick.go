package sessions

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marmos91/sessiond/internal/cli/output"
	"github.com/marmos91/sessiond/internal/cli/prompt"
)

var (
	kickAll   bool
	kickForce bool
)

var kickCmd = &cobra.Command{
	Use:   "kick [session-id]",
	Short: "Disconnect one session, or all with --all",
	Long: `Forcibly disconnect sessions. The server keeps accepting new
connections.

Examples:
  sessiond sessions kick 4f1c2a5e-8d3b-4f7e-9a61-0b2c3d4e5f60
  sessiond sessions kick --all --force`,
	Args: func(cmd *cobra.Command, args []string) error {
		if kickAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runKick,
}

func init() {
	kickCmd.Flags().BoolVar(&kickAll, "all", false, "Disconnect every live session")
	kickCmd.Flags().BoolVarP(&kickForce, "force", "f", false, "Skip confirmation for --all")
}

func runKick(cmd *cobra.Command, args []string) error {
	client, err := NewClient(cmd)
	if err != nil {
		return err
	}
	p := output.NewPrinter(cmd.OutOrStdout(), output.FormatTable, false)

	if kickAll {
		ok, err := prompt.ConfirmWithForce("Disconnect all sessions", kickForce)
		if err != nil {
			return err
		}
		if !ok {
			p.Warning("Aborted")
			return nil
		}
		n, err := client.DisconnectAll()
		if err != nil {
			return err
		}
		p.Success(fmt.Sprintf("Disconnected %d session(s)", n))
		return nil
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid session id %q: %w", args[0], err)
	}
	if err := client.DisconnectSession(id); err != nil {
		return err
	}
	p.Success("Disconnected " + id.String())
	return nil
}

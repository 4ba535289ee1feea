package sessions

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marmos91/sessiond/pkg/session"
)

var getCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Show one session",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid session id %q: %w", args[0], err)
	}
	p, err := printer(cmd)
	if err != nil {
		return err
	}
	client, err := NewClient(cmd)
	if err != nil {
		return err
	}

	info, err := client.GetSession(id)
	if err != nil {
		return err
	}
	return p.Print(SessionList([]session.Info{*info}))
}

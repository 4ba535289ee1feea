package sessions

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List live sessions",
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	p, err := printer(cmd)
	if err != nil {
		return err
	}
	client, err := NewClient(cmd)
	if err != nil {
		return err
	}

	list, err := client.ListSessions()
	if err != nil {
		return err
	}
	return p.Print(SessionList(list))
}

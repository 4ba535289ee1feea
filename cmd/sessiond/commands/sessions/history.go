package sessions

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	historySession string
	historyLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show connect/disconnect events from the session journal",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historySession, "session", "", "Only events for this session id")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Most recent events to show (default: server default)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	id := uuid.Nil
	if historySession != "" {
		parsed, err := uuid.Parse(historySession)
		if err != nil {
			return fmt.Errorf("invalid session id %q: %w", historySession, err)
		}
		id = parsed
	}

	p, err := printer(cmd)
	if err != nil {
		return err
	}
	client, err := NewClient(cmd)
	if err != nil {
		return err
	}

	events, err := client.History(id, historyLimit)
	if err != nil {
		return err
	}
	return p.Print(EventList(events))
}

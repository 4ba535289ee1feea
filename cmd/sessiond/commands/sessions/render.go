package sessions

import (
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/marmos91/sessiond/internal/cli/timeutil"
	"github.com/marmos91/sessiond/pkg/journal"
	"github.com/marmos91/sessiond/pkg/session"
)

// SessionList renders live sessions as a table.
type SessionList []session.Info

func (l SessionList) Headers() []string {
	return []string{"ID", "REMOTE", "STATE", "CONNECTED", "AGE", "RECEIVED", "SENT"}
}

func (l SessionList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, s := range l {
		rows = append(rows, []string{
			s.ID.String(),
			s.RemoteAddr,
			s.State,
			timeutil.FormatTime(s.ConnectedAt),
			timeutil.Since(s.ConnectedAt),
			humanize.IBytes(s.BytesReceived),
			humanize.IBytes(s.BytesSent),
		})
	}
	return rows
}

// EventList renders journal events as a table.
type EventList []journal.Event

func (l EventList) Headers() []string {
	return []string{"SEQ", "TIME", "EVENT", "SESSION", "REMOTE", "RECEIVED", "SENT"}
}

func (l EventList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, ev := range l {
		received, sent := "-", "-"
		if ev.Type == journal.EventDisconnected {
			received = humanize.IBytes(ev.BytesReceived)
			sent = humanize.IBytes(ev.BytesSent)
		}
		rows = append(rows, []string{
			strconv.FormatUint(ev.Seq, 10),
			timeutil.FormatTime(ev.Time),
			string(ev.Type),
			ev.SessionID.String(),
			ev.RemoteAddr,
			received,
			sent,
		})
	}
	return rows
}

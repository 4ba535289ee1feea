package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/sessiond/pkg/api/handlers"
	"github.com/marmos91/sessiond/pkg/server"
	"github.com/marmos91/sessiond/pkg/session"
)

// InspectableSession is a server session that can describe itself.
type InspectableSession interface {
	server.Session
	Info() session.Info
}

// ServerBackend exposes a *server.Server to the API handlers.
type ServerBackend[S InspectableSession] struct {
	srv *server.Server[S]
}

// NewServerBackend wraps srv.
func NewServerBackend[S InspectableSession](srv *server.Server[S]) *ServerBackend[S] {
	return &ServerBackend[S]{srv: srv}
}

func (b *ServerBackend[S]) Info() handlers.ServerInfo {
	info := handlers.ServerInfo{
		Name:           b.srv.Name(),
		Address:        b.srv.Addr().String(),
		Running:        b.srv.IsStarted(),
		ActiveSessions: b.srv.SessionCount(),
	}
	if started := b.srv.StartedAt(); info.Running && !started.IsZero() {
		info.Uptime = time.Since(started).Truncate(time.Second)
	}
	return info
}

func (b *ServerBackend[S]) Sessions() []session.Info {
	sessions := b.srv.Sessions()
	out := make([]session.Info, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	return out
}

func (b *ServerBackend[S]) Session(id uuid.UUID) (session.Info, bool) {
	s, ok := b.srv.FindSession(id)
	if !ok {
		return session.Info{}, false
	}
	return s.Info(), true
}

func (b *ServerBackend[S]) Disconnect(id uuid.UUID) bool {
	s, ok := b.srv.FindSession(id)
	if !ok {
		return false
	}
	return s.Disconnect()
}

func (b *ServerBackend[S]) DisconnectAll() int {
	return b.srv.DisconnectAll()
}

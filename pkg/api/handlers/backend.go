package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/sessiond/pkg/session"
)

// ServerInfo describes the TCP server behind the API.
type ServerInfo struct {
	Name           string        `json:"name" yaml:"name"`
	Address        string        `json:"address" yaml:"address"`
	Running        bool          `json:"running" yaml:"running"`
	ActiveSessions int           `json:"active_sessions" yaml:"active_sessions"`
	Uptime         time.Duration `json:"uptime" yaml:"uptime"`
}

// Backend is what the handlers need from the TCP server.
type Backend interface {
	Info() ServerInfo
	Sessions() []session.Info
	Session(id uuid.UUID) (session.Info, bool)
	Disconnect(id uuid.UUID) bool
	DisconnectAll() int
}

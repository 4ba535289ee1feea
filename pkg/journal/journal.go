// Package journal records session connect/disconnect events.
//
// Two stores are available: an in-memory ring buffer and a BadgerDB-backed
// store that survives restarts. Both keep at most Capacity events, dropping
// the oldest first.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType distinguishes journal entries.
type EventType string

const (
	EventConnected    EventType = "connected"
	EventDisconnected EventType = "disconnected"
)

// Store types accepted by New.
const (
	TypeMemory = "memory"
	TypeBadger = "badger"
)

// DefaultCapacity applies when Config.Capacity is zero.
const DefaultCapacity = 10000

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("journal closed")

// Event is one journal entry. Seq is assigned by the store and increases
// monotonically.
type Event struct {
	Seq           uint64    `json:"seq" yaml:"seq"`
	Type          EventType `json:"type" yaml:"type"`
	Server        string    `json:"server" yaml:"server"`
	SessionID     uuid.UUID `json:"session_id" yaml:"session_id"`
	RemoteAddr    string    `json:"remote_addr" yaml:"remote_addr"`
	Time          time.Time `json:"time" yaml:"time"`
	BytesReceived uint64    `json:"bytes_received,omitempty" yaml:"bytes_received,omitempty"`
	BytesSent     uint64    `json:"bytes_sent,omitempty" yaml:"bytes_sent,omitempty"`
}

// Query filters List results.
type Query struct {
	// SessionID restricts results to one session. uuid.Nil means all.
	SessionID uuid.UUID

	// Limit caps the number of results; the most recent events win.
	// Zero means no limit.
	Limit int
}

func (q Query) matches(ev *Event) bool {
	return q.SessionID == uuid.Nil || q.SessionID == ev.SessionID
}

// Store persists journal events.
type Store interface {
	// Append stores ev and returns it with Seq (and Time, if zero) filled in.
	Append(ctx context.Context, ev Event) (Event, error)

	// List returns matching events in ascending Seq order.
	List(ctx context.Context, q Query) ([]Event, error)

	Close() error
}

// Config selects and configures a store.
type Config struct {
	Type     string
	Path     string
	Capacity int
}

// New builds the store described by cfg.
func New(cfg Config) (Store, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	switch strings.ToLower(cfg.Type) {
	case TypeMemory, "":
		return NewMemoryStore(capacity), nil
	case TypeBadger:
		return OpenBadgerStore(cfg.Path, capacity)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
	}
}

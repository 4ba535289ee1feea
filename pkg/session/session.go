// Package session provides TCPSession, the reference session served by
// sessiond: a read loop that hands received bytes to a callback, with
// idle/write timeouts and byte accounting.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/sessiond/internal/logger"
	"github.com/marmos91/sessiond/pkg/bufpool"
)

// DefaultReadBufferSize is used when Config.ReadBufferSize is zero.
const DefaultReadBufferSize = 8 * 1024

// ErrNotConnected is returned by Send once the session is disconnecting.
var ErrNotConnected = errors.New("session not connected")

// Owner is notified when a session disconnects. *server.Server implements it.
type Owner interface {
	UnregisterSession(id uuid.UUID)
}

// ReceiveFunc handles bytes read from the peer. data is only valid for the
// duration of the call.
type ReceiveFunc func(s *TCPSession, data []byte)

// Config tunes a TCPSession.
type Config struct {
	// ReadBufferSize is the size of the per-session read buffer.
	ReadBufferSize int

	// IdleTimeout disconnects a session that receives nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration

	// WriteTimeout bounds each Send. Zero disables it.
	WriteTimeout time.Duration

	// OnReceived is called on the session goroutine for every read.
	OnReceived ReceiveFunc
}

// State is the connection state of a session.
type State int32

const (
	StateConnected State = iota
	StateDisconnecting
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Info is a point-in-time view of a session.
type Info struct {
	ID            uuid.UUID `json:"id" yaml:"id"`
	RemoteAddr    string    `json:"remote_addr" yaml:"remote_addr"`
	LocalAddr     string    `json:"local_addr" yaml:"local_addr"`
	State         string    `json:"state" yaml:"state"`
	ConnectedAt   time.Time `json:"connected_at" yaml:"connected_at"`
	BytesReceived uint64    `json:"bytes_received" yaml:"bytes_received"`
	BytesSent     uint64    `json:"bytes_sent" yaml:"bytes_sent"`
}

// TCPSession is one accepted connection.
type TCPSession struct {
	id          uuid.UUID
	owner       Owner
	conn        net.Conn
	cfg         Config
	connectedAt time.Time

	state         atomic.Int32
	bytesReceived atomic.Uint64
	bytesSent     atomic.Uint64

	writeMu sync.Mutex
}

// New wraps conn. The session owns conn from now on.
func New(owner Owner, id uuid.UUID, conn net.Conn, cfg Config) *TCPSession {
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultReadBufferSize
	}
	return &TCPSession{
		id:          id,
		owner:       owner,
		conn:        conn,
		cfg:         cfg,
		connectedAt: time.Now(),
	}
}

func (s *TCPSession) ID() uuid.UUID          { return s.id }
func (s *TCPSession) RemoteAddr() net.Addr   { return s.conn.RemoteAddr() }
func (s *TCPSession) LocalAddr() net.Addr    { return s.conn.LocalAddr() }
func (s *TCPSession) ConnectedAt() time.Time { return s.connectedAt }
func (s *TCPSession) BytesReceived() uint64  { return s.bytesReceived.Load() }
func (s *TCPSession) BytesSent() uint64      { return s.bytesSent.Load() }
func (s *TCPSession) State() State           { return State(s.state.Load()) }
func (s *TCPSession) IsConnected() bool      { return s.State() == StateConnected }

// Info returns a snapshot of the session.
func (s *TCPSession) Info() Info {
	return Info{
		ID:            s.id,
		RemoteAddr:    addrString(s.conn.RemoteAddr()),
		LocalAddr:     addrString(s.conn.LocalAddr()),
		State:         s.State().String(),
		ConnectedAt:   s.connectedAt,
		BytesReceived: s.BytesReceived(),
		BytesSent:     s.BytesSent(),
	}
}

// Serve reads from the connection until the peer closes it, a read fails, the
// idle timeout expires or ctx is cancelled.
func (s *TCPSession) Serve(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { s.Disconnect() })
	defer stop()

	buf := bufpool.Get(s.cfg.ReadBufferSize)
	defer bufpool.Put(buf)
	for {
		if s.cfg.IdleTimeout > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
				logger.DebugCtx(ctx, "Failed to set read deadline", logger.KeyError, err)
				return
			}
		}

		n, err := s.conn.Read(buf)
		if n > 0 {
			s.bytesReceived.Add(uint64(n))
			if s.cfg.OnReceived != nil {
				s.cfg.OnReceived(s, buf[:n])
			}
		}
		if err != nil {
			s.logReadError(ctx, err)
			return
		}
	}
}

func (s *TCPSession) logReadError(ctx context.Context, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF):
		logger.DebugCtx(ctx, "Peer closed connection")
	case errors.Is(err, net.ErrClosed) || !s.IsConnected():
		// Closed locally by Disconnect.
	case errors.As(err, &netErr) && netErr.Timeout():
		logger.DebugCtx(ctx, "Session idle timeout", "idle_timeout", s.cfg.IdleTimeout)
	case strings.Contains(err.Error(), "connection reset"):
		logger.DebugCtx(ctx, "Connection reset by peer")
	default:
		logger.WarnCtx(ctx, "Session read failed", logger.KeyError, err)
	}
}

// Send writes p to the peer. Concurrent calls are serialized.
func (s *TCPSession) Send(p []byte) (int, error) {
	if !s.IsConnected() {
		return 0, ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.cfg.WriteTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return 0, fmt.Errorf("set write deadline: %w", err)
		}
	}

	n, err := s.conn.Write(p)
	s.bytesSent.Add(uint64(n))
	if err != nil {
		return n, fmt.Errorf("send to %s: %w", addrString(s.conn.RemoteAddr()), err)
	}
	return n, nil
}

// Disconnect closes the connection and unregisters the session from its
// owner. Only the first call does anything; it returns false afterwards.
func (s *TCPSession) Disconnect() bool {
	if !s.state.CompareAndSwap(int32(StateConnected), int32(StateDisconnecting)) {
		return false
	}

	if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Debug("Error closing session connection",
			logger.KeySessionID, s.id.String(),
			logger.KeyError, err)
	}
	s.state.Store(int32(StateDisconnected))

	if s.owner != nil {
		s.owner.UnregisterSession(s.id)
	}
	return true
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

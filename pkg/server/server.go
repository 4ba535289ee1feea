package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/sessiond/internal/logger"
	"github.com/marmos91/sessiond/internal/telemetry"
	"github.com/marmos91/sessiond/pkg/reactor"
)

// Session is one accepted connection managed by a Server.
type Session interface {
	// ID returns the identifier assigned at construction.
	ID() uuid.UUID

	// Serve runs the session's I/O until the peer goes away or ctx is
	// cancelled. It is called on a dedicated goroutine.
	Serve(ctx context.Context)

	// Disconnect closes the session. It must be idempotent, must not block on
	// the registry, and must call Server.UnregisterSession exactly once on the
	// call that actually disconnects. It returns false if the session was
	// already disconnecting.
	Disconnect() bool
}

// Factory builds a session from a freshly accepted connection. The session
// takes ownership of conn.
type Factory[S Session] func(srv *Server[S], id uuid.UUID, conn net.Conn) S

// InternetProtocol selects the address family of a wildcard listener.
type InternetProtocol int

const (
	IPv4 InternetProtocol = iota
	IPv6
)

// ParseInternetProtocol parses "ipv4"/"ipv6" (case-insensitive).
func ParseInternetProtocol(s string) (InternetProtocol, error) {
	switch strings.ToLower(s) {
	case "ipv4", "ip4", "tcp4":
		return IPv4, nil
	case "ipv6", "ip6", "tcp6":
		return IPv6, nil
	default:
		return IPv4, fmt.Errorf("%w: %q", ErrInvalidProtocol, s)
	}
}

func (p InternetProtocol) String() string {
	switch p {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

func (p InternetProtocol) network() string {
	if p == IPv6 {
		return "tcp6"
	}
	return "tcp4"
}

func (p InternetProtocol) wildcard() string {
	if p == IPv6 {
		return "::"
	}
	return "0.0.0.0"
}

// Config configures a Server.
type Config[S Session] struct {
	// Name identifies the server in logs, metrics and traces.
	Name string

	// Factory builds sessions. Required.
	Factory Factory[S]

	Hooks Hooks[S]

	// Metrics is optional.
	Metrics MetricsRecorder

	// ReuseAddress and ReusePort set SO_REUSEADDR / SO_REUSEPORT on the
	// listening socket. Ignored by NewWithListener.
	ReuseAddress bool
	ReusePort    bool

	// NoDelay disables Nagle's algorithm on accepted connections.
	NoDelay bool
}

// Server accepts connections and tracks the resulting sessions.
//
// Thread safety: all exported methods are safe for concurrent use. Start,
// Stop and Close are serialized.
type Server[S Session] struct {
	name     string
	factory  Factory[S]
	hooks    Hooks[S]
	metrics  MetricsRecorder
	noDelay  bool
	reactor  *reactor.Reactor
	acceptor *Acceptor
	registry *Registry[S]

	started   atomic.Bool
	startedAt atomic.Int64

	// lifecycle serializes Start/Stop/Close and guards the fields below.
	lifecycle sync.Mutex
	closed    bool
	done      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc

	// serving tracks per-session Serve goroutines.
	serving sync.WaitGroup

	// removing counts UnregisterSession calls between registry removal and
	// the return of OnDisconnected. Stop waits on removed until it is zero
	// and the registry is empty.
	removalMu sync.Mutex
	removed   *sync.Cond
	removing  int

	// announcing holds sessions whose OnConnected hook has not returned yet.
	// The value records a disconnect that happened meanwhile, so that
	// OnDisconnected is delivered after OnConnected.
	announceMu sync.Mutex
	announcing map[uuid.UUID]bool
}

// New creates a server listening on the wildcard address of the given
// protocol family.
func New[S Session](protocol InternetProtocol, port int, cfg Config[S]) (*Server[S], error) {
	if err := validatePort(port); err != nil {
		return nil, err
	}
	address := net.JoinHostPort(protocol.wildcard(), strconv.Itoa(port))
	return listenAndBuild(protocol.network(), address, cfg)
}

// NewWithAddress creates a server listening on a literal IP address.
func NewWithAddress[S Session](address string, port int, cfg Config[S]) (*Server[S], error) {
	ip := net.ParseIP(address)
	if ip == nil {
		return nil, fmt.Errorf("%w: %q is not an IP address", ErrInvalidAddress, address)
	}
	if err := validatePort(port); err != nil {
		return nil, err
	}

	network := "tcp6"
	if ip.To4() != nil {
		network = "tcp4"
	}
	return listenAndBuild(network, net.JoinHostPort(ip.String(), strconv.Itoa(port)), cfg)
}

// NewWithListener creates a server on an already bound listener. The server
// takes ownership of ln.
func NewWithListener[S Session](ln net.Listener, cfg Config[S]) (*Server[S], error) {
	if cfg.Factory == nil {
		return nil, ErrNoFactory
	}
	name := cfg.Name
	if name == "" {
		name = "server"
	}
	srv := &Server[S]{
		name:     name,
		factory:  cfg.Factory,
		hooks:    cfg.Hooks,
		metrics:  cfg.Metrics,
		noDelay:  cfg.NoDelay,
		reactor:  reactor.New(),
		acceptor: NewAcceptor(ln),
		registry: NewRegistry[S](),

		announcing: make(map[uuid.UUID]bool),
	}
	srv.removed = sync.NewCond(&srv.removalMu)
	return srv, nil
}

func listenAndBuild[S Session](network, address string, cfg Config[S]) (*Server[S], error) {
	if cfg.Factory == nil {
		return nil, ErrNoFactory
	}
	ln, err := Listen(network, address, ListenOptions{
		ReuseAddress: cfg.ReuseAddress,
		ReusePort:    cfg.ReusePort,
	})
	if err != nil {
		return nil, err
	}
	return NewWithListener(ln, cfg)
}

func validatePort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	return nil
}

// Name returns the configured server name.
func (s *Server[S]) Name() string { return s.name }

// Addr returns the bound listener address.
func (s *Server[S]) Addr() net.Addr { return s.acceptor.Addr() }

// IsStarted reports whether the server is running.
func (s *Server[S]) IsStarted() bool { return s.started.Load() }

// StartedAt returns when the server was last started, or the zero time if it
// is not running.
func (s *Server[S]) StartedAt() time.Time {
	if !s.started.Load() {
		return time.Time{}
	}
	return time.Unix(0, s.startedAt.Load())
}

// Start spawns the server goroutine and returns immediately. It is a no-op if
// the server is running or closed.
func (s *Server[S]) Start() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.started.Load() || s.closed {
		return
	}
	if s.done != nil {
		// The previous run ended in a fault and was never stopped.
		s.stopLocked()
	}

	call(s.hooks.OnStarting)

	s.reactor.Restart()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.done = make(chan struct{})
	s.startedAt.Store(time.Now().UnixNano())
	s.started.Store(true)

	go s.loop(s.done)
}

// Stop disconnects every session, stops the reactor and waits for the server
// goroutine, all session goroutines and every removal already in progress.
// When it returns the registry is empty and no hook fires for sessions of
// this run. It is a no-op if the server is not running. There is no timeout:
// a session that never completes its Disconnect blocks Stop.
func (s *Server[S]) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.done == nil {
		return
	}
	s.stopLocked()
}

// stopLocked tears down the current run. The caller holds lifecycle. After
// a fault the running flag is already clear and OnStopping is skipped.
func (s *Server[S]) stopLocked() {
	if s.started.Load() {
		call(s.hooks.OnStopping)
		s.started.Store(false)
	}

	// Drain on the server goroutine so it cannot interleave with an accept
	// completion that is registering a session.
	drained := make(chan struct{})
	if s.reactor.Post(func() error {
		s.registry.DisconnectAll()
		close(drained)
		return nil
	}) {
		select {
		case <-drained:
		case <-s.done:
		}
	}
	s.registry.DisconnectAll()

	s.reactor.Stop()
	<-s.done
	s.done = nil

	s.waitRemovals()

	s.cancel()
	s.serving.Wait()

	logger.Info("Server stopped", logger.KeyServer, s.name, logger.KeyActive, s.registry.Len())
}

// waitRemovals blocks until the registry is empty and no UnregisterSession
// call is between removal and hook. Registrations have stopped by now, so
// only removals change the condition and each one broadcasts.
func (s *Server[S]) waitRemovals() {
	s.removalMu.Lock()
	defer s.removalMu.Unlock()
	for s.removing > 0 || s.registry.Len() > 0 {
		s.removed.Wait()
	}
}

// Close stops the server and releases the listener. A closed server cannot
// be restarted.
func (s *Server[S]) Close() error {
	s.Stop()

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.acceptor.Close()
}

// Post schedules h on the server goroutine. A non-nil return is reported
// through OnError as a dispatch error. It returns false if the server is not
// running.
func (s *Server[S]) Post(h func() error) bool {
	if !s.started.Load() {
		return false
	}
	return s.reactor.Post(h)
}

// FindSession returns the live session with the given identifier.
func (s *Server[S]) FindSession(id uuid.UUID) (S, bool) {
	return s.registry.Find(id)
}

// Sessions returns a snapshot of the live sessions.
func (s *Server[S]) Sessions() []S {
	return s.registry.Snapshot()
}

// SessionCount returns the number of live sessions.
func (s *Server[S]) SessionCount() int {
	return s.registry.Len()
}

// DisconnectAll asks every live session to disconnect without stopping the
// server.
func (s *Server[S]) DisconnectAll() int {
	return s.registry.DisconnectAll()
}

// UnregisterSession removes a session from the registry and fires
// OnDisconnected for it. Sessions call it from Disconnect. Unknown identifiers
// are ignored.
func (s *Server[S]) UnregisterSession(id uuid.UUID) {
	s.removalMu.Lock()
	s.removing++
	s.removalMu.Unlock()
	defer func() {
		s.removalMu.Lock()
		s.removing--
		s.removalMu.Unlock()
		s.removed.Broadcast()
	}()

	sess, ok := s.registry.Unregister(id)
	if !ok {
		return
	}

	s.announceMu.Lock()
	if _, pending := s.announcing[id]; pending {
		s.announcing[id] = true
		s.announceMu.Unlock()
		return
	}
	s.announceMu.Unlock()

	s.sessionGone(sess)
}

func (s *Server[S]) sessionGone(sess S) {
	active := s.registry.Len()
	if s.metrics != nil {
		s.metrics.RecordSessionDisconnected()
		s.metrics.SetActiveSessions(active)
	}
	logger.Debug("Session unregistered",
		logger.KeyServer, s.name,
		logger.KeySessionID, sess.ID().String(),
		logger.KeyActive, active)

	s.hooks.disconnected(sess)
}

// loop is the body of the server goroutine.
func (s *Server[S]) loop(done chan struct{}) {
	defer close(done)

	call(s.hooks.OnThreadInitialize)
	s.run()
	call(s.hooks.OnThreadCleanup)
}

func (s *Server[S]) run() {
	defer func() {
		if r := recover(); r != nil {
			s.abort()
			s.hooks.fatality(fmt.Sprintf("panic on server goroutine: %v\n%s", r, debug.Stack()))
		}
	}()

	call(s.hooks.OnStarted)
	logger.Info("Server started", logger.KeyServer, s.name, logger.KeyAddress, s.Addr().String())

	s.accept()

	for s.started.Load() {
		if err := s.reactor.Run(); err != nil {
			s.reportDispatchError(err)
		}
	}

	// Completions queued before the reactor stopped still run; they observe
	// the cleared running flag and release their connections.
	if _, err := s.reactor.Flush(); err != nil {
		s.reportDispatchError(err)
	}

	call(s.hooks.OnStopped)
}

// abort leaves the server not running after a fault on its goroutine:
// further posts are rejected, queued accept completions release their
// connections and live sessions are disconnected. Stop or the next Start
// reaps the rest.
func (s *Server[S]) abort() {
	s.started.Store(false)
	s.reactor.Stop()
	func() {
		// A second panic from a queued handler must not escape the
		// recovery already in progress.
		defer func() { _ = recover() }()
		if _, err := s.reactor.Flush(); err != nil {
			s.reportDispatchError(err)
		}
	}()
	s.registry.DisconnectAll()
}

func (s *Server[S]) accept() {
	if !s.started.Load() {
		return
	}
	s.acceptor.AsyncAccept(s.reactor, s.handleAccept)
}

// handleAccept runs on the server goroutine for every accept completion.
func (s *Server[S]) handleAccept(conn net.Conn, err error) {
	if !s.started.Load() {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return
		}
		s.reportAcceptError(err)
	} else {
		s.registerSession(conn)
	}

	s.accept()
}

func (s *Server[S]) registerSession(conn net.Conn) {
	id := uuid.New()

	_, span := telemetry.StartSessionSpan(context.Background(), telemetry.SpanSessionAccept,
		s.name, id.String(), conn.RemoteAddr())
	defer span.End()

	if s.noDelay {
		if tcp, ok := conn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				logger.Debug("Failed to set TCP_NODELAY", logger.KeyError, err)
			}
		}
	}

	sess := s.factory(s, id, conn)

	s.announceMu.Lock()
	s.announcing[id] = false
	s.announceMu.Unlock()

	if !s.registry.Register(sess) {
		s.announceMu.Lock()
		delete(s.announcing, id)
		s.announceMu.Unlock()

		_ = conn.Close()
		s.hooks.failed(0, CategoryGeneric, fmt.Sprintf("duplicate session id %s", id))
		return
	}

	active := s.registry.Len()
	if s.metrics != nil {
		s.metrics.RecordSessionConnected()
		s.metrics.SetActiveSessions(active)
	}
	logger.Debug("Session registered",
		logger.KeyServer, s.name,
		logger.KeySessionID, id.String(),
		logger.KeyRemoteAddr, conn.RemoteAddr().String(),
		logger.KeyActive, active)

	s.hooks.connected(sess)

	s.announceMu.Lock()
	gone := s.announcing[id]
	delete(s.announcing, id)
	s.announceMu.Unlock()

	if gone {
		s.sessionGone(sess)
		return
	}

	ctx := logger.WithContext(s.ctx,
		logger.NewLogContext(s.name).WithSession(id.String(), conn.RemoteAddr().String()))

	s.serving.Add(1)
	go func() {
		defer s.serving.Done()
		sess.Serve(ctx)
		sess.Disconnect()
	}()
}

func (s *Server[S]) reportAcceptError(err error) {
	code, category, message := Classify(err)
	if s.metrics != nil {
		s.metrics.RecordAcceptError(category)
	}
	logger.Debug("Accept failed",
		logger.KeyServer, s.name,
		logger.KeyErrorCode, code,
		logger.KeyCategory, category,
		logger.KeyError, message)
	s.hooks.failed(code, category, message)
}

func (s *Server[S]) reportDispatchError(err error) {
	code, category, message := Classify(&DispatchError{Err: err})
	if s.metrics != nil {
		s.metrics.RecordDispatchError()
	}
	logger.Warn("Dispatch failed",
		logger.KeyServer, s.name,
		logger.KeyErrorCode, code,
		logger.KeyError, message)
	s.hooks.failed(code, category, message)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/marmos91/sessiond/pkg/reactor"
)

// AcceptHandler receives the outcome of one asynchronous accept. Exactly one
// of conn and err is non-nil.
type AcceptHandler func(conn net.Conn, err error)

// ListenOptions tune the listening socket.
type ListenOptions struct {
	ReuseAddress bool
	ReusePort    bool
}

// Listen binds a TCP listener with the given socket options.
func Listen(network, address string, opts ListenOptions) (net.Listener, error) {
	lc := net.ListenConfig{Control: listenControl(opts)}
	ln, err := lc.Listen(context.Background(), network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s %s: %w", network, address, err)
	}
	return ln, nil
}

// Acceptor turns a blocking net.Listener into asynchronous accepts whose
// completions are posted to a reactor.
//
// At most one Accept call is outstanding. Issuing AsyncAccept while one is in
// flight only retargets where its completion is delivered, which lets a
// restarted server pick up an accept left pending by the previous run.
type Acceptor struct {
	listener net.Listener

	mu       sync.Mutex
	inflight bool
	closed   bool
	reactor  *reactor.Reactor
	handler  AcceptHandler
}

// NewAcceptor wraps an already bound listener.
func NewAcceptor(ln net.Listener) *Acceptor {
	return &Acceptor{listener: ln}
}

// Addr returns the bound address.
func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}

// AsyncAccept arranges for h to run on r with the next accepted connection.
// It returns false once the acceptor is closed.
func (a *Acceptor) AsyncAccept(r *reactor.Reactor, h AcceptHandler) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return false
	}
	a.reactor = r
	a.handler = h
	if !a.inflight {
		a.inflight = true
		go a.acceptOne()
	}
	return true
}

func (a *Acceptor) acceptOne() {
	conn, err := a.listener.Accept()

	a.mu.Lock()
	a.inflight = false
	r, h := a.reactor, a.handler
	a.mu.Unlock()

	posted := r.Post(func() error {
		h(conn, err)
		return nil
	})
	if !posted && conn != nil {
		_ = conn.Close()
	}
}

// Close stops accepting and releases the listener. Any pending accept
// completes with net.ErrClosed.
func (a *Acceptor) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	if err := a.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

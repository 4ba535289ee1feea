package server

import (
	"os"

	"github.com/marmos91/sessiond/internal/logger"
)

// Hooks are the extension points invoked by the server. Every field is
// optional. Hooks run outside the registry lock, so they may call back into
// the server (FindSession, Sessions, Post), but they must not call Stop or
// Close: those wait for the goroutine the hook is running on.
type Hooks[S Session] struct {
	// OnStarting runs on the caller of Start before the server goroutine is spawned.
	OnStarting func()
	// OnStarted is the first action on the server goroutine after OnThreadInitialize.
	OnStarted func()
	// OnStopping runs on the caller of Stop before sessions are drained.
	OnStopping func()
	// OnStopped is the last action of the server goroutine before OnThreadCleanup.
	OnStopped func()

	OnThreadInitialize func()
	OnThreadCleanup    func()

	// OnConnected runs once per registered session, after registration.
	OnConnected func(S)
	// OnDisconnected runs once per unregistered session, after removal.
	OnDisconnected func(S)

	// OnError reports a non-fatal failure such as a failed accept.
	OnError func(code int, category, message string)

	// Fatality reports an unrecoverable fault on the server goroutine. When
	// nil the fault is logged and the process exits with status 1.
	Fatality func(message string)
}

// exit is swapped in tests.
var exit = os.Exit

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func (h *Hooks[S]) connected(s S) {
	if h.OnConnected != nil {
		h.OnConnected(s)
	}
}

func (h *Hooks[S]) disconnected(s S) {
	if h.OnDisconnected != nil {
		h.OnDisconnected(s)
	}
}

func (h *Hooks[S]) failed(code int, category, message string) {
	if h.OnError != nil {
		h.OnError(code, category, message)
	}
}

func (h *Hooks[S]) fatality(message string) {
	if h.Fatality != nil {
		h.Fatality(message)
		return
	}
	logger.Error("Unrecoverable server fault", logger.KeyError, message)
	exit(1)
}

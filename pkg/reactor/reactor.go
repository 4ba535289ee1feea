// Package reactor provides the completion dispatcher that drives a server's
// background goroutine.
//
// Producers (accept goroutines, the lifecycle manager, applications) post
// handlers from any goroutine; exactly one consumer runs them in FIFO order
// via Run. Handlers therefore never execute concurrently with each other.
package reactor

import (
	"errors"
	"sync"

	"github.com/eapache/queue"
)

// Handler is a unit of work executed on the dispatching goroutine. A non-nil
// return value is a dispatch error and is surfaced from Run.
type Handler func() error

// Reactor is a single-consumer completion queue.
type Reactor struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending *queue.Queue
	stopped bool
}

// New returns a reactor ready to accept posts.
func New() *Reactor {
	r := &Reactor{pending: queue.New()}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Post queues h for dispatch. It returns false, without queuing, once the
// reactor has been stopped.
func (r *Reactor) Post(h Handler) bool {
	if h == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return false
	}
	r.pending.Add(h)
	r.cond.Signal()
	return true
}

// Run dispatches queued handlers until Stop is called. It returns nil when
// stopped, or the first handler error; handlers queued behind a failing one
// stay queued for the next Run call.
func (r *Reactor) Run() error {
	for {
		h, ok := r.next()
		if !ok {
			return nil
		}
		if err := h(); err != nil {
			return err
		}
	}
}

// next blocks until a handler is available or the reactor is stopped.
func (r *Reactor) next() (Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for !r.stopped && r.pending.Length() == 0 {
		r.cond.Wait()
	}
	if r.stopped {
		return nil, false
	}
	return r.pending.Remove().(Handler), true
}

// Stop makes Run return and rejects further posts. Queued handlers are kept
// for Flush.
func (r *Reactor) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.cond.Broadcast()
}

// Restart re-arms a stopped reactor.
func (r *Reactor) Restart() {
	r.mu.Lock()
	r.stopped = false
	r.mu.Unlock()
}

// Stopped reports whether Stop has been called since the last Restart.
func (r *Reactor) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Pending returns the number of queued handlers.
func (r *Reactor) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending.Length()
}

// Flush runs every queued handler on the calling goroutine regardless of the
// stopped state and returns how many ran. Handler errors are joined.
func (r *Reactor) Flush() (int, error) {
	var (
		n    int
		errs []error
	)
	for {
		r.mu.Lock()
		if r.pending.Length() == 0 {
			r.mu.Unlock()
			return n, errors.Join(errs...)
		}
		h := r.pending.Remove().(Handler)
		r.mu.Unlock()

		n++
		if err := h(); err != nil {
			errs = append(errs, err)
		}
	}
}

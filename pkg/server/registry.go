package server

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the set of live sessions keyed by identifier. A session is
// live if and only if its identifier is present.
//
// The lock only guards map mutation. Bulk operations take a snapshot and
// act on it after releasing the lock, so a session that unregisters itself
// from inside Disconnect never contends with the caller.
type Registry[S Session] struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]S
}

// NewRegistry returns an empty registry.
func NewRegistry[S Session]() *Registry[S] {
	return &Registry[S]{sessions: make(map[uuid.UUID]S)}
}

// Register inserts s. It returns false, leaving the registry unchanged, if a
// session with the same identifier is already present.
func (r *Registry[S]) Register(s S) bool {
	id := s.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return false
	}
	r.sessions[id] = s
	return true
}

// Unregister removes the session with the given identifier and returns it.
// Unknown identifiers are a no-op.
func (r *Registry[S]) Unregister(id uuid.UUID) (S, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return s, ok
}

// Find returns the live session with the given identifier.
func (r *Registry[S]) Find(id uuid.UUID) (S, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry[S]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Snapshot returns the live sessions at the time of the call, in no
// particular order.
func (r *Registry[S]) Snapshot() []S {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]S, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// DisconnectAll asks every session registered at the time of the call to
// disconnect and returns how many were asked. Sessions registered after the
// snapshot are left alone.
func (r *Registry[S]) DisconnectAll() int {
	snapshot := r.Snapshot()
	for _, s := range snapshot {
		s.Disconnect()
	}
	return len(snapshot)
}

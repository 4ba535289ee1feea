package journal

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the most recent events in a fixed-size ring.
type MemoryStore struct {
	mu     sync.RWMutex
	ring   []Event
	start  int // index of the oldest event
	size   int
	seq    uint64
	closed bool
}

// NewMemoryStore returns a store holding up to capacity events.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{ring: make([]Event, capacity)}
}

func (m *MemoryStore) Append(ctx context.Context, ev Event) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Event{}, ErrClosed
	}

	m.seq++
	ev.Seq = m.seq
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	capacity := len(m.ring)
	if m.size < capacity {
		m.ring[(m.start+m.size)%capacity] = ev
		m.size++
	} else {
		m.ring[m.start] = ev
		m.start = (m.start + 1) % capacity
	}
	return ev, nil
}

func (m *MemoryStore) List(ctx context.Context, q Query) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	// Walk newest to oldest so Limit keeps the most recent matches.
	var out []Event
	capacity := len(m.ring)
	for i := m.size - 1; i >= 0; i-- {
		ev := m.ring[(m.start+i)%capacity]
		if !q.matches(&ev) {
			continue
		}
		out = append(out, ev)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	reverse(out)
	return out, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func reverse(events []Event) {
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
}

package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// Key layout:
//
//	journal:event:{seq:020d} -> JSON(Event)
//	journal:seq              -> badger sequence
const (
	prefixEvent = "journal:event:"
	keySequence = "journal:seq"

	sequenceBandwidth = 128
)

// BadgerStore persists events in BadgerDB.
//
// Thread Safety:
// Appends are serialized so that retention pruning sees a consistent
// sequence; reads use BadgerDB snapshots.
type BadgerStore struct {
	db       *badgerdb.DB
	seq      *badgerdb.Sequence
	capacity uint64

	mu     sync.Mutex
	closed bool
}

// OpenBadgerStore opens (or creates) a store at path. An empty path opens an
// in-memory database.
func OpenBadgerStore(path string, capacity int) (*BadgerStore, error) {
	opts := badgerdb.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	return newBadgerStore(db, capacity)
}

func newBadgerStore(db *badgerdb.DB, capacity int) (*BadgerStore, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	seq, err := db.GetSequence([]byte(keySequence), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open journal sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq, capacity: uint64(capacity)}, nil
}

func eventKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixEvent, seq))
}

func (s *BadgerStore) Append(ctx context.Context, ev Event) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Event{}, ErrClosed
	}

	next, err := s.seq.Next()
	if err != nil {
		return Event{}, fmt.Errorf("failed to allocate journal sequence: %w", err)
	}
	// Sequences start at zero; keep Seq 0 free as "unset".
	ev.Seq = next + 1
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal journal event: %w", err)
	}

	err = s.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Set(eventKey(ev.Seq), data); err != nil {
			return err
		}
		if ev.Seq > s.capacity {
			return s.pruneTx(txn, ev.Seq-s.capacity)
		}
		return nil
	})
	if err != nil {
		return Event{}, fmt.Errorf("failed to append journal event: %w", err)
	}
	return ev, nil
}

// pruneTx deletes every event with Seq <= upTo. Sequence leases can leave
// gaps after a restart, so this scans instead of deleting a single key.
func (s *BadgerStore) pruneTx(txn *badgerdb.Txn, upTo uint64) error {
	opts := badgerdb.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefixEvent)

	it := txn.NewIterator(opts)
	var stale [][]byte
	limit := eventKey(upTo)
	for it.Rewind(); it.Valid(); it.Next() {
		key := it.Item().KeyCopy(nil)
		if string(key) > string(limit) {
			break
		}
		stale = append(stale, key)
	}
	it.Close()

	for _, key := range stale {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *BadgerStore) List(ctx context.Context, q Query) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	var out []Event
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefixEvent)

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks to the last key <= the seek key.
		for it.Seek([]byte(prefixEvent + "\xff")); it.Valid(); it.Next() {
			var ev Event
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ev)
			}); err != nil {
				return fmt.Errorf("failed to decode journal event: %w", err)
			}
			if !q.matches(&ev) {
				continue
			}
			out = append(out, ev)
			if q.Limit > 0 && len(out) == q.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reverse(out)
	return out, nil
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.seq.Release(); err != nil {
		_ = s.db.Close()
		return fmt.Errorf("failed to release journal sequence: %w", err)
	}
	return s.db.Close()
}

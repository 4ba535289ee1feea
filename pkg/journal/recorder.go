package journal

import (
	"context"
	"time"

	"github.com/marmos91/sessiond/internal/logger"
)

const recordTimeout = 2 * time.Second

// Recorder appends events for one server and logs failures instead of
// returning them, so it can be called from server hooks.
type Recorder struct {
	store   Store
	server  string
	metrics AppendObserver
}

// AppendObserver is told about every append attempt. *metrics.JournalMetrics
// implements it.
type AppendObserver interface {
	ObserveAppend(eventType string, d time.Duration, err error)
}

// NewRecorder returns a recorder writing to store. A nil store disables it.
func NewRecorder(store Store, server string) *Recorder {
	return &Recorder{store: store, server: server}
}

// WithMetrics sets the observer notified of each append and returns r.
func (r *Recorder) WithMetrics(m AppendObserver) *Recorder {
	r.metrics = m
	return r
}

// Record stamps ev with the server name and appends it.
func (r *Recorder) Record(ev Event) {
	if r == nil || r.store == nil {
		return
	}
	ev.Server = r.server

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	start := time.Now()
	_, err := r.store.Append(ctx, ev)
	if r.metrics != nil {
		r.metrics.ObserveAppend(string(ev.Type), time.Since(start), err)
	}
	if err != nil {
		logger.Warn("Failed to record journal event",
			logger.KeyServer, r.server,
			logger.KeySessionID, ev.SessionID.String(),
			logger.KeyOperation, string(ev.Type),
			logger.KeyError, err)
	}
}

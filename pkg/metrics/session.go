// Package metrics exposes Prometheus collectors for the session server and
// the HTTP endpoint that serves them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sessiond"

// SessionMetrics implements server.MetricsRecorder on top of Prometheus.
// All methods are nil-safe: calls on a nil *SessionMetrics are no-ops.
type SessionMetrics struct {
	// ConnectedTotal counts sessions registered.
	ConnectedTotal prometheus.Counter

	// DisconnectedTotal counts sessions unregistered.
	DisconnectedTotal prometheus.Counter

	// AcceptErrorsTotal counts failed accepts by error category.
	AcceptErrorsTotal *prometheus.CounterVec

	// DispatchErrorsTotal counts handlers on the server goroutine that
	// returned an error.
	DispatchErrorsTotal prometheus.Counter

	// ActiveSessions is the current registry size.
	ActiveSessions prometheus.Gauge

	// SessionDuration observes how long sessions stayed connected.
	SessionDuration prometheus.Histogram

	// BytesTotal counts payload bytes by direction ("received", "sent").
	BytesTotal *prometheus.CounterVec
}

// NewSessionMetrics creates and registers the session collectors for the
// server name. If reg is nil, collectors are created but not registered.
//
// Collectors already present in reg are reused, so a restarted server keeps
// exporting the same series.
func NewSessionMetrics(reg prometheus.Registerer, server string) *SessionMetrics {
	labels := prometheus.Labels{"server": server}

	m := &SessionMetrics{
		ConnectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "sessions",
			Name:        "connected_total",
			Help:        "Total number of sessions registered",
			ConstLabels: labels,
		}),
		DisconnectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "sessions",
			Name:        "disconnected_total",
			Help:        "Total number of sessions unregistered",
			ConstLabels: labels,
		}),
		AcceptErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "server",
			Name:        "accept_errors_total",
			Help:        "Total number of failed accepts by error category",
			ConstLabels: labels,
		}, []string{"category"}),
		DispatchErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "server",
			Name:        "dispatch_errors_total",
			Help:        "Total number of failed handlers on the server goroutine",
			ConstLabels: labels,
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "sessions",
			Name:        "active",
			Help:        "Current number of live sessions",
			ConstLabels: labels,
		}),
		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "sessions",
			Name:        "duration_seconds",
			Help:        "Time sessions stayed connected",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		BytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "sessions",
			Name:        "bytes_total",
			Help:        "Total payload bytes by direction",
			ConstLabels: labels,
		}, []string{"direction"}),
	}

	if reg != nil {
		m.ConnectedTotal = registerOrReuse(reg, m.ConnectedTotal).(prometheus.Counter)
		m.DisconnectedTotal = registerOrReuse(reg, m.DisconnectedTotal).(prometheus.Counter)
		m.AcceptErrorsTotal = registerOrReuse(reg, m.AcceptErrorsTotal).(*prometheus.CounterVec)
		m.DispatchErrorsTotal = registerOrReuse(reg, m.DispatchErrorsTotal).(prometheus.Counter)
		m.ActiveSessions = registerOrReuse(reg, m.ActiveSessions).(prometheus.Gauge)
		m.SessionDuration = registerOrReuse(reg, m.SessionDuration).(prometheus.Histogram)
		m.BytesTotal = registerOrReuse(reg, m.BytesTotal).(*prometheus.CounterVec)
	}

	return m
}

// registerOrReuse registers c, or returns the collector already registered
// under the same descriptor.
func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// RecordSessionConnected increments the connected counter.
func (m *SessionMetrics) RecordSessionConnected() {
	if m == nil {
		return
	}
	m.ConnectedTotal.Inc()
}

// RecordSessionDisconnected increments the disconnected counter.
func (m *SessionMetrics) RecordSessionDisconnected() {
	if m == nil {
		return
	}
	m.DisconnectedTotal.Inc()
}

// RecordAcceptError increments the accept error counter for category.
func (m *SessionMetrics) RecordAcceptError(category string) {
	if m == nil {
		return
	}
	m.AcceptErrorsTotal.WithLabelValues(category).Inc()
}

// RecordDispatchError increments the dispatch error counter.
func (m *SessionMetrics) RecordDispatchError() {
	if m == nil {
		return
	}
	m.DispatchErrorsTotal.Inc()
}

// SetActiveSessions sets the live session gauge.
func (m *SessionMetrics) SetActiveSessions(count int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(count))
}

// ObserveSession records the lifetime and traffic of a finished session.
func (m *SessionMetrics) ObserveSession(connected time.Duration, received, sent uint64) {
	if m == nil {
		return
	}
	m.SessionDuration.Observe(connected.Seconds())
	m.BytesTotal.WithLabelValues("received").Add(float64(received))
	m.BytesTotal.WithLabelValues("sent").Add(float64(sent))
}

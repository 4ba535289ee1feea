package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// JournalMetrics tracks session journal appends. A nil *JournalMetrics is
// valid and records nothing.
type JournalMetrics struct {
	appends       *prometheus.CounterVec
	appendErrors  prometheus.Counter
	appendLatency prometheus.Histogram
}

// NewJournalMetrics registers journal collectors with reg. It returns nil
// when reg is nil.
func NewJournalMetrics(reg prometheus.Registerer, server string) *JournalMetrics {
	if reg == nil {
		return nil
	}
	labels := prometheus.Labels{"server": server}
	factory := promauto.With(reg)

	return &JournalMetrics{
		appends: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "journal",
			Name:        "appends_total",
			Help:        "Journal events appended by event type",
			ConstLabels: labels,
		}, []string{"type"}),
		appendErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "journal",
			Name:        "append_errors_total",
			Help:        "Journal appends that failed",
			ConstLabels: labels,
		}),
		appendLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "journal",
			Name:        "append_duration_seconds",
			Help:        "Time spent appending one journal event",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
	}
}

// ObserveAppend records one append attempt.
func (m *JournalMetrics) ObserveAppend(eventType string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.appendLatency.Observe(d.Seconds())
	if err != nil {
		m.appendErrors.Inc()
		return
	}
	m.appends.WithLabelValues(eventType).Inc()
}

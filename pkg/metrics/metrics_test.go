package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var m dto.Metric
	require.NoError(t, (<-ch).Write(&m))
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func TestNilSafe(t *testing.T) {
	var m *SessionMetrics
	assert.NotPanics(t, func() {
		m.RecordSessionConnected()
		m.RecordSessionDisconnected()
		m.RecordAcceptError("system")
		m.RecordDispatchError()
		m.SetActiveSessions(3)
		m.ObserveSession(time.Second, 1, 2)
	})
}

func TestSessionMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSessionMetrics(reg, "echo")

	m.RecordSessionConnected()
	m.RecordSessionConnected()
	m.RecordSessionDisconnected()
	m.RecordAcceptError("system")
	m.RecordAcceptError("system")
	m.RecordAcceptError("net")
	m.RecordDispatchError()
	m.SetActiveSessions(1)
	m.ObserveSession(2*time.Second, 10, 7)

	assert.Equal(t, 2.0, counterValue(t, m.ConnectedTotal))
	assert.Equal(t, 1.0, counterValue(t, m.DisconnectedTotal))
	assert.Equal(t, 2.0, counterValue(t, m.AcceptErrorsTotal.WithLabelValues("system")))
	assert.Equal(t, 1.0, counterValue(t, m.AcceptErrorsTotal.WithLabelValues("net")))
	assert.Equal(t, 1.0, counterValue(t, m.DispatchErrorsTotal))
	assert.Equal(t, 1.0, counterValue(t, m.ActiveSessions))
	assert.Equal(t, 10.0, counterValue(t, m.BytesTotal.WithLabelValues("received")))
	assert.Equal(t, 7.0, counterValue(t, m.BytesTotal.WithLabelValues("sent")))

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "sessiond_sessions_connected_total" {
			found = true
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, "server", f.GetMetric()[0].GetLabel()[0].GetName())
			assert.Equal(t, "echo", f.GetMetric()[0].GetLabel()[0].GetValue())
		}
	}
	assert.True(t, found)
}

func TestReRegistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewSessionMetrics(reg, "echo")
	first.RecordSessionConnected()

	second := NewSessionMetrics(reg, "echo")
	second.RecordSessionConnected()

	assert.Equal(t, 2.0, counterValue(t, first.ConnectedTotal))
	assert.Same(t, first.AcceptErrorsTotal, second.AcceptErrorsTotal)
}

func TestUnregisteredMetrics(t *testing.T) {
	m := NewSessionMetrics(nil, "echo")
	m.RecordSessionConnected()
	assert.Equal(t, 1.0, counterValue(t, m.ConnectedTotal))
}

func TestJournalMetrics(t *testing.T) {
	var nilMetrics *JournalMetrics
	assert.NotPanics(t, func() { nilMetrics.ObserveAppend("connected", time.Millisecond, nil) })
	assert.Nil(t, NewJournalMetrics(nil, "echo"))

	reg := prometheus.NewRegistry()
	m := NewJournalMetrics(reg, "echo")
	m.ObserveAppend("connected", time.Millisecond, nil)
	m.ObserveAppend("connected", time.Millisecond, nil)
	m.ObserveAppend("disconnected", time.Millisecond, nil)
	m.ObserveAppend("disconnected", time.Millisecond, errors.New("closed"))

	assert.Equal(t, 2.0, counterValue(t, m.appends.WithLabelValues("connected")))
	assert.Equal(t, 1.0, counterValue(t, m.appends.WithLabelValues("disconnected")))
	assert.Equal(t, 1.0, counterValue(t, m.appendErrors))
}

func TestServerExposesMetrics(t *testing.T) {
	reg := NewRegistry()
	m := NewSessionMetrics(reg, "echo")
	m.RecordSessionConnected()

	srv, err := NewServer("127.0.0.1:0", reg)
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()

	resp, err := http.Get("http://" + srv.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `sessiond_sessions_connected_total{server="echo"} 1`)
	assert.Contains(t, string(body), "go_goroutines")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-served)
}

package runtime

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sessiond/pkg/apiclient"
	"github.com/marmos91/sessiond/pkg/config"
	"github.com/marmos91/sessiond/pkg/journal"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("SESSIOND_API_SECRET", "")

	cfg := config.GetDefaultConfig()
	cfg.Server.Name = "rt"
	cfg.Server.Address = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Metrics.Enabled = true
	cfg.Metrics.Address = "127.0.0.1"
	cfg.Metrics.Port = freePort(t)
	cfg.API.Port = freePort(t)
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

type running struct {
	rt     *Runtime
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T, cfg *config.Config) *running {
	t.Helper()
	rt, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	r := &running{rt: rt, cancel: cancel, done: make(chan error, 1)}
	go func() { r.done <- rt.Serve(ctx) }()

	require.Eventually(t, rt.Server().IsStarted, waitFor, tick)
	t.Cleanup(func() { r.stop(t) })
	return r
}

func (r *running) stop(t *testing.T) {
	r.cancel()
	select {
	case err := <-r.done:
		assert.NoError(t, err)
		r.done <- nil
	case <-time.After(10 * time.Second):
		t.Fatal("runtime did not stop")
	}
}

func TestRuntime_EndToEnd(t *testing.T) {
	r := start(t, testConfig(t))
	client := apiclient.New("http://" + r.rt.APIAddr().String())

	conn, err := net.Dial("tcp4", r.rt.Server().Addr().String())
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_ = conn.SetReadDeadline(time.Now().Add(waitFor))
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))

	sessions, err := client.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	id := sessions[0].ID
	assert.Equal(t, uint64(4), sessions[0].BytesReceived)

	info, err := client.Server()
	require.NoError(t, err)
	assert.Equal(t, "rt", info.Name)
	assert.True(t, info.Running)

	require.NoError(t, client.DisconnectSession(id))

	_, err = conn.Read(buf)
	assert.Error(t, err)

	var history []journal.Event
	require.Eventually(t, func() bool {
		history, err = client.History(id, 0)
		return err == nil && len(history) == 2
	}, waitFor, tick)
	assert.Equal(t, journal.EventConnected, history[0].Type)
	assert.Equal(t, journal.EventDisconnected, history[1].Type)
	assert.Equal(t, uint64(4), history[1].BytesReceived)
	assert.Equal(t, uint64(4), history[1].BytesSent)

	_, err = client.GetSession(id)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())

	resp, err := http.Get("http://" + r.rt.MetricsAddr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `sessiond_sessions_connected_total{server="rt"} 1`)
	assert.Contains(t, string(body), `sessiond_sessions_disconnected_total{server="rt"} 1`)
}

func TestRuntime_StopDisconnectsSessions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false
	cfg.API.Enabled = false

	r := start(t, cfg)
	assert.Nil(t, r.rt.MetricsAddr())
	assert.Nil(t, r.rt.APIAddr())

	conns := make([]net.Conn, 3)
	for i := range conns {
		c, err := net.Dial("tcp4", r.rt.Server().Addr().String())
		require.NoError(t, err)
		defer func() { _ = c.Close() }()
		conns[i] = c
	}
	require.Eventually(t, func() bool { return r.rt.Server().SessionCount() == 3 }, waitFor, tick)

	store := r.rt.Journal()
	r.stop(t)

	assert.False(t, r.rt.Server().IsStarted())
	assert.Equal(t, 0, r.rt.Server().SessionCount())
	for _, c := range conns {
		_ = c.SetReadDeadline(time.Now().Add(waitFor))
		_, err := c.Read(make([]byte, 1))
		assert.Error(t, err)
	}

	_, err := store.List(context.Background(), journal.Query{})
	assert.ErrorIs(t, err, journal.ErrClosed)
}

func TestRuntime_ServeOnlyOnce(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false
	cfg.API.Enabled = false
	r := start(t, cfg)

	assert.Error(t, r.rt.Serve(context.Background()))
}

func TestNew_ReportsBindConflicts(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	cfg := testConfig(t)
	cfg.API.Port = ln.Addr().(*net.TCPAddr).Port

	_, err = New(cfg)
	assert.Error(t, err)
}

func TestNew_RejectsUnknownMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.Mode = "shout"
	_, err := New(cfg)
	assert.Error(t, err)
}

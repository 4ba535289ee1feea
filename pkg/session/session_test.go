package session

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingOwner struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (o *recordingOwner) UnregisterSession(id uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ids = append(o.ids, id)
}

func (o *recordingOwner) calls() []uuid.UUID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]uuid.UUID(nil), o.ids...)
}

func newPipeSession(t *testing.T, cfg Config) (*TCPSession, net.Conn, *recordingOwner) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })

	owner := &recordingOwner{}
	return New(owner, uuid.New(), server, cfg), client, owner
}

func serveAsync(s *TCPSession, ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		s.Serve(ctx)
		close(done)
	}()
	return done
}

func waitClosed(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestEchoRoundTrip(t *testing.T) {
	s, client, _ := newPipeSession(t, Config{OnReceived: Echo})
	done := serveAsync(s, context.Background())

	_, err := client.Write([]byte("hello"))
	require.NoError(t, err)

	buf := make([]byte, 5)
	_, err = io.ReadFull(client, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	require.NoError(t, client.Close())
	waitClosed(t, done)

	assert.Equal(t, uint64(5), s.BytesReceived())
	assert.Equal(t, uint64(5), s.BytesSent())
}

func TestDiscardCountsBytes(t *testing.T) {
	received := make(chan int, 1)
	s, client, _ := newPipeSession(t, Config{OnReceived: func(_ *TCPSession, data []byte) {
		Discard(nil, data)
		received <- len(data)
	}})
	done := serveAsync(s, context.Background())

	_, err := client.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, <-received)

	require.NoError(t, client.Close())
	waitClosed(t, done)
	assert.Equal(t, uint64(3), s.BytesReceived())
	assert.Zero(t, s.BytesSent())
}

func TestDisconnectIsIdempotent(t *testing.T) {
	s, _, owner := newPipeSession(t, Config{})

	assert.Equal(t, StateConnected, s.State())
	assert.True(t, s.Disconnect())
	assert.False(t, s.Disconnect())
	assert.Equal(t, StateDisconnected, s.State())

	assert.Equal(t, []uuid.UUID{s.ID()}, owner.calls())
}

func TestConcurrentDisconnectUnregistersOnce(t *testing.T) {
	s, _, owner := newPipeSession(t, Config{})

	var (
		wg   sync.WaitGroup
		wins sync.Map
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if s.Disconnect() {
				wins.Store(n, true)
			}
		}(i)
	}
	wg.Wait()

	var count int
	wins.Range(func(_, _ any) bool { count++; return true })
	assert.Equal(t, 1, count)
	assert.Len(t, owner.calls(), 1)
}

func TestServeStopsOnContextCancel(t *testing.T) {
	s, _, owner := newPipeSession(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	done := serveAsync(s, ctx)

	cancel()
	waitClosed(t, done)

	assert.Equal(t, StateDisconnected, s.State())
	assert.Len(t, owner.calls(), 1)
}

func TestServeStopsOnPeerClose(t *testing.T) {
	s, client, owner := newPipeSession(t, Config{})
	done := serveAsync(s, context.Background())

	require.NoError(t, client.Close())
	waitClosed(t, done)

	// Serve returns without disconnecting; that is the caller's job.
	assert.Equal(t, StateConnected, s.State())
	assert.Empty(t, owner.calls())
}

func TestIdleTimeout(t *testing.T) {
	s, _, _ := newPipeSession(t, Config{IdleTimeout: 20 * time.Millisecond})
	done := serveAsync(s, context.Background())
	waitClosed(t, done)
}

func TestSendAfterDisconnect(t *testing.T) {
	s, _, _ := newPipeSession(t, Config{})
	s.Disconnect()

	_, err := s.Send([]byte("x"))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestWriteTimeout(t *testing.T) {
	// Nobody reads from the client side, so the pipe write blocks.
	s, _, _ := newPipeSession(t, Config{WriteTimeout: 20 * time.Millisecond})

	_, err := s.Send([]byte("stuck"))
	require.Error(t, err)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestInfo(t *testing.T) {
	s, _, _ := newPipeSession(t, Config{})

	info := s.Info()
	assert.Equal(t, s.ID(), info.ID)
	assert.Equal(t, "pipe", info.RemoteAddr)
	assert.Equal(t, "connected", info.State)
	assert.WithinDuration(t, time.Now(), info.ConnectedAt, time.Second)
	assert.Equal(t, DefaultReadBufferSize, s.cfg.ReadBufferSize)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "disconnecting", StateDisconnecting.String())
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestReceiverFor(t *testing.T) {
	for _, mode := range []string{"echo", "ECHO", "", "discard"} {
		fn, err := ReceiverFor(mode)
		require.NoError(t, err, mode)
		assert.NotNil(t, fn)
	}
	_, err := ReceiverFor("chargen")
	assert.Error(t, err)
}

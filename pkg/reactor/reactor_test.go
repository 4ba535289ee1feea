package reactor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAsync(r *Reactor) <-chan error {
	done := make(chan error, 1)
	go func() { done <- r.Run() }()
	return done
}

func TestRunDispatchesInOrder(t *testing.T) {
	r := New()

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 10; i++ {
		n := i
		require.True(t, r.Post(func() error {
			mu.Lock()
			got = append(got, n)
			mu.Unlock()
			return nil
		}))
	}

	finished := make(chan struct{})
	require.True(t, r.Post(func() error {
		close(finished)
		return nil
	}))

	done := runAsync(r)
	<-finished
	r.Stop()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestRunBlocksUntilPost(t *testing.T) {
	r := New()
	done := runAsync(r)

	ran := make(chan struct{})
	time.Sleep(10 * time.Millisecond)
	require.True(t, r.Post(func() error {
		close(ran)
		return nil
	}))

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("handler was not dispatched")
	}

	r.Stop()
	require.NoError(t, <-done)
}

func TestRunReturnsHandlerError(t *testing.T) {
	r := New()
	boom := errors.New("boom")

	var second bool
	r.Post(func() error { return boom })
	r.Post(func() error { second = true; return nil })

	err := r.Run()
	assert.ErrorIs(t, err, boom)
	assert.False(t, second)
	assert.Equal(t, 1, r.Pending())

	// The next Run picks up where the failed one left off.
	r.Post(func() error { r.Stop(); return nil })
	require.NoError(t, r.Run())
	assert.True(t, second)
}

func TestPostAfterStopIsRejected(t *testing.T) {
	r := New()
	r.Stop()

	assert.True(t, r.Stopped())
	assert.False(t, r.Post(func() error { return nil }))
	assert.False(t, r.Post(nil))
	assert.Zero(t, r.Pending())

	r.Restart()
	assert.False(t, r.Stopped())
	assert.True(t, r.Post(func() error { return nil }))
	assert.Equal(t, 1, r.Pending())
}

func TestStopUnblocksIdleRun(t *testing.T) {
	r := New()
	done := runAsync(r)

	time.Sleep(10 * time.Millisecond)
	r.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestFlushRunsLeftovers(t *testing.T) {
	r := New()
	boom := errors.New("boom")

	var count int
	r.Post(func() error { count++; return nil })
	r.Post(func() error { count++; return boom })
	r.Post(func() error { count++; return nil })
	r.Stop()

	// Run on a stopped reactor dispatches nothing.
	require.NoError(t, r.Run())
	assert.Equal(t, 3, r.Pending())

	n, err := r.Flush()
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, count)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, r.Pending())
}

func TestConcurrentPosters(t *testing.T) {
	r := New()
	done := runAsync(r)

	const producers, perProducer = 8, 100

	var (
		wg    sync.WaitGroup
		total int // only touched by handlers, which are serialized
	)
	all := make(chan struct{})
	var remaining sync.WaitGroup
	remaining.Add(producers * perProducer)

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				r.Post(func() error {
					total++
					remaining.Done()
					return nil
				})
			}
		}()
	}
	wg.Wait()

	go func() {
		remaining.Wait()
		close(all)
	}()

	select {
	case <-all:
	case <-time.After(5 * time.Second):
		t.Fatal("handlers were not all dispatched")
	}

	r.Stop()
	require.NoError(t, <-done)
	assert.Equal(t, producers*perProducer, total)
}

package modem

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hold occupies the head of q until the returned function is called.
func hold(t *testing.T, q *Queue) (release func(), done <-chan error) {
	t.Helper()

	started := make(chan struct{})
	unblock := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		result <- q.Do(func(string) error {
			close(started)
			<-unblock
			return nil
		})
	}()
	<-started
	return func() { close(unblock) }, result
}

func TestQueueRunsCallersInArrivalOrder(t *testing.T) {
	q := NewQueue()
	release, done := hold(t, q)

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, q.Do(func(string) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			}))
		}(i)
		require.Eventually(t, func() bool { return q.Len() == i+2 }, time.Second, time.Millisecond)
	}

	release()
	require.NoError(t, <-done)
	wg.Wait()

	for i, got := range order {
		assert.Equal(t, i, got)
	}
	assert.Len(t, order, 20)
	assert.Zero(t, q.Len())
}

func TestQueueRunsOneAtATime(t *testing.T) {
	q := NewQueue()

	var (
		mu      sync.Mutex
		running int
		peak    int
		wg      sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(func(string) error {
				mu.Lock()
				running++
				peak = max(peak, running)
				mu.Unlock()

				time.Sleep(100 * time.Microsecond)

				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
}

func TestQueueReleasesAfterFailure(t *testing.T) {
	q := NewQueue()
	boom := errors.New("boom")

	assert.ErrorIs(t, q.Do(func(string) error { return boom }), boom)
	assert.Zero(t, q.Len())

	assert.Panics(t, func() {
		_ = q.Do(func(string) error { panic("exchange blew up") })
	})
	assert.Zero(t, q.Len())

	ran := false
	require.NoError(t, q.Do(func(string) error {
		ran = true
		return nil
	}))
	assert.True(t, ran, "queue still admits callers")
}

func TestQueueTicketIDsAreUnique(t *testing.T) {
	q := NewQueue()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		require.NoError(t, q.Do(func(id string) error {
			assert.NotEmpty(t, id)
			assert.False(t, seen[id], "duplicate ticket %s", id)
			seen[id] = true
			return nil
		}))
	}
}

func TestQueueClose(t *testing.T) {
	t.Run("Idle queue", func(t *testing.T) {
		q := NewQueue()
		q.Close()

		called := false
		err := q.Do(func(string) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, ErrAlreadyClosed)
		assert.False(t, called)

		q.Close()
	})

	t.Run("Rejects waiters and drains the running caller", func(t *testing.T) {
		q := NewQueue()
		release, done := hold(t, q)

		waiter := make(chan error, 1)
		go func() {
			waiter <- q.Do(func(string) error {
				t.Error("waiter must not run after Close")
				return nil
			})
		}()
		require.Eventually(t, func() bool { return q.Len() == 2 }, time.Second, time.Millisecond)

		closed := make(chan struct{})
		go func() {
			q.Close()
			close(closed)
		}()

		assert.ErrorIs(t, <-waiter, ErrAlreadyClosed)
		select {
		case <-closed:
			t.Fatal("Close returned while a caller was running")
		case <-time.After(20 * time.Millisecond):
		}

		release()
		require.NoError(t, <-done)
		select {
		case <-closed:
		case <-time.After(time.Second):
			t.Fatal("Close did not return after the running caller finished")
		}
		assert.Zero(t, q.Len())
	})
}

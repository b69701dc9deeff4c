package modem

import (
	"sync"

	"github.com/google/uuid"
)

// Queue admits work onto a half-duplex channel one caller at a time, in the
// order the callers arrived.
//
// Every call to Do takes a ticket at the tail. Only the head ticket runs;
// it is removed when its function returns, and removal wakes the next head.
// Waiting callers block on a channel of their own, nothing polls.
type Queue struct {
	mu      sync.Mutex
	pending []*ticket
	closed  bool
	drained chan struct{}
}

type ticket struct {
	id       string
	ready    chan struct{}
	rejected chan struct{}
}

func NewQueue() *Queue {
	return &Queue{drained: make(chan struct{})}
}

// Do waits until every earlier caller has finished and then runs fn with
// the caller's ticket id. The ticket is released even if fn panics.
//
// Do returns ErrAlreadyClosed without running fn when the queue is closed
// before the caller reaches the head.
func (q *Queue) Do(fn func(id string) error) error {
	t, err := q.enqueue()
	if err != nil {
		return err
	}

	select {
	case <-t.ready:
	case <-t.rejected:
		return ErrAlreadyClosed
	}

	defer q.release(t)
	return fn(t.id)
}

// Len returns the number of callers holding a ticket, the running one included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close rejects new callers and those still waiting, then blocks until the
// running caller, if any, has released its ticket. It must not be called
// from inside a function passed to Do.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.drained
		return
	}
	q.closed = true
	if len(q.pending) > 0 {
		for _, t := range q.pending[1:] {
			close(t.rejected)
		}
		q.pending = q.pending[:1]
	} else {
		close(q.drained)
	}
	q.mu.Unlock()

	<-q.drained
}

func (q *Queue) enqueue() (*ticket, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrAlreadyClosed
	}

	t := &ticket{
		id:       uuid.NewString(),
		ready:    make(chan struct{}),
		rejected: make(chan struct{}),
	}
	q.pending = append(q.pending, t)
	if len(q.pending) == 1 {
		close(t.ready)
	}
	return t, nil
}

func (q *Queue) release(t *ticket) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) > 0 && q.pending[0] == t {
		q.pending[0] = nil
		q.pending = q.pending[1:]
	}

	switch {
	case len(q.pending) > 0:
		close(q.pending[0].ready)
	case q.closed:
		close(q.drained)
	}
}

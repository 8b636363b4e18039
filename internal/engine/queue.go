package engine

import (
	"sync"

	"github.com/corewing/bp/internal/ir"
)

// externalQueue is the FIFO buffer of events injected from outside a
// cycle (spec.md §3, component C6). Enqueue is safe from any goroutine —
// a host program, or a b-thread body running on its own goroutine, may
// call it at any time. Drain is called only from the goroutine driving the
// arbiter, at cycle boundaries.
type externalQueue struct {
	mu     sync.Mutex
	events []ir.Event
	signal chan struct{} // buffered size 1; coalesces multiple enqueues
}

func newExternalQueue(seed []ir.Event) *externalQueue {
	q := &externalQueue{signal: make(chan struct{}, 1)}
	q.events = append(q.events, seed...)
	return q
}

// Enqueue appends e. Thread-safe.
func (q *externalQueue) Enqueue(e ir.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, e)
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Wait returns a channel that receives when Enqueue has run at least once
// since the last time this channel fired — the runner's daemon-mode select
// target (spec.md §5, §6). It never signals removal, only arrival.
func (q *externalQueue) Wait() <-chan struct{} {
	return q.signal
}

// Drain atomically removes and returns everything accumulated since the
// last drain, in FIFO order.
func (q *externalQueue) Drain() []ir.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	drained := q.events
	q.events = nil
	return drained
}

// Len reports the number of events currently buffered.
func (q *externalQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

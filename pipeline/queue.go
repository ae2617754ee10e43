// Package pipeline carries translation requests from the hotkey side to the
// single translation worker and publishes results to the presentation sink.
package pipeline

import (
	"errors"
	"sync"
	"time"
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("request queue is closed")

// Request is an immutable translation request. Refresh marks re-translations
// triggered by a language change so the sink keeps the window where it is.
type Request struct {
	Text        string
	Source      string // empty means auto-detect
	Dest        string
	RequestedAt time.Time
	Refresh     bool
}

// Queue is an unbounded FIFO between the event side (producer) and the
// worker (consumer). Enqueue never blocks the producer; Dequeue blocks the
// consumer until an item arrives or the queue is closed.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Request
	closed bool
}

// NewQueue creates an empty open queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends a request. It returns ErrQueueClosed after Close and never
// blocks.
func (q *Queue) Enqueue(req Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.items = append(q.items, req)
	q.cond.Signal()
	return nil
}

// Dequeue removes and returns the oldest request, blocking until one is
// available. ok is false once the queue is closed and drained.
func (q *Queue) Dequeue() (req Request, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return Request{}, false
	}
	req = q.items[0]
	q.items = q.items[1:]
	return req, true
}

// Close rejects further enqueues and wakes a blocked consumer. Items already
// queued can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// Len reports the number of pending requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

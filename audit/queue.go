package audit

import (
	"context"
	"sync"
)

// queue is an unbounded FIFO. push never blocks; pop blocks until an entry
// is available or ctx is done. Once closed, push refuses every entry.
type queue struct {
	mu     sync.Mutex
	items  []Entry
	closed bool

	// notify holds at most one wakeup for the single consumer.
	notify chan struct{}
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

// push reports false when the queue is closed.
func (q *queue) push(e Entry) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, e)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// pop returns false once ctx is done, even if entries remain.
func (q *queue) pop(ctx context.Context) (Entry, bool) {
	for {
		if ctx.Err() != nil {
			return Entry{}, false
		}

		q.mu.Lock()
		if len(q.items) > 0 {
			e := q.items[0]
			q.items[0] = Entry{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return e, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Entry{}, false
		case <-q.notify:
		}
	}
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// close empties the queue, refuses further pushes and returns how many
// entries it dropped.
func (q *queue) close() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	n := len(q.items)
	q.items = nil
	return n
}

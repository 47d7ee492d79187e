package reporter

import (
	"context"
	"sync"
)

// queue tracks messages handed to the sink until they are acknowledged.
type queue struct {
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]string
	// idle is closed whenever pending drains to zero and replaced when the
	// first message of a new batch is tracked.
	idle chan struct{}
}

func newQueue() *queue {
	idle := make(chan struct{})
	close(idle)
	return &queue{
		pending: make(map[uint64]string),
		idle:    idle,
	}
}

func (q *queue) track(event string) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		q.idle = make(chan struct{})
	}
	q.nextID++
	q.pending[q.nextID] = event
	return q.nextID
}

func (q *queue) release(id uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pending[id]; !ok {
		return
	}
	delete(q.pending, id)
	if len(q.pending) == 0 {
		close(q.idle)
	}
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// wait blocks until nothing is pending. Messages tracked while waiting are
// waited for as well.
func (q *queue) wait(ctx context.Context) error {
	for {
		q.mu.Lock()
		idle := q.idle
		empty := len(q.pending) == 0
		q.mu.Unlock()

		if empty {
			return nil
		}
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

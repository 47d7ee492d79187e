package events

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when publishing on a closed Broadcaster.
var ErrClosed = errors.New("broadcaster closed")

// Broadcaster fans every published event out to all subscribers, in
// publish order.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers []chan Event
	closed      bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers a new subscriber. The returned channel is closed when
// the Broadcaster is closed.
func (b *Broadcaster) Subscribe(buffer int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish delivers the event to every subscriber, blocking until each one
// has room for it or ctx is done.
func (b *Broadcaster) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close closes every subscriber channel. It is safe to call more than once.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
}

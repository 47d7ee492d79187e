package sink

import (
	"sync"

	"github.com/denizgursoy/cacik-reporter/pkg/reporter"
)

// Delivery is a message handed to a channel consumer, which must call Ack
// once it is done with it.
type Delivery struct {
	Message reporter.Message
	Ack     func()
}

// Channel hands messages to a consumer goroutine. Send never blocks: a
// message that does not fit in the buffer is rejected.
type Channel struct {
	mu         sync.Mutex
	deliveries chan Delivery
	closed     bool
}

func NewChannel(buffer int) *Channel {
	return &Channel{deliveries: make(chan Delivery, buffer)}
}

func (c *Channel) Deliveries() <-chan Delivery {
	return c.deliveries
}

func (c *Channel) Send(message reporter.Message, ack func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.deliveries <- Delivery{Message: message, Ack: ack}:
		return true
	default:
		return false
	}
}

// Close closes the deliveries channel. Later sends are rejected.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.deliveries)
	}
}

// Package sink provides reporter.Sink implementations.
package sink

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/denizgursoy/cacik-reporter/pkg/reporter"
)

type delivery struct {
	message reporter.Message
	ack     func()
}

// NDJSON writes every message as one JSON line from a background goroutine
// and acknowledges it once written.
type NDJSON struct {
	encoder *json.Encoder
	queue   chan delivery
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
	err    error
}

func NewNDJSON(w io.Writer, buffer int) *NDJSON {
	s := &NDJSON{
		encoder: json.NewEncoder(w),
		queue:   make(chan delivery, buffer),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *NDJSON) Send(message reporter.Message, ack func()) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	s.queue <- delivery{message: message, ack: ack}
	return true
}

// Close stops accepting messages, waits for the queued ones to be written
// and returns the first write error.
func (s *NDJSON) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	<-s.done
	return s.err
}

func (s *NDJSON) run() {
	defer close(s.done)

	for d := range s.queue {
		// A message that could not be written is still acknowledged; the
		// error surfaces from Close.
		if err := s.encoder.Encode(d.message); err != nil && s.err == nil {
			s.err = err
		}
		d.ack()
	}
}

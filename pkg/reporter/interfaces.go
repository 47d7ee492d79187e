//go:generate mockgen -source=interfaces.go -destination=interfaces_mock.go -package=reporter
package reporter

type (
	// Sink accepts serialized messages. Send returns false when the message
	// is not accepted; otherwise ack must eventually be called exactly once
	// the message has been flushed. ack may be called from any goroutine.
	Sink interface {
		Send(message Message, ack func()) bool
	}

	Metrics interface {
		EventSent(event string)
		EventAcknowledged(event string)
		EventRejected(event string)
		TestFailed()
	}
)

type noopMetrics struct{}

func (noopMetrics) EventSent(string)         {}
func (noopMetrics) EventAcknowledged(string) {}
func (noopMetrics) EventRejected(string)     {}
func (noopMetrics) TestFailed()              {}

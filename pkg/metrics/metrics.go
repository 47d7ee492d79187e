package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "cacik_reporter"
)

// Recorder counts reporter traffic in a Prometheus registry.
type Recorder struct {
	sent         *prometheus.CounterVec
	acknowledged *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	failedTests  prometheus.Counter
}

// New registers the reporter counters on registerer.
func New(registerer prometheus.Registerer) *Recorder {
	factory := promauto.With(registerer)

	return &Recorder{
		sent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "messages_sent_total",
			Help:      "Count of messages handed to the sink",
		}, []string{"event"}),
		acknowledged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "messages_acknowledged_total",
			Help:      "Count of messages acknowledged by the sink",
		}, []string{"event"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "messages_rejected_total",
			Help:      "Count of messages the sink refused",
		}, []string{"event"}),
		failedTests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "failed_tests_total",
			Help:      "Count of test:fail messages",
		}),
	}
}

func (r *Recorder) EventSent(event string) {
	r.sent.WithLabelValues(event).Inc()
}

func (r *Recorder) EventAcknowledged(event string) {
	r.acknowledged.WithLabelValues(event).Inc()
}

func (r *Recorder) EventRejected(event string) {
	r.rejected.WithLabelValues(event).Inc()
}

func (r *Recorder) TestFailed() {
	r.failedTests.Inc()
}

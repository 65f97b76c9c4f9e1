package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for eligibility checks.
type Metrics struct {
	ChecksDispatched *prometheus.CounterVec
	CheckOutcomes    *prometheus.CounterVec
	CheckLatency     prometheus.Histogram
	OutcomesDropped  prometheus.Counter
}

// New creates the collectors and registers them with reg. Passing nil uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		ChecksDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policycheck_eligibility_checks_dispatched_total",
			Help: "Total number of requests sent to the policy checker",
		}, []string{"subject"}),
		CheckOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policycheck_eligibility_outcomes_total",
			Help: "Total number of classified policy checker outcomes by result",
		}, []string{"result"}),
		CheckLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "policycheck_eligibility_check_duration_seconds",
			Help:    "Round-trip time from dispatch to classified outcome",
			Buckets: prometheus.DefBuckets,
		}),
		OutcomesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "policycheck_eligibility_outcomes_dropped_total",
			Help: "Outcomes discarded because the observer was released before completion",
		}),
	}
}

func (m *Metrics) IncrementDispatched(subject string) {
	m.ChecksDispatched.WithLabelValues(subject).Inc()
}

// ObserveOutcome records the classified result ("success" or a failure kind)
// and the round-trip latency.
func (m *Metrics) ObserveOutcome(result string, elapsed time.Duration) {
	m.CheckOutcomes.WithLabelValues(result).Inc()
	m.CheckLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) IncrementDropped() {
	m.OutcomesDropped.Inc()
}

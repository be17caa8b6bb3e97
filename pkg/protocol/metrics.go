package protocol

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects counters about protocol executions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	accepted *prometheus.CounterVec
	rejected *prometheus.CounterVec
	rounds   *prometheus.CounterVec
	runs     *prometheus.CounterVec
	finalize *prometheus.HistogramVec
}

// NewMetrics creates the collectors under the given namespace.
// They must be registered with Register before they are exported.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "protocol",
			Name:      "messages_accepted_total",
			Help:      "Number of messages accepted by a round.",
		}, []string{"protocol"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "protocol",
			Name:      "messages_rejected_total",
			Help:      "Number of messages rejected, by error code.",
		}, []string{"protocol", "code"}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "protocol",
			Name:      "rounds_completed_total",
			Help:      "Number of rounds finalized.",
		}, []string{"protocol"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "protocol",
			Name:      "runs_total",
			Help:      "Number of protocol runs which reached a terminal state.",
		}, []string{"protocol", "outcome"}),
		finalize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "protocol",
			Name:      "round_finalize_seconds",
			Help:      "Time spent in the local computation of a round.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"protocol"}),
	}
}

// Register registers all collectors with r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.accepted, m.rejected, m.rounds, m.runs, m.finalize} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) messageAccepted(protocolID string) {
	if m == nil {
		return
	}
	m.accepted.WithLabelValues(protocolID).Inc()
}

func (m *Metrics) messageRejected(protocolID string, code Code) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(protocolID, code.String()).Inc()
}

func (m *Metrics) roundCompleted(protocolID string, start time.Time) {
	if m == nil {
		return
	}
	m.rounds.WithLabelValues(protocolID).Inc()
	m.finalize.WithLabelValues(protocolID).Observe(time.Since(start).Seconds())
}

func (m *Metrics) runEnded(protocolID, outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(protocolID, outcome).Inc()
}

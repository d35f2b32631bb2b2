// Package metrics instruments the verification path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts verification outcomes by terminal status and failure kind.
type Metrics struct {
	verifications *prometheus.CounterVec
	submissions   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resimed",
			Subsystem: "submission",
			Name:      "verifications_total",
			Help:      "Verification attempts by outcome.",
		}, []string{"outcome"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resimed",
			Subsystem: "submission",
			Name:      "records_submitted_total",
			Help:      "Submitted records by kind.",
		}, []string{"kind"}),
	}
}

// ObserveVerification records one verification attempt. outcome is the
// terminal status on success, or the error code on failure.
func (m *Metrics) ObserveVerification(outcome string) {
	m.verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSubmission(kind string) {
	m.submissions.WithLabelValues(kind).Inc()
}

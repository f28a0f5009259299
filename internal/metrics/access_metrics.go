package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tendant/gym-access/pkg/domain"
)

// AccessMetrics records access decisions. It implements access.Recorder.
type AccessMetrics struct {
	decisions *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	quotaLeft prometheus.Histogram
}

// NewAccessMetrics registers the access metrics on registry.
func NewAccessMetrics(registry prometheus.Registerer) *AccessMetrics {
	factory := promauto.With(registry)

	return &AccessMetrics{
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gym_access_decisions_total",
				Help: "Access decisions by result and reason code",
			},
			[]string{"result", "reason"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gym_access_evaluation_duration_seconds",
				Help:    "Time spent evaluating an access request",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"result"},
		),
		quotaLeft: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gym_access_quota_remaining_days",
				Help:    "Remaining quota days reported on usage-limited decisions",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 12, 20},
			},
		),
	}
}

// ObserveDecision records one finished evaluation.
func (m *AccessMetrics) ObserveDecision(decision domain.AccessDecision, elapsedSeconds float64) {
	m.decisions.WithLabelValues(string(decision.Result), string(decision.Reason)).Inc()
	m.duration.WithLabelValues(string(decision.Result)).Observe(elapsedSeconds)
	if decision.Usage != nil {
		m.quotaLeft.Observe(float64(decision.Usage.RemainingDays))
	}
}

package fanout

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-provider outcome counts and request latency.
type Metrics struct {
	outcomes *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on `reg`, if not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatlist",
			Subsystem: "dispatch",
			Name:      "outcomes_total",
			Help:      "Number of model calls, by provider and outcome kind.",
		}, []string{"provider", "kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatlist",
			Subsystem: "dispatch",
			Name:      "request_seconds",
			Help:      "Duration of model calls, including failed ones.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"provider"}),
	}

	if reg != nil {
		reg.MustRegister(m.outcomes, m.latency)
	}

	return &m
}

func (m *Metrics) observe(outcome Outcome) {
	if m == nil {
		return
	}

	m.outcomes.WithLabelValues(outcome.Provider, outcome.Kind.String()).Inc()
	m.latency.WithLabelValues(outcome.Provider).Observe(outcome.Duration.Seconds())
}

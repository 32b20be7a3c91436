package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mediatag/internal/model"
)

const (
	outcomeSuccess  = "success"
	outcomeEmpty    = "empty"
	outcomeFallback = "fallback"
)

// Metrics records how tagging calls end. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the tagging collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mediatag",
				Subsystem: "llm",
				Name:      "tagging_requests_total",
				Help:      "Tagging calls by document type and outcome (success, empty, fallback).",
			},
			[]string{"document_type", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mediatag",
				Subsystem: "llm",
				Name:      "tagging_duration_seconds",
				Help:      "Tagging call duration in seconds by outcome.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(t model.DocumentType, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(t.String(), outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

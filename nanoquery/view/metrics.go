package view

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts registry activity
type Metrics struct {
	ActiveViews prometheus.Gauge
	Evaluations prometheus.Counter
	Matches     prometheus.Counter
}

// NewMetrics creates the registry metrics and registers them with reg when
// it is non-nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nanoquery",
			Name:      "active_views",
			Help:      "Number of distinct live query views.",
		}),
		Evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nanoquery",
			Name:      "document_evaluations_total",
			Help:      "Documents evaluated against live views.",
		}),
		Matches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nanoquery",
			Name:      "document_matches_total",
			Help:      "Evaluations where the document matched the view's query.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ActiveViews, m.Evaluations, m.Matches)
	}
	return m
}

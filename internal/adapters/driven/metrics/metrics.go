// Package metrics provides the Prometheus implementation of driven.SearchMetrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/custodia-labs/resultq/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.SearchMetrics = (*Metrics)(nil)

// Metrics holds the search collectors.
type Metrics struct {
	SearchesTotal            *prometheus.CounterVec
	SearchDuration           prometheus.Histogram
	CandidatesEvaluatedTotal prometheus.Counter
	DocumentsMalformedTotal  prometheus.Counter
	QuerySyntaxErrorsTotal   prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil reg uses the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resultq_searches_total",
				Help: "Total number of searches by outcome",
			},
			[]string{"status"},
		),
		SearchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "resultq_search_duration_seconds",
				Help:    "Duration of searches in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		CandidatesEvaluatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "resultq_candidates_evaluated_total",
				Help: "Total number of candidates checked against a metadata query",
			},
		),
		DocumentsMalformedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "resultq_documents_malformed_total",
				Help: "Total number of stored metadata documents that failed to parse",
			},
		),
		QuerySyntaxErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "resultq_query_syntax_errors_total",
				Help: "Total number of metadata queries rejected by the parser",
			},
		),
	}
}

// ObserveSearch records one finished search.
func (m *Metrics) ObserveSearch(outcome string, d time.Duration) {
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchDuration.Observe(d.Seconds())
	if outcome == driven.SearchOutcomeSyntaxError {
		m.QuerySyntaxErrorsTotal.Inc()
	}
}

// AddCandidatesEvaluated counts candidates handed to the metadata filter.
func (m *Metrics) AddCandidatesEvaluated(n int) {
	if n > 0 {
		m.CandidatesEvaluatedTotal.Add(float64(n))
	}
}

// AddMalformedDocuments counts documents excluded because they failed to parse.
func (m *Metrics) AddMalformedDocuments(n int) {
	if n > 0 {
		m.DocumentsMalformedTotal.Add(float64(n))
	}
}

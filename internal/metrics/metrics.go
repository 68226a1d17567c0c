// Package metrics exposes Prometheus instrumentation for the
// interpretation service.
package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	InterpretDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "egvia_interpret_duration_seconds",
			Help:    "Interpretation pipeline duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
	)

	InterpretTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "egvia_interpret_total",
			Help: "Total interpretation requests processed",
		},
		[]string{"status"},
	)

	AbstainTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "egvia_abstain_total",
			Help: "Interpretation responses by abstention decision",
		},
		[]string{"abstain"},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "egvia_confidence_score",
			Help:    "Confidence scores of returned responses",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	RetrievalFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "egvia_retrieval_failures_total",
			Help: "Soft retrieval failures recorded in response traces",
		},
	)
)

var registerOnce sync.Once

// Init registers the collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(InterpretDuration)
		prometheus.MustRegister(InterpretTotal)
		prometheus.MustRegister(AbstainTotal)
		prometheus.MustRegister(ConfidenceScore)
		prometheus.MustRegister(RetrievalFailures)
	})
}

// Handler serves the Prometheus exposition endpoint as a fiber handler
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

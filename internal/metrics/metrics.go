// Package metrics provides Prometheus instrumentation for the Prevetta
// vetting engine: counters for verdicts and classifier calls, a latency
// histogram per classifier source, and a gauge for items in flight.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// VerdictsTotal counts terminal item verdicts, labeled by status.
	VerdictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prevetta_verdicts_total",
		Help: "Total number of terminal compliance verdicts",
	}, []string{"status"})

	// ClassifierCallsTotal counts classifier adapter calls, labeled by
	// source and outcome ("ok", "degraded", "failed").
	ClassifierCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prevetta_classifier_calls_total",
		Help: "Total number of classifier adapter calls",
	}, []string{"source", "outcome"})

	// ClassifierLatency records classifier call latency in seconds.
	ClassifierLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prevetta_classifier_latency_seconds",
		Help:    "Classifier adapter call latency in seconds",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"source"})

	// BatchItemsInFlight tracks items currently being processed.
	BatchItemsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "prevetta_batch_items_in_flight",
		Help: "Current number of batch items being processed",
	})
)

func init() {
	prometheus.MustRegister(
		VerdictsTotal,
		ClassifierCallsTotal,
		ClassifierLatency,
		BatchItemsInFlight,
	)
}

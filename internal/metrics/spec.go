// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by the spec pipeline metrics.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
	OutcomeSuccess = "success"
)

var (
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airrspec_validations_total",
		Help: "Spec validations by outcome",
	}, []string{"outcome"}) // outcome=valid|invalid|error

	validationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "airrspec_validation_duration_seconds",
		Help:    "Time spent parsing and validating one spec",
		Buckets: prometheus.DefBuckets,
	})

	expansionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airrspec_expansions_total",
		Help: "Spec expansions by outcome",
	}, []string{"outcome"}) // outcome=success|error

	expansionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "airrspec_expansion_duration_seconds",
		Help:    "Time spent expanding one spec",
		Buckets: prometheus.DefBuckets,
	})
)

// RecordValidation counts one validation and observes its duration.
func RecordValidation(outcome string, seconds float64) {
	validationsTotal.WithLabelValues(outcome).Inc()
	validationDurationSeconds.Observe(seconds)
}

// RecordExpansion counts one expansion and observes its duration.
func RecordExpansion(outcome string, seconds float64) {
	expansionsTotal.WithLabelValues(outcome).Inc()
	expansionDurationSeconds.Observe(seconds)
}

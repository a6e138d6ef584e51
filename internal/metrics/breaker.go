// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "airrspec_breaker_state",
		Help: "Breaker position per backend, one-hot over the state label",
	}, []string{"name", "state"})

	breakerTripsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airrspec_breaker_trips_total",
		Help: "Times a breaker opened, by reason",
	}, []string{"name", "reason"})
)

var breakerStates = []string{"closed", "open", "half_open"}

// SetBreakerState marks the current state for a breaker and clears the rest,
// so the gauge reads one-hot per name.
func SetBreakerState(name, state string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		breakerState.WithLabelValues(name, s).Set(v)
	}
}

// RecordBreakerTrip counts a transition to open.
func RecordBreakerTrip(name, reason string) {
	breakerTripsTotal.WithLabelValues(name, reason).Inc()
}

// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	libraryItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "airrspec_library_items",
		Help: "Spec files currently indexed",
	})

	libraryItemsValid = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "airrspec_library_items_valid",
		Help: "Indexed spec files that validate cleanly",
	})

	libraryScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airrspec_library_scans_total",
		Help: "Library root scans by final status",
	}, []string{"status"}) // status=ok|degraded|failed

	libraryScanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "airrspec_library_scan_duration_seconds",
		Help:    "Wall time of one library root scan",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
	})
)

// RecordLibraryItems sets the library size gauges.
func RecordLibraryItems(total, valid int) {
	libraryItems.Set(float64(total))
	libraryItemsValid.Set(float64(valid))
}

// RecordLibraryScan counts one finished scan and observes its duration.
func RecordLibraryScan(status string, seconds float64) {
	libraryScansTotal.WithLabelValues(status).Inc()
	libraryScanDurationSeconds.Observe(seconds)
}

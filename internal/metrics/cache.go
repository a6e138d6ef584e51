// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airrspec_cache_hits_total",
		Help: "Validation cache hits",
	})

	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airrspec_cache_misses_total",
		Help: "Validation cache misses",
	})
)

func IncCacheHit()  { cacheHitsTotal.Inc() }
func IncCacheMiss() { cacheMissesTotal.Inc() }

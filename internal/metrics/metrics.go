// Package metrics provides Prometheus instrumentation for the analyzer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ResolutionLookups counts resolver lookups by where the answer came from.
	ResolutionLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polycopy_resolution_lookups_total",
		Help: "Market resolution lookups by source",
	}, []string{"source"})

	// ResolutionCacheSize tracks the number of memoized markets.
	ResolutionCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polycopy_resolution_cache_size",
		Help: "Markets memoized by the resolution cache",
	})

	// TradersAnalyzed counts analyses by outcome (passed, filtered, no_data).
	TradersAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polycopy_traders_analyzed_total",
		Help: "Trader analyses by outcome",
	}, []string{"outcome"})

	// TradersFiltered counts ineligible traders by the filter that rejected them.
	TradersFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polycopy_traders_filtered_total",
		Help: "Ineligible traders by failed filter",
	}, []string{"filter"})

	// APIRequests counts gateway HTTP requests by api and status class.
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polycopy_api_requests_total",
		Help: "Gateway HTTP requests",
	}, []string{"api", "status"})

	// RunDuration tracks the duration of a full analysis run.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polycopy_run_duration_seconds",
		Help:    "Analysis run duration in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

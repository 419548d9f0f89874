// Package metrics exposes Prometheus instrumentation for the search
// engine and the HTTP harness.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gdziedzic/toolsearch/internal/domain/index"
)

// Search kinds for metric labels.
const (
	KindCatalog = "catalog"
	KindContent = "content"
)

var (
	searchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toolsearch",
			Name:      "searches_total",
			Help:      "Total number of executed searches",
		},
		[]string{"kind"},
	)

	searchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "toolsearch",
			Name:      "search_duration_seconds",
			Help:      "Search execution duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"kind"},
	)

	indexEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "toolsearch",
			Name:      "index_entries",
			Help:      "Entries in the current index snapshot by type",
		},
		[]string{"type"},
	)

	indexBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "toolsearch",
			Name:      "index_build_duration_seconds",
			Help:      "Content index build duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	redactedEntriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "toolsearch",
			Name:      "redacted_entries_total",
			Help:      "Index entries dropped by sensitive-keyword redaction",
		},
	)

	debouncedQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "toolsearch",
			Name:      "debounced_queries_total",
			Help:      "Pending queries superseded before their timer fired",
		},
	)
)

func init() {
	prometheus.MustRegister(searchesTotal)
	prometheus.MustRegister(searchDuration)
	prometheus.MustRegister(indexEntries)
	prometheus.MustRegister(indexBuildDuration)
	prometheus.MustRegister(redactedEntriesTotal)
	prometheus.MustRegister(debouncedQueriesTotal)
}

// ObserveSearch records one executed search.
func ObserveSearch(kind string, seconds float64) {
	searchesTotal.WithLabelValues(kind).Inc()
	searchDuration.WithLabelValues(kind).Observe(seconds)
}

// ObserveIndexBuild records one index build.
func ObserveIndexBuild(seconds float64) {
	indexBuildDuration.Observe(seconds)
}

// AddRedactedEntries counts entries dropped by redaction.
func AddRedactedEntries(n int) {
	redactedEntriesTotal.Add(float64(n))
}

// SetIndexEntries updates the per-type entry gauges from a snapshot.
func SetIndexEntries(byType map[index.EntryType]int) {
	indexEntries.Reset()
	for t, n := range byType {
		indexEntries.WithLabelValues(string(t)).Set(float64(n))
	}
}

// AddDebouncedQuery counts a pending query superseded by a newer one.
func AddDebouncedQuery() {
	debouncedQueriesTotal.Inc()
}

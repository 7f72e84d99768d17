// Package metrics exposes Prometheus counters for the ingestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItemsFetched tracks candidate items yielded by all sources.
	ItemsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aeroresearch_items_fetched_total",
		Help: "The total number of candidate items fetched from all sources.",
	})
	// ItemsWritten tracks entries durably appended to the research log.
	ItemsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aeroresearch_items_written_total",
		Help: "The total number of entries appended to the research log.",
	})
	// ItemsFiltered tracks items dropped by the relevance filter.
	ItemsFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aeroresearch_items_filtered_total",
		Help: "The total number of items dropped for matching no keyword.",
	})
	// ItemsDuplicate tracks items skipped because they were already logged.
	ItemsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aeroresearch_items_duplicate_total",
		Help: "The total number of items skipped as already seen.",
	})
	// VerifyFailures tracks documents rejected by the verifier.
	VerifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aeroresearch_verify_failures_total",
		Help: "The total number of documents that failed verification.",
	})
	// SourceErrors tracks sources that were entirely unreachable.
	SourceErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aeroresearch_source_errors_total",
		Help: "The total number of source fetches that failed outright.",
	})
)

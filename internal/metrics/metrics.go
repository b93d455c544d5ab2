// Package metrics provides Prometheus metrics for the aggregator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newsaggregator"

var (
	// IngestRuns counts ingestion runs by outcome.
	IngestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Total number of ingestion runs",
		},
		[]string{"status"},
	)

	// IngestedArticles counts articles fetched from the news API.
	IngestedArticles = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_articles_total",
			Help:      "Total number of articles fetched from the news API",
		},
	)

	// QueueJobs counts queue job outcomes.
	QueueJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_jobs_total",
			Help:      "Total number of queue jobs by outcome",
		},
		[]string{"queue", "job", "status"},
	)

	// JobDuration measures handler duration.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_job_duration_seconds",
			Help:      "Duration of queue job handling in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"job"},
	)

	// EnrichedArticles counts enrichment results by status.
	EnrichedArticles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enriched_articles_total",
			Help:      "Total number of articles run through enrichment",
		},
		[]string{"status"},
	)

	// DuplicateArticles counts batch entries skipped because their URL is stored.
	DuplicateArticles = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_articles_total",
			Help:      "Total number of incoming articles already in storage",
		},
	)
)

// RecordIngest records one ingestion run.
func RecordIngest(status string, fetched int) {
	IngestRuns.WithLabelValues(status).Inc()
	IngestedArticles.Add(float64(fetched))
}

// RecordJob records the outcome of one queue job.
func RecordJob(queue, job, status string, seconds float64) {
	QueueJobs.WithLabelValues(queue, job, status).Inc()
	JobDuration.WithLabelValues(job).Observe(seconds)
}

// RecordEnrichment records per-batch enrichment counts.
func RecordEnrichment(completed, failed, duplicates int) {
	EnrichedArticles.WithLabelValues("completed").Add(float64(completed))
	EnrichedArticles.WithLabelValues("failed").Add(float64(failed))
	DuplicateArticles.Add(float64(duplicates))
}

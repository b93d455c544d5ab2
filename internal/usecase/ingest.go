package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsAggregator/internal/metrics"
	"NewsAggregator/internal/ports"
)

// ProcessNewsJob is the job name consumed by the enrichment worker.
const ProcessNewsJob = "process-news"

// DefaultJobOptions is the retry policy attached to every ingested batch.
var DefaultJobOptions = ports.JobOptions{
	Attempts:         3,
	Backoff:          5 * time.Second,
	RemoveOnComplete: true,
}

// Ingestor fetches the latest articles and hands them to the queue as one batch.
type Ingestor struct {
	source ports.NewsSource
	queue  ports.JobQueue
	opts   ports.JobOptions
	logger *slog.Logger
}

// NewIngestor wires the upstream news source with the job queue.
func NewIngestor(source ports.NewsSource, queue ports.JobQueue, opts ports.JobOptions, log *slog.Logger) *Ingestor {
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{source: source, queue: queue, opts: opts, logger: log}
}

// Run executes one ingestion pass. An empty fetch still enqueues an empty batch.
func (i *Ingestor) Run(ctx context.Context) error {
	i.logger.Info("ingestion started")

	articles, err := i.source.FetchLatest(ctx)
	if err != nil {
		metrics.RecordIngest("failed", 0)
		i.logger.Error("fetch latest news", "error", err)
		return fmt.Errorf("fetch latest news: %w", err)
	}

	jobID, err := i.queue.Enqueue(ctx, ProcessNewsJob, articles, i.opts)
	if err != nil {
		metrics.RecordIngest("failed", len(articles))
		i.logger.Error("enqueue batch", "articles", len(articles), "error", err)
		return fmt.Errorf("enqueue %s: %w", ProcessNewsJob, err)
	}

	metrics.RecordIngest("completed", len(articles))
	i.logger.Info("ingestion finished", "articles", len(articles), "job_id", jobID)
	return nil
}

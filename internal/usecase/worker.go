package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// JobResult reports a handled job.
type JobResult struct {
	Status string `json:"status"`
}

// Worker dispatches queued jobs by name.
type Worker struct {
	processor *Processor
	logger    *slog.Logger
}

var _ ports.JobHandler = (*Worker)(nil)

// NewWorker binds the enrichment processor.
func NewWorker(processor *Processor, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{processor: processor, logger: log}
}

// Process runs one job. Names other than process-news yield ErrUnknownJob.
func (w *Worker) Process(ctx context.Context, job ports.Job) (JobResult, error) {
	switch job.Name {
	case ProcessNewsJob:
		var batch domain.Batch
		if len(job.Payload) > 0 {
			if err := json.Unmarshal(job.Payload, &batch); err != nil {
				return JobResult{}, fmt.Errorf("decode %s payload: %w", job.Name, err)
			}
		}
		w.logger.Info("processing job", "job", job.Name, "id", job.ID, "attempt", job.Attempt, "articles", len(batch))
		if err := w.processor.ProcessNews(ctx, batch); err != nil {
			return JobResult{}, err
		}
		return JobResult{Status: "completed"}, nil
	default:
		return JobResult{}, fmt.Errorf("%w: %s", ports.ErrUnknownJob, job.Name)
	}
}

// Handle adapts Process to the queue consumer.
func (w *Worker) Handle(ctx context.Context, job ports.Job) error {
	_, err := w.Process(ctx, job)
	return err
}

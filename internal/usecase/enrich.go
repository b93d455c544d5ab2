package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/metrics"
	"NewsAggregator/internal/ports"
)

// Processor dedupes a batch against storage, enriches what is new and
// stores the outcome.
type Processor struct {
	repo      ports.ArticleRepository
	generator ports.MetadataGenerator
	limiter   ports.RateLimiter
	logger    *slog.Logger
}

// NewProcessor wires the enrichment dependencies.
func NewProcessor(repo ports.ArticleRepository, generator ports.MetadataGenerator, limiter ports.RateLimiter, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{repo: repo, generator: generator, limiter: limiter, logger: log}
}

// ProcessNews enriches every article whose URL is not stored yet and inserts
// the results in one write, even when nothing is left to insert. Per-article generation failures become FAILED
// records; storage errors fail the whole batch.
func (p *Processor) ProcessNews(ctx context.Context, batch domain.Batch) error {
	fresh := batch
	if len(batch) > 0 {
		existing, err := p.repo.ExistingURLs(ctx, batch.URLs())
		if err != nil {
			return fmt.Errorf("load existing urls: %w", err)
		}
		fresh = batch.Without(existing)
	}
	duplicates := len(batch) - len(fresh)
	p.logger.Info("batch deduplicated", "received", len(batch), "new", len(fresh), "duplicates", duplicates)

	records := make([]domain.Article, 0, len(fresh))
	completed, failed := 0, 0
	for _, article := range fresh {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("wait for rate limiter: %w", err)
			}
		}

		meta, err := p.generator.Generate(ctx, article)
		if ctx.Err() != nil {
			return fmt.Errorf("enrich %s: %w", article.URL, ctx.Err())
		}
		if err != nil || meta == nil {
			p.logger.Warn("metadata unavailable, storing as failed", "url", article.URL, "error", err)
			records = append(records, article.Failed())
			failed++
			continue
		}
		records = append(records, article.WithMetadata(*meta))
		completed++
	}

	if err := p.repo.InsertMany(ctx, records); err != nil {
		return fmt.Errorf("insert articles: %w", err)
	}

	metrics.RecordEnrichment(completed, failed, duplicates)
	p.logger.Info("batch stored", "stored", len(records), "completed", completed, "failed", failed)
	return nil
}

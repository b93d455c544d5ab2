package scripts

import (
	"context"
	"fmt"
	"time"

	"NewsAggregator/internal/domain"
)

// FillMissingArticlesData re-enriches FAILED rows and rows with missing
// metadata, updating them in place.
func FillMissingArticlesData() Script {
	return Script{
		Name:        "fill-missing-articles-data",
		Description: "Generate summary, category, language and keywords for articles missing them",
		Run:         runFillMissing,
	}
}

func runFillMissing(ctx context.Context, env Env) error {
	if env.Repo == nil || env.Generator == nil {
		return fmt.Errorf("fill-missing-articles-data: repository and generator are required")
	}

	articles, err := env.Repo.ListNeedingEnrichment(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "Found %d articles needing processing\n", len(articles))
	if len(articles) == 0 {
		return nil
	}

	totalBatches := (len(articles) + env.BatchSize - 1) / env.BatchSize
	succeeded, failed := 0, 0

	for start := 0; start < len(articles); start += env.BatchSize {
		end := min(start+env.BatchSize, len(articles))
		batchNo := start/env.BatchSize + 1
		env.Logger.Info("processing batch", "batch", batchNo, "of", totalBatches, "size", end-start)

		for _, article := range articles[start:end] {
			if env.Limiter != nil {
				if err := env.Limiter.Wait(ctx); err != nil {
					return err
				}
			}
			if enrichOne(ctx, env, article) {
				succeeded++
			} else {
				failed++
			}
		}

		if end < len(articles) {
			if err := pause(ctx, env.BatchDelay); err != nil {
				return err
			}
		}
	}

	processed := succeeded + failed
	fmt.Fprintf(env.Out, "Processed: %d\nSuccessful: %d\nFailed: %d\nSuccess rate: %.1f%%\n",
		processed, succeeded, failed, float64(succeeded)*100/float64(processed))
	return nil
}

func enrichOne(ctx context.Context, env Env, article domain.Article) bool {
	meta, err := env.Generator.Generate(ctx, article)
	if err != nil {
		env.Logger.Warn("generate metadata", "id", article.ID, "url", article.URL, "error", err)
		meta = nil
	}

	if err := env.Repo.UpdateMetadata(ctx, article.ID, meta); err != nil {
		env.Logger.Error("update article", "id", article.ID, "error", err)
		return false
	}
	if meta == nil {
		env.Logger.Warn("metadata unavailable, marked failed", "id", article.ID, "url", article.URL)
		return false
	}
	env.Logger.Info("article enriched", "id", article.ID, "category", meta.Category, "language", meta.Language)
	return true
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

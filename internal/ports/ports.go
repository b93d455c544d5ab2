package ports

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"NewsAggregator/internal/domain"
)

// NewsSource pulls fresh articles from the upstream news-search API.
type NewsSource interface {
	FetchLatest(ctx context.Context) ([]domain.Article, error)
}

// ArticleRepository persists enriched articles and answers reads.
type ArticleRepository interface {
	ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)
	InsertMany(ctx context.Context, articles []domain.Article) error
	List(ctx context.Context, q ListQuery) ([]domain.Article, error)
	Count(ctx context.Context, category *domain.Category) (int, error)
	FindByID(ctx context.Context, id string) (domain.Article, error)
	FindByTitle(ctx context.Context, title string) (domain.Article, error)
}

// MaintenanceRepository backs operator scripts.
type MaintenanceRepository interface {
	ListNeedingEnrichment(ctx context.Context) ([]domain.Article, error)
	UpdateMetadata(ctx context.Context, id string, meta *domain.Metadata) error
	Stats(ctx context.Context) (domain.Stats, error)
}

// ListQuery selects one page of articles, newest first.
type ListQuery struct {
	Page     int
	Limit    int
	Category *domain.Category
}

// JobOptions mirrors the retry knobs of the broker.
type JobOptions struct {
	Attempts         int
	Backoff          time.Duration
	RemoveOnComplete bool
}

// Job is one unit of queued work as seen by a handler.
type Job struct {
	ID       string
	Name     string
	Payload  json.RawMessage
	Attempt  int
	Options  JobOptions
	QueuedAt time.Time
}

// ErrUnknownJob is returned by handlers for job names they do not serve.
// Such jobs are rejected without retry.
var ErrUnknownJob = errors.New("unknown job")

// JobHandler consumes jobs delivered by the queue.
type JobHandler interface {
	Handle(ctx context.Context, job Job) error
}

// JobQueue enqueues named jobs for asynchronous processing.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload any, opts JobOptions) (string, error)
}

// MetadataGenerator produces enrichment for one article. A nil result with
// nil error means no usable metadata.
type MetadataGenerator interface {
	Generate(ctx context.Context, article domain.Article) (*domain.Metadata, error)
}

// ContentFetcher downloads the raw page behind an article URL. It never fails;
// unreachable pages yield an empty string.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// CompletionRequest is a single chat-style LLM call.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	JSON        bool
}

// ChatClient sends completion requests to an OpenAI-compatible API.
type ChatClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// RateLimiter paces calls to rate-limited downstream services.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

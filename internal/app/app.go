package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"NewsAggregator/internal/api"
	"NewsAggregator/internal/config"
	"NewsAggregator/internal/infrastructure/content"
	"NewsAggregator/internal/infrastructure/llm"
	"NewsAggregator/internal/infrastructure/newsapi"
	"NewsAggregator/internal/infrastructure/queue"
	"NewsAggregator/internal/infrastructure/ratelimit"
	"NewsAggregator/internal/infrastructure/scheduler"
	"NewsAggregator/internal/infrastructure/storage"
	"NewsAggregator/internal/logging"
	"NewsAggregator/internal/metadata"
	"NewsAggregator/internal/ports"
	"NewsAggregator/internal/scripts"
	"NewsAggregator/internal/usecase"
	"NewsAggregator/pkg/logger"
)

// Application wires configs to use cases and owns shared connections.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
}

// New builds an application; connections are opened on first use.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	return &Application{cfg: cfg, logger: baseLogger}
}

// Close releases every opened connection.
func (a *Application) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", "error", err)
		}
		a.redis = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

// Serve runs the read API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	repo, err := a.repository(ctx)
	if err != nil {
		return err
	}
	server := api.NewServer(a.cfg.HTTP.Addr, usecase.NewArticleService(repo), a.component("api"))
	return server.Run(ctx)
}

// Work consumes enrichment jobs until ctx is cancelled.
func (a *Application) Work(ctx context.Context) error {
	repo, err := a.repository(ctx)
	if err != nil {
		return err
	}
	client, err := a.redisClient(ctx)
	if err != nil {
		return err
	}

	processor := usecase.NewProcessor(
		repo,
		a.generator(),
		ratelimit.New(a.cfg.Enrichment.RequestInterval),
		a.component("processor"),
	)
	worker := usecase.NewWorker(processor, a.component("worker"))
	consumer := queue.NewConsumer(client, queue.Config{
		Queue:        a.cfg.Queue.Name,
		Group:        a.cfg.Queue.Group,
		Consumer:     a.cfg.Queue.Consumer,
		BlockTimeout: a.cfg.Queue.BlockTimeout,
	}, worker, a.component("queue"))

	return consumer.Run(ctx)
}

// Ingest runs ingestion once, or on the configured schedule until ctx is
// cancelled.
func (a *Application) Ingest(ctx context.Context, once bool) error {
	client, err := a.redisClient(ctx)
	if err != nil {
		return err
	}

	source := newsapi.NewClient(nil, a.cfg.NewsAPI, a.component("newsapi"))
	producer := queue.NewProducer(client, a.cfg.Queue.Name, a.component("queue"))
	ingestor := usecase.NewIngestor(source, producer, jobOptions(a.cfg.Queue), a.component("ingest"))

	if once {
		return ingestor.Run(ctx)
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, logger.New("cron"))
	sched := usecase.NewScheduler(driver, ingestor, a.component("scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("ingestion scheduled", "spec", a.cfg.Scheduler.CronExpression)

	<-ctx.Done()
	return sched.Stop(context.Background())
}

// Scripts lists the operator scripts.
func (a *Application) Scripts() []scripts.Script {
	return scripts.Default().List()
}

// RunScript executes one operator script, writing its report to out.
func (a *Application) RunScript(ctx context.Context, name string, out io.Writer) error {
	registry := scripts.Default()
	if _, err := registry.Resolve(name); err != nil {
		return err
	}

	repo, err := a.repository(ctx)
	if err != nil {
		return err
	}
	return registry.Run(ctx, name, scripts.Env{
		Repo:       repo,
		Generator:  a.generator(),
		Limiter:    ratelimit.New(a.cfg.Enrichment.RequestInterval),
		Out:        out,
		Logger:     a.component("script." + name),
		BatchSize:  a.cfg.Scripts.BatchSize,
		BatchDelay: a.cfg.Scripts.BatchDelay,
	})
}

func (a *Application) repository(ctx context.Context) (*storage.PostgresRepository, error) {
	if a.pool == nil {
		pool, err := pgxpool.New(ctx, a.cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		if err := storage.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		a.pool = pool
	}
	return storage.NewPostgresRepository(a.pool), nil
}

func (a *Application) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis == nil {
		opts, err := redis.ParseURL(a.cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.redis = client
	}
	return a.redis, nil
}

func (a *Application) generator() *metadata.Generator {
	var chat ports.ChatClient
	if a.cfg.LLM.APIKey != "" {
		chat = llm.NewClient(a.cfg.LLM)
	} else {
		a.logger.Warn("llm api key not configured; articles will be stored as failed")
	}
	fetcher := content.NewFetcher(nil, a.cfg.Enrichment.FetchTimeout, a.component("fetcher"))
	return metadata.NewGenerator(fetcher, chat, generatorOptions(a.cfg), a.component("metadata"))
}

func (a *Application) component(name string) *slog.Logger {
	return a.logger.With("component", name)
}

func generatorOptions(cfg config.Config) metadata.Options {
	return metadata.Options{
		Temperature:     cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		MaxContentChars: cfg.Enrichment.MaxContentChars,
		Budget: metadata.Budget{
			MaxContextTokens: cfg.Enrichment.MaxContextTokens,
			PromptOverhead:   cfg.Enrichment.PromptOverhead,
			ResponseReserve:  cfg.Enrichment.ResponseReserve,
		},
	}
}

func jobOptions(cfg config.QueueConfig) ports.JobOptions {
	return ports.JobOptions{
		Attempts:         cfg.Attempts,
		Backoff:          cfg.Backoff,
		RemoveOnComplete: true,
	}
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"NewsAggregator/internal/metrics"
	"NewsAggregator/internal/ports"
)

const (
	fieldID               = "id"
	fieldName             = "name"
	fieldPayload          = "payload"
	fieldAttempt          = "attempt"
	fieldAttempts         = "attempts"
	fieldBackoff          = "backoff_ms"
	fieldRemoveOnComplete = "remove_on_complete"
	fieldQueuedAt         = "queued_at"
	fieldError            = "error"
	fieldFailedAt         = "failed_at"
)

// DeadLetterKey names the stream that receives jobs which exhausted their attempts.
func DeadLetterKey(queue string) string {
	return queue + ":failed"
}

// Producer appends jobs to a Redis stream.
type Producer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

var _ ports.JobQueue = (*Producer)(nil)

// NewProducer binds a producer to one queue.
func NewProducer(client *redis.Client, queue string, log *slog.Logger) *Producer {
	return &Producer{
		client: client,
		stream: queue,
		logger: log,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// Enqueue JSON-encodes payload and stores it with the retry options. It
// returns the job id.
func (p *Producer) Enqueue(ctx context.Context, name string, payload any, opts ports.JobOptions) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", name, err)
	}

	job := ports.Job{
		ID:       p.newID(),
		Name:     name,
		Payload:  raw,
		Attempt:  1,
		Options:  normalizeOptions(opts),
		QueuedAt: p.now(),
	}
	if err := add(ctx, p.client, p.stream, encodeJob(job)); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", name, err)
	}

	p.debug("job enqueued", "queue", p.stream, "job", name, "id", job.ID, "bytes", len(raw))
	return job.ID, nil
}

func (p *Producer) debug(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(msg, args...)
}

// Config binds a consumer to a stream and consumer group.
type Config struct {
	Queue        string
	Group        string
	Consumer     string
	BlockTimeout time.Duration
}

// Consumer reads jobs one at a time and applies the retry policy carried by
// each job.
type Consumer struct {
	client  *redis.Client
	cfg     Config
	handler ports.JobHandler
	logger  *slog.Logger
	now     func() time.Time
}

// NewConsumer wires the handler that processes delivered jobs.
func NewConsumer(client *redis.Client, cfg Config, handler ports.JobHandler, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{client: client, cfg: cfg, handler: handler, logger: log, now: time.Now}
}

// EnsureGroup creates the stream and consumer group when missing.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Queue, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", c.cfg.Group, err)
	}
	return nil
}

// Run consumes until ctx is cancelled. Jobs left pending by a previous run of
// this consumer are handled first.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}

	c.logger.Info("consumer started", "queue", c.cfg.Queue, "group", c.cfg.Group, "consumer", c.cfg.Consumer)

	if err := c.recoverPending(ctx); err != nil && ctx.Err() == nil {
		c.logger.Error("recover pending jobs", "error", err)
	}

	for {
		if ctx.Err() != nil {
			c.logger.Info("consumer stopped", "queue", c.cfg.Queue)
			return nil
		}
		if _, err := c.ProcessNext(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("process queue", "queue", c.cfg.Queue, "error", err)
			_ = sleep(ctx, time.Second)
		}
	}
}

// ProcessNext reads at most one new job and handles it. It reports whether a
// job was delivered.
func (c *Consumer) ProcessNext(ctx context.Context) (bool, error) {
	messages, err := c.read(ctx, ">")
	if err != nil {
		return false, err
	}
	for _, msg := range messages {
		if err := c.handle(ctx, msg); err != nil {
			return true, err
		}
	}
	return len(messages) > 0, nil
}

func (c *Consumer) recoverPending(ctx context.Context) error {
	for {
		messages, err := c.read(ctx, "0")
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			return nil
		}
		for _, msg := range messages {
			if err := c.handle(ctx, msg); err != nil {
				return err
			}
		}
	}
}

func (c *Consumer) read(ctx context.Context, id string) ([]redis.XMessage, error) {
	block := c.cfg.BlockTimeout
	if id != ">" {
		block = -1
	}
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Queue, id},
		Count:    1,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read group: %w", err)
	}

	var out []redis.XMessage
	for _, stream := range streams {
		out = append(out, stream.Messages...)
	}
	return out, nil
}

func (c *Consumer) handle(ctx context.Context, msg redis.XMessage) error {
	job, err := decodeJob(msg.Values)
	if err != nil {
		c.logger.Error("malformed job", "message_id", msg.ID, "error", err)
		return c.deadLetter(ctx, msg, err)
	}

	log := c.logger.With("job", job.Name, "id", job.ID, "attempt", job.Attempt, "attempts", job.Options.Attempts)
	start := c.now()
	handleErr := c.handler.Handle(ctx, job)
	elapsed := c.now().Sub(start).Seconds()

	switch {
	case handleErr == nil:
		metrics.RecordJob(c.cfg.Queue, job.Name, "completed", elapsed)
		log.Info("job completed", "duration_s", elapsed)
		return c.ack(ctx, msg.ID, job.Options.RemoveOnComplete)

	case ctx.Err() != nil:
		// Left pending; the next run picks it up again.
		log.Warn("job interrupted", "error", handleErr)
		return ctx.Err()

	case errors.Is(handleErr, ports.ErrUnknownJob):
		metrics.RecordJob(c.cfg.Queue, job.Name, "rejected", elapsed)
		log.Error("job rejected", "error", handleErr)
		return c.deadLetter(ctx, msg, handleErr)

	case job.Attempt < job.Options.Attempts:
		metrics.RecordJob(c.cfg.Queue, job.Name, "retried", elapsed)
		log.Warn("job failed, retrying", "backoff", job.Options.Backoff, "error", handleErr)
		if err := sleep(ctx, job.Options.Backoff); err != nil {
			return err
		}
		return c.retry(ctx, msg, job)

	default:
		metrics.RecordJob(c.cfg.Queue, job.Name, "failed", elapsed)
		log.Error("job failed permanently", "error", handleErr)
		return c.deadLetter(ctx, msg, handleErr)
	}
}

func (c *Consumer) retry(ctx context.Context, msg redis.XMessage, job ports.Job) error {
	job.Attempt++
	if err := add(ctx, c.client, c.cfg.Queue, encodeJob(job)); err != nil {
		return fmt.Errorf("requeue job %s: %w", job.ID, err)
	}
	return c.ack(ctx, msg.ID, true)
}

func (c *Consumer) deadLetter(ctx context.Context, msg redis.XMessage, cause error) error {
	values := make(map[string]any, len(msg.Values)+2)
	for k, v := range msg.Values {
		values[k] = v
	}
	values[fieldError] = cause.Error()
	values[fieldFailedAt] = c.now().UTC().Format(time.RFC3339Nano)

	if err := add(ctx, c.client, DeadLetterKey(c.cfg.Queue), values); err != nil {
		return fmt.Errorf("dead-letter %s: %w", msg.ID, err)
	}
	return c.ack(ctx, msg.ID, true)
}

func (c *Consumer) ack(ctx context.Context, id string, remove bool) error {
	if err := c.client.XAck(ctx, c.cfg.Queue, c.cfg.Group, id).Err(); err != nil {
		return fmt.Errorf("ack %s: %w", id, err)
	}
	if !remove {
		return nil
	}
	if err := c.client.XDel(ctx, c.cfg.Queue, id).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

func add(ctx context.Context, client *redis.Client, stream string, values map[string]any) error {
	return client.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: values}).Err()
}

func normalizeOptions(opts ports.JobOptions) ports.JobOptions {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	return opts
}

func encodeJob(job ports.Job) map[string]any {
	return map[string]any{
		fieldID:               job.ID,
		fieldName:             job.Name,
		fieldPayload:          string(job.Payload),
		fieldAttempt:          strconv.Itoa(job.Attempt),
		fieldAttempts:         strconv.Itoa(job.Options.Attempts),
		fieldBackoff:          strconv.FormatInt(job.Options.Backoff.Milliseconds(), 10),
		fieldRemoveOnComplete: strconv.FormatBool(job.Options.RemoveOnComplete),
		fieldQueuedAt:         job.QueuedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeJob(values map[string]any) (ports.Job, error) {
	get := func(key string) string {
		v, _ := values[key].(string)
		return v
	}

	job := ports.Job{
		ID:      get(fieldID),
		Name:    get(fieldName),
		Payload: json.RawMessage(get(fieldPayload)),
	}
	if job.Name == "" {
		return ports.Job{}, errors.New("missing job name")
	}

	var err error
	if job.Attempt, err = strconv.Atoi(get(fieldAttempt)); err != nil {
		return ports.Job{}, fmt.Errorf("attempt: %w", err)
	}
	if job.Options.Attempts, err = strconv.Atoi(get(fieldAttempts)); err != nil {
		return ports.Job{}, fmt.Errorf("attempts: %w", err)
	}
	backoff, err := strconv.ParseInt(get(fieldBackoff), 10, 64)
	if err != nil {
		return ports.Job{}, fmt.Errorf("backoff: %w", err)
	}
	job.Options.Backoff = time.Duration(backoff) * time.Millisecond
	job.Options.RemoveOnComplete, _ = strconv.ParseBool(get(fieldRemoveOnComplete))
	if ts := get(fieldQueuedAt); ts != "" {
		job.QueuedAt, _ = time.Parse(time.RFC3339Nano, ts)
	}
	return job, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/infrastructure/content"
	"NewsAggregator/internal/ports"
)

// Options tune the LLM call and content handling.
type Options struct {
	Temperature     float64
	MaxTokens       int
	MaxContentChars int
	Budget          Budget
}

// DefaultOptions match the production model settings.
var DefaultOptions = Options{
	Temperature:     0.5,
	MaxTokens:       500,
	MaxContentChars: content.MaxContentChars,
	Budget:          DefaultBudget,
}

// Generator turns an article into validated metadata. It never surfaces
// errors: anything that goes wrong yields a nil result.
type Generator struct {
	fetcher ports.ContentFetcher
	chat    ports.ChatClient
	opts    Options
	logger  *slog.Logger
}

var _ ports.MetadataGenerator = (*Generator)(nil)

// NewGenerator wires the page fetcher and the chat client.
func NewGenerator(fetcher ports.ContentFetcher, chat ports.ChatClient, opts Options, log *slog.Logger) *Generator {
	if opts.MaxContentChars <= 0 {
		opts.MaxContentChars = content.MaxContentChars
	}
	if opts.Budget.MaxContextTokens <= 0 {
		opts.Budget = DefaultBudget
	}
	if log == nil {
		log = slog.Default()
	}
	return &Generator{fetcher: fetcher, chat: chat, opts: opts, logger: log}
}

// rawMetadata keeps keywords loose so a non-array value is detectable.
type rawMetadata struct {
	Summary  string          `json:"summary"`
	Category string          `json:"category"`
	Language string          `json:"language"`
	Keywords json.RawMessage `json:"keywords"`
}

// Generate fetches the article page, asks the LLM for metadata and validates it.
func (g *Generator) Generate(ctx context.Context, article domain.Article) (*domain.Metadata, error) {
	var pageText string
	if g.fetcher != nil && article.URL != "" {
		pageText = content.ExtractText(g.fetcher.Fetch(ctx, article.URL), g.opts.MaxContentChars)
	}

	prompt := g.opts.Budget.buildPrompt(article.Title, domain.StringValue(article.Description), pageText)
	if prompt == "" {
		g.logger.Warn("no content available for metadata", "url", article.URL)
		return nil, nil
	}
	if g.chat == nil {
		g.logger.Warn("llm client not configured", "url", article.URL)
		return nil, nil
	}

	answer, err := g.chat.Complete(ctx, ports.CompletionRequest{
		System:      systemPrompt(),
		Prompt:      prompt,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
		JSON:        true,
	})
	if err != nil {
		g.logger.Error("generate metadata", "url", article.URL, "error", err)
		return nil, nil
	}

	meta, err := ParseMetadata(answer)
	if err != nil {
		g.logger.Error("invalid metadata", "url", article.URL, "error", err)
		return nil, nil
	}
	return meta, nil
}

// ErrInvalidMetadata marks responses that fail shape or enum validation.
var ErrInvalidMetadata = errors.New("invalid metadata")

// ParseMetadata decodes and validates an LLM answer. Partial results are rejected.
func ParseMetadata(answer string) (*domain.Metadata, error) {
	var raw rawMetadata
	if err := json.Unmarshal([]byte(stripCodeFence(answer)), &raw); err != nil {
		return nil, fmt.Errorf("%w: parse json: %v", ErrInvalidMetadata, err)
	}

	if strings.TrimSpace(raw.Summary) == "" || raw.Category == "" || raw.Language == "" {
		return nil, fmt.Errorf("%w: missing fields", ErrInvalidMetadata)
	}

	trimmed := strings.TrimSpace(string(raw.Keywords))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("%w: keywords is not an array", ErrInvalidMetadata)
	}
	var keywords []string
	if err := json.Unmarshal(raw.Keywords, &keywords); err != nil {
		return nil, fmt.Errorf("%w: keywords: %v", ErrInvalidMetadata, err)
	}

	category, err := domain.ParseCategory(raw.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	language, err := domain.ParseLanguage(raw.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	if keywords == nil {
		keywords = []string{}
	}
	return &domain.Metadata{
		Summary:  raw.Summary,
		Category: category,
		Language: language,
		Keywords: keywords,
	}, nil
}

// stripCodeFence tolerates models that wrap JSON in a markdown fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"NewsAggregator/internal/config"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// Client queries the NewsAPI "everything" endpoint with a fixed query.
type Client struct {
	client *http.Client
	cfg    config.NewsAPIConfig
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

var _ ports.NewsSource = (*Client)(nil)

type response struct {
	Status       string        `json:"status"`
	TotalResults int           `json:"totalResults"`
	Code         string        `json:"code"`
	Message      string        `json:"message"`
	Articles     []remoteEntry `json:"articles"`
}

type remoteEntry struct {
	Author      *string `json:"author"`
	Content     *string `json:"content"`
	Description *string `json:"description"`
	PublishedAt string  `json:"publishedAt"`
	Title       *string `json:"title"`
	URL         string  `json:"url"`
	URLToImage  *string `json:"urlToImage"`
}

// NewClient wires an HTTP client; a nil client gets a 30s timeout.
func NewClient(client *http.Client, cfg config.NewsAPIConfig, log *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		client: client,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// FetchLatest issues one GET and maps every item into a pending article.
func (c *Client) FetchLatest(ctx context.Context) ([]domain.Article, error) {
	endpoint, err := buildURL(c.cfg)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("newsapi returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi error %s: %s", payload.Code, payload.Message)
	}

	articles := make([]domain.Article, 0, len(payload.Articles))
	for _, entry := range payload.Articles {
		if strings.TrimSpace(entry.URL) == "" {
			continue
		}
		articles = append(articles, c.toArticle(entry))
	}

	c.debug("fetched news", "total_results", payload.TotalResults, "mapped", len(articles))
	return articles, nil
}

func (c *Client) toArticle(entry remoteEntry) domain.Article {
	now := c.now().UTC()

	title := strings.TrimSpace(domain.StringValue(entry.Title))
	if title == "" {
		title = domain.DefaultTitle
	}

	publishedAt := now
	if entry.PublishedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, entry.PublishedAt); err == nil {
			publishedAt = parsed.UTC()
		}
	}

	return domain.Article{
		ID:          c.newID(),
		URL:         entry.URL,
		Title:       title,
		Author:      entry.Author,
		Description: entry.Description,
		Content:     entry.Content,
		PublishedAt: publishedAt,
		URLToImage:  entry.URLToImage,
		Language:    domain.DefaultLanguage,
		Keywords:    []string{},
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func buildURL(cfg config.NewsAPIConfig) (string, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid newsapi url %s: %w", cfg.BaseURL, err)
	}

	query := parsed.Query()
	query.Set("sortBy", cfg.SortBy)
	query.Set("apiKey", cfg.APIKey)
	query.Set("q", cfg.Query)
	for _, lang := range cfg.Languages {
		query.Add("language", lang)
	}
	query.Set("page", strconv.Itoa(cfg.Page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (c *Client) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

package content

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"NewsAggregator/internal/ports"
)

// BrowserUserAgent is sent so publishers serve the regular article page.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxBodyBytes = 2 << 20

// Fetcher downloads article pages. Failures degrade to an empty body.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.ContentFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; a nil client gets the given timeout.
func NewFetcher(client *http.Client, timeout time.Duration, log *slog.Logger) *Fetcher {
	if client == nil {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{client: client, logger: log}
}

// Fetch returns the raw HTML behind url, or "" on any error.
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.warn("build content request", "url", url, "error", err)
		return ""
	}
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		f.warn("fetch content", "url", url, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		f.warn("fetch content", "url", url, "status", resp.Status)
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		f.warn("read content", "url", url, "error", err)
		return ""
	}
	return string(body)
}

func (f *Fetcher) warn(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}

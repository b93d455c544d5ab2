package newsapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"NewsAggregator/internal/config"
	"NewsAggregator/internal/domain"
)

func testConfig(base string) config.NewsAPIConfig {
	return config.NewsAPIConfig{
		BaseURL:   base,
		APIKey:    "secret",
		Query:     ",",
		SortBy:    "publishedAt",
		Languages: []string{"en", "es", "pt"},
		Page:      2,
	}
}

func TestBuildURL(t *testing.T) {
	t.Parallel()

	u, err := buildURL(testConfig("https://newsapi.org/v2/everything"))
	if err != nil {
		t.Fatalf("buildURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}

	if parsed.Host != "newsapi.org" || parsed.Path != "/v2/everything" {
		t.Fatalf("unexpected url: %s", u)
	}

	q := parsed.Query()
	if q.Get("sortBy") != "publishedAt" {
		t.Fatalf("expected sortBy=publishedAt, got %s", q.Get("sortBy"))
	}
	if q.Get("page") != "2" {
		t.Fatalf("expected page=2, got %s", q.Get("page"))
	}
	if q.Get("apiKey") != "secret" {
		t.Fatalf("expected apiKey, got %s", q.Get("apiKey"))
	}
	langs := q["language"]
	if len(langs) != 3 || langs[0] != "en" || langs[1] != "es" || langs[2] != "pt" {
		t.Fatalf("unexpected languages: %v", langs)
	}
}

func TestFetchLatestMapsArticles(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apiKey") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{
		  "status": "ok",
		  "totalResults": 3,
		  "articles": [
		    {"author": "Ann", "title": "First", "description": "d1", "content": "c1",
		     "url": "https://example.com/1", "urlToImage": null, "publishedAt": "2025-11-08T10:00:00Z"},
		    {"author": null, "title": null, "description": null, "content": null,
		     "url": "https://example.com/2", "urlToImage": "https://img/2.png", "publishedAt": "2025-11-07T09:30:00Z"},
		    {"title": "No url", "url": "", "publishedAt": "2025-11-07T09:30:00Z"}
		  ]
		}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), testConfig(server.URL+"/v2/everything"), nil)
	ids := 0
	c.newID = func() string {
		ids++
		return fmt.Sprintf("id-%d", ids)
	}

	articles, err := c.FetchLatest(context.Background())
	if err != nil {
		t.Fatalf("FetchLatest error: %v", err)
	}

	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.ID != "id-1" || first.Title != "First" || domain.StringValue(first.Author) != "Ann" {
		t.Fatalf("unexpected first article: %+v", first)
	}
	if !first.PublishedAt.Equal(time.Date(2025, time.November, 8, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected published date: %v", first.PublishedAt)
	}
	if first.Status != domain.StatusPending || first.Language != domain.DefaultLanguage {
		t.Fatalf("unexpected defaults: %+v", first)
	}

	second := articles[1]
	if second.Title != domain.DefaultTitle {
		t.Fatalf("expected placeholder title, got %q", second.Title)
	}
	if second.Author != nil || second.Description != nil {
		t.Fatalf("expected nil optional fields: %+v", second)
	}
	if domain.StringValue(second.URLToImage) != "https://img/2.png" {
		t.Fatalf("unexpected image: %v", second.URLToImage)
	}
}

func TestFetchLatestErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]http.HandlerFunc{
		"http status": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		},
		"api status": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"bad key"}`))
		},
		"bad json": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		},
	}

	for name, handler := range cases {
		handler := handler
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(handler)
			defer server.Close()

			c := NewClient(server.Client(), testConfig(server.URL), nil)
			if _, err := c.FetchLatest(context.Background()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

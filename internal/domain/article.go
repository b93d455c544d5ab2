package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a looked-up article does not exist.
var ErrNotFound = errors.New("article not found")

// DefaultTitle replaces missing titles coming from upstream providers.
const DefaultTitle = "No title"

// Article is one ingested news item keyed by its source URL.
type Article struct {
	ID          string           `json:"id"`
	URL         string           `json:"url"`
	Title       string           `json:"title"`
	Author      *string          `json:"author"`
	Description *string          `json:"description"`
	Content     *string          `json:"content"`
	PublishedAt time.Time        `json:"publishedAt"`
	URLToImage  *string          `json:"urlToImage"`
	Summary     *string          `json:"summary"`
	Category    *Category        `json:"category"`
	Language    Language         `json:"language"`
	Keywords    []string         `json:"keywords"`
	Status      ProcessingStatus `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Metadata is the AI-derived enrichment of an article. It is either fully
// populated or absent.
type Metadata struct {
	Summary  string   `json:"summary"`
	Category Category `json:"category"`
	Language Language `json:"language"`
	Keywords []string `json:"keywords"`
}

// WithMetadata returns a COMPLETED copy of the article carrying meta.
func (a Article) WithMetadata(meta Metadata) Article {
	summary := meta.Summary
	category := meta.Category

	out := a
	out.Summary = &summary
	out.Category = &category
	out.Language = meta.Language
	out.Keywords = append([]string(nil), meta.Keywords...)
	out.Status = StatusCompleted
	return out
}

// Failed returns a FAILED copy of the article with metadata cleared.
// The original language is kept, falling back to the default.
func (a Article) Failed() Article {
	out := a
	out.Summary = nil
	out.Category = nil
	if out.Language == "" {
		out.Language = DefaultLanguage
	}
	out.Keywords = []string{}
	out.Status = StatusFailed
	return out
}

// StringValue dereferences optional text fields.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 50
)

// ErrInvalidQuery marks caller mistakes such as an unknown category.
var ErrInvalidQuery = errors.New("invalid query")

// ArticleService answers read requests.
type ArticleService struct {
	repo ports.ArticleRepository
}

// NewArticleService wires the read side of the repository.
func NewArticleService(repo ports.ArticleRepository) *ArticleService {
	return &ArticleService{repo: repo}
}

// List returns one page of articles, newest first. A page below 1 becomes 1,
// a missing limit becomes 20 and any limit is clamped to [1, 50]. Pages whose
// offset would overflow are pinned to the last representable one.
func (s *ArticleService) List(ctx context.Context, page, limit int, category string) (domain.Page, error) {
	if page < 1 {
		page = DefaultPage
	}
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 1:
		limit = 1
	case limit > MaxLimit:
		limit = MaxLimit
	}
	if maxPage := math.MaxInt32 / limit; page > maxPage {
		page = maxPage
	}

	var filter *domain.Category
	if category = strings.TrimSpace(category); category != "" {
		c, err := domain.ParseCategory(category)
		if err != nil {
			return domain.Page{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		filter = &c
	}

	items, err := s.repo.List(ctx, ports.ListQuery{Page: page, Limit: limit, Category: filter})
	if err != nil {
		return domain.Page{}, fmt.Errorf("list articles: %w", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return domain.Page{}, fmt.Errorf("count articles: %w", err)
	}
	return domain.NewPage(items, total, page, limit), nil
}

// Get returns domain.ErrNotFound for unknown ids, including ones that are not
// UUIDs and so cannot name any row.
func (s *ArticleService) Get(ctx context.Context, id string) (domain.Article, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Article{}, fmt.Errorf("%w: empty id", ErrInvalidQuery)
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.Article{}, fmt.Errorf("%w: id %q", domain.ErrNotFound, id)
	}
	return s.repo.FindByID(ctx, id)
}

// GetByTitle looks an article up by its exact title, ignoring case.
func (s *ArticleService) GetByTitle(ctx context.Context, title string) (domain.Article, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Article{}, fmt.Errorf("%w: empty title", ErrInvalidQuery)
	}
	return s.repo.FindByTitle(ctx, title)
}

package usecase

import (
	"context"
	"errors"
	"sync"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

type fakeRepo struct {
	mu       sync.Mutex
	stored   map[string]domain.Article
	inserts  [][]domain.Article
	lookups  [][]string
	lookErr  error
	insErr   error
	listed   []ports.ListQuery
	counted  []*domain.Category
	listResp []domain.Article
	total    int
}

var _ ports.ArticleRepository = (*fakeRepo)(nil)

func newFakeRepo(urls ...string) *fakeRepo {
	r := &fakeRepo{stored: map[string]domain.Article{}}
	for _, u := range urls {
		r.stored[u] = domain.Article{URL: u, Title: "stored " + u}
	}
	return r
}

func (r *fakeRepo) ExistingURLs(_ context.Context, urls []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, urls)
	if r.lookErr != nil {
		return nil, r.lookErr
	}
	out := map[string]bool{}
	for _, u := range urls {
		if _, ok := r.stored[u]; ok {
			out[u] = true
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertMany(_ context.Context, articles []domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts = append(r.inserts, articles)
	if r.insErr != nil {
		return r.insErr
	}
	for _, a := range articles {
		if _, ok := r.stored[a.URL]; !ok {
			r.stored[a.URL] = a
		}
	}
	return nil
}

func (r *fakeRepo) List(_ context.Context, q ports.ListQuery) ([]domain.Article, error) {
	r.listed = append(r.listed, q)
	return r.listResp, nil
}

func (r *fakeRepo) Count(_ context.Context, category *domain.Category) (int, error) {
	r.counted = append(r.counted, category)
	return r.total, nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (domain.Article, error) {
	for _, a := range r.stored {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Article{}, domain.ErrNotFound
}

func (r *fakeRepo) FindByTitle(_ context.Context, title string) (domain.Article, error) {
	for _, a := range r.stored {
		if a.Title == title {
			return a, nil
		}
	}
	return domain.Article{}, domain.ErrNotFound
}

// fakeGenerator returns metadata for URLs listed in results; anything else
// yields no metadata. URLs in errs return an error.
type fakeGenerator struct {
	results map[string]*domain.Metadata
	errs    map[string]error
	calls   []string
	onCall  func()
}

func (g *fakeGenerator) Generate(_ context.Context, a domain.Article) (*domain.Metadata, error) {
	g.calls = append(g.calls, a.URL)
	if g.onCall != nil {
		g.onCall()
	}
	if err := g.errs[a.URL]; err != nil {
		return nil, err
	}
	return g.results[a.URL], nil
}

type countingLimiter struct {
	waits int
	err   error
}

func (l *countingLimiter) Wait(context.Context) error {
	l.waits++
	return l.err
}

type fakeSource struct {
	articles []domain.Article
	err      error
}

func (s fakeSource) FetchLatest(context.Context) ([]domain.Article, error) {
	return s.articles, s.err
}

type enqueued struct {
	name    string
	payload any
	opts    ports.JobOptions
}

type fakeQueue struct {
	jobs []enqueued
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, name string, payload any, opts ports.JobOptions) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.jobs = append(q.jobs, enqueued{name: name, payload: payload, opts: opts})
	return "job-1", nil
}

var errBoom = errors.New("boom")

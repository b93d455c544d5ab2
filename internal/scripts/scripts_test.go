package scripts

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/infrastructure/ratelimit"
	"NewsAggregator/internal/logging"
)

type update struct {
	id   string
	meta *domain.Metadata
}

type fakeMaintenance struct {
	pending   []domain.Article
	updates   []update
	stats     domain.Stats
	updateErr map[string]error
}

func (f *fakeMaintenance) ListNeedingEnrichment(context.Context) ([]domain.Article, error) {
	return f.pending, nil
}

func (f *fakeMaintenance) UpdateMetadata(_ context.Context, id string, meta *domain.Metadata) error {
	f.updates = append(f.updates, update{id: id, meta: meta})
	return f.updateErr[id]
}

func (f *fakeMaintenance) Stats(context.Context) (domain.Stats, error) {
	return f.stats, nil
}

type oddGenerator struct{ calls int }

// Generate succeeds for every other call.
func (g *oddGenerator) Generate(context.Context, domain.Article) (*domain.Metadata, error) {
	g.calls++
	if g.calls%2 == 0 {
		return nil, errors.New("model overloaded")
	}
	return &domain.Metadata{Summary: "s", Category: domain.CategoryNewsSociety, Language: domain.LanguageEN, Keywords: []string{"k"}}, nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := Default()
	names := []string{}
	for _, s := range reg.List() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"database-stats", "fill-missing-articles-data"}, names)

	_, err := reg.Resolve("drop-everything")
	assert.Error(t, err)
	assert.Error(t, reg.Run(context.Background(), "drop-everything", Env{}))
}

func TestFillMissingUpdatesInPlaceInBatches(t *testing.T) {
	t.Parallel()

	repo := &fakeMaintenance{updateErr: map[string]error{}}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		repo.pending = append(repo.pending, domain.Article{ID: id, URL: "https://x/" + id})
	}
	gen := &oddGenerator{}
	var out bytes.Buffer

	err := Default().Run(context.Background(), "fill-missing-articles-data", Env{
		Repo:       repo,
		Generator:  gen,
		Limiter:    ratelimit.Noop{},
		Out:        &out,
		Logger:     logging.Discard(),
		BatchSize:  2,
		BatchDelay: time.Millisecond,
	})
	require.NoError(t, err)

	require.Len(t, repo.updates, 5)
	assert.Equal(t, "a", repo.updates[0].id)
	assert.NotNil(t, repo.updates[0].meta)
	assert.Nil(t, repo.updates[1].meta)
	assert.Equal(t, "e", repo.updates[4].id)
	assert.Contains(t, out.String(), "Found 5 articles")
	assert.Contains(t, out.String(), "Successful: 3")
	assert.Contains(t, out.String(), "Failed: 2")
}

type stampGenerator struct{ at []time.Time }

func (g *stampGenerator) Generate(context.Context, domain.Article) (*domain.Metadata, error) {
	g.at = append(g.at, time.Now())
	return nil, nil
}

func TestFillMissingPacesEveryCall(t *testing.T) {
	t.Parallel()

	const interval = 100 * time.Millisecond
	repo := &fakeMaintenance{pending: []domain.Article{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	gen := &stampGenerator{}

	err := FillMissingArticlesData().Run(context.Background(), Env{
		Repo:      repo,
		Generator: gen,
		Limiter:   ratelimit.New(interval),
		Out:       &bytes.Buffer{},
		Logger:    logging.Discard(),
		BatchSize: 10,
	})
	require.NoError(t, err)

	require.Len(t, gen.at, 3)
	for i := 1; i < len(gen.at); i++ {
		assert.GreaterOrEqual(t, gen.at[i].Sub(gen.at[i-1]), interval-10*time.Millisecond, "gap before call %d", i+1)
	}
}

func TestFillMissingNothingToDo(t *testing.T) {
	t.Parallel()

	repo := &fakeMaintenance{}
	gen := &oddGenerator{}
	var out bytes.Buffer
	err := Default().Run(context.Background(), "fill-missing-articles-data", Env{Repo: repo, Generator: gen, Out: &out, Logger: logging.Discard()})
	require.NoError(t, err)
	assert.Zero(t, gen.calls)
	assert.Contains(t, out.String(), "Found 0 articles")
}

func TestFillMissingRequiresDependencies(t *testing.T) {
	t.Parallel()

	err := Default().Run(context.Background(), "fill-missing-articles-data", Env{Logger: logging.Discard()})
	assert.Error(t, err)
}

func TestDatabaseStatsReport(t *testing.T) {
	t.Parallel()

	repo := &fakeMaintenance{stats: domain.Stats{
		Total:       4,
		WithContent: 3,
		LastMonth:   2,
		ByStatus:    map[domain.ProcessingStatus]int{domain.StatusCompleted: 3, domain.StatusFailed: 1},
		ByCategory:  map[domain.Category]int{domain.CategoryPolitics: 3},
		Latest:      &domain.Article{Title: "Newest", PublishedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
	}}
	var out bytes.Buffer

	require.NoError(t, Default().Run(context.Background(), "database-stats", Env{Repo: repo, Out: &out, Logger: logging.Discard()}))

	report := out.String()
	assert.Contains(t, report, "Total articles: 4")
	assert.Contains(t, report, "Articles from last month: 2")
	assert.Contains(t, report, `Latest article: "Newest"`)
	assert.Contains(t, report, "2025-01-02T00:00:00Z")
	assert.NotContains(t, report, "Oldest article")
	assert.Contains(t, report, "Articles without content: 1")
	assert.Contains(t, report, "Data quality score: 75%")
	assert.Contains(t, report, "POLITICS_GOVERNMENT")
	assert.Contains(t, report, "FAILED")
}

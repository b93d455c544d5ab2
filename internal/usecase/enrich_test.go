package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/infrastructure/ratelimit"
	"NewsAggregator/internal/logging"
)

func article(url string) domain.Article {
	return domain.Article{
		ID:       "id-" + url,
		URL:      url,
		Title:    "Title " + url,
		Language: domain.LanguageES,
		Status:   domain.StatusPending,
		Keywords: []string{},
	}
}

func techMeta() *domain.Metadata {
	return &domain.Metadata{
		Summary:  "Chips got faster. Again.",
		Category: domain.CategoryTechnology,
		Language: domain.LanguageEN,
		Keywords: []string{"a", "b", "c", "d", "e"},
	}
}

func TestProcessNewsSkipsStoredAndKeepsOrder(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo("u2")
	gen := &fakeGenerator{results: map[string]*domain.Metadata{"u1": techMeta(), "u3": techMeta()}}
	p := NewProcessor(repo, gen, ratelimit.Noop{}, logging.Discard())

	err := p.ProcessNews(context.Background(), domain.Batch{article("u1"), article("u2"), article("u3")})
	require.NoError(t, err)

	assert.Equal(t, []string{"u1", "u3"}, gen.calls)
	require.Len(t, repo.inserts, 1)
	inserted := repo.inserts[0]
	require.Len(t, inserted, 2)
	assert.Equal(t, "u1", inserted[0].URL)
	assert.Equal(t, "u3", inserted[1].URL)
	assert.Equal(t, []string{"u1", "u2", "u3"}, repo.lookups[0])
}

func TestProcessNewsEmptyBatch(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	gen := &fakeGenerator{}
	p := NewProcessor(repo, gen, ratelimit.Noop{}, logging.Discard())

	require.NoError(t, p.ProcessNews(context.Background(), nil))

	assert.Empty(t, gen.calls)
	assert.Empty(t, repo.lookups)
	require.Len(t, repo.inserts, 1)
	assert.Empty(t, repo.inserts[0])
}

func TestProcessNewsAllDuplicatesStillInserts(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo("u1")
	gen := &fakeGenerator{}
	p := NewProcessor(repo, gen, ratelimit.Noop{}, logging.Discard())

	require.NoError(t, p.ProcessNews(context.Background(), domain.Batch{article("u1")}))

	assert.Empty(t, gen.calls)
	require.Len(t, repo.inserts, 1)
	assert.Empty(t, repo.inserts[0])
}

func TestProcessNewsRecordShapes(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	gen := &fakeGenerator{
		results: map[string]*domain.Metadata{"ok": techMeta()},
		errs:    map[string]error{"err": errBoom},
	}
	p := NewProcessor(repo, gen, ratelimit.Noop{}, logging.Discard())

	err := p.ProcessNews(context.Background(), domain.Batch{article("ok"), article("none"), article("err")})
	require.NoError(t, err)
	require.Len(t, repo.inserts, 1)
	records := repo.inserts[0]
	require.Len(t, records, 3)

	ok := records[0]
	assert.Equal(t, domain.StatusCompleted, ok.Status)
	require.NotNil(t, ok.Summary)
	assert.Equal(t, "Chips got faster. Again.", *ok.Summary)
	require.NotNil(t, ok.Category)
	assert.Equal(t, domain.CategoryTechnology, *ok.Category)
	assert.Equal(t, domain.LanguageEN, ok.Language)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ok.Keywords)

	for _, failed := range records[1:] {
		assert.Equal(t, domain.StatusFailed, failed.Status)
		assert.Nil(t, failed.Summary)
		assert.Nil(t, failed.Category)
		assert.Empty(t, failed.Keywords)
		assert.NotNil(t, failed.Keywords)
		assert.Equal(t, domain.LanguageES, failed.Language)
	}
}

func TestProcessNewsTwoNewOneStored(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo("b")
	gen := &fakeGenerator{results: map[string]*domain.Metadata{"a": techMeta(), "c": techMeta()}}
	limiter := &countingLimiter{}
	p := NewProcessor(repo, gen, limiter, logging.Discard())

	require.NoError(t, p.ProcessNews(context.Background(), domain.Batch{article("a"), article("b"), article("c")}))

	assert.Len(t, gen.calls, 2)
	require.Len(t, repo.inserts, 1)
	assert.Len(t, repo.inserts[0], 2)
	assert.Equal(t, 2, limiter.waits, "one wait per generated article")
}

func TestProcessNewsPacesEveryCall(t *testing.T) {
	t.Parallel()

	const interval = 100 * time.Millisecond
	repo := newFakeRepo()
	var calledAt []time.Time
	gen := &fakeGenerator{onCall: func() { calledAt = append(calledAt, time.Now()) }}
	p := NewProcessor(repo, gen, ratelimit.New(interval), logging.Discard())

	start := time.Now()
	require.NoError(t, p.ProcessNews(context.Background(), domain.Batch{article("a"), article("b"), article("c")}))

	require.Len(t, calledAt, 3)
	assert.Less(t, calledAt[0].Sub(start), interval, "first call is not delayed")
	for i := 1; i < len(calledAt); i++ {
		assert.GreaterOrEqual(t, calledAt[i].Sub(calledAt[i-1]), interval-10*time.Millisecond, "gap before call %d", i+1)
	}
}

func TestProcessNewsRerunIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	gen := &fakeGenerator{results: map[string]*domain.Metadata{"a": techMeta()}}
	p := NewProcessor(repo, gen, ratelimit.Noop{}, logging.Discard())

	batch := domain.Batch{article("a"), article("b")}
	require.NoError(t, p.ProcessNews(context.Background(), batch))
	require.NoError(t, p.ProcessNews(context.Background(), batch))

	assert.Len(t, gen.calls, 2)
	require.Len(t, repo.inserts, 2)
	assert.Empty(t, repo.inserts[1])
	assert.Equal(t, domain.StatusFailed, repo.stored["b"].Status)
}

func TestProcessNewsStorageErrorsPropagate(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.lookErr = errBoom
	p := NewProcessor(repo, &fakeGenerator{}, ratelimit.Noop{}, logging.Discard())
	assert.ErrorIs(t, p.ProcessNews(context.Background(), domain.Batch{article("a")}), errBoom)

	repo = newFakeRepo()
	repo.insErr = errBoom
	p = NewProcessor(repo, &fakeGenerator{}, ratelimit.Noop{}, logging.Discard())
	assert.ErrorIs(t, p.ProcessNews(context.Background(), domain.Batch{article("a")}), errBoom)
}

func TestProcessNewsCancelledBatchIsNotStored(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := newFakeRepo()
	gen := &fakeGenerator{onCall: cancel}
	p := NewProcessor(repo, gen, ratelimit.Noop{}, logging.Discard())

	err := p.ProcessNews(ctx, domain.Batch{article("a"), article("b")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, gen.calls, 1)
	assert.Empty(t, repo.inserts)
}

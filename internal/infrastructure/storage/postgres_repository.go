package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// ErrNotFound is returned by point lookups that match no row.
var ErrNotFound = domain.ErrNotFound

const table = "articles"

var columns = []string{
	"id", "url", "title", "author", "description", "content", "published_at",
	"url_to_image", "summary", "category", "language", "keywords", "status",
	"created_at", "updated_at",
}

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository persists articles into Postgres.
type PostgresRepository struct {
	db  DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

var (
	_ ports.ArticleRepository     = (*PostgresRepository)(nil)
	_ ports.MaintenanceRepository = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a pgx pool (or any compatible executor).
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now: time.Now,
	}
}

// ExistingURLs returns the subset of urls already stored.
func (r *PostgresRepository) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(urls) == 0 {
		return result, nil
	}

	query, args, err := r.sb.Select("url").From(table).Where(sq.Eq{"url": urls}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build existing urls: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing urls: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		result[url] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// InsertMany writes all records in one statement. Rows whose URL already
// exists are skipped.
func (r *PostgresRepository) InsertMany(ctx context.Context, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	now := r.now().UTC()
	insert := r.sb.Insert(table).Columns(columns...)
	for _, a := range articles {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
		keywords := a.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		insert = insert.Values(
			a.ID, a.URL, a.Title, a.Author, a.Description, a.Content, a.PublishedAt,
			a.URLToImage, a.Summary, categoryValue(a.Category), string(languageOrDefault(a.Language)),
			keywords, string(a.Status), a.CreatedAt, a.UpdatedAt,
		)
	}

	query, args, err := insert.Suffix("ON CONFLICT (url) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert articles: %w", err)
	}
	return nil
}

// List returns one page ordered by publication date, newest first.
func (r *PostgresRepository) List(ctx context.Context, q ports.ListQuery) ([]domain.Article, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}

	builder := r.sb.Select(columns...).From(table).
		OrderBy("published_at DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit))
	if q.Category != nil {
		builder = builder.Where(sq.Eq{"category": string(*q.Category)})
	}
	return r.queryArticles(ctx, builder)
}

// Count returns the number of rows, optionally restricted to a category.
func (r *PostgresRepository) Count(ctx context.Context, category *domain.Category) (int, error) {
	builder := r.sb.Select("COUNT(*)").From(table)
	if category != nil {
		builder = builder.Where(sq.Eq{"category": string(*category)})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return total, nil
}

// FindByID returns ErrNotFound when no row matches.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (domain.Article, error) {
	return r.findOne(ctx, r.sb.Select(columns...).From(table).Where(sq.Eq{"id": id}))
}

// FindByTitle matches the whole title, ignoring case.
func (r *PostgresRepository) FindByTitle(ctx context.Context, title string) (domain.Article, error) {
	return r.findOne(ctx, r.sb.Select(columns...).From(table).
		Where("LOWER(title) = LOWER(?)", title).
		OrderBy("published_at DESC").
		Limit(1))
}

// ListNeedingEnrichment selects FAILED rows and rows missing any metadata field.
func (r *PostgresRepository) ListNeedingEnrichment(ctx context.Context) ([]domain.Article, error) {
	return r.queryArticles(ctx, r.sb.Select(columns...).From(table).
		Where(sq.Or{
			sq.Eq{"status": string(domain.StatusFailed)},
			sq.Eq{"summary": nil},
			sq.Eq{"category": nil},
			sq.Expr("COALESCE(cardinality(keywords), 0) = 0"),
		}).
		OrderBy("published_at DESC"))
}

// UpdateMetadata stores generated metadata and marks the row COMPLETED. A nil
// meta only marks the row FAILED.
func (r *PostgresRepository) UpdateMetadata(ctx context.Context, id string, meta *domain.Metadata) error {
	update := r.sb.Update(table).Set("updated_at", r.now().UTC()).Where(sq.Eq{"id": id})
	if meta == nil {
		update = update.Set("status", string(domain.StatusFailed))
	} else {
		keywords := meta.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		update = update.
			Set("summary", meta.Summary).
			Set("category", string(meta.Category)).
			Set("language", string(meta.Language)).
			Set("keywords", keywords).
			Set("status", string(domain.StatusCompleted))
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update article %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates counts and the newest and oldest articles.
func (r *PostgresRepository) Stats(ctx context.Context) (domain.Stats, error) {
	stats := domain.Stats{
		ByStatus:   map[domain.ProcessingStatus]int{},
		ByCategory: map[domain.Category]int{},
	}

	monthAgo := r.now().UTC().AddDate(0, -1, 0)
	query, args, err := r.sb.Select(
		"COUNT(*)",
		"COUNT(content)",
	).Column(sq.Expr("COUNT(*) FILTER (WHERE published_at >= ?)", monthAgo)).From(table).ToSql()
	if err != nil {
		return stats, fmt.Errorf("build totals: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&stats.Total, &stats.WithContent, &stats.LastMonth); err != nil {
		return stats, fmt.Errorf("query totals: %w", err)
	}

	err = r.groupCount(ctx, "status", func(key string, n int) {
		stats.ByStatus[domain.ProcessingStatus(key)] = n
	})
	if err != nil {
		return stats, err
	}
	err = r.groupCount(ctx, "category", func(key string, n int) {
		stats.ByCategory[domain.Category(key)] = n
	})
	if err != nil {
		return stats, err
	}

	latest, err := r.findOne(ctx, r.sb.Select(columns...).From(table).OrderBy("published_at DESC").Limit(1))
	switch {
	case err == nil:
		stats.Latest = &latest
	case !errors.Is(err, ErrNotFound):
		return stats, err
	}
	oldest, err := r.findOne(ctx, r.sb.Select(columns...).From(table).OrderBy("published_at ASC").Limit(1))
	switch {
	case err == nil:
		stats.Oldest = &oldest
	case !errors.Is(err, ErrNotFound):
		return stats, err
	}
	return stats, nil
}

func (r *PostgresRepository) groupCount(ctx context.Context, column string, fn func(string, int)) error {
	query, args, err := r.sb.Select(column, "COUNT(*)").From(table).
		Where(sq.NotEq{column: nil}).
		GroupBy(column).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s counts: %w", column, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query %s counts: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan %s count: %w", column, err)
		}
		fn(key, n)
	}
	return rows.Err()
}

func (r *PostgresRepository) findOne(ctx context.Context, builder sq.SelectBuilder) (domain.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select: %w", err)
	}

	article, err := scanArticle(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Article{}, ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("scan article: %w", err)
	}
	return article, nil
}

func (r *PostgresRepository) queryArticles(ctx context.Context, builder sq.SelectBuilder) ([]domain.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	articles := []domain.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		a        domain.Article
		category *string
		language string
		status   string
		keywords []string
	)
	err := row.Scan(
		&a.ID, &a.URL, &a.Title, &a.Author, &a.Description, &a.Content, &a.PublishedAt,
		&a.URLToImage, &a.Summary, &category, &language, &keywords, &status,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Article{}, err
	}

	if category != nil {
		c := domain.Category(*category)
		a.Category = &c
	}
	a.Language = languageOrDefault(domain.Language(language))
	a.Status = domain.ProcessingStatus(status)
	if keywords == nil {
		keywords = []string{}
	}
	a.Keywords = keywords
	return a, nil
}

func categoryValue(c *domain.Category) any {
	if c == nil {
		return nil
	}
	return string(*c)
}

func languageOrDefault(l domain.Language) domain.Language {
	if l == "" {
		return domain.DefaultLanguage
	}
	return l
}

package scripts

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"NewsAggregator/internal/domain"
)

// DatabaseStats prints totals, breakdowns and the newest and oldest articles.
func DatabaseStats() Script {
	return Script{
		Name:        "database-stats",
		Description: "Generate database statistics and health metrics",
		Run:         runDatabaseStats,
	}
}

func runDatabaseStats(ctx context.Context, env Env) error {
	if env.Repo == nil {
		return fmt.Errorf("database-stats: repository not configured")
	}
	stats, err := env.Repo.Stats(ctx)
	if err != nil {
		return err
	}

	w := env.Out
	fmt.Fprintf(w, "Total articles: %d\n", stats.Total)
	fmt.Fprintf(w, "Articles from last month: %d\n", stats.LastMonth)
	printArticle(w, "Latest article", stats.Latest)
	printArticle(w, "Oldest article", stats.Oldest)

	fmt.Fprintf(w, "\nArticles with content: %d\n", stats.WithContent)
	fmt.Fprintf(w, "Articles without content: %d\n", stats.Total-stats.WithContent)
	fmt.Fprintf(w, "Data quality score: %d%%\n", qualityScore(stats))

	fmt.Fprintln(w, "\nBy status:")
	for _, key := range sortedKeys(stats.ByStatus) {
		fmt.Fprintf(w, "  %-12s %d\n", key, stats.ByStatus[domain.ProcessingStatus(key)])
	}
	fmt.Fprintln(w, "\nBy category:")
	for _, key := range sortedKeys(stats.ByCategory) {
		fmt.Fprintf(w, "  %-34s %d\n", key, stats.ByCategory[domain.Category(key)])
	}
	return nil
}

func printArticle(w io.Writer, label string, a *domain.Article) {
	if a == nil {
		return
	}
	fmt.Fprintf(w, "%s: %q\n  Published: %s\n", label, a.Title, a.PublishedAt.UTC().Format(time.RFC3339))
}

func qualityScore(s domain.Stats) int {
	if s.Total == 0 {
		return 0
	}
	return (s.WithContent*100 + s.Total/2) / s.Total
}

func sortedKeys[K ~string, V any](m map[K]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

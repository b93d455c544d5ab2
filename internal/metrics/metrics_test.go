package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordEnrichment(t *testing.T) {
	completed := testutil.ToFloat64(EnrichedArticles.WithLabelValues("completed"))
	failed := testutil.ToFloat64(EnrichedArticles.WithLabelValues("failed"))
	dups := testutil.ToFloat64(DuplicateArticles)

	RecordEnrichment(2, 1, 3)

	assert.InDelta(t, completed+2, testutil.ToFloat64(EnrichedArticles.WithLabelValues("completed")), 1e-9)
	assert.InDelta(t, failed+1, testutil.ToFloat64(EnrichedArticles.WithLabelValues("failed")), 1e-9)
	assert.InDelta(t, dups+3, testutil.ToFloat64(DuplicateArticles), 1e-9)
}

func TestRecordJob(t *testing.T) {
	before := testutil.ToFloat64(QueueJobs.WithLabelValues("q", "j", "completed"))
	RecordJob("q", "j", "completed", 0.2)
	assert.InDelta(t, before+1, testutil.ToFloat64(QueueJobs.WithLabelValues("q", "j", "completed")), 1e-9)
}

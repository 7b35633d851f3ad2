package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdigest/metrics"
	"newsdigest/types"
)

func TestObserveRun(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	report := &types.RunReport{
		StartedAt:    start,
		FinishedAt:   start.Add(12 * time.Second),
		ArticleCount: 7,
		Feeds: []types.FeedResult{
			{URL: "https://ok.example/feed"},
			{URL: "https://bad.example/feed", Error: "timeout"},
		},
		Stages: []types.StageResult{
			{Stage: types.StageIngest, Status: types.StatusOK},
			{Stage: types.StageSummarize, Status: types.StatusDegraded},
			{Stage: types.StageDocument, Status: types.StatusSkipped},
		},
	}

	rec.ObserveRun(report)
	rec.ObserveRun(report)

	assert.InDelta(t, 2, testutil.ToFloat64(rec.RunsTotal.WithLabelValues("degraded")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(rec.StageTotal.WithLabelValues("summarize", "degraded")), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(rec.ArticlesIngested), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(rec.FeedErrorsTotal.WithLabelValues("https://bad.example/feed")), 0)

	expected := `
# HELP newsdigest_stage_total Pipeline stage outcomes
# TYPE newsdigest_stage_total counter
newsdigest_stage_total{stage="document",status="skipped"} 2
newsdigest_stage_total{stage="ingest",status="ok"} 2
newsdigest_stage_total{stage="summarize",status="degraded"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "newsdigest_stage_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.RunDuration))
}

func TestObserveRun_NilSafe(t *testing.T) {
	t.Parallel()

	var rec *metrics.Recorder
	rec.ObserveRun(&types.RunReport{})
	metrics.New(prometheus.NewRegistry()).ObserveRun(nil)
}

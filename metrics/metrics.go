// Package metrics exposes Prometheus metrics for digest runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"newsdigest/types"
)

// Namespace prefixes every metric name
const Namespace = "newsdigest"

// Recorder holds the run metrics
type Recorder struct {
	RunsTotal        *prometheus.CounterVec
	StageTotal       *prometheus.CounterVec
	ArticlesIngested prometheus.Gauge
	FeedErrorsTotal  *prometheus.CounterVec
	RunDuration      prometheus.Histogram
}

// New registers the metrics on reg, or the default registerer when reg is nil
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Digest runs by overall status",
		}, []string{"status"}),
		StageTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "stage_total",
			Help:      "Pipeline stage outcomes",
		}, []string{"stage", "status"}),
		ArticlesIngested: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "articles_ingested",
			Help:      "Articles kept by the most recent run",
		}),
		FeedErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "feed_errors_total",
			Help:      "Feeds that could not be fetched or parsed",
		}, []string{"feed"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a digest run",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
	}
}

// ObserveRun records a finished run. A nil Recorder is a no-op.
func (r *Recorder) ObserveRun(report *types.RunReport) {
	if r == nil || report == nil {
		return
	}

	r.RunsTotal.WithLabelValues(string(report.Status())).Inc()
	for _, s := range report.Stages {
		r.StageTotal.WithLabelValues(string(s.Stage), string(s.Status)).Inc()
	}
	for _, f := range report.Feeds {
		if f.Error != "" {
			r.FeedErrorsTotal.WithLabelValues(f.URL).Inc()
		}
	}
	r.ArticlesIngested.Set(float64(report.ArticleCount))
	if !report.FinishedAt.IsZero() {
		r.RunDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}
}

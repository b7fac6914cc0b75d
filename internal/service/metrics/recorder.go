package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	fetchAttempts  *prometheus.CounterVec
	retriesTotal   *prometheus.CounterVec
	symbolResults  *prometheus.CounterVec
	runDuration    prometheus.Histogram
	postsIngested  *prometheus.CounterVec
	dailySentiment *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentipull_fetch_attempts_total",
				Help: "Total fetch attempts by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		retriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentipull_fetch_retries_total",
				Help: "Total backoff retries by source",
			},
			[]string{"source"},
		),
		symbolResults: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentipull_symbol_results_total",
				Help: "Per-symbol ingestion outcomes",
			},
			[]string{"result"},
		),
		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sentipull_run_duration_seconds",
				Help:    "Duration of full pipeline runs",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		postsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentipull_posts_ingested_total",
				Help: "Social posts ingested per ticker",
			},
			[]string{"ticker"},
		),
		dailySentiment: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentipull_last_daily_sentiment",
				Help: "Most recent daily sentiment score per symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordFetchAttempt records one network attempt outcome.
func (r *Recorder) RecordFetchAttempt(source, outcome string) {
	r.fetchAttempts.WithLabelValues(source, outcome).Inc()
}

// RecordRetry records one backoff retry.
func (r *Recorder) RecordRetry(source string) {
	r.retriesTotal.WithLabelValues(source).Inc()
}

// RecordSymbolResult records a symbol's ingestion outcome.
func (r *Recorder) RecordSymbolResult(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	r.symbolResults.WithLabelValues(result).Inc()
}

// RecordRunDuration records a pipeline run duration in seconds.
func (r *Recorder) RecordRunDuration(seconds float64) {
	r.runDuration.Observe(seconds)
}

// RecordPostsIngested records posts fetched for a ticker.
func (r *Recorder) RecordPostsIngested(ticker string, n int) {
	r.postsIngested.WithLabelValues(ticker).Add(float64(n))
}

// RecordDailySentiment records the latest daily score for a symbol.
func (r *Recorder) RecordDailySentiment(symbol string, score float64) {
	r.dailySentiment.WithLabelValues(symbol).Set(score)
}

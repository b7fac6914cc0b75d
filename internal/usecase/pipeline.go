package usecase

import (
	"context"
	"sync"
	"time"

	"SentiPull/internal/domain/models"
	drepo "SentiPull/internal/domain/repository"
	"SentiPull/internal/service/sentiment"
	"SentiPull/internal/services/features"
	xlogger "SentiPull/pkg/logger"
	"SentiPull/pkg/util"
)

// Pipeline drives one full ingestion run: fan-out fetch, sentiment
// scoring, trading-day alignment, indicator computation, and the final
// merge. The latest run's output is retained in memory for the API;
// nothing is persisted between runs.
type Pipeline struct {
	orch       *Orchestrator
	classifier drepo.SentimentClassifier
	calendar   drepo.TradingCalendar
	extractor  *features.Extractor
	publisher  drepo.FeaturePublisher
	metrics    drepo.Metrics
	log        *xlogger.Logger

	mu         sync.RWMutex
	lastReport *models.RunReport
	lastRows   map[string][]models.FeatureRow
}

// NewPipeline creates a pipeline. publisher and metrics may be nil.
func NewPipeline(
	orch *Orchestrator,
	classifier drepo.SentimentClassifier,
	calendar drepo.TradingCalendar,
	extractor *features.Extractor,
	publisher drepo.FeaturePublisher,
	metrics drepo.Metrics,
	log *xlogger.Logger,
) *Pipeline {
	return &Pipeline{
		orch:       orch,
		classifier: classifier,
		calendar:   calendar,
		extractor:  extractor,
		publisher:  publisher,
		metrics:    metrics,
		log:        log,
		lastRows:   map[string][]models.FeatureRow{},
	}
}

// Run executes one full pipeline pass over symbols and returns its
// report. A failed symbol still appears in the report with empty data.
func (p *Pipeline) Run(ctx context.Context, symbols []string, tweetCap int) *models.RunReport {
	started := time.Now().UTC()
	p.log.Info("pipeline run started",
		xlogger.Strings("symbols", symbols),
		xlogger.Int("tweet_cap", tweetCap),
	)

	ingested := p.orch.Run(ctx, symbols, tweetCap)

	report := &models.RunReport{StartedAt: started}
	rows := make(map[string][]models.FeatureRow, len(ingested))

	for _, symbol := range symbols {
		result := ingested[symbol]
		sr := models.SymbolReport{
			Symbol: symbol,
			Bars:   result.Prices.Len(),
			Posts:  len(result.Posts),
			Error:  result.Err,
		}
		if result.Failed() {
			report.Failed++
			report.Symbols = append(report.Symbols, sr)
			continue
		}

		daily := p.dailySentiment(ctx, symbol, result.Posts)
		table := p.extractor.Compute(result.Prices)
		mergeSentiment(table, daily)

		sr.Rows = len(table)
		sr.Sentiment = len(daily)
		report.Succeeded++
		report.Symbols = append(report.Symbols, sr)
		rows[symbol] = table

		if p.metrics != nil && len(table) > 0 {
			p.metrics.RecordDailySentiment(symbol, table[len(table)-1].Sentiment)
		}
		if p.publisher != nil && len(table) > 0 {
			if err := p.publisher.PublishRows(ctx, symbol, table); err != nil {
				p.log.Warn("feature publish failed",
					xlogger.String("symbol", symbol),
					xlogger.Error(err),
				)
			}
		}
	}

	report.FinishedAt = time.Now().UTC()
	if p.metrics != nil {
		p.metrics.RecordRunDuration(report.FinishedAt.Sub(started).Seconds())
	}

	p.mu.Lock()
	p.lastReport = report
	p.lastRows = rows
	p.mu.Unlock()

	p.log.Info("pipeline run finished",
		xlogger.Int("succeeded", report.Succeeded),
		xlogger.Int("failed", report.Failed),
		xlogger.Duration("took", report.FinishedAt.Sub(started)),
	)
	return report
}

// dailySentiment cleans, classifies, and aligns posts onto trading
// days, then averages the signed scores per day. Days without posts are
// absent from the result; the merge stage zero-fills them.
func (p *Pipeline) dailySentiment(ctx context.Context, symbol string, posts []models.SocialPost) map[string]float64 {
	if len(posts) == 0 {
		return map[string]float64{}
	}

	texts := make([]string, len(posts))
	for i, post := range posts {
		texts[i] = sentiment.CleanText(post.Text)
	}

	preds, err := p.classifier.Classify(ctx, texts)
	if err != nil || len(preds) != len(posts) {
		p.log.Warn("sentiment classification failed, treating posts as unscored",
			xlogger.String("symbol", symbol),
			xlogger.Error(err),
		)
		return map[string]float64{}
	}

	scored := make([]models.ScoredPost, len(posts))
	for i := range posts {
		scored[i] = models.ScoredPost{Post: posts[i], Prediction: preds[i]}
	}
	return aggregateDaily(scored, p.calendar)
}

// aggregateDaily groups scored posts by trading day and takes the
// arithmetic mean of the signed scores within each day.
func aggregateDaily(scored []models.ScoredPost, cal drepo.TradingCalendar) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, sp := range scored {
		day := util.DateKey(cal.AssignTradingDay(sp.Post.CreatedAt))
		sums[day] += sp.Prediction.Score()
		counts[day]++
	}

	out := make(map[string]float64, len(sums))
	for day, sum := range sums {
		out[day] = sum / float64(counts[day])
	}
	return out
}

// mergeSentiment left-joins daily scores onto the feature table by
// trading date. Dates with no score get exactly 0.0.
func mergeSentiment(rows []models.FeatureRow, daily map[string]float64) {
	for i := range rows {
		if score, ok := daily[util.DateKey(rows[i].Date)]; ok {
			rows[i].Sentiment = score
		} else {
			rows[i].Sentiment = 0.0
		}
	}
}

// LatestReport returns the most recent run's report, or nil before the
// first run completes.
func (p *Pipeline) LatestReport() *models.RunReport {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastReport
}

// FeaturesFor returns up to limit most recent feature rows for symbol
// from the latest run.
func (p *Pipeline) FeaturesFor(symbol string, limit int) ([]models.FeatureRow, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rows, ok := p.lastRows[symbol]
	if !ok {
		return nil, false
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	out := make([]models.FeatureRow, len(rows))
	copy(out, rows)
	return out, true
}

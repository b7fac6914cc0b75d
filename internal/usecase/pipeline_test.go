package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"SentiPull/internal/domain/models"
	drepo "SentiPull/internal/domain/repository"
	"SentiPull/internal/services/features"
	xlogger "SentiPull/pkg/logger"
	"SentiPull/pkg/util"
)

// utcDayCalendar assigns every timestamp to its UTC calendar date,
// ignoring weekends and closes. Keeps alignment tests independent from
// calendar arithmetic, which has its own package tests.
type utcDayCalendar struct{}

func (utcDayCalendar) AssignTradingDay(ts time.Time) time.Time { return util.Midnight(ts.UTC()) }
func (utcDayCalendar) IsTradingDay(time.Time) bool             { return true }

type scriptedClassifier struct {
	preds []models.SentimentPrediction
	err   error
}

func (s scriptedClassifier) Classify(ctx context.Context, texts []string) ([]models.SentimentPrediction, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.preds) >= len(texts) {
		return s.preds[:len(texts)], nil
	}
	return s.preds, nil
}

func TestAggregateDailyMean(t *testing.T) {
	day := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	scored := []models.ScoredPost{
		{Post: models.SocialPost{CreatedAt: day}, Prediction: models.SentimentPrediction{Label: models.SentimentPositive, Confidence: 0.9}},
		{Post: models.SocialPost{CreatedAt: day}, Prediction: models.SentimentPrediction{Label: models.SentimentPositive, Confidence: 0.8}},
		{Post: models.SocialPost{CreatedAt: day}, Prediction: models.SentimentPrediction{Label: models.SentimentNegative, Confidence: 0.95}},
		{Post: models.SocialPost{CreatedAt: day}, Prediction: models.SentimentPrediction{Label: models.SentimentNeutral, Confidence: 0.99}},
	}

	daily := aggregateDaily(scored, utcDayCalendar{})
	if len(daily) != 1 {
		t.Fatalf("expected one day, got %d", len(daily))
	}
	got := daily["2025-06-03"]
	if math.Abs(got-0.1875) > 1e-12 {
		t.Errorf("expected mean 0.1875, got %v", got)
	}
}

func TestAggregateDailyOmitsEmptyDays(t *testing.T) {
	scored := []models.ScoredPost{
		{Post: models.SocialPost{CreatedAt: time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)},
			Prediction: models.SentimentPrediction{Label: models.SentimentPositive, Confidence: 0.5}},
		{Post: models.SocialPost{CreatedAt: time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)},
			Prediction: models.SentimentPrediction{Label: models.SentimentNegative, Confidence: 0.5}},
	}
	daily := aggregateDaily(scored, utcDayCalendar{})
	if len(daily) != 2 {
		t.Fatalf("expected 2 days, got %d", len(daily))
	}
	if _, ok := daily["2025-06-04"]; ok {
		t.Error("day without posts must be absent, not zero-filled")
	}
}

func TestMergeSentimentDefaultsToZero(t *testing.T) {
	rows := []models.FeatureRow{
		{Date: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), Sentiment: -1},
		{Date: time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), Sentiment: -1},
	}
	daily := map[string]float64{"2025-06-03": 0.42}

	mergeSentiment(rows, daily)
	if rows[0].Sentiment != 0.42 {
		t.Errorf("expected joined score 0.42, got %v", rows[0].Sentiment)
	}
	if rows[1].Sentiment != 0.0 {
		t.Errorf("expected exact 0.0 default, got %v", rows[1].Sentiment)
	}
}

type fixedPriceSource struct {
	series map[string]*models.PriceSeries
}

func (f fixedPriceSource) DailySeries(ctx context.Context, symbol string, size drepo.OutputSize) (*models.PriceSeries, error) {
	if s, ok := f.series[symbol]; ok {
		return s, nil
	}
	return &models.PriceSeries{Symbol: symbol}, nil
}

type fixedSocialSource struct {
	posts map[string][]models.SocialPost
}

func (f fixedSocialSource) RecentPosts(ctx context.Context, ticker string, cap int) ([]models.SocialPost, error) {
	return f.posts[ticker], nil
}

func testSeries(symbol string, days int) *models.PriceSeries {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, days)
	for i := range points {
		c := 100 + float64(i)
		points[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return &models.PriceSeries{Symbol: symbol, Points: points}
}

func TestPipelineRunEndToEnd(t *testing.T) {
	series := testSeries("AAPL", 10)
	postDay := series.Points[8].Date.Add(9 * time.Hour)
	prices := fixedPriceSource{series: map[string]*models.PriceSeries{"AAPL": series}}
	social := fixedSocialSource{posts: map[string][]models.SocialPost{
		"AAPL": {
			{ID: "1", Text: "$AAPL great quarter", CreatedAt: postDay},
			{ID: "2", Text: "$AAPL meh", CreatedAt: postDay},
		},
	}}
	classifier := scriptedClassifier{preds: []models.SentimentPrediction{
		{Label: models.SentimentPositive, Confidence: 0.8},
		{Label: models.SentimentNeutral, Confidence: 0.9},
	}}

	orch := NewOrchestrator(prices, social, 2, drepo.OutputCompact, 100, nil, xlogger.Nop())
	ext := features.New(features.Windows{SMA: 3, RSI: 2, MACDFast: 2, MACDSlow: 3, MACDSignal: 2, Bollinger: 3})
	p := NewPipeline(orch, classifier, utcDayCalendar{}, ext, nil, nil, xlogger.Nop())

	report := p.Run(context.Background(), []string{"AAPL", "MISSING"}, 0)
	if report.Succeeded != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Symbols) != 2 {
		t.Fatalf("expected 2 symbol reports, got %d", len(report.Symbols))
	}

	rows, ok := p.FeaturesFor("AAPL", 0)
	if !ok || len(rows) == 0 {
		t.Fatal("expected stored feature rows for AAPL")
	}

	// The scored day carries mean(+0.8, 0) = 0.4; every other day 0.0.
	scoredKey := util.DateKey(util.Midnight(postDay))
	var sawScored bool
	for _, row := range rows {
		if util.DateKey(row.Date) == scoredKey {
			sawScored = true
			if math.Abs(row.Sentiment-0.4) > 1e-12 {
				t.Errorf("expected sentiment 0.4, got %v", row.Sentiment)
			}
		} else if row.Sentiment != 0.0 {
			t.Errorf("expected 0.0 for %s, got %v", util.DateKey(row.Date), row.Sentiment)
		}
	}
	if !sawScored {
		t.Error("scored day missing from feature table")
	}

	if got := p.LatestReport(); got != report {
		t.Error("latest report not retained")
	}
}

func TestPipelineClassifierFailureDegradesToNeutral(t *testing.T) {
	series := testSeries("AAPL", 10)
	prices := fixedPriceSource{series: map[string]*models.PriceSeries{"AAPL": series}}
	social := fixedSocialSource{posts: map[string][]models.SocialPost{
		"AAPL": {{ID: "1", Text: "whatever", CreatedAt: series.Points[5].Date}},
	}}
	classifier := scriptedClassifier{err: context.DeadlineExceeded}

	orch := NewOrchestrator(prices, social, 1, drepo.OutputCompact, 100, nil, xlogger.Nop())
	ext := features.New(features.Windows{SMA: 3, RSI: 2, MACDFast: 2, MACDSlow: 3, MACDSignal: 2, Bollinger: 3})
	p := NewPipeline(orch, classifier, utcDayCalendar{}, ext, nil, nil, xlogger.Nop())

	report := p.Run(context.Background(), []string{"AAPL"}, 0)
	if report.Failed != 0 {
		t.Fatalf("classifier failure must not fail the symbol: %+v", report)
	}
	rows, _ := p.FeaturesFor("AAPL", 0)
	for _, row := range rows {
		if row.Sentiment != 0.0 {
			t.Errorf("expected neutral sentiment, got %v", row.Sentiment)
		}
	}
}

func TestFeaturesForLimit(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil, nil, nil, xlogger.Nop())
	p.lastRows["AAPL"] = make([]models.FeatureRow, 50)
	for i := range p.lastRows["AAPL"] {
		p.lastRows["AAPL"][i].Close = float64(i)
	}

	rows, ok := p.FeaturesFor("AAPL", 10)
	if !ok || len(rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(rows))
	}
	if rows[0].Close != 40 {
		t.Errorf("expected most recent rows kept, first close %v", rows[0].Close)
	}

	if _, ok := p.FeaturesFor("UNKNOWN", 10); ok {
		t.Error("unknown symbol must report absence")
	}
}

package repository

import (
	"context"
	"time"

	"SentiPull/internal/domain/models"
)

// OutputSize selects how much price history the source returns.
type OutputSize string

const (
	OutputCompact OutputSize = "compact" // ~100 most recent points
	OutputFull    OutputSize = "full"
)

// PriceSource fetches daily price history for one symbol. Classified
// failures surface as an empty series, never as an error the caller must
// branch on; err is reserved for programmer mistakes (nil receiver etc).
type PriceSource interface {
	DailySeries(ctx context.Context, symbol string, size OutputSize) (*models.PriceSeries, error)
}

// SocialSource fetches up to cap recent posts mentioning a ticker.
// Failures surface as an empty slice.
type SocialSource interface {
	RecentPosts(ctx context.Context, ticker string, cap int) ([]models.SocialPost, error)
}

// SentimentClassifier scores raw texts. Index i of the result corresponds
// to texts[i].
type SentimentClassifier interface {
	Classify(ctx context.Context, texts []string) ([]models.SentimentPrediction, error)
}

// TradingCalendar maps UTC timestamps onto trading days.
type TradingCalendar interface {
	AssignTradingDay(ts time.Time) time.Time
	IsTradingDay(date time.Time) bool
}

// FeaturePublisher ships merged feature rows downstream.
type FeaturePublisher interface {
	PublishRows(ctx context.Context, symbol string, rows []models.FeatureRow) error
	Close() error
}

// Metrics records operational signals.
type Metrics interface {
	RecordFetchAttempt(source, outcome string)
	RecordRetry(source string)
	RecordSymbolResult(ok bool)
	RecordRunDuration(seconds float64)
	RecordPostsIngested(ticker string, n int)
	RecordDailySentiment(symbol string, score float64)
}

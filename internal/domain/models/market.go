package models

import (
	"regexp"
	"time"
)

var (
	symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)
	tickerPattern = regexp.MustCompile(`^[A-Z0-9]{1,6}$`)
)

// ValidSymbol reports whether s is an acceptable price-API symbol:
// uppercase alphanumeric, 1-10 characters.
func ValidSymbol(s string) bool { return symbolPattern.MatchString(s) }

// ValidTicker reports whether s is an acceptable social-API ticker:
// uppercase alphanumeric, 1-6 characters.
func ValidTicker(s string) bool { return tickerPattern.MatchString(s) }

// PricePoint is one trading day's OHLCV for a symbol.
type PricePoint struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds a symbol's daily bars sorted ascending by date.
// Gaps in the source data are kept as-is, not repaired.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// Len returns the number of bars in the series.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// SocialPost is one raw message from the social source.
type SocialPost struct {
	ID        string
	Text      string
	CreatedAt time.Time // UTC
}

// SentimentLabel is the closed label set produced by the classifier.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// SentimentPrediction is the classifier output for one post.
type SentimentPrediction struct {
	Label      SentimentLabel
	Confidence float64 // [0,1]
}

// Score maps the prediction to a signed scalar in [-1,1]:
// positive -> +confidence, negative -> -confidence, neutral -> 0.
func (p SentimentPrediction) Score() float64 {
	switch p.Label {
	case SentimentPositive:
		return p.Confidence
	case SentimentNegative:
		return -p.Confidence
	default:
		return 0
	}
}

// ScoredPost pairs a post with its prediction.
type ScoredPost struct {
	Post       SocialPost
	Prediction SentimentPrediction
}

// FeatureRow is one trading date of the final merged table.
type FeatureRow struct {
	Date          time.Time `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	Volume        float64   `json:"volume"`
	SMA           float64   `json:"sma"`
	RSI           float64   `json:"rsi"`
	MACD          float64   `json:"macd"`
	MACDSignal    float64   `json:"macd_signal"`
	BollingerUp   float64   `json:"bollinger_up"`
	BollingerDown float64   `json:"bollinger_down"`
	Sentiment     float64   `json:"sentiment"`
}

package sentiment

import (
	"context"
	"fmt"
	"time"

	"SentiPull/internal/domain/models"
	xhttp "SentiPull/pkg/http"
	xlogger "SentiPull/pkg/logger"
)

// HTTPClassifier scores text batches against a sentiment model served
// over HTTP (a FinBERT-style service exposing POST /classify).
type HTTPClassifier struct {
	serviceURL string
	batchSize  int
	client     *xhttp.Client
	log        *xlogger.Logger
}

// Options bundles construction knobs.
type Options struct {
	ServiceURL string
	Timeout    time.Duration
	BatchSize  int
}

// NewHTTPClassifier creates a classifier client for the given service.
func NewHTTPClassifier(opts Options, log *xlogger.Logger) *HTTPClassifier {
	batch := opts.BatchSize
	if batch <= 0 {
		batch = 32
	}
	return &HTTPClassifier{
		serviceURL: opts.ServiceURL,
		batchSize:  batch,
		client:     xhttp.NewClient(xhttp.WithTimeout(opts.Timeout)),
		log:        log,
	}
}

type classifyRequest struct {
	Texts []string `json:"texts"`
}

type classifyResponse struct {
	Predictions []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"predictions"`
}

// Classify scores texts in service-sized batches. Result index i
// corresponds to texts[i]; any batch failure fails the whole call so
// the caller never sees a partially scored slice.
func (c *HTTPClassifier) Classify(ctx context.Context, texts []string) ([]models.SentimentPrediction, error) {
	if len(texts) == 0 {
		return []models.SentimentPrediction{}, nil
	}

	out := make([]models.SentimentPrediction, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		var resp classifyResponse
		err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:  xhttp.MethodPost,
			URL:     c.serviceURL + "/classify",
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    classifyRequest{Texts: batch},
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("classify batch [%d:%d]: %w", start, end, err)
		}
		if len(resp.Predictions) != len(batch) {
			return nil, fmt.Errorf("classify batch [%d:%d]: got %d predictions for %d texts", start, end, len(resp.Predictions), len(batch))
		}

		for _, p := range resp.Predictions {
			out = append(out, models.SentimentPrediction{
				Label:      normalizeLabel(p.Label),
				Confidence: p.Confidence,
			})
		}
	}
	return out, nil
}

// normalizeLabel folds unknown labels into neutral so a model upgrade
// with new labels degrades to a zero score instead of a crash.
func normalizeLabel(label string) models.SentimentLabel {
	switch models.SentimentLabel(label) {
	case models.SentimentPositive:
		return models.SentimentPositive
	case models.SentimentNegative:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

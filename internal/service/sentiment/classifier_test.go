package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"SentiPull/internal/domain/models"
	xlogger "SentiPull/pkg/logger"
)

func echoClassifier(t *testing.T, calls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		var resp classifyResponse
		for _, text := range req.Texts {
			p := struct {
				Label      string  `json:"label"`
				Confidence float64 `json:"confidence"`
			}{Label: "neutral", Confidence: 0.5}
			switch text {
			case "great quarter":
				p.Label, p.Confidence = "positive", 0.9
			case "bankruptcy risk":
				p.Label, p.Confidence = "negative", 0.95
			}
			resp.Predictions = append(resp.Predictions, p)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestClassifyMapsLabels(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(echoClassifier(t, &calls))
	defer srv.Close()

	c := NewHTTPClassifier(Options{ServiceURL: srv.URL, Timeout: time.Second, BatchSize: 32}, xlogger.Nop())
	preds, err := c.Classify(context.Background(), []string{"great quarter", "bankruptcy risk", "sideways day"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(preds) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(preds))
	}
	if preds[0].Label != models.SentimentPositive || preds[0].Score() != 0.9 {
		t.Errorf("unexpected first prediction: %+v", preds[0])
	}
	if preds[1].Label != models.SentimentNegative || preds[1].Score() != -0.95 {
		t.Errorf("unexpected second prediction: %+v", preds[1])
	}
	if preds[2].Label != models.SentimentNeutral || preds[2].Score() != 0 {
		t.Errorf("unexpected third prediction: %+v", preds[2])
	}
}

func TestClassifyBatches(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(echoClassifier(t, &calls))
	defer srv.Close()

	c := NewHTTPClassifier(Options{ServiceURL: srv.URL, Timeout: time.Second, BatchSize: 10}, xlogger.Nop())
	texts := make([]string, 25)
	for i := range texts {
		texts[i] = "sideways day"
	}
	preds, err := c.Classify(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(preds) != 25 {
		t.Fatalf("expected 25 predictions, got %d", len(preds))
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 batch calls (10+10+5), got %d", calls)
	}
}

func TestClassifyEmptyInputNoNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(echoClassifier(t, &calls))
	defer srv.Close()

	c := NewHTTPClassifier(Options{ServiceURL: srv.URL, Timeout: time.Second}, xlogger.Nop())
	preds, err := c.Classify(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(preds) != 0 || atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no work for empty input")
	}
}

func TestClassifyLengthMismatchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[]}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(Options{ServiceURL: srv.URL, Timeout: time.Second}, xlogger.Nop())
	if _, err := c.Classify(context.Background(), []string{"one"}); err == nil {
		t.Fatal("expected error on prediction count mismatch")
	}
}

func TestClassifyServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(Options{ServiceURL: srv.URL, Timeout: time.Second}, xlogger.Nop())
	if _, err := c.Classify(context.Background(), []string{"one"}); err == nil {
		t.Fatal("expected error on 500")
	}
}

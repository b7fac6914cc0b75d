package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SentiPull/internal/domain/models"
	drepo "SentiPull/internal/domain/repository"
	"SentiPull/internal/services/features"
	"SentiPull/internal/usecase"
	xlogger "SentiPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubPrices struct{}

func (stubPrices) DailySeries(ctx context.Context, symbol string, size drepo.OutputSize) (*models.PriceSeries, error) {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, 10)
	for i := range points {
		c := 100 + float64(i)
		points[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return &models.PriceSeries{Symbol: symbol, Points: points}, nil
}

type stubSocial struct{}

func (stubSocial) RecentPosts(ctx context.Context, ticker string, cap int) ([]models.SocialPost, error) {
	return []models.SocialPost{}, nil
}

type stubClassifier struct{}

func (stubClassifier) Classify(ctx context.Context, texts []string) ([]models.SentimentPrediction, error) {
	return make([]models.SentimentPrediction, len(texts)), nil
}

type flatCalendar struct{}

func (flatCalendar) AssignTradingDay(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}
func (flatCalendar) IsTradingDay(time.Time) bool { return true }

func newTestHandler() *FeaturesEchoHandler {
	orch := usecase.NewOrchestrator(stubPrices{}, stubSocial{}, 2, drepo.OutputCompact, 100, nil, xlogger.Nop())
	ext := features.New(features.Windows{SMA: 3, RSI: 2, MACDFast: 2, MACDSlow: 3, MACDSignal: 2, Bollinger: 3})
	p := usecase.NewPipeline(orch, stubClassifier{}, flatCalendar{}, ext, nil, nil, xlogger.Nop())
	return NewFeaturesEchoHandler(xlogger.Nop(), p, []string{"AAPL"})
}

func request(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLatestRunBeforeFirstRun(t *testing.T) {
	e := echo.New()
	newTestHandler().RegisterRoutes(e)

	rec := request(e, http.MethodGet, "/api/runs/latest", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTriggerRunAndReadResults(t *testing.T) {
	e := echo.New()
	h := newTestHandler()
	h.RegisterRoutes(e)

	rec := request(e, http.MethodPost, "/api/runs", `{"symbols":["AAPL"],"tweet_cap":50}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.pipeline.LatestReport() == nil {
		if time.Now().After(deadline) {
			t.Fatal("run did not finish in time")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec = request(e, http.MethodGet, "/api/runs/latest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = request(e, http.MethodGet, "/api/features/AAPL?limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "\"rows\"") {
		t.Errorf("expected rows payload, got %s", rec.Body.String())
	}
}

func TestTriggerRunRejectsBadPayload(t *testing.T) {
	e := echo.New()
	newTestHandler().RegisterRoutes(e)

	for _, body := range []string{
		`{"symbols":["lowercase"]}`,
		`{"tweet_cap":100000}`,
	} {
		rec := request(e, http.MethodPost, "/api/runs", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("payload %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestFeaturesUnknownSymbol(t *testing.T) {
	e := echo.New()
	newTestHandler().RegisterRoutes(e)

	rec := request(e, http.MethodGet, "/api/features/ZZZZ", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestFeaturesRejectsBadSymbol(t *testing.T) {
	e := echo.New()
	newTestHandler().RegisterRoutes(e)

	rec := request(e, http.MethodGet, "/api/features/bad-symbol", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

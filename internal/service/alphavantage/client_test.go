package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	drepo "SentiPull/internal/domain/repository"
	"SentiPull/internal/service/cache"
	xlogger "SentiPull/pkg/logger"
)

const dailyFixture = `{
  "Meta Data": {"2. Symbol": "AAPL"},
  "Time Series (Daily)": {
    "2025-01-03": {"1. open": "243.0", "2. high": "244.2", "3. low": "241.8", "4. close": "243.4", "5. volume": "40244100"},
    "2025-01-02": {"1. open": "248.9", "2. high": "249.1", "3. low": "241.8", "4. close": "243.9", "5. volume": "55740700"},
    "2025-01-06": {"1. open": "244.3", "2. high": "247.3", "3. low": "243.2", "4. close": "245.0", "5. volume": "45045600"}
  }
}`

func newTestClient(t *testing.T, url string, c cache.BytesCache) *Client {
	t.Helper()
	return New(Options{
		BaseURL:    url,
		APIKey:     "demo",
		Timeout:    time.Second,
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		Cache:      c,
		CacheTTL:   time.Minute,
		Sleep: func(ctx context.Context, d time.Duration) error {
			return nil
		},
	}, xlogger.Nop())
}

func TestDailySeriesSortedAscending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Errorf("unexpected symbol %q", got)
		}
		_, _ = w.Write([]byte(dailyFixture))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	series, err := c.DailySeries(context.Background(), "AAPL", drepo.OutputCompact)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", series.Len())
	}
	for i := 1; i < len(series.Points); i++ {
		if !series.Points[i-1].Date.Before(series.Points[i].Date) {
			t.Fatalf("dates not strictly increasing at %d", i)
		}
	}
	if series.Points[0].Close != 243.9 {
		t.Errorf("unexpected first close %v", series.Points[0].Close)
	}
	if series.Points[2].Volume != 45045600 {
		t.Errorf("unexpected last volume %v", series.Points[2].Volume)
	}
}

func TestDailySeriesInvalidSymbolNoNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	for _, bad := range []string{"", "toolongsymbol", "aapl", "AA PL", "BRK.B"} {
		series, err := c.DailySeries(context.Background(), bad, drepo.OutputCompact)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", bad, err)
		}
		if series.Len() != 0 {
			t.Errorf("expected empty series for %q", bad)
		}
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected zero network calls, got %d", calls)
	}
}

func TestDailySeriesProviderErrorIsEmpty(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"Error Message": "Invalid API call."}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	series, err := c.DailySeries(context.Background(), "NOPE", drepo.OutputCompact)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 0 {
		t.Fatalf("expected empty series, got %d", series.Len())
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected single call (no retry on permanent), got %d", calls)
	}
}

func TestDailySeriesSoftRateLimitRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			_, _ = w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
			return
		}
		_, _ = w.Write([]byte(dailyFixture))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	series, err := c.DailySeries(context.Background(), "AAPL", drepo.OutputCompact)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 3 {
		t.Fatalf("expected recovery after soft limit, got %d points", series.Len())
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestDailySeriesUsesCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(dailyFixture))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, cache.NewTTLCache())
	for i := 0; i < 3; i++ {
		series, err := c.DailySeries(context.Background(), "AAPL", drepo.OutputCompact)
		if err != nil || series.Len() != 3 {
			t.Fatalf("fetch %d failed: %v len=%d", i, err, series.Len())
		}
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected single upstream call with warm cache, got %d", calls)
	}
}

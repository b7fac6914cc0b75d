package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"SentiPull/internal/domain/models"
	drepo "SentiPull/internal/domain/repository"
	xlogger "SentiPull/pkg/logger"
)

type stubPriceSource struct {
	mu      sync.Mutex
	active  int32
	peak    int32
	delay   time.Duration
	panicOn map[string]bool
	errOn   map[string]bool
}

func (s *stubPriceSource) DailySeries(ctx context.Context, symbol string, size drepo.OutputSize) (*models.PriceSeries, error) {
	cur := atomic.AddInt32(&s.active, 1)
	defer atomic.AddInt32(&s.active, -1)
	for {
		old := atomic.LoadInt32(&s.peak)
		if cur <= old || atomic.CompareAndSwapInt32(&s.peak, old, cur) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.panicOn[symbol] {
		panic("provider exploded")
	}
	if s.errOn[symbol] {
		return nil, errors.New("boom")
	}
	return &models.PriceSeries{
		Symbol: symbol,
		Points: []models.PricePoint{{Date: time.Now(), Close: 10}},
	}, nil
}

type stubSocialSource struct{}

func (stubSocialSource) RecentPosts(ctx context.Context, ticker string, cap int) ([]models.SocialPost, error) {
	return []models.SocialPost{{ID: "1", Text: ticker, CreatedAt: time.Now().UTC()}}, nil
}

func newOrchestrator(prices drepo.PriceSource, workers int) *Orchestrator {
	return NewOrchestrator(prices, stubSocialSource{}, workers, drepo.OutputCompact, 100, nil, xlogger.Nop())
}

func TestRunEverySymbolAppearsOnce(t *testing.T) {
	symbols := []string{"AAPL", "TSLA", "MSFT", "NVDA", "AMZN"}
	o := newOrchestrator(&stubPriceSource{}, 3)

	out := o.Run(context.Background(), symbols, 0)
	if len(out) != len(symbols) {
		t.Fatalf("expected %d results, got %d", len(symbols), len(out))
	}
	for _, s := range symbols {
		r, ok := out[s]
		if !ok {
			t.Fatalf("missing result for %s", s)
		}
		if r.Failed() {
			t.Errorf("%s unexpectedly failed: %s", s, r.Err)
		}
		if r.Prices.Len() != 1 || len(r.Posts) != 1 {
			t.Errorf("%s missing data", s)
		}
	}
}

func TestRunIsolatesPanics(t *testing.T) {
	prices := &stubPriceSource{panicOn: map[string]bool{"TSLA": true}}
	o := newOrchestrator(prices, 2)

	out := o.Run(context.Background(), []string{"AAPL", "TSLA"}, 0)
	if len(out) != 2 {
		t.Fatalf("expected both symbols present, got %d", len(out))
	}

	bad := out["TSLA"]
	if !bad.Failed() {
		t.Fatal("expected TSLA to fail")
	}
	if bad.Prices.Len() != 0 || len(bad.Posts) != 0 {
		t.Error("failed symbol must carry empty data")
	}

	good := out["AAPL"]
	if good.Failed() {
		t.Fatalf("AAPL should be unaffected, got error %s", good.Err)
	}
	if good.Prices.Len() != 1 {
		t.Error("AAPL data corrupted by sibling failure")
	}
}

func TestRunIsolatesErrors(t *testing.T) {
	prices := &stubPriceSource{errOn: map[string]bool{"MSFT": true}}
	o := newOrchestrator(prices, 4)

	out := o.Run(context.Background(), []string{"AAPL", "MSFT", "NVDA"}, 0)
	if !out["MSFT"].Failed() {
		t.Error("expected MSFT to fail")
	}
	if out["AAPL"].Failed() || out["NVDA"].Failed() {
		t.Error("healthy symbols must not fail")
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	prices := &stubPriceSource{delay: 20 * time.Millisecond}
	o := newOrchestrator(prices, 2)

	symbols := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	out := o.Run(context.Background(), symbols, 0)
	if len(out) != len(symbols) {
		t.Fatalf("expected %d results, got %d", len(symbols), len(out))
	}
	if peak := atomic.LoadInt32(&prices.peak); peak > 2 {
		t.Errorf("expected at most 2 concurrent fetches, observed %d", peak)
	}
}

func TestRunEmptyInput(t *testing.T) {
	o := newOrchestrator(&stubPriceSource{}, 2)
	out := o.Run(context.Background(), nil, 0)
	if len(out) != 0 {
		t.Fatalf("expected empty map, got %d entries", len(out))
	}
}

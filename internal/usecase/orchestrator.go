package usecase

import (
	"context"
	"fmt"
	"sync"

	"SentiPull/internal/domain/models"
	drepo "SentiPull/internal/domain/repository"
	xlogger "SentiPull/pkg/logger"
)

// Orchestrator fans per-symbol ingestion out over a bounded worker pool
// and collects results through a fan-in channel. One task owns one
// symbol end to end: price fetch, then social fetch. Failure of one
// symbol never cancels or delays another.
type Orchestrator struct {
	prices     drepo.PriceSource
	social     drepo.SocialSource
	maxWorkers int
	outputSize drepo.OutputSize
	tweetCap   int
	metrics    drepo.Metrics
	log        *xlogger.Logger
}

// NewOrchestrator creates an orchestrator. maxWorkers below 1 is
// clamped to 1.
func NewOrchestrator(
	prices drepo.PriceSource,
	social drepo.SocialSource,
	maxWorkers int,
	outputSize drepo.OutputSize,
	tweetCap int,
	metrics drepo.Metrics,
	log *xlogger.Logger,
) *Orchestrator {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Orchestrator{
		prices:     prices,
		social:     social,
		maxWorkers: maxWorkers,
		outputSize: outputSize,
		tweetCap:   tweetCap,
		metrics:    metrics,
		log:        log,
	}
}

// Run ingests every symbol and returns a map with exactly one entry per
// input symbol. tweetCap overrides the configured social cap when
// positive. Panics and unexpected errors inside a task degrade to an
// IngestionResult with Err set and empty data.
func (o *Orchestrator) Run(ctx context.Context, symbols []string, tweetCap int) map[string]*models.IngestionResult {
	if tweetCap <= 0 {
		tweetCap = o.tweetCap
	}
	out := make(map[string]*models.IngestionResult, len(symbols))
	if len(symbols) == 0 {
		return out
	}

	pending := make(chan string, len(symbols))
	for _, s := range symbols {
		pending <- s
	}
	close(pending)

	results := make(chan *models.IngestionResult, len(symbols))

	var wg sync.WaitGroup
	workers := o.maxWorkers
	if workers > len(symbols) {
		workers = len(symbols)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range pending {
				results <- o.ingestOne(ctx, symbol, tweetCap)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		out[r.Symbol] = r
		if o.metrics != nil {
			o.metrics.RecordSymbolResult(!r.Failed())
		}
		if r.Failed() {
			o.log.Warn("symbol ingestion failed",
				xlogger.String("symbol", r.Symbol),
				xlogger.String("error", r.Err),
			)
		}
	}

	// Symbols lost to a broken source still get an entry.
	for _, s := range symbols {
		if _, ok := out[s]; !ok {
			out[s] = emptyResult(s, "no result produced")
		}
	}
	return out
}

// ingestOne fetches one symbol's price and social data, converting any
// panic into a failed result so the run never aborts.
func (o *Orchestrator) ingestOne(ctx context.Context, symbol string, tweetCap int) (result *models.IngestionResult) {
	defer func() {
		if rec := recover(); rec != nil {
			o.log.Error("ingestion task panicked",
				xlogger.String("symbol", symbol),
				xlogger.Any("panic", rec),
			)
			result = emptyResult(symbol, fmt.Sprintf("panic: %v", rec))
		}
	}()

	prices, err := o.prices.DailySeries(ctx, symbol, o.outputSize)
	if err != nil {
		return emptyResult(symbol, fmt.Sprintf("price fetch: %v", err))
	}

	posts, err := o.social.RecentPosts(ctx, symbol, tweetCap)
	if err != nil {
		return emptyResult(symbol, fmt.Sprintf("social fetch: %v", err))
	}

	if prices == nil {
		prices = &models.PriceSeries{Symbol: symbol}
	}
	if posts == nil {
		posts = []models.SocialPost{}
	}

	o.log.Info("symbol ingested",
		xlogger.String("symbol", symbol),
		xlogger.Int("bars", prices.Len()),
		xlogger.Int("posts", len(posts)),
	)
	return &models.IngestionResult{Symbol: symbol, Prices: prices, Posts: posts}
}

func emptyResult(symbol, reason string) *models.IngestionResult {
	return &models.IngestionResult{
		Symbol: symbol,
		Prices: &models.PriceSeries{Symbol: symbol},
		Posts:  []models.SocialPost{},
		Err:    reason,
	}
}

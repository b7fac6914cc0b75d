package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"SentiPull/internal/domain/models"
	drepo "SentiPull/internal/domain/repository"
	"SentiPull/internal/service/cache"
	"SentiPull/internal/service/fetch"
	"SentiPull/internal/service/ratelimit"
	xhttp "SentiPull/pkg/http"
	xlogger "SentiPull/pkg/logger"
	"SentiPull/pkg/util"
)

const sourceName = "alphavantage"

// Client implements a PriceSource backed by the Alpha Vantage daily
// time-series endpoint.
type Client struct {
	baseURL string
	apiKey  string

	fetcher  *fetch.Fetcher
	cache    cache.BytesCache
	cacheTTL time.Duration
	limiter  *ratelimit.Limiter
	limCap   float64
	limRate  float64
	log      *xlogger.Logger
}

// Options bundles construction knobs; everything is fixed at build time.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	Cache      cache.BytesCache
	CacheTTL   time.Duration
	Limiter    *ratelimit.Limiter
	LimCap     float64
	LimRate    float64
	Metrics    drepo.Metrics
	Sleep      fetch.SleepFunc
}

// New creates a new Alpha Vantage price client.
func New(opts Options, log *xlogger.Logger) *Client {
	fopts := []fetch.Option{}
	if opts.Metrics != nil {
		fopts = append(fopts, fetch.WithMetrics(opts.Metrics))
	}
	if opts.Sleep != nil {
		fopts = append(fopts, fetch.WithSleep(opts.Sleep))
	}
	httpClient := xhttp.NewClient(xhttp.WithTimeout(opts.Timeout))
	return &Client{
		baseURL:  opts.BaseURL,
		apiKey:   opts.APIKey,
		fetcher:  fetch.New(sourceName, httpClient, opts.MaxRetries, opts.BaseDelay, log, fopts...),
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		limiter:  opts.Limiter,
		limCap:   opts.LimCap,
		limRate:  opts.LimRate,
		log:      log,
	}
}

// checkBody classifies provider-level errors hidden in 200 responses.
func checkBody(body []byte) (fetch.BodyVerdict, string) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return fetch.BodyPermanent, "malformed payload"
	}
	if _, ok := probe["Error Message"]; ok {
		return fetch.BodyPermanent, "provider rejected request"
	}
	if _, ok := probe["Note"]; ok {
		return fetch.BodyRateLimited, "soft rate limit note"
	}
	if _, ok := probe["Information"]; ok {
		return fetch.BodyRateLimited, "soft rate limit information"
	}
	return fetch.BodyOK, ""
}

// DailySeries fetches the daily OHLCV history for symbol. Every
// classified failure degrades to an empty series; the caller treats
// "gave up" the same as "nothing found".
func (c *Client) DailySeries(ctx context.Context, symbol string, size drepo.OutputSize) (*models.PriceSeries, error) {
	empty := &models.PriceSeries{Symbol: symbol}

	if !models.ValidSymbol(symbol) {
		c.log.Warn("invalid symbol, skipping fetch",
			xlogger.String("source", sourceName),
			xlogger.String("symbol", symbol),
			xlogger.String("kind", fetch.KindInvalidInput.String()),
		)
		return empty, nil
	}

	cacheKey := fmt.Sprintf("av:daily:%s:%s", symbol, size)
	if c.cache != nil {
		if b, ok, err := c.cache.GetBytes(cacheKey); err == nil && ok {
			if series, perr := parseSeries(symbol, b); perr == nil {
				return series, nil
			}
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, sourceName, c.limCap, c.limRate); err != nil {
			return empty, nil
		}
	}

	req := &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/query",
		QueryParams: map[string][]string{
			"function":   {"TIME_SERIES_DAILY"},
			"symbol":     {symbol},
			"outputsize": {string(size)},
			"apikey":     {c.apiKey},
		},
	}

	payload, kind := c.fetcher.Fetch(ctx, req, checkBody)
	if kind != fetch.KindNone {
		return empty, nil
	}

	series, err := parseSeries(symbol, payload)
	if err != nil {
		c.log.Warn("unparseable price payload",
			xlogger.String("symbol", symbol),
			xlogger.Error(err),
		)
		return empty, nil
	}

	if c.cache != nil {
		_ = c.cache.SetBytes(cacheKey, payload, c.cacheTTL)
	}
	return series, nil
}

type rawBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type rawSeries struct {
	Series map[string]rawBar `json:"Time Series (Daily)"`
}

// parseSeries decodes the Alpha Vantage payload into a date-ascending
// PriceSeries.
func parseSeries(symbol string, payload []byte) (*models.PriceSeries, error) {
	var raw rawSeries
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode series: %w", err)
	}
	if len(raw.Series) == 0 {
		return &models.PriceSeries{Symbol: symbol}, nil
	}

	dates := make([]string, 0, len(raw.Series))
	for d := range raw.Series {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	points := make([]models.PricePoint, 0, len(dates))
	for _, d := range dates {
		date, ok := util.ParseDate(d)
		if !ok {
			return nil, fmt.Errorf("bad date key %q", d)
		}
		bar := raw.Series[d]
		point := models.PricePoint{Date: date}
		var err error
		if point.Open, err = strconv.ParseFloat(bar.Open, 64); err != nil {
			return nil, fmt.Errorf("bad open for %s: %w", d, err)
		}
		if point.High, err = strconv.ParseFloat(bar.High, 64); err != nil {
			return nil, fmt.Errorf("bad high for %s: %w", d, err)
		}
		if point.Low, err = strconv.ParseFloat(bar.Low, 64); err != nil {
			return nil, fmt.Errorf("bad low for %s: %w", d, err)
		}
		if point.Close, err = strconv.ParseFloat(bar.Close, 64); err != nil {
			return nil, fmt.Errorf("bad close for %s: %w", d, err)
		}
		if point.Volume, err = strconv.ParseFloat(bar.Volume, 64); err != nil {
			return nil, fmt.Errorf("bad volume for %s: %w", d, err)
		}
		points = append(points, point)
	}

	return &models.PriceSeries{Symbol: symbol, Points: points}, nil
}

package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	drepo "SentiPull/internal/domain/repository"
	xhttp "SentiPull/pkg/http"
	xlogger "SentiPull/pkg/logger"
)

// SleepFunc waits for d or until ctx is cancelled. Injected so tests can
// count backoff delays instead of waiting them out.
type SleepFunc func(ctx context.Context, d time.Duration) error

func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Fetcher issues one logical request with retry/backoff and error
// classification. It is shared by the price and social clients; all
// knobs are fixed at construction.
type Fetcher struct {
	source     string
	client     *xhttp.Client
	maxRetries int
	baseDelay  time.Duration
	sleep      SleepFunc
	log        *xlogger.Logger
	metrics    drepo.Metrics
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithSleep replaces the backoff sleep; tests use this.
func WithSleep(s SleepFunc) Option {
	return func(f *Fetcher) { f.sleep = s }
}

// WithMetrics attaches an attempt/retry recorder.
func WithMetrics(m drepo.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// New creates a Fetcher for one source. maxRetries bounds the total
// number of attempts; baseDelay is the first backoff sleep, doubled
// after every transient failure.
func New(source string, client *xhttp.Client, maxRetries int, baseDelay time.Duration, log *xlogger.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:     source,
		client:     client,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		sleep:      ctxSleep,
		log:        log,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.maxRetries < 1 {
		f.maxRetries = 1
	}
	return f
}

// Fetch runs the request until it succeeds, fails permanently, or the
// transient budget is exhausted. The returned payload is nil for every
// kind except KindNone; "gave up" and "nothing found" look identical to
// the caller.
func (f *Fetcher) Fetch(ctx context.Context, req *xhttp.RequestOptions, check BodyCheck) ([]byte, ErrorKind) {
	delay := f.baseDelay

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		payload, kind, reason, retry := f.attempt(ctx, req, check, attempt)
		if !retry {
			return payload, kind
		}

		if attempt == f.maxRetries {
			f.log.Warn("fetch retries exhausted",
				xlogger.String("source", f.source),
				xlogger.Int("attempts", attempt),
				xlogger.String("reason", reason),
			)
			return nil, KindTransient
		}
		f.recordRetry()
		if err := f.sleep(ctx, delay); err != nil {
			f.log.Warn("fetch cancelled during backoff",
				xlogger.String("source", f.source),
				xlogger.Int("attempt", attempt),
			)
			return nil, KindTransient
		}
		delay *= 2
	}
	return nil, KindTransient
}

// attempt performs one network call. retry=true means the failure was
// transient and the budget decides what happens next.
func (f *Fetcher) attempt(ctx context.Context, req *xhttp.RequestOptions, check BodyCheck, attempt int) (payload []byte, kind ErrorKind, reason string, retry bool) {
	resp, err := f.client.SendRequest(ctx, req)
	if err != nil {
		// Timeouts, connection resets, DNS: all transient.
		f.logAttempt(attempt, 0, "retry", err.Error())
		f.recordAttempt("network_error")
		return nil, KindTransient, err.Error(), true
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		f.logAttempt(attempt, resp.StatusCode, "retry", readErr.Error())
		f.recordAttempt("read_error")
		return nil, KindTransient, readErr.Error(), true
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if check != nil {
			verdict, why := check(body)
			switch verdict {
			case BodyPermanent:
				f.logAttempt(attempt, resp.StatusCode, "abort", why)
				f.recordAttempt("permanent")
				return nil, KindPermanent, why, false
			case BodyRateLimited:
				f.logAttempt(attempt, resp.StatusCode, "retry", why)
				f.recordAttempt("rate_limited")
				return nil, KindTransient, why, true
			}
		}
		f.logAttempt(attempt, resp.StatusCode, "ok", "")
		f.recordAttempt("ok")
		return body, KindNone, "", false

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		f.logAttempt(attempt, resp.StatusCode, "retry", "")
		f.recordAttempt("rate_limited")
		return nil, KindTransient, http.StatusText(resp.StatusCode), true

	default:
		// 400, 404 and friends: replay cannot change the answer.
		f.logAttempt(attempt, resp.StatusCode, "abort", "")
		f.recordAttempt("permanent")
		return nil, KindPermanent, http.StatusText(resp.StatusCode), false
	}
}

func (f *Fetcher) logAttempt(attempt, status int, action, reason string) {
	fields := []xlogger.Field{
		xlogger.String("source", f.source),
		xlogger.Int("status", status),
		xlogger.Int("attempt", attempt),
		xlogger.String("action", action),
	}
	if reason != "" {
		fields = append(fields, xlogger.String("reason", reason))
	}
	f.log.Info("fetch attempt", fields...)
}

func (f *Fetcher) recordAttempt(outcome string) {
	if f.metrics != nil {
		f.metrics.RecordFetchAttempt(f.source, outcome)
	}
}

func (f *Fetcher) recordRetry() {
	if f.metrics != nil {
		f.metrics.RecordRetry(f.source)
	}
}

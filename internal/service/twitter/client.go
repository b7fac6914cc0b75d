package twitter

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"SentiPull/internal/domain/models"
	drepo "SentiPull/internal/domain/repository"
	"SentiPull/internal/service/fetch"
	"SentiPull/internal/service/ratelimit"
	xhttp "SentiPull/pkg/http"
	xlogger "SentiPull/pkg/logger"
)

const sourceName = "twitter"

// Client implements a SocialSource over a recent-search REST endpoint
// with next_token pagination.
type Client struct {
	baseURL string
	token   string

	fetcher   *fetch.Fetcher
	paginator *fetch.Paginator
	limiter   *ratelimit.Limiter
	limCap    float64
	limRate   float64
	metrics   drepo.Metrics
	log       *xlogger.Logger
}

// Options bundles construction knobs.
type Options struct {
	BaseURL    string
	Token      string
	PageSize   int
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	Limiter    *ratelimit.Limiter
	LimCap     float64
	LimRate    float64
	Metrics    drepo.Metrics
	Sleep      fetch.SleepFunc
}

// New creates a new social client.
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
		baseURL:   opts.BaseURL,
		token:     opts.Token,
		fetcher:   fetch.New(sourceName, httpClient, opts.MaxRetries, opts.BaseDelay, log, fopts...),
		paginator: fetch.NewPaginator(opts.PageSize, log),
		limiter:   opts.Limiter,
		limCap:    opts.LimCap,
		limRate:   opts.LimRate,
		metrics:   opts.Metrics,
		log:       log,
	}
}

type rawPost struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type searchPage struct {
	Data []rawPost `json:"data"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func checkBody(body []byte) (fetch.BodyVerdict, string) {
	var page searchPage
	if err := json.Unmarshal(body, &page); err != nil {
		return fetch.BodyPermanent, "malformed payload"
	}
	if len(page.Errors) > 0 {
		return fetch.BodyPermanent, page.Errors[0].Message
	}
	return fetch.BodyOK, ""
}

// RecentPosts fetches up to cap posts mentioning ticker, newest pages
// first, following continuation tokens. Any failure yields an empty
// slice; partial pages are discarded.
func (c *Client) RecentPosts(ctx context.Context, ticker string, cap int) ([]models.SocialPost, error) {
	if !models.ValidTicker(ticker) {
		c.log.Warn("invalid ticker, skipping fetch",
			xlogger.String("source", sourceName),
			xlogger.String("ticker", ticker),
			xlogger.String("kind", fetch.KindInvalidInput.String()),
		)
		return []models.SocialPost{}, nil
	}

	posts := c.paginator.Collect(ctx, cap, func(ctx context.Context, pageSize int, token string) ([]models.SocialPost, string, fetch.ErrorKind) {
		return c.fetchPage(ctx, ticker, pageSize, token)
	})

	if c.metrics != nil {
		c.metrics.RecordPostsIngested(ticker, len(posts))
	}
	return posts, nil
}

func (c *Client) fetchPage(ctx context.Context, ticker string, pageSize int, token string) ([]models.SocialPost, string, fetch.ErrorKind) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, sourceName, c.limCap, c.limRate); err != nil {
			return nil, "", fetch.KindTransient
		}
	}

	params := map[string][]string{
		"query":       {"$" + ticker + " lang:en"},
		"max_results": {strconv.Itoa(pageSize)},
		"tweet.fields": {
			"created_at",
		},
	}
	if token != "" {
		params["next_token"] = []string{token}
	}

	req := &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/2/tweets/search/recent",
		Headers:     map[string]string{"Authorization": "Bearer " + c.token},
		QueryParams: params,
	}

	payload, kind := c.fetcher.Fetch(ctx, req, checkBody)
	if kind != fetch.KindNone {
		return nil, "", kind
	}

	var page searchPage
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, "", fetch.KindPermanent
	}

	items := make([]models.SocialPost, 0, len(page.Data))
	for _, p := range page.Data {
		created, err := time.Parse(time.RFC3339, p.CreatedAt)
		if err != nil {
			c.log.Debug("skipping post with bad timestamp",
				xlogger.String("id", p.ID),
				xlogger.String("created_at", p.CreatedAt),
			)
			continue
		}
		items = append(items, models.SocialPost{
			ID:        p.ID,
			Text:      p.Text,
			CreatedAt: created.UTC(),
		})
	}
	return items, page.Meta.NextToken, fetch.KindNone
}

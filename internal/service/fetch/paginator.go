package fetch

import (
	"context"

	"SentiPull/internal/domain/models"
	xlogger "SentiPull/pkg/logger"
)

// pageState drives the pagination loop explicitly instead of burying the
// stop conditions in nested breaks.
type pageState int

const (
	stateHasMore pageState = iota
	stateCapped
	stateExhausted
	stateFailed
)

// PageFunc fetches one page. token is empty for the first page; pageSize
// is the number of items this page may return at most.
type PageFunc func(ctx context.Context, pageSize int, token string) (items []models.SocialPost, next string, kind ErrorKind)

// Paginator assembles a capped list of posts by following continuation
// tokens. Error semantics are all-or-nothing: any client-level failure
// discards partial pages and yields an empty list. The cap is
// best-effort truncation.
type Paginator struct {
	maxPageSize int
	log         *xlogger.Logger
}

// NewPaginator creates a paginator whose page requests never exceed
// maxPageSize items.
func NewPaginator(maxPageSize int, log *xlogger.Logger) *Paginator {
	if maxPageSize < 1 {
		maxPageSize = 100
	}
	return &Paginator{maxPageSize: maxPageSize, log: log}
}

// Collect pages through fetch until the cap is reached, the source is
// exhausted, or a page fails.
func (p *Paginator) Collect(ctx context.Context, cap int, fetch PageFunc) []models.SocialPost {
	if cap <= 0 {
		return []models.SocialPost{}
	}

	var (
		acc   []models.SocialPost
		token string
		state = stateHasMore
	)

	for state == stateHasMore {
		pageSize := cap - len(acc)
		if pageSize > p.maxPageSize {
			pageSize = p.maxPageSize
		}

		items, next, kind := fetch(ctx, pageSize, token)
		if kind != KindNone {
			state = stateFailed
			break
		}

		acc = append(acc, items...)

		// Stop conditions, checked in order.
		switch {
		case len(items) == 0:
			state = stateExhausted
		case len(acc) >= cap:
			acc = acc[:cap]
			state = stateCapped
		case next == "":
			state = stateExhausted
		default:
			token = next
		}
	}

	if state == stateFailed {
		p.log.Warn("pagination aborted, discarding partial pages",
			xlogger.Int("accumulated", len(acc)),
		)
		return []models.SocialPost{}
	}

	p.log.Debug("pagination done",
		xlogger.Int("items", len(acc)),
		xlogger.Bool("capped", state == stateCapped),
	)
	return acc
}

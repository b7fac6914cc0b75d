package api

import (
	"context"
	"sync/atomic"

	models "SentiPull/internal/domain/models"
	"SentiPull/internal/usecase"
	xhttp "SentiPull/pkg/http"
	xlogger "SentiPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// FeaturesEchoHandler exposes the pipeline over HTTP: trigger a run,
// read the latest run report, and read per-symbol feature rows.
type FeaturesEchoHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.Pipeline
	symbols  []string

	running int32
}

// NewFeaturesEchoHandler creates a handler. symbols is the configured
// default universe used when a run request names none.
func NewFeaturesEchoHandler(logger *xlogger.Logger, pipeline *usecase.Pipeline, symbols []string) *FeaturesEchoHandler {
	return &FeaturesEchoHandler{logger: logger, pipeline: pipeline, symbols: symbols}
}

func (h *FeaturesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/runs", h.TriggerRun)
	g.GET("/runs/latest", h.LatestRun)
	g.GET("/features/:symbol", h.Features)
}

// TriggerRun starts one pipeline pass in the background and returns
// 202. Only one run may be in flight at a time; a second trigger while
// running returns 409.
func (h *FeaturesEchoHandler) TriggerRun(c echo.Context) error {
	req := &models.RunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = h.symbols
	}
	if len(symbols) == 0 {
		return xhttp.BadRequestResponse(c, "no symbols requested and none configured")
	}

	if !atomic.CompareAndSwapInt32(&h.running, 0, 1) {
		return xhttp.ConflictResponse(c, "a run is already in progress")
	}

	go func() {
		defer atomic.StoreInt32(&h.running, 0)
		// Detached from the request context: the run outlives the 202.
		h.pipeline.Run(context.Background(), symbols, req.TweetCap)
	}()

	return xhttp.AcceptedResponse(c, map[string]interface{}{
		"symbols":   symbols,
		"tweet_cap": req.TweetCap,
	})
}

// LatestRun returns the most recent run report.
func (h *FeaturesEchoHandler) LatestRun(c echo.Context) error {
	report := h.pipeline.LatestReport()
	if report == nil {
		return xhttp.NotFoundResponse(c, "no run has completed yet")
	}
	return xhttp.SuccessResponse(c, report)
}

// Features returns the latest run's feature rows for one symbol.
func (h *FeaturesEchoHandler) Features(c echo.Context) error {
	req := &models.FeaturesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, ok := h.pipeline.FeaturesFor(req.Symbol, req.Limit)
	if !ok {
		return xhttp.NotFoundResponse(c, "symbol not present in the latest run")
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol": req.Symbol,
		"rows":   rows,
	})
}

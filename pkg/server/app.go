package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	drepo "SentiPull/internal/domain/repository"
	"SentiPull/internal/usecase"
	"SentiPull/pkg/config"
	xhttp "SentiPull/pkg/http"
	applogger "SentiPull/pkg/logger"
)

// App encapsulates the application lifecycle: HTTP server, optional
// startup pipeline run, and graceful teardown of external clients.
type App struct {
	cfg        *config.Config
	pipeline   *usecase.Pipeline
	handler    xhttp.Handler
	publisher  drepo.FeaturePublisher
	cache      io.Closer
	httpServer *xhttp.Server
}

// New creates a new App instance. publisher and cache may be nil when
// the corresponding backends are disabled.
func New(
	cfg *config.Config,
	pipeline *usecase.Pipeline,
	handler xhttp.Handler,
	publisher drepo.FeaturePublisher,
	cache io.Closer,
) *App {
	return &App{
		cfg:       cfg,
		pipeline:  pipeline,
		handler:   handler,
		publisher: publisher,
		cache:     cache,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := applogger.New(&applogger.Config{
		Level:  a.cfg.Log.Level,
		Format: a.cfg.Log.Format,
		Output: a.cfg.Log.Output,
	})
	if err != nil {
		return err
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	a.httpServer.Echo().GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	if a.cfg.Pipeline.RunOnStartup {
		go func() {
			report := a.pipeline.Run(ctx, a.cfg.Pipeline.Symbols, a.cfg.Twitter.TweetCap)
			l.Info("startup run finished",
				applogger.Int("succeeded", report.Succeeded),
				applogger.Int("failed", report.Failed),
			)
		}()
		l.Info("startup pipeline run scheduled", applogger.Strings("symbols", a.cfg.Pipeline.Symbols))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx, l)
}

// shutdown stops the HTTP server then closes external clients.
func (a *App) shutdown(ctx context.Context, l *applogger.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}

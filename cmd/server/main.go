// Command server runs the content publishing backend: the approval queue,
// draft book, and tip feed behind an HTTP API, plus the scheduled dispatcher
// that pushes approved content to the platforms.
//
// Configuration is environment-only (see internal/config). Platform
// credentials in particular are injected through the environment and exist
// nowhere else; the server starts in dry-run mode unless PUBLISH_DRY_RUN is
// explicitly disabled.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/courtlab/go-publish-backend/internal/config"
	"github.com/courtlab/go-publish-backend/internal/dispatch"
	httpapi "github.com/courtlab/go-publish-backend/internal/http"
	"github.com/courtlab/go-publish-backend/internal/observability"
	"github.com/courtlab/go-publish-backend/internal/publish"
	"github.com/courtlab/go-publish-backend/internal/repo"
	"github.com/courtlab/go-publish-backend/internal/services"
	"github.com/courtlab/go-publish-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		otelCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(otelCtx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	store := repo.NewStore(cfg.DataDir)
	registry := publish.NewRegistry(cfg.Twitter, cfg.Graph)

	disp := dispatch.New(
		services.NewQueueService(store, cfg.ApproverName),
		services.NewTipService(store),
		registry,
		store,
		cfg.DryRun,
		cfg.PublishTimeout,
		log.With().Str("component", "dispatcher").Logger(),
	)
	if cfg.DryRun {
		log.Warn().Msg("dry-run mode: nothing will be posted to any platform")
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, store, disp, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	// Background dispatch loop, opt-in via DISPATCH_INTERVAL.
	if cfg.DispatchInterval > 0 {
		go disp.Loop(ctx, cfg.DispatchInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

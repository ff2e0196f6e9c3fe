package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AngelCh415/marketing-intel/internal/config"
	"github.com/AngelCh415/marketing-intel/internal/httpx"
	"github.com/AngelCh415/marketing-intel/internal/ingest"
	"github.com/AngelCh415/marketing-intel/internal/metrics"
	"github.com/AngelCh415/marketing-intel/internal/store"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("config error", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	st := store.NewMemoryStore()
	etl := ingest.NewETL(cl, st, logger, cfg)
	mSvc := metrics.NewService(st, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.SourceURLs()) > 0 {
		go func() {
			errs, err := etl.FetchAll(ctx)
			if err != nil {
				logger.Warn("initial fetch skipped", slog.String("err", err.Error()))
				return
			}
			logger.Info("initial fetch complete", slog.Int("failed", len(errs)))
		}()
	}

	r := httpx.NewRouter(logger, etl, st, mSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

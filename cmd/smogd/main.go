// Command smogd ingests hourly district observations from Kafka, keeps the
// trailing window in memory, and periodically publishes smog correlation
// reports.
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

	httpadapter "github.com/jawad201-cmd/punjab-smog-pipline/internal/adapter/http"
	kafkaadapter "github.com/jawad201-cmd/punjab-smog-pipline/internal/adapter/kafka"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/analysis"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/config"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/geo"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/observability"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/pipeline"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/scheduler"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	registry := geo.NewRegistry(cfg.RegistrySource(), cfg.NeighborK)
	ix, err := registry.Index()
	if err != nil {
		logger.Error("failed to load district registry", "error", err)
		os.Exit(1)
	}
	logger.Info("district registry loaded", "districts", ix.Len(), "neighbor_k", ix.K())

	engine, err := analysis.NewEngine(registry, cfg.Analysis())
	if err != nil {
		logger.Error("invalid analysis config", "error", err)
		os.Exit(1)
	}

	// Hourly readings are kept one day past the window so the oldest day
	// in each run is complete.
	observations := store.NewMemoryStore(cfg.AnalysisWindow + 24*time.Hour)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(registry, logger)

	p := pipeline.New(reader, transformer, observations, logger, metrics, cfg.BatchSize)

	sched := scheduler.New(observations, engine, writer, scheduler.Options{
		Window:   cfg.AnalysisWindow,
		Interval: cfg.AnalysisInterval,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ready:        p,
		Reports:      sched,
		Observations: observations,
		Registry:     registry,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ingest pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	// SIGHUP reloads the district registry, as does POST /v1/registry/reload.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := registry.Reload(); err != nil {
					logger.Error("district registry reload failed", "error", err)
					continue
				}
				if ix, err := registry.Index(); err == nil {
					logger.Info("district registry reloaded", "districts", ix.Len())
				}
			}
		}
	}()

	if err := sched.Start(); err != nil {
		logger.Error("failed to start analysis scheduler", "error", err)
		stop()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

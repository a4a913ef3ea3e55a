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

	"github.com/joho/godotenv"

	grpcadapter "github.com/couchcryptid/firesight-detection-service/internal/adapter/grpc"
	httpadapter "github.com/couchcryptid/firesight-detection-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/firesight-detection-service/internal/adapter/kafka"
	"github.com/couchcryptid/firesight-detection-service/internal/adapter/mapbox"
	"github.com/couchcryptid/firesight-detection-service/internal/adapter/postgres"
	"github.com/couchcryptid/firesight-detection-service/internal/adapter/websocket"
	"github.com/couchcryptid/firesight-detection-service/internal/config"
	"github.com/couchcryptid/firesight-detection-service/internal/domain"
	"github.com/couchcryptid/firesight-detection-service/internal/observability"
	"github.com/couchcryptid/firesight-detection-service/internal/pipeline"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger, metrics)
	hub := websocket.NewHub(logger, metrics)
	loaders := pipeline.FanoutLoader{writer, hub}

	// Optional alert archive (DATABASE_URL).
	if cfg.DatabaseURL != "" {
		archive, closeArchive, err := openArchive(ctx, cfg.DatabaseURL, logger, metrics)
		if err != nil {
			logger.Error("alert archive unavailable", "error", err)
			os.Exit(1)
		}
		defer closeArchive()
		loaders = append(loaders, archive)
		logger.Info("alert archive enabled")
	}

	analyzer := pipeline.NewAnalyzer(cfg.Settings, nil, geocoder, logger, metrics, nil)
	window := pipeline.NewObservationWindow(cfg.ObservationWindow)
	results := pipeline.NewResults(analyzer, window, cfg.ResultCacheTTL, metrics)

	p := pipeline.New(reader, pipeline.NewTransformer(), analyzer, loaders, window, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, results, hub, logger)

	var grpcSrv *grpcadapter.Server
	if cfg.GRPCAddr != "" {
		grpcSrv, err = grpcadapter.NewServer(cfg.GRPCAddr, p, logger)
		if err != nil {
			logger.Error("failed to start grpc server", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := grpcSrv.Start(); err != nil {
				logger.Error("grpc server error", "error", err)
			}
		}()
		go grpcSrv.WatchReadiness(ctx, 5*time.Second)
	}

	go hub.Run(ctx)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start detection pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if grpcSrv != nil {
		grpcSrv.Shutdown(shutdownCtx)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func openArchive(ctx context.Context, databaseURL string, logger *slog.Logger, metrics *observability.Metrics) (*postgres.Archive, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	archive := postgres.NewArchive(pool, logger, metrics)
	if err := archive.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return archive, pool.Close, nil
}

// Command etl runs the weather station batch pipeline: extract daily
// temperature records (from the climate bulk service or previously saved raw
// CSVs), validate them, join station metadata, aggregate to station-months
// with year-over-year deltas, and load the result into the configured sinks.
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

	"weather-station-etl/internal/adapter/climate"
	"weather-station-etl/internal/adapter/csvfile"
	httpadapter "weather-station-etl/internal/adapter/http"
	kafkaadapter "weather-station-etl/internal/adapter/kafka"
	"weather-station-etl/internal/adapter/sqlite"
	"weather-station-etl/internal/config"
	"weather-station-etl/internal/observability"
	"weather-station-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Extraction source (feature-flagged via FETCH_ENABLED).
	var extractor pipeline.RecordExtractor
	if cfg.FetchEnabled {
		client := climate.NewClient(cfg.ClimateBaseURL, cfg.FetchTimeout, cfg.FetchRateLimit, logger, metrics)
		extractor = climate.NewExtractor(client, cfg.StationIDs, cfg.Years, cfg.RawDataDir, logger)
		logger.Info("bulk data fetching enabled",
			"stations", cfg.StationIDs, "years", cfg.Years, "rate_limit", cfg.FetchRateLimit)
	} else {
		extractor = csvfile.NewDirectorySource(cfg.RawDataDir, logger)
		logger.Info("bulk data fetching disabled, reading raw files", "dir", cfg.RawDataDir)
	}

	metadata := csvfile.NewGeonamesFile(cfg.GeonamesFile)

	// Sinks. The CSV table is always written; SQLite and Kafka are optional.
	loaders := []pipeline.AggregateLoader{
		csvfile.NewMonthlyWriter(cfg.OutputDir, cfg.OutputFile, logger),
	}

	var store *sqlite.Store
	if cfg.SQLitePath != "" {
		store, err = sqlite.NewStore(cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("failed to open sqlite store", "error", err)
			os.Exit(1)
		}
		loaders = append(loaders, store)
		logger.Info("sqlite sink enabled", "path", cfg.SQLitePath)
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(extractor, metadata, loaders, cfg.ValidateConfig(), logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the pipeline, then repeat on the configured interval. An interval
	// of zero means run once and exit.
	runErr := make(chan error, 1)
	go func() {
		if err := p.Run(ctx); err != nil {
			runErr <- err
			return
		}
		if cfg.RunInterval == 0 {
			runErr <- nil
			return
		}

		ticker := time.NewTicker(cfg.RunInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.Run(ctx); err != nil {
					logger.Error("pipeline run failed", "error", err)
				}
			}
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-runErr:
		if err != nil {
			logger.Error("pipeline error", "error", err)
			exitCode = 1
		} else {
			logger.Info("single run complete")
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("sqlite store close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	os.Exit(exitCode)
}

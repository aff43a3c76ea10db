// Package main wires together the vacancy harvester binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vkarmanov/vacancy-harvester/internal/api"
	"github.com/vkarmanov/vacancy-harvester/internal/config"
	"github.com/vkarmanov/vacancy-harvester/internal/fetcher/httpjson"
	"github.com/vkarmanov/vacancy-harvester/internal/frontier"
	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
	"github.com/vkarmanov/vacancy-harvester/internal/id/uuid"
	"github.com/vkarmanov/vacancy-harvester/internal/logging"
	"github.com/vkarmanov/vacancy-harvester/internal/metrics"
	pubsubpublisher "github.com/vkarmanov/vacancy-harvester/internal/publish/pubsub"
	"github.com/vkarmanov/vacancy-harvester/internal/sink/badger"
	memorysink "github.com/vkarmanov/vacancy-harvester/internal/sink/memory"
	"github.com/vkarmanov/vacancy-harvester/internal/sink/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	runID, err := uuid.New().NewID()
	if err != nil {
		logger.Fatal("run id generation failed", zap.Error(err))
	}
	logger = logger.With(zap.String("run_id", runID))

	sink, err := buildSink(ctx, cfg)
	if err != nil {
		logger.Fatal("sink init failed", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sink.Close(closeCtx); err != nil {
			logger.Warn("sink close failed", zap.Error(err))
		}
	}()

	var publisher harvest.Publisher
	if cfg.PubSub.Enabled {
		p, err := pubsubpublisher.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			logger.Fatal("pubsub init failed", zap.Error(err))
		}
		defer func() {
			if err := p.Close(); err != nil {
				logger.Warn("pubsub close failed", zap.Error(err))
			}
		}()
		publisher = p
	}

	fetcher := httpjson.New(httpjson.Config{
		UserAgent:      cfg.Harvester.UserAgent,
		Timeout:        cfg.HTTPTimeout(),
		MaxRetries:     cfg.HTTP.MaxRetries,
		BackoffInitial: cfg.BackoffInitial(),
		BackoffMax:     cfg.BackoffMax(),
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateBurst:      cfg.HTTP.RateBurst,
	})

	tally := &harvest.Tally{}
	driver := frontier.New(fetcher, sink, publisher, frontier.Config{
		BaseURL:         cfg.Harvester.BaseURL,
		CountryAreaCode: cfg.Harvester.CountryAreaCode,
		PerPage:         cfg.Harvester.PerPage,
		Workers:         cfg.Harvester.MaxConcurrentFetches,
		ShuffleAreas:    cfg.Harvester.ShuffleAreas,
	}, tally, logger.Named("frontier"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(tally, logger.Named("api")).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("status server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server failed", zap.Error(err))
		}
	}()

	logger.Info("harvest starting",
		zap.String("base_url", cfg.Harvester.BaseURL),
		zap.String("country_area_code", cfg.Harvester.CountryAreaCode),
		zap.Int("workers", cfg.Harvester.MaxConcurrentFetches),
	)
	start := time.Now()
	snapshot := driver.Run(ctx)
	logger.Info("harvest finished",
		append(snapshot.Fields(), zap.Duration("elapsed", time.Since(start)))...,
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("status server shutdown failed", zap.Error(err))
	}
}

func buildSink(ctx context.Context, cfg config.Config) (harvest.Sink, error) {
	switch cfg.Sink.Provider {
	case "postgres":
		return postgres.NewStore(ctx, postgres.Config{
			DSN:      cfg.Sink.Postgres.DSN,
			Table:    cfg.Sink.Postgres.Table,
			MaxConns: cfg.Sink.Postgres.MaxConns,
			MinConns: cfg.Sink.Postgres.MinConns,
		})
	case "badger":
		return badger.NewStore(cfg.Sink.Badger.Path)
	case "memory":
		return memorysink.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown sink provider %q", cfg.Sink.Provider)
	}
}

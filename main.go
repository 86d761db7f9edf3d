package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"yt-harvest/pkg/app"
	"yt-harvest/pkg/config"
	"yt-harvest/pkg/logging"
	"yt-harvest/pkg/metrics"
	"yt-harvest/pkg/server"
)

func main() {
	addr := flag.String("addr", "", "Listen address (overrides YTH_HTTP_ADDR)")
	logLevel := flag.String("log-level", "", "Log level (overrides YTH_LOG_LEVEL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("load config")
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log := logging.Init(cfg.LogLevel, "yt-harvest")

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal().Err(err).Msg("register metrics")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongo, err := app.ConnectMongo(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("staging store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongo.Close(closeCtx)
	}()

	warehouse, err := app.ConnectWarehouse(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("warehouse")
	}
	defer warehouse.Close()

	harvester, err := app.NewHarvester(cfg, mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("harvester")
	}
	migrator, err := app.NewReplicator(mongo, warehouse)
	if err != nil {
		log.Fatal().Err(err).Msg("migrator")
	}
	queries, cache := app.NewAnalytics(ctx, cfg, warehouse)
	defer cache.Close()

	checks := app.WarehouseChecks(warehouse)
	checks["mongo"] = mongo.Ping
	if cache.Enabled() {
		checks["redis"] = cache.Ping
	}

	srv, err := server.New(server.Config{
		Harvester: harvester,
		Channels:  mongo,
		Migrator:  migrator,
		Queries:   queries,
		Cache:     cache,
		Checks:    checks,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("server")
	}

	if err := srv.Run(ctx, cfg.HTTPAddr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}

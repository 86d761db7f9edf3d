// Package app builds the long-lived dependencies shared by the CLI and the
// HTTP server from a config.Config.
package app

import (
	"context"
	"fmt"
	"time"

	"yt-harvest/pkg/analytics"
	"yt-harvest/pkg/cache"
	"yt-harvest/pkg/config"
	"yt-harvest/pkg/db"
	"yt-harvest/pkg/harvest"
	"yt-harvest/pkg/parser"
	"yt-harvest/pkg/replication"
	"yt-harvest/pkg/server"
	"yt-harvest/pkg/youtube"
)

const connectTimeout = 15 * time.Second

// ConnectMongo opens the staging document store.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*db.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client := db.NewClient(cfg.MongoURI, cfg.MongoDatabase)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return client, nil
}

// ConnectWarehouse opens the relational store selected by the config.
func ConnectWarehouse(ctx context.Context, cfg *config.Config) (db.RelationalClient, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := db.OpenRelational(ctx, db.RelationalConfig{
		DSN:              cfg.SQLDSN,
		SupabaseURL:      cfg.SupabaseURL,
		SupabaseKey:      cfg.SupabaseKey,
		SupabasePassword: cfg.SupabasePassword,
	})
	if err != nil {
		return nil, fmt.Errorf("connect warehouse: %w", err)
	}
	return client, nil
}

// NewHarvester builds the harvest service against the live API and the
// channel upload feeds. It requires an API key.
func NewHarvester(cfg *config.Config, store harvest.Store) (*harvest.Service, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	api, err := youtube.NewClient(youtube.Config{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.APIBaseURL,
		RequestsPerSecond: cfg.APIRequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("youtube client: %w", err)
	}

	return harvest.NewService(harvest.Config{
		API:             api,
		Store:           store,
		Feed:            parser.NewRSSParser(),
		CommentPageSize: int64(cfg.CommentPageSize),
	})
}

// NewReplicator builds the migrator from the staging store to the warehouse.
func NewReplicator(source replication.Source, warehouse db.DBProvider) (*replication.Replicator, error) {
	return replication.NewReplicator(replication.Config{
		Source: source,
		Target: warehouse,
	})
}

// NewAnalytics builds the query service with an optional Redis cache.
// The returned cache must be closed by the caller.
func NewAnalytics(ctx context.Context, cfg *config.Config, warehouse db.DBProvider) (*analytics.Service, *cache.Cache) {
	c := cache.New(ctx, cfg.RedisURL, cfg.CacheTTL)
	return analytics.NewService(warehouse, c), c
}

// WarehouseChecks returns the health checks for the relational store: a ping
// on the direct connection and, for a Supabase project with an API key, a
// REST read of the channels table.
func WarehouseChecks(warehouse db.RelationalClient) map[string]server.Check {
	checks := map[string]server.Check{
		"sql": func(ctx context.Context) error {
			return warehouse.DB().PingContext(ctx)
		},
	}
	if sb, ok := warehouse.(*db.SupabaseClient); ok && sb.HasREST() {
		checks["supabase_rest"] = sb.PingREST
	}
	return checks
}

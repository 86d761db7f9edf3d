// Package server exposes harvesting, migration and analytics over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"yt-harvest/pkg/analytics"
	"yt-harvest/pkg/harvest"
	"yt-harvest/pkg/logging"
	"yt-harvest/pkg/replication"
)

// Harvester runs harvests. *harvest.Service satisfies it.
type Harvester interface {
	Harvest(ctx context.Context, channelID string) (*harvest.Report, error)
	Refresh(ctx context.Context, channelID string) (*harvest.Report, error)
	Stale(ctx context.Context, channelID string) (*harvest.StaleReport, error)
}

// ChannelLister lists staged channel names. *db.Client satisfies it.
type ChannelLister interface {
	ChannelNames(ctx context.Context) ([]string, error)
}

// Migrator copies a staged channel to the warehouse. *replication.Replicator satisfies it.
type Migrator interface {
	Migrate(ctx context.Context, channelName string, opts replication.Options) (*replication.MigrationReport, error)
}

// Querier runs named analytics queries. *analytics.Service satisfies it.
type Querier interface {
	Run(ctx context.Context, name string, p analytics.Params) (any, error)
}

// Invalidator drops cached query results. *cache.Cache satisfies it.
type Invalidator interface {
	InvalidateAll(ctx context.Context) error
}

// Check reports the health of one dependency.
type Check func(ctx context.Context) error

// Config wires a Server. Harvester, Channels, Migrator and Queries are required.
type Config struct {
	Harvester Harvester
	Channels  ChannelLister
	Migrator  Migrator
	Queries   Querier
	Cache     Invalidator

	// Checks are run by /api/health, keyed by dependency name.
	Checks map[string]Check

	// Gatherer backs /metrics; defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   *zerolog.Logger
}

type Server struct {
	cfg     Config
	router  *gin.Engine
	log     zerolog.Logger
	startAt time.Time
}

// New builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.Harvester == nil || cfg.Channels == nil || cfg.Migrator == nil || cfg.Queries == nil {
		return nil, fmt.Errorf("harvester, channel lister, migrator and querier are required")
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	log := logging.Component("http")
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	s := &Server{cfg: cfg, router: router, log: log, startAt: time.Now()}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.health)

		api.GET("/channels", s.listChannels)
		api.POST("/channels/:id/harvest", s.harvestChannel)
		api.POST("/channels/:id/refresh", s.refreshChannel)
		api.GET("/channels/:id/stale", s.staleChannel)

		api.POST("/migrations", s.migrate)

		api.GET("/queries", s.listQueries)
		api.GET("/queries/:name", s.runQuery)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{})))
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info().Msg("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

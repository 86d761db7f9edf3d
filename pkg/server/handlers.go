package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"yt-harvest/pkg/analytics"
	"yt-harvest/pkg/db"
	"yt-harvest/pkg/harvest"
	"yt-harvest/pkg/replication"
	"yt-harvest/pkg/youtube"
)

func respond(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, gin.H{
		"code": status,
		"msg":  msg,
		"data": data,
	})
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	c.JSON(status, gin.H{
		"code": status,
		"msg":  err.Error(),
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, harvest.ErrChannelNotFound),
		errors.Is(err, harvest.ErrNotHarvested),
		errors.Is(err, db.ErrNotFound),
		errors.Is(err, analytics.ErrUnknownQuery):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	var apiErr *youtube.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Reason == youtube.ReasonQuotaExceeded {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) harvestChannel(c *gin.Context) {
	report, err := s.cfg.Harvester.Harvest(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if report.Status == harvest.StatusExists {
		respond(c, http.StatusConflict, "channel already exists; use refresh to re-harvest", report)
		return
	}
	respond(c, http.StatusCreated, "success", report)
}

func (s *Server) refreshChannel(c *gin.Context) {
	report, err := s.cfg.Harvester.Refresh(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "success", report)
}

func (s *Server) staleChannel(c *gin.Context) {
	report, err := s.cfg.Harvester.Stale(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "success", report)
}

func (s *Server) listChannels(c *gin.Context) {
	names, err := s.cfg.Channels.ChannelNames(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "success", gin.H{
		"list":  names,
		"total": len(names),
	})
}

type migrationRequest struct {
	ChannelName   string `json:"channel_name" binding:"required"`
	ScopeComments bool   `json:"scope_comments"`
}

func (s *Server) migrate(c *gin.Context) {
	var req migrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "channel_name is required", nil)
		return
	}

	opts := replication.Options{CommentScope: replication.CommentScopeAll}
	if req.ScopeComments {
		opts.CommentScope = replication.CommentScopeChannel
	}

	report, err := s.cfg.Migrator.Migrate(c.Request.Context(), req.ChannelName, opts)
	if err != nil {
		fail(c, err)
		return
	}

	if s.cfg.Cache != nil {
		if err := s.cfg.Cache.InvalidateAll(c.Request.Context()); err != nil {
			s.log.Warn().Err(err).Msg("failed to invalidate query cache after migration")
		}
	}
	respond(c, http.StatusOK, "success", report)
}

func (s *Server) listQueries(c *gin.Context) {
	respond(c, http.StatusOK, "success", analytics.Names)
}

func (s *Server) runQuery(c *gin.Context) {
	var params analytics.Params
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil || year < 1970 || year > 9999 {
			respond(c, http.StatusBadRequest, "year must be a four-digit number", nil)
			return
		}
		params.Year = year
	}

	rows, err := s.cfg.Queries.Run(c.Request.Context(), c.Param("name"), params)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "success", rows)
}

func (s *Server) health(c *gin.Context) {
	checks := gin.H{}
	overall := "healthy"
	status := http.StatusOK

	for name, check := range s.cfg.Checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		err := check(ctx)
		cancel()
		if err != nil {
			checks[name] = gin.H{"status": "down", "error": err.Error()}
			overall = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = gin.H{"status": "up"}
	}

	c.JSON(status, gin.H{
		"status":         overall,
		"checks":         checks,
		"uptime_seconds": int(time.Since(s.startAt).Seconds()),
	})
}

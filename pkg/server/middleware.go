package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"yt-harvest/pkg/metrics"
)

// requestLogger logs each request as a structured event and records its
// latency. The route template is logged instead of the raw path.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.RequestDuration.
			WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).
			Observe(duration.Seconds())

		evt := log.Info()
		if status >= 500 {
			evt = log.Error()
		} else if status >= 400 {
			evt = log.Warn()
		}
		evt.
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration_ms", duration).
			Int("bytes_sent", c.Writer.Size()).
			Msg("request")
	}
}

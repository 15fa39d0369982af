package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter wires the submission front end: the static page, the submit and
// count endpoints, and a liveness probe.
func NewRouter(h *Handler, indexPath string, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	if indexPath != "" {
		r.StaticFile("/", indexPath)
	}

	r.GET("/healthz", h.Health)

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/messages", h.SubmitMessage)
		apiGroup.GET("/count", h.GetCount)
	}

	return r
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == "/healthz" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("remote", c.ClientIP()).
			Msg("request")
	}
}

// Package middleware provides the gin middleware chain shared by the HTTP
// surface: request id propagation, access logging, metrics, panic recovery.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuseye/attendance-engine/internal/observability/logging"
	"github.com/campuseye/attendance-engine/internal/observability/metrics"
)

const requestIDHeader = "X-Request-ID"

type GinConfig struct {
	Logger      *slog.Logger
	HTTPMetrics *metrics.HTTPMetrics
	Module      logging.Module
	SkipPaths   []string
}

// Gin attaches a request id to the context, logs each request on completion
// and records HTTP metrics. Paths in SkipPaths (health probes) are passed
// through untouched.
func Gin(cfg GinConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.FullPath()]; ok {
			c.Next()
			return
		}

		start := time.Now()

		requestID := logging.ValidateAndExtractRequestID(c.GetHeader(requestIDHeader))
		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, requestID)

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		if cfg.HTTPMetrics != nil {
			cfg.HTTPMetrics.RecordRequest(ctx, c.Request.Method, c.FullPath(), status, duration)
		}

		if cfg.Logger != nil {
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			cfg.Logger.Log(ctx, level, "http request",
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", duration),
			)
		}
	}
}

// PanicRecoveryGin converts panics into 500 responses instead of tearing
// down the connection.
func PanicRecoveryGin(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if logger != nil {
					logger.Error("panic recovered",
						slog.Any("panic", r),
						slog.String("path", c.Request.URL.Path),
					)
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

// RequestLogger writes one line per request, at warn for 4xx and error for 5xx.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"route", routeOf(c),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", ctxutil.RequestID(ctx),
			"trace_id", ctxutil.TraceID(ctx),
		}
		if caller := ctxutil.GetCaller(ctx); caller != nil {
			fields = append(fields, "user_id", caller.UserID)
		}
		if err := c.Errors.Last(); err != nil {
			fields = append(fields, "error", err.Error())
		}

		emit := log.Info
		if status >= 500 {
			emit = log.Error
		} else if status >= 400 {
			emit = log.Warn
		}
		emit("http request", fields...)
	}
}

// routeOf is the matched route template, or "unmatched" for 404s.
func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}

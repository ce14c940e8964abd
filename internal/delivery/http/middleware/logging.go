// Package middleware holds the gin request-pipeline middleware shared by
// every route: request-ID tagging, zap access logging, and panic recovery.
package middleware

import (
	"time"

	"sixthed-backend/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestID attaches an X-Request-ID header to the response (reusing one
// already present on the request) and stashes it in the gin context for
// ZapLogger and ZapRecovery to pick up.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// ZapLogger logs one structured entry per request, at a level chosen by
// the response status.
func ZapLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(start)
		requestID, _ := c.Get("request_id")

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Duration("duration", duration),
			zap.Int("size", c.Writer.Size()),
		}
		if requestID != nil {
			fields = append(fields, zap.String("request_id", requestID.(string)))
		}
		if raw != "" {
			fields = append(fields, zap.String("query", raw))
		}

		status := c.Writer.Status()
		const msg = "HTTP request"

		switch {
		case len(c.Errors) > 0:
			for _, err := range c.Errors {
				logger.Get().Error(msg, append(fields, zap.String("error", err.Error()))...)
			}
		case status >= 500:
			logger.Get().Error(msg, fields...)
		case status >= 400:
			logger.Get().Warn(msg, fields...)
		default:
			logger.Get().Info(msg, fields...)
		}
	}
}

// ZapRecovery recovers from a panic in a later handler, logs it, and
// responds 500 instead of letting gin's default recovery print to stderr.
func ZapRecovery() gin.HandlerFunc {
	return gin.RecoveryWithWriter(gin.DefaultWriter, func(c *gin.Context, err interface{}) {
		requestID, _ := c.Get("request_id")

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.Any("error", err),
		}
		if requestID != nil {
			fields = append(fields, zap.String("request_id", requestID.(string)))
		}

		logger.Get().Error("panic recovered", fields...)
		c.AbortWithStatus(500)
	})
}

func generateRequestID() string {
	now := time.Now()
	return now.Format("20060102150405") + "-" + now.Format("000")
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payments-api/internal/telemetry"
)

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("trace_id", telemetry.TraceID(c.Request.Context())),
		}

		switch {
		case status >= 500:
			telemetry.Logger.Error("Request failed", fields...)
		case status >= 400:
			telemetry.Logger.Warn("Request rejected", fields...)
		default:
			telemetry.Logger.Info("Request handled", fields...)
		}
	}
}

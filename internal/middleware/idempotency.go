package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payments-api/internal/telemetry"
)

const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// inFlightMarker holds the key while the first request is still running.
const inFlightMarker = "in-flight"

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the stored response for a repeated
// Idempotency-Key. Requests without the header pass straight through.
//
// The key is reserved before the handler runs, so a duplicate that arrives
// while the first request is in flight gets 409 instead of reaching the
// gateway. Only 2xx responses are stored; any other outcome releases the
// reservation so the client can retry with the same key.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "Idempotency-Key header is too long",
			})
			return
		}

		ctx := c.Request.Context()
		cacheKey := fmt.Sprintf("idempotency:%s", key)

		reserved, err := redisClient.SetNX(ctx, cacheKey, inFlightMarker, ttl).Result()
		if err != nil {
			telemetry.Logger.Warn("Idempotency reservation failed", zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			replay(c, redisClient, cacheKey)
			return
		}

		// the reservation must outlive a cancelled request
		storeCtx := context.WithoutCancel(ctx)
		stored := false
		defer func() {
			if stored {
				return
			}
			if err := redisClient.Del(storeCtx, cacheKey).Err(); err != nil {
				telemetry.Logger.Warn("Failed to release idempotency key", zap.Error(err))
			}
		}()

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if status < 200 || status >= 300 {
			return
		}

		data, err := json.Marshal(cachedResponse{
			Status:      status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		})
		if err != nil {
			return
		}
		if err := redisClient.Set(storeCtx, cacheKey, data, ttl).Err(); err != nil {
			telemetry.Logger.Warn("Failed to store idempotent response", zap.Error(err))
			return
		}
		stored = true
	}
}

// replay answers a request whose key is already taken, either with the
// stored response or with 409 while the original is still in flight.
func replay(c *gin.Context, redisClient *redis.Client, cacheKey string) {
	cached, err := redisClient.Get(c.Request.Context(), cacheKey).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		telemetry.Logger.Warn("Idempotency lookup failed", zap.Error(err))
	}

	var resp cachedResponse
	if err == nil && string(cached) != inFlightMarker && json.Unmarshal(cached, &resp) == nil {
		c.Header("Idempotent-Replayed", "true")
		c.Data(resp.Status, resp.ContentType, resp.Body)
		c.Abort()
		return
	}

	c.Header("Retry-After", "1")
	c.AbortWithStatusJSON(http.StatusConflict, gin.H{
		"status":  "error",
		"message": "A request with this Idempotency-Key is already in progress",
	})
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/akylbek/payment-system/payments-api/internal/handlers"
	"github.com/akylbek/payment-system/payments-api/internal/interfaces"
	"github.com/akylbek/payment-system/payments-api/internal/middleware"
	"github.com/akylbek/payment-system/payments-api/internal/telemetry"
)

const (
	ServiceName = "payments-api"
	APIPrefix   = "/api/v1"
)

type RouterConfig struct {
	// RedisClient enables Idempotency-Key replay on payment creation. Nil
	// disables it.
	RedisClient    *redis.Client
	IdempotencyTTL time.Duration
	MetricsHandler http.Handler
}

func NewRouter(paymentService interfaces.PaymentService, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(handlers.Recovery())
	r.Use(telemetry.TracingMiddleware())
	r.Use(middleware.RequestLogger())

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": ServiceName})
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Route not found"})
	})

	paymentHandler := handlers.NewPaymentHandler(paymentService)
	create := []gin.HandlerFunc{paymentHandler.CreatePayment}
	if cfg.RedisClient != nil {
		create = append([]gin.HandlerFunc{middleware.IdempotencyMiddleware(cfg.RedisClient, cfg.IdempotencyTTL)}, create...)
	}

	payments := r.Group(APIPrefix + "/payments")
	{
		payments.POST("", create...)
		payments.GET("/:id", paymentHandler.GetPayment)
	}

	return r
}

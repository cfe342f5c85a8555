package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payments-api/internal/api"
	"github.com/akylbek/payment-system/payments-api/internal/cache"
	"github.com/akylbek/payment-system/payments-api/internal/config"
	"github.com/akylbek/payment-system/payments-api/internal/events"
	"github.com/akylbek/payment-system/payments-api/internal/gateway"
	"github.com/akylbek/payment-system/payments-api/internal/interfaces"
	"github.com/akylbek/payment-system/payments-api/internal/repository"
	"github.com/akylbek/payment-system/payments-api/internal/service"
	"github.com/akylbek/payment-system/payments-api/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(config.Load())
		},
	}
}

func serve(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := telemetry.InitTelemetry(api.ServiceName, cfg.OTLPEndpoint, cfg.Env == "development"); err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Payments API",
		zap.String("env", cfg.Env),
		zap.String("store", cfg.StoreDriver),
		zap.String("gateway", cfg.GatewayDriver),
	)

	ctx := context.Background()
	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	publisher, err := openPublishers(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			telemetry.Logger.Error("Failed to close event publishers", zap.Error(err))
		}
	}()

	opts := service.Options{
		Publisher: publisher,
		Metrics:   metrics,
	}
	if redisClient != nil && cfg.StatusCacheTTL > 0 {
		opts.StatusCache = cache.NewRedisStatusCache(redisClient)
		opts.StatusCacheTTL = cfg.StatusCacheTTL
		telemetry.Logger.Info("Terminal status cache enabled", zap.Duration("ttl", cfg.StatusCacheTTL))
	}

	paymentService := service.NewPaymentService(repo, newGateway(cfg, metrics), opts)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(paymentService, api.RouterConfig{
		RedisClient:    redisClient,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		telemetry.Logger.Info("Payments API starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
	}

	telemetry.Logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (interfaces.PaymentRepository, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		telemetry.Logger.Warn("Using in-memory payment store, records are lost on restart")
		return repository.NewMemoryPaymentRepository(), func() {}, nil
	}

	db, err := openDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewPaymentRepository(db)
	if err := repo.InitDB(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initialize database: %w", err)
	}
	return repo, func() { db.Close() }, nil
}

func openDB(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts := &redis.Options{Addr: url}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func openPublishers(cfg *config.Config) (*events.MultiPublisher, error) {
	var publishers []interfaces.EventPublisher

	if len(cfg.KafkaBrokers) > 0 {
		publishers = append(publishers, events.NewKafkaPublisher(cfg.KafkaBrokers))
		telemetry.Logger.Info("Publishing events to Kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name(api.ServiceName))
		if err != nil {
			for _, p := range publishers {
				p.Close()
			}
			return nil, fmt.Errorf("connect to nats: %w", err)
		}
		publishers = append(publishers, events.NewNATSPublisher(nc))
		telemetry.Logger.Info("Publishing events to NATS", zap.String("url", cfg.NATSURL))
	}

	return events.NewMultiPublisher(publishers...), nil
}

func newGateway(cfg *config.Config, metrics *telemetry.Metrics) interfaces.PaymentGateway {
	if cfg.GatewayDriver == config.GatewayDriverSimulated {
		telemetry.Logger.Warn("Using simulated payment gateway")
		return gateway.NewSimulator("")
	}
	return gateway.NewPaystackClient(gateway.PaystackConfig{
		SecretKey:   cfg.PaystackSecretKey,
		BaseURL:     cfg.PaystackBaseURL,
		CallbackURL: cfg.PaystackCallbackURL,
		Timeout:     cfg.GatewayTimeout,
	}, metrics)
}

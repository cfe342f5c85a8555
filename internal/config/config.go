package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	GatewayDriverPaystack  = "paystack"
	GatewayDriverSimulated = "simulated"
)

type Config struct {
	Env             string
	Port            string
	ShutdownTimeout time.Duration

	StoreDriver string
	DatabaseURL string

	RedisURL       string
	StatusCacheTTL time.Duration
	IdempotencyTTL time.Duration

	KafkaBrokers []string
	NATSURL      string

	OTLPEndpoint string

	GatewayDriver       string
	PaystackSecretKey   string
	PaystackBaseURL     string
	PaystackCallbackURL string
	GatewayTimeout      time.Duration

	// values that could not be parsed; reported by Validate
	loadErrs []error
}

// LoadDotEnv reads a .env file into the environment when one exists.
// Variables already set in the environment win.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

func Load() *Config {
	var errs []error
	duration := func(key string, def time.Duration) time.Duration {
		d, err := getDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: duration("SHUTDOWN_TIMEOUT", 5*time.Second),

		StoreDriver: getEnv("STORE_DRIVER", StoreDriverPostgres),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisURL:       os.Getenv("REDIS_URL"),
		StatusCacheTTL: duration("STATUS_CACHE_TTL", 0),
		IdempotencyTTL: duration("IDEMPOTENCY_TTL", 24*time.Hour),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		NATSURL:      os.Getenv("NATS_URL"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		GatewayDriver:       getEnv("GATEWAY_DRIVER", GatewayDriverPaystack),
		PaystackSecretKey:   os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:     getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackCallbackURL: os.Getenv("PAYSTACK_CALLBACK_URL"),
		GatewayTimeout:      duration("GATEWAY_TIMEOUT", 15*time.Second),
	}
	cfg.loadErrs = errs
	return cfg
}

func (c *Config) Validate() error {
	if err := errors.Join(c.loadErrs...); err != nil {
		return err
	}

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.GatewayDriver {
	case GatewayDriverPaystack:
		if c.PaystackSecretKey == "" {
			return fmt.Errorf("PAYSTACK_SECRET_KEY is required when GATEWAY_DRIVER=%s", GatewayDriverPaystack)
		}
	case GatewayDriverSimulated:
	default:
		return fmt.Errorf("unknown GATEWAY_DRIVER %q", c.GatewayDriver)
	}

	if c.StatusCacheTTL < 0 {
		return fmt.Errorf("STATUS_CACHE_TTL must not be negative")
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

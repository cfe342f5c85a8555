package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akylbek/payment-system/payments-api/internal/models"
)

const keyPrefix = "payment_status:"

// RedisStatusCache stores payments that have reached a terminal status.
// Non-terminal payments are never written.
type RedisStatusCache struct {
	client *redis.Client
}

func NewRedisStatusCache(client *redis.Client) *RedisStatusCache {
	return &RedisStatusCache{client: client}
}

func (c *RedisStatusCache) Get(ctx context.Context, id string) (*models.Payment, bool, error) {
	cached, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("status cache get %s: %w", id, err)
	}

	var payment models.Payment
	if err := json.Unmarshal(cached, &payment); err != nil {
		// unreadable entries are dropped and treated as a miss
		c.client.Del(ctx, keyPrefix+id)
		return nil, false, nil
	}
	return &payment, true, nil
}

func (c *RedisStatusCache) Set(ctx context.Context, payment *models.Payment, ttl time.Duration) error {
	if !payment.Status.IsTerminal() || ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(payment)
	if err != nil {
		return fmt.Errorf("encode payment %s: %w", payment.ID, err)
	}
	if err := c.client.Set(ctx, keyPrefix+payment.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("status cache set %s: %w", payment.ID, err)
	}
	return nil
}

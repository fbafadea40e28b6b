package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
)

var ErrCacheMiss = errors.New("cache miss")

const defaultCartTTL = 5 * time.Minute

// CartCache keeps a read-through copy of each user's cart items.
// The database stays the source of truth; every write deletes the key.
type CartCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartCache(client *redis.Client, ttl time.Duration) *CartCache {
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	return &CartCache{client: client, ttl: ttl}
}

func cartKey(userID uuid.UUID) string {
	return fmt.Sprintf("cart:%s", userID)
}

// jitter spreads expirations by up to a tenth of the TTL.
func (c *CartCache) jitter() time.Duration {
	spread := int64(c.ttl / 10)
	if spread <= 0 {
		return c.ttl
	}
	return c.ttl + time.Duration(rand.Int63n(spread))
}

func (c *CartCache) Get(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	raw, err := c.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var items []models.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode cached cart: %w", err)
	}
	return items, nil
}

func (c *CartCache) Set(ctx context.Context, userID uuid.UUID, items []models.CartItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := c.client.Set(ctx, cartKey(userID), raw, c.jitter()).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *CartCache) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *CartCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

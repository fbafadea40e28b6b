package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
)

func newTestCache(t *testing.T, ttl time.Duration) (*CartCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCartCache(client, ttl), mr
}

func TestCartCache_MissThenHit(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	_, err := c.Get(ctx, userID)
	require.ErrorIs(t, err, ErrCacheMiss)

	items := []models.CartItem{{
		ID: 1, CartID: 2, ProductID: 3, Size: "L", Quantity: 4,
		Product: &models.Product{ID: 3, Name: "tee", Price: decimal.RequireFromString("499.00")},
	}}
	require.NoError(t, c.Set(ctx, userID, items))

	got, err := c.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "L", got[0].Size)
	assert.Equal(t, 4, got[0].Quantity)
	require.NotNil(t, got[0].Product)
	assert.True(t, decimal.RequireFromString("499").Equal(got[0].Product.Price))
}

func TestCartCache_DeleteAndExpiry(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, c.Set(ctx, userID, []models.CartItem{}))
	ttl := mr.TTL(cartKey(userID))
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.Less(t, ttl, time.Minute+6*time.Second)

	require.NoError(t, c.Delete(ctx, userID))
	_, err := c.Get(ctx, userID)
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, userID, []models.CartItem{}))
	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, userID)
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestCartCache_BackendDown(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()

	_, err := c.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/cache"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/repo"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/testdb"
)

type countingCache struct {
	mu      sync.Mutex
	inner   CartCache
	deletes int
}

func (c *countingCache) Get(ctx context.Context, id uuid.UUID) ([]models.CartItem, error) {
	return c.inner.Get(ctx, id)
}

func (c *countingCache) Set(ctx context.Context, id uuid.UUID, items []models.CartItem) error {
	return c.inner.Set(ctx, id, items)
}

func (c *countingCache) Delete(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	c.deletes++
	c.mu.Unlock()
	return c.inner.Delete(ctx, id)
}

func newCartService(t *testing.T) (*CartService, *repo.GormRepo, *countingCache) {
	t.Helper()

	db := testdb.Open(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cc := &countingCache{inner: cache.NewCartCache(client, time.Minute)}
	r := &repo.GormRepo{DB: db}
	return &CartService{Repo: r, Cache: cc}, r, cc
}

func TestCartService_AddMergesAndPrices(t *testing.T) {
	svc, r, _ := newCartService(t)
	ctx := context.Background()
	p := testdb.SeedProduct(t, r.DB, decimal.NewFromInt(100), decimal.NewFromInt(80), "M", 5)
	userID := uuid.New()

	_, err := svc.AddToCart(ctx, userID, p.ID, "M", 0)
	require.NoError(t, err)
	item, err := svc.AddToCart(ctx, userID, p.ID, "M", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	view, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(240).Equal(view.TotalAmount))
}

func TestCartService_AddRespectsStock(t *testing.T) {
	svc, r, _ := newCartService(t)
	ctx := context.Background()
	p := testdb.SeedProduct(t, r.DB, decimal.NewFromInt(100), decimal.Zero, "M", 2)
	userID := uuid.New()

	_, err := svc.AddToCart(ctx, userID, p.ID, "M", 2)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, userID, p.ID, "M", 1)
	require.ErrorIs(t, err, ErrInsufficientStock)

	_, err = svc.AddToCart(ctx, userID, p.ID, "XL", 1)
	require.ErrorIs(t, err, ErrInsufficientStock)

	_, err = svc.AddToCart(ctx, userID, 9999, "M", 1)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddToCart(ctx, userID, p.ID, "", 1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCartService_GetCartUsesCache(t *testing.T) {
	svc, r, _ := newCartService(t)
	ctx := context.Background()
	p := testdb.SeedProduct(t, r.DB, decimal.NewFromInt(10), decimal.Zero, "M", 5)
	userID := uuid.New()

	_, err := svc.AddToCart(ctx, userID, p.ID, "M", 1)
	require.NoError(t, err)

	_, err = svc.GetCart(ctx, userID)
	require.NoError(t, err)

	// A direct write bypasses invalidation, so the cached copy is still served.
	require.NoError(t, r.DB.Model(&models.CartItem{}).Where("1 = 1").Update("quantity", 4).Error)
	view, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Items[0].Quantity)

	_, err = svc.AddToCart(ctx, userID, p.ID, "M", 1)
	require.NoError(t, err)
	view, err = svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Items[0].Quantity)
}

func TestCartService_UpdateAndRemove(t *testing.T) {
	svc, r, cc := newCartService(t)
	ctx := context.Background()
	p := testdb.SeedProduct(t, r.DB, decimal.NewFromInt(10), decimal.Zero, "M", 5)
	owner, other := uuid.New(), uuid.New()

	item, err := svc.AddToCart(ctx, owner, p.ID, "M", 1)
	require.NoError(t, err)

	_, err = svc.UpdateCartItem(ctx, other, item.ID, 2)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateCartItem(ctx, owner, item.ID, 6)
	require.ErrorIs(t, err, ErrInsufficientStock)

	updated, err := svc.UpdateCartItem(ctx, owner, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	require.ErrorIs(t, svc.RemoveFromCart(ctx, other, item.ID), ErrNotFound)
	require.NoError(t, svc.RemoveFromCart(ctx, owner, item.ID))
	require.ErrorIs(t, svc.RemoveFromCart(ctx, owner, item.ID), ErrNotFound)

	view, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 3, cc.deletes)
}

func TestCartService_UpdateToZeroDeletes(t *testing.T) {
	svc, r, _ := newCartService(t)
	ctx := context.Background()
	p := testdb.SeedProduct(t, r.DB, decimal.NewFromInt(10), decimal.Zero, "M", 5)
	userID := uuid.New()

	item, err := svc.AddToCart(ctx, userID, p.ID, "M", 2)
	require.NoError(t, err)

	gone, err := svc.UpdateCartItem(ctx, userID, item.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.Zero(t, testdb.Count(t, r.DB, &models.CartItem{}))
}

func TestCartService_QuantityCap(t *testing.T) {
	svc, r, _ := newCartService(t)
	ctx := context.Background()
	p := testdb.SeedProduct(t, r.DB, decimal.NewFromInt(10), decimal.Zero, "M", 5)
	userID := uuid.New()

	_, err := svc.AddToCart(ctx, userID, p.ID, "M", MaxLineQuantity+1)
	require.ErrorIs(t, err, ErrValidation)

	item, err := svc.AddToCart(ctx, userID, p.ID, "M", 1)
	require.NoError(t, err)
	_, err = svc.UpdateCartItem(ctx, userID, item.ID, MaxLineQuantity+1)
	require.ErrorIs(t, err, ErrValidation)
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/cache"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/repo"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/logging"
)

type CartCache interface {
	Get(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Set(ctx context.Context, userID uuid.UUID, items []models.CartItem) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type CartView struct {
	Items       []models.CartItem `json:"items"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
}

type CartService struct {
	Repo  *repo.GormRepo
	Cache CartCache

	group singleflight.Group
}

func newCartView(items []models.CartItem) *CartView {
	total := decimal.Zero
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		total = total.Add(it.Product.EffectivePrice().Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return &CartView{Items: items, TotalAmount: total}
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	l := logging.FromContext(ctx).With("service", "cart")

	if s.Cache != nil {
		items, err := s.Cache.Get(ctx, userID)
		if err == nil {
			return newCartView(items), nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn("cart_cache_get_failed", "error", err)
		}
	}

	v, err, _ := s.group.Do(userID.String(), func() (any, error) {
		cart, err := s.Repo.GetOrCreateCart(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.Repo.ListCartItems(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	items := v.([]models.CartItem)

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, userID, items); err != nil {
			l.Warn("cart_cache_set_failed", "error", err)
		}
	}
	return newCartView(items), nil
}

func (s *CartService) AddToCart(ctx context.Context, userID uuid.UUID, productID uint, size string, quantity int) (*models.CartItem, error) {
	if productID == 0 || size == "" {
		return nil, fmt.Errorf("%w: productId and size are required", ErrValidation)
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 || quantity > MaxLineQuantity {
		return nil, fmt.Errorf("%w: quantity must be in 1..%d", ErrValidation, MaxLineQuantity)
	}

	var item *models.CartItem
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.FindProduct(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", ErrNotFound, productID)
			}
			return err
		}

		stock, err := tx.FindSize(ctx, productID, size)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: size %s unavailable", ErrInsufficientStock, size)
		}
		if err != nil {
			return err
		}

		cart, err := tx.GetOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}

		existing, err := tx.FindCartItem(ctx, cart.ID, productID, size)
		switch {
		case err == nil:
			next := existing.Quantity + quantity
			if next > stock.StockQuantity {
				return fmt.Errorf("%w: only %d left", ErrInsufficientStock, stock.StockQuantity)
			}
			if err := tx.SetCartItemQuantity(ctx, existing.ID, next); err != nil {
				return err
			}
			existing.Quantity = next
			item = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			if quantity > stock.StockQuantity {
				return fmt.Errorf("%w: only %d left", ErrInsufficientStock, stock.StockQuantity)
			}
			item = &models.CartItem{CartID: cart.ID, ProductID: productID, Size: size, Quantity: quantity}
			return tx.CreateCartItem(ctx, item)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	return item, nil
}

// UpdateCartItem sets an absolute quantity; zero or less removes the item.
func (s *CartService) UpdateCartItem(ctx context.Context, userID uuid.UUID, itemID uint, quantity int) (*models.CartItem, error) {
	if itemID == 0 {
		return nil, fmt.Errorf("%w: itemId required", ErrValidation)
	}
	if quantity > MaxLineQuantity {
		return nil, fmt.Errorf("%w: quantity must not exceed %d", ErrValidation, MaxLineQuantity)
	}

	var item *models.CartItem
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		cart, err := tx.FindCart(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: cart item %d", ErrForbidden, itemID)
		}
		if err != nil {
			return err
		}

		found, err := tx.GetCartItem(ctx, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && found.CartID != cart.ID) {
			return fmt.Errorf("%w: cart item %d", ErrForbidden, itemID)
		}
		if err != nil {
			return err
		}

		if quantity <= 0 {
			_, err := tx.DeleteCartItem(ctx, cart.ID, itemID)
			return err
		}

		stock, err := tx.FindSize(ctx, found.ProductID, found.Size)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && quantity > stock.StockQuantity) {
			return fmt.Errorf("%w: requested %d", ErrInsufficientStock, quantity)
		}
		if err != nil {
			return err
		}

		if err := tx.SetCartItemQuantity(ctx, itemID, quantity); err != nil {
			return err
		}
		found.Quantity = quantity
		item = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	return item, nil
}

func (s *CartService) RemoveFromCart(ctx context.Context, userID uuid.UUID, itemID uint) error {
	cart, err := s.Repo.FindCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
	}
	if err != nil {
		return err
	}

	deleted, err := s.Repo.DeleteCartItem(ctx, cart.ID, itemID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
	}

	s.invalidate(ctx, userID)
	return nil
}

func (s *CartService) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, userID); err != nil {
		logging.FromContext(ctx).Warn("cart_cache_invalidate_failed", "user_id", userID, "error", err)
	}
}

// invalidateCartsHolding drops the cached carts that price any of
// productIDs. Failures are logged; cached carts then expire on their TTL.
func invalidateCartsHolding(ctx context.Context, r *repo.GormRepo, c CartCache, productIDs []uint) {
	if c == nil || len(productIDs) == 0 {
		return
	}
	owners, err := r.CartOwnersHolding(ctx, productIDs)
	if err != nil {
		logging.FromContext(ctx).Warn("cart_cache_owner_lookup_failed", "error", err)
		return
	}
	dropCachedCarts(ctx, c, owners)
}

func dropCachedCarts(ctx context.Context, c CartCache, owners []uuid.UUID) {
	if c == nil {
		return
	}
	for _, userID := range owners {
		if err := c.Delete(ctx, userID); err != nil {
			logging.FromContext(ctx).Warn("cart_cache_invalidate_failed", "user_id", userID, "error", err)
		}
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/repo"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/transport"
)

var hundred = decimal.NewFromInt(100)

type OfferService struct {
	Repo  *repo.GormRepo
	Cache CartCache
}

func (s *OfferService) Create(ctx context.Context, req transport.CreateOfferRequest) (*models.Offer, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title required", ErrValidation)
	}
	if !req.DiscountPercentage.IsPositive() || req.DiscountPercentage.GreaterThanOrEqual(hundred) {
		return nil, fmt.Errorf("%w: discountPercentage must be in (0, 100)", ErrValidation)
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() || req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: endDate must not precede startDate", ErrValidation)
	}

	offer := &models.Offer{
		Title:              req.Title,
		DiscountPercentage: req.DiscountPercentage,
		StartDate:          req.StartDate.UTC(),
		EndDate:            req.EndDate.UTC(),
		IsActive:           true,
	}
	if req.IsActive != nil {
		offer.IsActive = *req.IsActive
	}

	if err := s.Repo.CreateOffer(ctx, offer); err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *OfferService) List(ctx context.Context) ([]models.Offer, error) {
	return s.Repo.ListOffers(ctx)
}

// DiscountedPrice rounds half away from zero to two decimals.
func DiscountedPrice(price, pct decimal.Decimal) decimal.Decimal {
	return price.Mul(hundred.Sub(pct)).Div(hundred).Round(2)
}

// Apply writes the offer's discount price onto every product in category,
// or onto the whole catalog when category is empty. Cached carts holding a
// repriced product are dropped after commit.
func (s *OfferService) Apply(ctx context.Context, offerID uint, category string) (int, error) {
	var repriced []uint
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		offer, err := tx.GetOffer(ctx, offerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: offer %d", ErrNotFound, offerID)
		}
		if err != nil {
			return err
		}
		if !offer.IsActive {
			return fmt.Errorf("%w: offer %d is not active", ErrValidation, offerID)
		}

		products, err := tx.ListProductsByCategory(ctx, category)
		if err != nil {
			return err
		}
		for _, p := range products {
			if err := tx.UpdateDiscountPrice(ctx, p.ID, DiscountedPrice(p.Price, offer.DiscountPercentage)); err != nil {
				return err
			}
			repriced = append(repriced, p.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	invalidateCartsHolding(ctx, s.Repo, s.Cache, repriced)
	return len(repriced), nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/transport"
)

// MaxLineQuantity caps the units of one product size in a single request,
// after duplicate lines are merged.
const MaxLineQuantity = 10_000

type ProductReader interface {
	FindProduct(ctx context.Context, id uint) (*models.Product, error)
}

type PricedLine struct {
	transport.LineItem
	UnitPrice decimal.Decimal
}

func (l PricedLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Quote struct {
	Total decimal.Decimal
	Lines []PricedLine
}

// PricingResolver prices line items from the catalog only. Client-sent
// prices are never consulted.
type PricingResolver struct {
	Products ProductReader
}

func ValidateLineItems(items []transport.LineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: items required", ErrValidation)
	}
	merged := make(map[stockKey]int, len(items))
	for i, it := range items {
		if it.ProductID == 0 {
			return fmt.Errorf("%w: items[%d].productId required", ErrValidation, i)
		}
		if it.Size == "" {
			return fmt.Errorf("%w: items[%d].size required", ErrValidation, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity must be > 0", ErrValidation, i)
		}
		k := stockKey{productID: it.ProductID, size: it.Size}
		if it.Quantity > MaxLineQuantity-merged[k] {
			return fmt.Errorf("%w: items[%d].quantity exceeds %d per size", ErrValidation, i, MaxLineQuantity)
		}
		merged[k] += it.Quantity
	}
	return nil
}

func (p *PricingResolver) Resolve(ctx context.Context, items []transport.LineItem) (*Quote, error) {
	if err := ValidateLineItems(items); err != nil {
		return nil, err
	}

	quote := &Quote{Total: decimal.Zero, Lines: make([]PricedLine, 0, len(items))}
	for _, it := range items {
		product, err := p.Products.FindProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: product %d", ErrNotFound, it.ProductID)
			}
			return nil, fmt.Errorf("load product %d: %w", it.ProductID, err)
		}

		line := PricedLine{LineItem: it, UnitPrice: product.EffectivePrice()}
		quote.Lines = append(quote.Lines, line)
		quote.Total = quote.Total.Add(line.Subtotal())
	}
	return quote, nil
}

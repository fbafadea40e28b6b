package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/gateway"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/transport"
)

const DefaultCurrency = "INR"

type PaymentGateway interface {
	CreateOrder(ctx context.Context, req gateway.OrderRequest) (*gateway.Order, error)
}

type PaymentOrder struct {
	GatewayOrderID string
	GatewayOrder   json.RawMessage
	Items          []transport.LineItem
	Address        models.JSON
	TotalAmount    decimal.Decimal
}

type PaymentService struct {
	Products ProductReader
	Gateway  PaymentGateway
	Currency string
	Now      func() time.Time
}

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// ToMinorUnits converts a major-unit amount to the gateway's integer
// representation, rounding half away from zero at the second decimal.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Shift(2).Round(0)
	if minor.GreaterThan(maxMinorUnits) || minor.LessThan(maxMinorUnits.Neg()) {
		return 0, fmt.Errorf("%w: amount %s out of range", ErrValidation, amount.String())
	}
	return minor.IntPart(), nil
}

// Receipt stays under the gateway's 40 character limit.
func Receipt(userID uuid.UUID, at time.Time) string {
	short := strings.ReplaceAll(userID.String(), "-", "")[:8]
	return fmt.Sprintf("rcpt_%s_%d", short, at.UnixMilli())
}

func (s *PaymentService) CreatePaymentOrder(ctx context.Context, userID uuid.UUID, items []transport.LineItem, address models.JSON) (*PaymentOrder, error) {
	if address.IsEmpty() {
		return nil, fmt.Errorf("%w: address required", ErrValidation)
	}

	resolver := PricingResolver{Products: s.Products}
	quote, err := resolver.Resolve(ctx, items)
	if err != nil {
		return nil, err
	}

	amount, err := ToMinorUnits(quote.Total)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: order total must be positive", ErrValidation)
	}

	currency := s.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	order, err := s.Gateway.CreateOrder(ctx, gateway.OrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  Receipt(userID, now()),
		Notes:    map[string]string{"user_id": userID.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	return &PaymentOrder{
		GatewayOrderID: order.ID,
		GatewayOrder:   order.Raw,
		Items:          items,
		Address:        address,
		TotalAmount:    quote.Total,
	}, nil
}

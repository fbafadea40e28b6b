package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/events"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/repo"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/transport"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/logging"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/metrics"
)

const (
	OutcomePaid              = "paid"
	OutcomeDuplicate         = "duplicate"
	OutcomeInvalidSignature  = "invalid_signature"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeValidation        = "validation"
	OutcomeError             = "error"
)

type CheckoutInput struct {
	UserID         uuid.UUID
	GatewayOrderID string
	PaymentID      string
	Signature      string
	Items          []transport.LineItem
	Address        models.JSON
	// ClientTotal is the total echoed back by the client. It is compared
	// against the server-side total and never persisted.
	ClientTotal *decimal.Decimal
}

type CheckoutResult struct {
	Order *models.Order
	// Existing is true when the payment id had already produced an order.
	Existing bool
}

type CheckoutService struct {
	Repo        *repo.GormRepo
	KeySecret   string
	EventsTopic string
	Cache       CartCache
	Metrics     *metrics.CheckoutMetrics
	Now         func() time.Time
}

func (s *CheckoutService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func ValidateCheckoutInput(in CheckoutInput) error {
	if in.GatewayOrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return fmt.Errorf("%w: razorpay_order_id, razorpay_payment_id and razorpay_signature are required", ErrValidation)
	}
	if in.Address.IsEmpty() {
		return fmt.Errorf("%w: address required", ErrValidation)
	}
	return ValidateLineItems(in.Items)
}

// VerifyPayment authenticates the gateway callback and, only when the
// signature matches, runs the checkout transaction.
func (s *CheckoutService) VerifyPayment(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("service", "checkout", "payment_id", in.PaymentID)

	if err := ValidateCheckoutInput(in); err != nil {
		s.Metrics.Outcome(OutcomeValidation)
		return nil, err
	}

	if err := VerifySignature(in.GatewayOrderID, in.PaymentID, in.Signature, s.KeySecret); err != nil {
		l.Warn("payment_signature_rejected", "gateway_order_id", in.GatewayOrderID, "user_id", in.UserID)
		s.Metrics.Outcome(OutcomeInvalidSignature)
		return nil, err
	}

	return s.Checkout(ctx, in)
}

// Checkout converts a verified payment into a paid order. Stock reservation,
// order creation, the order_paid outbox row and the cart clear commit
// together or not at all.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("service", "checkout", "payment_id", in.PaymentID)

	if existing, err := s.Repo.FindOrderByPaymentID(ctx, in.PaymentID); err == nil {
		return s.replay(l, in, existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.Metrics.Outcome(OutcomeError)
		return nil, fmt.Errorf("lookup payment: %w", err)
	}

	var order *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := reserveStock(ctx, tx, in.Items); err != nil {
			return err
		}

		quote, err := (&PricingResolver{Products: tx}).Resolve(ctx, in.Items)
		if err != nil {
			return err
		}

		order = newPaidOrder(in, quote)
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		ev := events.NewOrderPaid(order, s.now())
		if _, err := tx.InsertOutbox(ctx, s.EventsTopic, ev.Key(), ev); err != nil {
			return fmt.Errorf("enqueue order event: %w", err)
		}

		return clearCart(ctx, tx, in.UserID)
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			existing, lookupErr := s.Repo.FindOrderByPaymentID(ctx, in.PaymentID)
			if lookupErr != nil {
				s.Metrics.Outcome(OutcomeError)
				return nil, fmt.Errorf("lookup payment after conflict: %w", lookupErr)
			}
			return s.replay(l, in, existing)
		case errors.Is(err, ErrInsufficientStock):
			s.Metrics.Outcome(OutcomeInsufficientStock)
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation):
			s.Metrics.Outcome(OutcomeValidation)
		default:
			s.Metrics.Outcome(OutcomeError)
		}
		return nil, err
	}

	if in.ClientTotal != nil && !in.ClientTotal.Equal(order.TotalAmount) {
		l.Warn("checkout_total_mismatch", "client_total", in.ClientTotal.String(), "server_total", order.TotalAmount.String())
		s.Metrics.Mismatch()
	}

	if s.Cache != nil {
		if err := s.Cache.Delete(ctx, in.UserID); err != nil {
			l.Warn("cart_cache_invalidate_failed", "error", err)
		}
	}

	s.Metrics.Outcome(OutcomePaid)
	l.Info("checkout_completed", "order_id", order.ID, "total", order.TotalAmount.String())
	return &CheckoutResult{Order: order}, nil
}

// replay answers a payment id that already produced an order. Only the
// order's owner gets it back.
func (s *CheckoutService) replay(l *slog.Logger, in CheckoutInput, existing *models.Order) (*CheckoutResult, error) {
	if existing.UserID != in.UserID {
		l.Warn("checkout_payment_owner_mismatch", "order_id", existing.ID, "user_id", in.UserID)
		s.Metrics.Outcome(OutcomeValidation)
		return nil, fmt.Errorf("%w: payment %s belongs to another user", ErrForbidden, in.PaymentID)
	}
	l.Info("checkout_duplicate_payment", "order_id", existing.ID)
	s.Metrics.Outcome(OutcomeDuplicate)
	return &CheckoutResult{Order: existing, Existing: true}, nil
}

type stockKey struct {
	productID uint
	size      string
}

// reserveStock merges duplicate lines and locks size rows in a fixed order
// so concurrent checkouts over the same rows cannot deadlock.
func reserveStock(ctx context.Context, tx *repo.GormRepo, items []transport.LineItem) error {
	if err := ValidateLineItems(items); err != nil {
		return err
	}
	want := make(map[stockKey]int, len(items))
	keys := make([]stockKey, 0, len(items))
	for _, it := range items {
		k := stockKey{productID: it.ProductID, size: it.Size}
		if _, ok := want[k]; !ok {
			keys = append(keys, k)
		}
		want[k] += it.Quantity
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].productID != keys[j].productID {
			return keys[i].productID < keys[j].productID
		}
		return keys[i].size < keys[j].size
	})

	for _, k := range keys {
		qty := want[k]
		size, err := tx.LockSize(ctx, k.productID, k.size)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d size %s", ErrInsufficientStock, k.productID, k.size)
			}
			return fmt.Errorf("lock stock: %w", err)
		}
		if size.StockQuantity < qty {
			return fmt.Errorf("%w: product %d size %s", ErrInsufficientStock, k.productID, k.size)
		}

		ok, err := tx.DecrementStock(ctx, size.ID, qty)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: product %d size %s", ErrInsufficientStock, k.productID, k.size)
		}
	}
	return nil
}

func newPaidOrder(in CheckoutInput, quote *Quote) *models.Order {
	items := make([]models.OrderItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Size:      line.Size,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
		})
	}
	return &models.Order{
		UserID:         in.UserID,
		TotalAmount:    quote.Total,
		PaymentID:      in.PaymentID,
		GatewayOrderID: in.GatewayOrderID,
		OrderStatus:    models.OrderStatusPaid,
		Address:        in.Address,
		Items:          items,
	}
}

func clearCart(ctx context.Context, tx *repo.GormRepo, userID uuid.UUID) error {
	cart, err := tx.FindCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find cart: %w", err)
	}
	if err := tx.ClearCart(ctx, cart.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/events"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/repo"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/testdb"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/transport"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/metrics"
)

type checkoutEnv struct {
	db      *gorm.DB
	repo    *repo.GormRepo
	svc     *CheckoutService
	metrics *metrics.CheckoutMetrics
}

func newCheckoutEnv(t *testing.T) *checkoutEnv {
	t.Helper()

	db := testdb.Open(t)
	r := &repo.GormRepo{DB: db}
	m := metrics.NewCheckoutMetrics(prometheus.NewRegistry())
	return &checkoutEnv{
		db:      db,
		repo:    r,
		metrics: m,
		svc: &CheckoutService{
			Repo:        r,
			KeySecret:   testSecret,
			EventsTopic: "order_events",
			Metrics:     m,
		},
	}
}

func (e *checkoutEnv) fillCart(t *testing.T, userID uuid.UUID, items []transport.LineItem) {
	t.Helper()

	ctx := context.Background()
	cart, err := e.repo.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)
	for _, it := range items {
		require.NoError(t, e.repo.CreateCartItem(ctx, &models.CartItem{
			CartID: cart.ID, ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity,
		}))
	}
}

func signedInput(userID uuid.UUID, paymentID string, items []transport.LineItem) CheckoutInput {
	orderID := "order_" + paymentID
	return CheckoutInput{
		UserID:         userID,
		GatewayOrderID: orderID,
		PaymentID:      paymentID,
		Signature:      Signature(orderID, paymentID, testSecret),
		Items:          items,
		Address:        models.JSON(`{"line1":"12 MG Road","city":"Pune"}`),
	}
}

func (e *checkoutEnv) outcome(label string) float64 {
	return testutil.ToFloat64(e.metrics.Outcomes.WithLabelValues(label))
}

func TestCheckout_EndToEnd(t *testing.T) {
	env := newCheckoutEnv(t)
	ctx := context.Background()

	a := testdb.SeedProduct(t, env.db, decimal.NewFromInt(100), decimal.NewFromInt(80), "M", 5)
	userID := uuid.New()
	items := []transport.LineItem{{ProductID: a.ID, Size: "M", Quantity: 2}}
	env.fillCart(t, userID, items)

	total := decimal.NewFromInt(160)
	in := signedInput(userID, "pay_e2e", items)
	in.ClientTotal = &total

	res, err := env.svc.VerifyPayment(ctx, in)
	require.NoError(t, err)
	require.False(t, res.Existing)

	order := res.Order
	assert.Equal(t, models.OrderStatusPaid, order.OrderStatus)
	assert.True(t, decimal.NewFromInt(160).Equal(order.TotalAmount))
	assert.Equal(t, "pay_e2e", order.PaymentID)
	assert.Equal(t, userID, order.UserID)

	stored, err := env.repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, a.ID, stored.Items[0].ProductID)
	assert.Equal(t, "M", stored.Items[0].Size)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(80).Equal(stored.Items[0].Price))
	assert.JSONEq(t, `{"line1":"12 MG Road","city":"Pune"}`, string(stored.Address))

	sum := decimal.Zero
	for _, it := range stored.Items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, sum.Equal(stored.TotalAmount))

	assert.Equal(t, 3, testdb.Stock(t, env.db, a.ID, "M"))
	assert.Zero(t, testdb.Count(t, env.db, &models.CartItem{}))
	assert.Equal(t, int64(1), testdb.Count(t, env.db, &models.Cart{}))

	pending, err := env.repo.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	var ev events.OrderPaid
	require.NoError(t, json.Unmarshal(pending[0].Payload, &ev))
	assert.Equal(t, events.TypeOrderPaid, ev.Type)
	assert.Equal(t, order.ID, ev.OrderID)

	assert.Equal(t, 1.0, env.outcome(OutcomePaid))
	assert.Zero(t, testutil.ToFloat64(env.metrics.TotalMismatch))
}

func TestCheckout_AllOrNothingOnLastItem(t *testing.T) {
	env := newCheckoutEnv(t)
	ctx := context.Background()

	p1 := testdb.SeedProduct(t, env.db, decimal.NewFromInt(100), decimal.Zero, "S", 10)
	p2 := testdb.SeedProduct(t, env.db, decimal.NewFromInt(200), decimal.Zero, "M", 10)
	p3 := testdb.SeedProduct(t, env.db, decimal.NewFromInt(300), decimal.Zero, "L", 1)

	userID := uuid.New()
	items := []transport.LineItem{
		{ProductID: p1.ID, Size: "S", Quantity: 3},
		{ProductID: p2.ID, Size: "M", Quantity: 4},
		{ProductID: p3.ID, Size: "L", Quantity: 2},
	}
	env.fillCart(t, userID, items)

	_, err := env.svc.VerifyPayment(ctx, signedInput(userID, "pay_short", items))
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 10, testdb.Stock(t, env.db, p1.ID, "S"))
	assert.Equal(t, 10, testdb.Stock(t, env.db, p2.ID, "M"))
	assert.Equal(t, 1, testdb.Stock(t, env.db, p3.ID, "L"))
	assert.Zero(t, testdb.Count(t, env.db, &models.Order{}))
	assert.Zero(t, testdb.Count(t, env.db, &models.OrderItem{}))
	assert.Zero(t, testdb.Count(t, env.db, &models.OutboxEvent{}))
	assert.Equal(t, int64(3), testdb.Count(t, env.db, &models.CartItem{}))
	assert.Equal(t, 1.0, env.outcome(OutcomeInsufficientStock))
}

func TestCheckout_MissingSizeIsInsufficientStock(t *testing.T) {
	env := newCheckoutEnv(t)
	p := testdb.SeedProduct(t, env.db, decimal.NewFromInt(100), decimal.Zero, "M", 5)

	items := []transport.LineItem{{ProductID: p.ID, Size: "XXL", Quantity: 1}}
	_, err := env.svc.VerifyPayment(context.Background(), signedInput(uuid.New(), "pay_xxl", items))
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, testdb.Stock(t, env.db, p.ID, "M"))
}

func TestCheckout_DuplicateLinesAreMerged(t *testing.T) {
	env := newCheckoutEnv(t)
	p := testdb.SeedProduct(t, env.db, decimal.NewFromInt(50), decimal.Zero, "M", 3)

	items := []transport.LineItem{
		{ProductID: p.ID, Size: "M", Quantity: 2},
		{ProductID: p.ID, Size: "M", Quantity: 2},
	}
	_, err := env.svc.VerifyPayment(context.Background(), signedInput(uuid.New(), "pay_dup_lines", items))
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, testdb.Stock(t, env.db, p.ID, "M"))
}

func TestCheckout_ConcurrentLastUnit(t *testing.T) {
	env := newCheckoutEnv(t)
	p := testdb.SeedProduct(t, env.db, decimal.NewFromInt(999), decimal.Zero, "M", 1)
	items := []transport.LineItem{{ProductID: p.ID, Size: "M", Quantity: 1}}

	inputs := []CheckoutInput{
		signedInput(uuid.New(), "pay_race_1", items),
		signedInput(uuid.New(), "pay_race_2", items),
	}

	var wg sync.WaitGroup
	errs := make([]error, len(inputs))
	start := make(chan struct{})
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = env.svc.VerifyPayment(context.Background(), inputs[i])
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded, short := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrInsufficientStock):
			short++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, short)
	assert.Zero(t, testdb.Stock(t, env.db, p.ID, "M"))
	assert.Equal(t, int64(1), testdb.Count(t, env.db, &models.Order{}))
}

func TestCheckout_SamePaymentReturnsExistingOrder(t *testing.T) {
	env := newCheckoutEnv(t)
	ctx := context.Background()
	p := testdb.SeedProduct(t, env.db, decimal.NewFromInt(100), decimal.Zero, "M", 5)
	items := []transport.LineItem{{ProductID: p.ID, Size: "M", Quantity: 1}}
	in := signedInput(uuid.New(), "pay_once", items)

	first, err := env.svc.VerifyPayment(ctx, in)
	require.NoError(t, err)

	second, err := env.svc.VerifyPayment(ctx, in)
	require.NoError(t, err)
	assert.True(t, second.Existing)
	assert.Equal(t, first.Order.ID, second.Order.ID)

	assert.Equal(t, 4, testdb.Stock(t, env.db, p.ID, "M"))
	assert.Equal(t, int64(1), testdb.Count(t, env.db, &models.Order{}))
	assert.Equal(t, 1.0, env.outcome(OutcomeDuplicate))
}

func TestCheckout_InvalidSignatureMutatesNothing(t *testing.T) {
	env := newCheckoutEnv(t)
	p := testdb.SeedProduct(t, env.db, decimal.NewFromInt(100), decimal.NewFromInt(80), "M", 5)
	userID := uuid.New()
	items := []transport.LineItem{{ProductID: p.ID, Size: "M", Quantity: 2}}
	env.fillCart(t, userID, items)

	in := signedInput(userID, "pay_forged", items)
	in.Signature = Signature(in.GatewayOrderID, in.PaymentID, "wrong-secret")

	_, err := env.svc.VerifyPayment(context.Background(), in)
	require.ErrorIs(t, err, ErrInvalidSignature)

	assert.Equal(t, 5, testdb.Stock(t, env.db, p.ID, "M"))
	assert.Zero(t, testdb.Count(t, env.db, &models.Order{}))
	assert.Equal(t, int64(1), testdb.Count(t, env.db, &models.CartItem{}))
	assert.Equal(t, 1.0, env.outcome(OutcomeInvalidSignature))
}

func TestCheckout_ClientTotalMismatchIsRecorded(t *testing.T) {
	env := newCheckoutEnv(t)
	p := testdb.SeedProduct(t, env.db, decimal.NewFromInt(100), decimal.Zero, "M", 5)
	items := []transport.LineItem{{ProductID: p.ID, Size: "M", Quantity: 1}}

	stale := decimal.NewFromInt(90)
	in := signedInput(uuid.New(), "pay_stale", items)
	in.ClientTotal = &stale

	res, err := env.svc.VerifyPayment(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(res.Order.TotalAmount))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.TotalMismatch))
}

func TestVerifyPayment_MissingFields(t *testing.T) {
	env := newCheckoutEnv(t)
	items := []transport.LineItem{{ProductID: 1, Size: "M", Quantity: 1}}

	in := signedInput(uuid.New(), "pay_x", items)
	in.PaymentID = ""
	_, err := env.svc.VerifyPayment(context.Background(), in)
	require.ErrorIs(t, err, ErrValidation)

	in = signedInput(uuid.New(), "pay_x", items)
	in.Address = nil
	_, err = env.svc.VerifyPayment(context.Background(), in)
	require.ErrorIs(t, err, ErrValidation)

	in = signedInput(uuid.New(), "pay_x", nil)
	_, err = env.svc.VerifyPayment(context.Background(), in)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCheckout_OversizedQuantityLeavesStockAlone(t *testing.T) {
	env := newCheckoutEnv(t)
	p := testdb.SeedProduct(t, env.db, decimal.NewFromInt(100), decimal.Zero, "M", 5)

	items := []transport.LineItem{
		{ProductID: p.ID, Size: "M", Quantity: math.MaxInt},
		{ProductID: p.ID, Size: "M", Quantity: math.MaxInt},
	}
	_, err := env.svc.Checkout(context.Background(), signedInput(uuid.New(), "pay_wrap", items))
	require.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 5, testdb.Stock(t, env.db, p.ID, "M"))
	assert.Zero(t, testdb.Count(t, env.db, &models.Order{}))
	assert.Zero(t, testdb.Count(t, env.db, &models.OutboxEvent{}))
	assert.Equal(t, 1.0, env.outcome(OutcomeValidation))
}

// A concurrent checkout commits the same payment id between the lookup and
// the insert. The losing transaction must roll back its stock decrement and
// hand back the winner's order.
func TestCheckout_ConflictAtInsertReturnsWinner(t *testing.T) {
	env := newCheckoutEnv(t)
	ctx := context.Background()
	p := testdb.SeedProduct(t, env.db, decimal.NewFromInt(100), decimal.Zero, "M", 5)
	userID := uuid.New()
	items := []transport.LineItem{{ProductID: p.ID, Size: "M", Quantity: 1}}
	in := signedInput(userID, "pay_contended", items)

	winner := &models.Order{
		UserID:         userID,
		TotalAmount:    decimal.NewFromInt(100),
		PaymentID:      in.PaymentID,
		GatewayOrderID: in.GatewayOrderID,
		OrderStatus:    models.OrderStatusPaid,
		Items:          []models.OrderItem{{ProductID: p.ID, Size: "M", Quantity: 1, Price: decimal.NewFromInt(100)}},
	}
	armed := true
	err := env.db.Callback().Query().After("gorm:query").Register("checkout_test:commit_winner", func(db *gorm.DB) {
		if !armed || db.Statement.Table != "orders" || db.RowsAffected != 0 {
			return
		}
		armed = false
		require.NoError(t, env.db.Create(winner).Error)
		require.NoError(t, env.db.Model(&models.Size{}).
			Where("product_id = ? AND size = ?", p.ID, "M").
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", 1)).Error)
	})
	require.NoError(t, err)

	res, err := env.svc.Checkout(ctx, in)
	require.NoError(t, err)
	require.False(t, armed)
	assert.True(t, res.Existing)
	assert.Equal(t, winner.ID, res.Order.ID)

	assert.Equal(t, 4, testdb.Stock(t, env.db, p.ID, "M"))
	assert.Equal(t, int64(1), testdb.Count(t, env.db, &models.Order{}))
	assert.Equal(t, int64(1), testdb.Count(t, env.db, &models.OrderItem{}))
	assert.Zero(t, testdb.Count(t, env.db, &models.OutboxEvent{}))
	assert.Equal(t, 1.0, env.outcome(OutcomeDuplicate))
	assert.Zero(t, env.outcome(OutcomePaid))
}

func TestCheckout_ReplayByAnotherUserIsForbidden(t *testing.T) {
	env := newCheckoutEnv(t)
	ctx := context.Background()
	p := testdb.SeedProduct(t, env.db, decimal.NewFromInt(100), decimal.Zero, "M", 5)
	items := []transport.LineItem{{ProductID: p.ID, Size: "M", Quantity: 1}}

	in := signedInput(uuid.New(), "pay_owned", items)
	_, err := env.svc.VerifyPayment(ctx, in)
	require.NoError(t, err)

	in.UserID = uuid.New()
	res, err := env.svc.VerifyPayment(ctx, in)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, res)

	assert.Equal(t, 4, testdb.Stock(t, env.db, p.ID, "M"))
	assert.Equal(t, int64(1), testdb.Count(t, env.db, &models.Order{}))
	assert.Zero(t, env.outcome(OutcomeDuplicate))
}

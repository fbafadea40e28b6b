package events

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
)

const TypeOrderPaid = "order_paid"

type OrderPaidItem struct {
	ProductID uint            `json:"product_id"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderPaid struct {
	Type        string          `json:"type"`
	OrderID     uint            `json:"order_id"`
	UserID      string          `json:"user_id"`
	PaymentID   string          `json:"payment_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderPaidItem `json:"items"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func NewOrderPaid(order *models.Order, at time.Time) OrderPaid {
	items := make([]OrderPaidItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, OrderPaidItem{
			ProductID: it.ProductID,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return OrderPaid{
		Type:        TypeOrderPaid,
		OrderID:     order.ID,
		UserID:      order.UserID.String(),
		PaymentID:   order.PaymentID,
		TotalAmount: order.TotalAmount,
		Items:       items,
		OccurredAt:  at.UTC(),
	}
}

// Key partitions order events by order id.
func (e OrderPaid) Key() string {
	return strconv.FormatUint(uint64(e.OrderID), 10)
}

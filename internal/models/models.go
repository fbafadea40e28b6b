package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "Pending"
	OrderStatusPaid      = "Paid"
	OrderStatusShipped   = "Shipped"
	OrderStatusDelivered = "Delivered"
	OrderStatusCancelled = "Cancelled"
)

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

const (
	DesignStatusPending      = "Pending"
	DesignStatusReviewed     = "Reviewed"
	DesignStatusInProduction = "InProduction"
	DesignStatusCompleted    = "Completed"
	DesignStatusRejected     = "Rejected"
)

var DesignStatuses = []string{
	DesignStatusPending,
	DesignStatusReviewed,
	DesignStatusInProduction,
	DesignStatusCompleted,
	DesignStatusRejected,
}

type Product struct {
	ID            uint             `gorm:"primaryKey"                   json:"id"`
	Name          string           `gorm:"not null"                     json:"name"`
	Brand         string           `gorm:"not null;default:PULSEPR"     json:"brand"`
	Description   string           `                                    json:"description"`
	Category      string           `gorm:"index;not null"               json:"category"`
	Price         decimal.Decimal  `gorm:"type:numeric(12,2);not null"  json:"price"`
	DiscountPrice *decimal.Decimal `gorm:"type:numeric(12,2)"           json:"discountPrice,omitempty"`
	IsActive      bool             `gorm:"not null"                     json:"isActive"`
	Sizes         []Size           `gorm:"foreignKey:ProductID"         json:"sizes,omitempty"`
	Images        []ProductImage   `gorm:"foreignKey:ProductID"         json:"images,omitempty"`
	CreatedAt     time.Time        `                                    json:"createdAt"`
	UpdatedAt     time.Time        `                                    json:"updatedAt"`
}

// EffectivePrice is the discount price when one is set, otherwise the list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil && !p.DiscountPrice.IsZero() {
		return *p.DiscountPrice
	}
	return p.Price
}

type Size struct {
	ID            uint   `gorm:"primaryKey"                                   json:"id"`
	ProductID     uint   `gorm:"uniqueIndex:idx_product_size;not null"        json:"productId"`
	Size          string `gorm:"uniqueIndex:idx_product_size;not null"        json:"size"`
	StockQuantity int    `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stockQuantity"`
}

func (Size) TableName() string {
	return "sizes"
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey"     json:"id"`
	ProductID uint   `gorm:"index;not null" json:"productId"`
	ImageURL  string `gorm:"not null"       json:"imageUrl"`
}

type Cart struct {
	ID        uint       `gorm:"primaryKey"           json:"id"`
	UserID    uuid.UUID  `gorm:"uniqueIndex;not null" json:"userId"`
	Items     []CartItem `gorm:"foreignKey:CartID"    json:"items"`
	CreatedAt time.Time  `                            json:"createdAt"`
	UpdatedAt time.Time  `                            json:"updatedAt"`
}

type CartItem struct {
	ID        uint     `gorm:"primaryKey"                                 json:"id"`
	CartID    uint     `gorm:"uniqueIndex:idx_cart_product_size;not null" json:"cartId"`
	ProductID uint     `gorm:"uniqueIndex:idx_cart_product_size;not null" json:"productId"`
	Size      string   `gorm:"uniqueIndex:idx_cart_product_size;not null" json:"size"`
	Quantity  int      `gorm:"not null;default:1;check:quantity > 0"      json:"quantity"`
	Product   *Product `gorm:"foreignKey:ProductID"                       json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type Order struct {
	ID             uint            `gorm:"primaryKey"                  json:"id"`
	UserID         uuid.UUID       `gorm:"index;not null"              json:"userId"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	PaymentID      string          `gorm:"uniqueIndex;not null"        json:"paymentId"`
	GatewayOrderID string          `gorm:"index"                       json:"gatewayOrderId"`
	OrderStatus    string          `gorm:"not null;default:Pending"    json:"orderStatus"`
	Address        JSON            `gorm:"type:jsonb"                  json:"address"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID"          json:"orderItems,omitempty"`
	CreatedAt      time.Time       `                                   json:"createdAt"`
	UpdatedAt      time.Time       `                                   json:"updatedAt"`
}

// OrderItem.Price is the unit price at purchase time and is never recomputed.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                  json:"id"`
	OrderID   uint            `gorm:"index;not null"              json:"orderId"`
	ProductID uint            `gorm:"index;not null"              json:"productId"`
	Size      string          `gorm:"not null"                    json:"size"`
	Quantity  int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

type Offer struct {
	ID                 uint            `gorm:"primaryKey"                 json:"id"`
	Title              string          `gorm:"not null"                   json:"title"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"discountPercentage"`
	StartDate          time.Time       `gorm:"not null"                   json:"startDate"`
	EndDate            time.Time       `gorm:"not null"                   json:"endDate"`
	IsActive           bool            `gorm:"not null"                   json:"isActive"`
	CreatedAt          time.Time       `                                  json:"createdAt"`
}

type DesignUpload struct {
	ID        uint      `gorm:"primaryKey"         json:"id"`
	UserID    uuid.UUID `gorm:"index;not null"     json:"userId"`
	ImageURL  string    `gorm:"not null"           json:"imageUrl"`
	PublicID  string    `                          json:"publicId"`
	Note      *string   `                          json:"note"`
	PrintSize *string   `                          json:"printSize"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	Status    string    `gorm:"index;not null"     json:"status"`
	AdminNote *string   `                          json:"adminNote"`
	CreatedAt time.Time `                          json:"createdAt"`
	UpdatedAt time.Time `                          json:"updatedAt"`
}

type OutboxEvent struct {
	ID        uint       `gorm:"primaryKey"`
	EventID   uuid.UUID  `gorm:"uniqueIndex;not null"`
	Topic     string     `gorm:"not null"`
	Key       string     `gorm:"not null"`
	Payload   JSON       `gorm:"type:jsonb;not null"`
	CreatedAt time.Time  `gorm:"index"`
	SentAt    *time.Time `gorm:"index"`
}

func (OutboxEvent) TableName() string {
	return "outbox"
}

func (e *OutboxEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&Product{}, &Size{}, &ProductImage{},
		&Cart{}, &CartItem{},
		&Order{}, &OrderItem{},
		&Offer{}, &DesignUpload{},
		&OutboxEvent{},
	}
}

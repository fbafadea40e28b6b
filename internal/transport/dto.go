package transport

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
)

type LineItem struct {
	ProductID uint   `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type CreatePaymentOrderRequest struct {
	Items   []LineItem  `json:"items"`
	Address models.JSON `json:"address"`
}

type CreatePaymentOrderResponse struct {
	Success     bool            `json:"success"`
	Order       json.RawMessage `json:"order"`
	Items       []LineItem      `json:"items"`
	Address     models.JSON     `json:"address"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string           `json:"razorpay_order_id"`
	RazorpayPaymentID string           `json:"razorpay_payment_id"`
	RazorpaySignature string           `json:"razorpay_signature"`
	Items             []LineItem       `json:"items"`
	Address           models.JSON      `json:"address"`
	TotalAmount       *decimal.Decimal `json:"totalAmount"`
}

type VerifyPaymentResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Order   *models.Order `json:"order"`
}

type AddToCartRequest struct {
	ProductID uint   `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItemRequest struct {
	ItemID   uint `json:"itemId"`
	Quantity *int `json:"quantity"`
}

type SizeStock struct {
	Size          string `json:"size"`
	StockQuantity int    `json:"stockQuantity"`
}

type CreateProductRequest struct {
	Name          string           `json:"name"`
	Brand         string           `json:"brand"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice"`
	IsActive      *bool            `json:"isActive"`
	Images        []string         `json:"images"`
	Sizes         []SizeStock      `json:"sizes"`
}

// UpdateProductRequest changes only the fields that are present. Non-empty
// Images or Sizes replace the existing rows; a zero discountPrice clears it.
type UpdateProductRequest struct {
	Name          *string          `json:"name"`
	Brand         *string          `json:"brand"`
	Description   *string          `json:"description"`
	Category      *string          `json:"category"`
	Price         *decimal.Decimal `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice"`
	IsActive      *bool            `json:"isActive"`
	Images        []string         `json:"images"`
	Sizes         []SizeStock      `json:"sizes"`
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

type ProductsResponse struct {
	Products   []models.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

type UpdateOrderStatusRequest struct {
	OrderStatus string `json:"orderStatus"`
}

type CreateOfferRequest struct {
	Title              string          `json:"title"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	StartDate          time.Time       `json:"startDate"`
	EndDate            time.Time       `json:"endDate"`
	IsActive           *bool           `json:"isActive"`
}

type ApplyOfferRequest struct {
	OfferID  uint   `json:"offerId"`
	Category string `json:"category"`
}

type SubmitDesignRequest struct {
	ImageURL  string  `json:"imageUrl"`
	PublicID  string  `json:"publicId"`
	Note      *string `json:"note"`
	PrintSize *string `json:"printSize"`
	Quantity  int     `json:"quantity"`
}

type UpdateDesignStatusRequest struct {
	Status    string  `json:"status"`
	AdminNote *string `json:"adminNote"`
}

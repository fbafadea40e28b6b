package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/service"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/transport"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/logging"
	middleware "github.com/Divyesh-Chauhan/pulsepr-backend/pkg/middleware/auth"
)

type PaymentHTTP struct {
	Payments *service.PaymentService
	Checkout *service.CheckoutService
}

func (h *PaymentHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create_order")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(l, "create_payment_order_error", err)
	}

	var req transport.CreatePaymentOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_payment_order_error", "invalid body", err)
	}
	if len(req.Items) == 0 || req.Address.IsEmpty() {
		return badRequest(l, "create_payment_order_error", "items and address are required", nil)
	}

	order, err := h.Payments.CreatePaymentOrder(ctx, userID, req.Items, req.Address)
	if err != nil {
		return fail(l, "create_payment_order_error", err, http.StatusBadRequest)
	}

	l.Info("create_payment_order_success", "gateway_order_id", order.GatewayOrderID, "total", order.TotalAmount.String())
	return c.JSON(http.StatusOK, transport.CreatePaymentOrderResponse{
		Success:     true,
		Order:       order.GatewayOrder,
		Items:       order.Items,
		Address:     order.Address,
		TotalAmount: order.TotalAmount,
	})
}

func (h *PaymentHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(l, "verify_payment_error", err)
	}

	var req transport.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "verify_payment_error", "invalid body", err)
	}

	res, err := h.Checkout.VerifyPayment(ctx, service.CheckoutInput{
		UserID:         userID,
		GatewayOrderID: req.RazorpayOrderID,
		PaymentID:      req.RazorpayPaymentID,
		Signature:      req.RazorpaySignature,
		Items:          req.Items,
		Address:        req.Address,
		ClientTotal:    req.TotalAmount,
	})
	if err != nil {
		return fail(l, "verify_payment_error", err, http.StatusBadRequest)
	}

	msg := "Payment verified and order placed"
	if res.Existing {
		msg = "Payment already processed"
	}
	l.Info("verify_payment_success", "order_id", res.Order.ID, "existing", res.Existing)
	return c.JSON(http.StatusOK, transport.VerifyPaymentResponse{
		Success: true,
		Message: msg,
		Order:   res.Order,
	})
}

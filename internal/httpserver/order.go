package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/service"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/transport"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/logging"
	middleware "github.com/Divyesh-Chauhan/pulsepr-backend/pkg/middleware/auth"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(l, "my_orders_error", err)
	}

	offset, limit := Calculate(ParseIntDefault(c.QueryParam("page"), 1), ParseIntDefault(c.QueryParam("limit"), MaxPageSize))
	orders, err := h.Svc.MyOrders(ctx, userID, offset, limit)
	if err != nil {
		return fail(l, "my_orders_error", err, http.StatusNotFound)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	offset, limit := Calculate(ParseIntDefault(c.QueryParam("page"), 1), ParseIntDefault(c.QueryParam("limit"), MaxPageSize))
	orders, err := h.Svc.ListOrders(ctx, offset, limit)
	if err != nil {
		return fail(l, "list_orders_error", err, http.StatusNotFound)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "update_order_status_error", err.Error(), err)
	}

	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_order_status_error", "invalid body", err)
	}

	order, err := h.Svc.UpdateStatus(ctx, id, req.OrderStatus)
	if err != nil {
		return fail(l, "update_order_status_error", err, http.StatusNotFound)
	}

	l.Info("update_order_status_success", "order_id", order.ID, "status", order.OrderStatus)
	return c.JSON(http.StatusOK, order)
}

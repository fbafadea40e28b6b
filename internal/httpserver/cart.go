package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/service"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/transport"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/logging"
	middleware "github.com/Divyesh-Chauhan/pulsepr-backend/pkg/middleware/auth"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(l, "get_cart_error", err)
	}

	view, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return fail(l, "get_cart_error", err, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(l, "add_to_cart_error", err)
	}

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart_error", "invalid body", err)
	}

	item, err := h.Svc.AddToCart(ctx, userID, req.ProductID, req.Size, req.Quantity)
	if err != nil {
		return fail(l, "add_to_cart_error", err, http.StatusNotFound)
	}

	l.Info("add_to_cart_success", "item_id", item.ID)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) UpdateCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(l, "update_cart_error", err)
	}

	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_cart_error", "invalid body", err)
	}
	if req.ItemID == 0 || req.Quantity == nil {
		return badRequest(l, "update_cart_error", "itemId and quantity are required", nil)
	}

	item, err := h.Svc.UpdateCartItem(ctx, userID, req.ItemID, *req.Quantity)
	if err != nil {
		return fail(l, "update_cart_error", err, http.StatusNotFound)
	}
	if item == nil {
		return c.JSON(http.StatusOK, map[string]string{"message": "item removed"})
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(l, "remove_from_cart_error", err)
	}

	itemID, err := parseID(c, "itemId")
	if err != nil {
		return badRequest(l, "remove_from_cart_error", err.Error(), err)
	}

	if err := h.Svc.RemoveFromCart(ctx, userID, itemID); err != nil {
		return fail(l, "remove_from_cart_error", err, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "item removed"})
}

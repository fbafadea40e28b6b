package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/service"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/transport"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/logging"
)

type OfferHTTP struct {
	Svc *service.OfferService
}

func (h *OfferHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "offer.create")

	var req transport.CreateOfferRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_offer_error", "invalid body", err)
	}

	offer, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "create_offer_error", err, http.StatusNotFound)
	}
	return c.JSON(http.StatusCreated, offer)
}

func (h *OfferHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "offer.list")

	offers, err := h.Svc.List(ctx)
	if err != nil {
		return fail(l, "list_offers_error", err, http.StatusNotFound)
	}
	if offers == nil {
		offers = []models.Offer{}
	}
	return c.JSON(http.StatusOK, offers)
}

func (h *OfferHTTP) Apply(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "offer.apply")

	var req transport.ApplyOfferRequest
	if err := c.Bind(&req); err != nil || req.OfferID == 0 {
		return badRequest(l, "apply_offer_error", "offerId required", err)
	}

	n, err := h.Svc.Apply(ctx, req.OfferID, req.Category)
	if err != nil {
		return fail(l, "apply_offer_error", err, http.StatusNotFound)
	}

	l.Info("apply_offer_success", "offer_id", req.OfferID, "category", req.Category, "updated", n)
	return c.JSON(http.StatusOK, map[string]any{"message": "offer applied", "updated": n})
}

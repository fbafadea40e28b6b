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

type DesignHTTP struct {
	Svc *service.DesignService
}

func (h *DesignHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "design.submit")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(l, "submit_design_error", err)
	}

	var req transport.SubmitDesignRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "submit_design_error", "invalid body", err)
	}

	d, err := h.Svc.Submit(ctx, userID, req)
	if err != nil {
		return fail(l, "submit_design_error", err, http.StatusNotFound)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *DesignHTTP) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "design.list_mine")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(l, "list_designs_error", err)
	}

	designs, err := h.Svc.ListMine(ctx, userID)
	if err != nil {
		return fail(l, "list_designs_error", err, http.StatusNotFound)
	}
	if designs == nil {
		designs = []models.DesignUpload{}
	}
	return c.JSON(http.StatusOK, designs)
}

func (h *DesignHTTP) GetMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "design.get_mine")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(l, "get_design_error", err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_design_error", err.Error(), err)
	}

	d, err := h.Svc.GetMine(ctx, userID, id)
	if err != nil {
		return fail(l, "get_design_error", err, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DesignHTTP) DeleteMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "design.delete_mine")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(l, "delete_design_error", err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_design_error", err.Error(), err)
	}

	if err := h.Svc.DeleteMine(ctx, userID, id); err != nil {
		return fail(l, "delete_design_error", err, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "design deleted"})
}

func (h *DesignHTTP) ListAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "design.list_all")

	designs, err := h.Svc.ListAll(ctx)
	if err != nil {
		return fail(l, "list_all_designs_error", err, http.StatusNotFound)
	}
	if designs == nil {
		designs = []models.DesignUpload{}
	}
	return c.JSON(http.StatusOK, designs)
}

func (h *DesignHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "design.update_status")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "update_design_status_error", err.Error(), err)
	}

	var req transport.UpdateDesignStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_design_status_error", "invalid body", err)
	}

	d, err := h.Svc.UpdateStatus(ctx, id, req.Status, req.AdminNote)
	if err != nil {
		return fail(l, "update_design_status_error", err, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, d)
}

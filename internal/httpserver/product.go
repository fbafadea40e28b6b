package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/service"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/transport"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_product_failed", "id is not a positive integer", err)
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_failed", err, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := ParseIntDefault(c.QueryParam("page"), 1)
	size := ParseIntDefault(c.QueryParam("limit"), DefaultPageSize)
	offset, limit := Calculate(page, size)

	total, items, err := h.Svc.ListProducts(ctx, offset, limit)
	if err != nil {
		return fail(l, "get_products_error", err, http.StatusNotFound)
	}
	if items == nil {
		items = []models.Product{}
	}

	return c.JSON(http.StatusOK, transport.ProductsResponse{
		Products: items,
		Pagination: transport.Pagination{
			Total: total,
			Page:  max(page, 1),
			Limit: limit,
			Pages: TotalPages(total, limit),
		},
	})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_create_error", "invalid body", err)
	}

	product, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "product_create_error", err, http.StatusNotFound)
	}

	l.Info("product_create_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHTTP) ListAllProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list_all_products")

	page := ParseIntDefault(c.QueryParam("page"), 1)
	size := ParseIntDefault(c.QueryParam("limit"), DefaultPageSize)
	offset, limit := Calculate(page, size)

	total, items, err := h.Svc.ListAllProducts(ctx, offset, limit)
	if err != nil {
		return fail(l, "list_all_products_error", err, http.StatusNotFound)
	}
	if items == nil {
		items = []models.Product{}
	}

	return c.JSON(http.StatusOK, transport.ProductsResponse{
		Products: items,
		Pagination: transport.Pagination{
			Total: total,
			Page:  max(page, 1),
			Limit: limit,
			Pages: TotalPages(total, limit),
		},
	})
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_product")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "product_update_error", "id is not a positive integer", err)
	}

	var req transport.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_update_error", "invalid body", err)
	}

	product, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		return fail(l, "product_update_error", err, http.StatusNotFound)
	}

	l.Info("product_update_success", "product_id", id)
	return c.JSON(http.StatusOK, map[string]any{"message": "Product updated successfully", "product": product})
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "product_delete_error", "id is not a positive integer", err)
	}

	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "product_delete_error", err, http.StatusNotFound)
	}

	l.Info("product_delete_success", "product_id", id)
	return c.JSON(http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

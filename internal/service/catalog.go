package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/repo"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/transport"
)

type CatalogService struct {
	Repo  *repo.GormRepo
	Cache CartCache
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return product, err
}

func (s *CatalogService) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" {
		return nil, fmt.Errorf("%w: name and category are required", ErrValidation)
	}
	if !req.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if req.DiscountPrice != nil && (req.DiscountPrice.IsNegative() || req.DiscountPrice.GreaterThan(req.Price)) {
		return nil, fmt.Errorf("%w: discountPrice must be between 0 and price", ErrValidation)
	}

	product := &models.Product{
		Name:          req.Name,
		Brand:         req.Brand,
		Description:   req.Description,
		Category:      req.Category,
		Price:         req.Price.Round(2),
		DiscountPrice: req.DiscountPrice,
		IsActive:      true,
	}
	if product.Brand == "" {
		product.Brand = "PULSEPR"
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	sizes, err := buildSizes(req.Sizes)
	if err != nil {
		return nil, err
	}
	product.Sizes = sizes
	product.Images = buildImages(req.Images)

	if err := s.Repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) ListAllProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListAllProducts(ctx, offset, limit)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.UpdateProductRequest) (*models.Product, error) {
	sizes, err := buildSizes(req.Sizes)
	if err != nil {
		return nil, err
	}
	images := buildImages(req.Images)

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		current, err := tx.FindProduct(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		if err != nil {
			return err
		}

		fields, err := productChanges(current, req)
		if err != nil {
			return err
		}
		if err := tx.UpdateProductFields(ctx, id, fields); err != nil {
			return err
		}
		if len(sizes) > 0 {
			if err := tx.ReplaceSizes(ctx, id, sizes); err != nil {
				return err
			}
		}
		if len(images) > 0 {
			if err := tx.ReplaceImages(ctx, id, images); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateCartsHolding(ctx, s.Repo, s.Cache, []uint{id})
	return s.Repo.GetProduct(ctx, id)
}

// DeleteProduct refuses products that appear on an order, since order
// items keep referencing them. Deactivate those instead.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	var owners []uuid.UUID
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.FindProduct(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", ErrNotFound, id)
			}
			return err
		}

		ordered, err := tx.ProductHasOrders(ctx, id)
		if err != nil {
			return err
		}
		if ordered {
			return fmt.Errorf("%w: product %d has orders, deactivate it instead", ErrConflict, id)
		}

		if owners, err = tx.CartOwnersHolding(ctx, []uint{id}); err != nil {
			return err
		}
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}

	dropCachedCarts(ctx, s.Cache, owners)
	return nil
}

func productChanges(current *models.Product, req transport.UpdateProductRequest) (map[string]any, error) {
	fields := make(map[string]any)
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		fields["name"] = *req.Name
	}
	if req.Category != nil {
		if strings.TrimSpace(*req.Category) == "" {
			return nil, fmt.Errorf("%w: category must not be empty", ErrValidation)
		}
		fields["category"] = *req.Category
	}
	if req.Brand != nil && *req.Brand != "" {
		fields["brand"] = *req.Brand
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	price := current.Price
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
		}
		price = req.Price.Round(2)
		fields["price"] = price
	}

	discount := current.DiscountPrice
	if req.DiscountPrice != nil {
		if req.DiscountPrice.IsZero() {
			discount = nil
			fields["discount_price"] = nil
		} else {
			d := req.DiscountPrice.Round(2)
			discount = &d
			fields["discount_price"] = d
		}
	}
	if discount != nil && (discount.IsNegative() || discount.GreaterThan(price)) {
		return nil, fmt.Errorf("%w: discountPrice must be between 0 and price", ErrValidation)
	}
	return fields, nil
}

func buildSizes(in []transport.SizeStock) ([]models.Size, error) {
	sizes := make([]models.Size, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, sz := range in {
		if sz.Size == "" || sz.StockQuantity < 0 {
			return nil, fmt.Errorf("%w: sizes need a name and non-negative stock", ErrValidation)
		}
		if _, dup := seen[sz.Size]; dup {
			return nil, fmt.Errorf("%w: duplicate size %s", ErrValidation, sz.Size)
		}
		seen[sz.Size] = struct{}{}
		sizes = append(sizes, models.Size{Size: sz.Size, StockQuantity: sz.StockQuantity})
	}
	return sizes, nil
}

func buildImages(urls []string) []models.ProductImage {
	var images []models.ProductImage
	for _, url := range urls {
		if url != "" {
			images = append(images, models.ProductImage{ImageURL: url})
		}
	}
	return images
}

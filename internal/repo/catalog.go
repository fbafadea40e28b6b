package repo

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
)

// FindProduct loads the bare product row used for pricing.
func (r *GormRepo) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Images").
		First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return r.listProducts(ctx, true, offset, limit)
}

// ListAllProducts includes inactive products.
func (r *GormRepo) ListAllProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return r.listProducts(ctx, false, offset, limit)
}

func (r *GormRepo) listProducts(ctx context.Context, activeOnly bool, offset, limit int) (int64, []models.Product, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if activeOnly {
			return db.Where("is_active = ?", true)
		}
		return db
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Scopes(scope).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Preload("Sizes").
		Preload("Images").
		Scopes(scope).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// CreateProduct inserts the product together with its sizes and images.
func (r *GormRepo) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB.WithContext(ctx).Create(product).Error
}

func (r *GormRepo) UpdateProductFields(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields).Error
}

// ReplaceSizes swaps the product's size rows, stock included.
func (r *GormRepo) ReplaceSizes(ctx context.Context, productID uint, sizes []models.Size) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&models.Size{}).Error; err != nil {
		return err
	}
	for i := range sizes {
		sizes[i].ID = 0
		sizes[i].ProductID = productID
	}
	return db.Create(&sizes).Error
}

func (r *GormRepo) ReplaceImages(ctx context.Context, productID uint, images []models.ProductImage) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	for i := range images {
		images[i].ID = 0
		images[i].ProductID = productID
	}
	return db.Create(&images).Error
}

func (r *GormRepo) ProductHasOrders(ctx context.Context, productID uint) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", productID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteProduct removes the product with its sizes, images and any cart
// lines pointing at it. Call it inside Transaction.
func (r *GormRepo) DeleteProduct(ctx context.Context, productID uint) error {
	db := r.DB.WithContext(ctx)
	for _, dep := range []any{&models.CartItem{}, &models.Size{}, &models.ProductImage{}} {
		if err := db.Where("product_id = ?", productID).Delete(dep).Error; err != nil {
			return err
		}
	}
	return db.Delete(&models.Product{}, productID).Error
}

func (r *GormRepo) ListProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var items []models.Product
	if err := q.Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) UpdateDiscountPrice(ctx context.Context, productID uint, price decimal.Decimal) error {
	return r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("discount_price", price).Error
}

func (r *GormRepo) FindSize(ctx context.Context, productID uint, size string) (*models.Size, error) {
	var s models.Size
	if err := r.DB.WithContext(ctx).
		Where("product_id = ? AND size = ?", productID, size).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// LockSize reads the size row with SELECT ... FOR UPDATE. Dialects without
// row locks drop the clause; DecrementStock still refuses to oversell.
func (r *GormRepo) LockSize(ctx context.Context, productID uint, size string) (*models.Size, error) {
	var s models.Size
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND size = ?", productID, size).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// DecrementStock reports false when the row no longer holds qty units.
func (r *GormRepo) DecrementStock(ctx context.Context, sizeID uint, qty int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Size{}).
		Where("id = ? AND stock_quantity >= ?", sizeID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

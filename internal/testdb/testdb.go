// Package testdb opens an isolated in-memory SQLite database with the full schema.
package testdb

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// SQLite has a single writer; one connection makes concurrent
	// transactions queue instead of failing with SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SeedProduct creates a product with one size row. A zero discount leaves DiscountPrice unset.
func SeedProduct(t testing.TB, db *gorm.DB, price, discount decimal.Decimal, size string, stock int) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:     fmt.Sprintf("product-%s", uuid.NewString()[:8]),
		Brand:    "PULSEPR",
		Category: "tshirts",
		Price:    price,
		IsActive: true,
	}
	if !discount.IsZero() {
		d := discount
		p.DiscountPrice = &d
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if size != "" {
		AddSize(t, db, p.ID, size, stock)
	}
	return p
}

func AddSize(t testing.TB, db *gorm.DB, productID uint, size string, stock int) *models.Size {
	t.Helper()

	s := &models.Size{ProductID: productID, Size: size, StockQuantity: stock}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("seed size: %v", err)
	}
	return s
}

func Stock(t testing.TB, db *gorm.DB, productID uint, size string) int {
	t.Helper()

	var s models.Size
	if err := db.Where("product_id = ? AND size = ?", productID, size).First(&s).Error; err != nil {
		t.Fatalf("load size: %v", err)
	}
	return s.StockQuantity
}

func Count(t testing.TB, db *gorm.DB, model any) int64 {
	t.Helper()

	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/repo"
)

type OrderService struct {
	Repo *repo.GormRepo
}

func (s *OrderService) MyOrders(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Order, error) {
	return s.Repo.ListOrdersByUser(ctx, userID, limit, offset)
}

func (s *OrderService) ListOrders(ctx context.Context, offset, limit int) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, limit, offset)
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	if !slices.Contains(models.OrderStatuses, status) {
		return nil, fmt.Errorf("%w: orderStatus must be one of %v", ErrValidation, models.OrderStatuses)
	}

	order, err := s.Repo.UpdateOrderStatus(ctx, id, status)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return order, err
}

package repo

import (
	"context"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
)

func (r *GormRepo) CreateOffer(ctx context.Context, offer *models.Offer) error {
	return r.DB.WithContext(ctx).Create(offer).Error
}

func (r *GormRepo) ListOffers(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	if err := r.DB.WithContext(ctx).Order("start_date ASC, id ASC").Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *GormRepo) GetOffer(ctx context.Context, id uint) (*models.Offer, error) {
	var offer models.Offer
	if err := r.DB.WithContext(ctx).First(&offer, id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
)

func (r *GormRepo) CreateDesign(ctx context.Context, d *models.DesignUpload) error {
	return r.DB.WithContext(ctx).Create(d).Error
}

func (r *GormRepo) ListDesignsByUser(ctx context.Context, userID uuid.UUID) ([]models.DesignUpload, error) {
	var designs []models.DesignUpload
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&designs).Error; err != nil {
		return nil, err
	}
	return designs, nil
}

func (r *GormRepo) ListDesigns(ctx context.Context) ([]models.DesignUpload, error) {
	var designs []models.DesignUpload
	if err := r.DB.WithContext(ctx).Order("created_at DESC, id DESC").Find(&designs).Error; err != nil {
		return nil, err
	}
	return designs, nil
}

func (r *GormRepo) GetUserDesign(ctx context.Context, id uint, userID uuid.UUID) (*models.DesignUpload, error) {
	var d models.DesignUpload
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *GormRepo) DeleteDesign(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.DesignUpload{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) UpdateDesignStatus(ctx context.Context, id uint, status string, adminNote *string) (*models.DesignUpload, error) {
	res := r.DB.WithContext(ctx).Model(&models.DesignUpload{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "admin_note": adminNote})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var d models.DesignUpload
	if err := r.DB.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

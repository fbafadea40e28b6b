package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/repo"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/transport"
)

type DesignService struct {
	Repo *repo.GormRepo
}

func (s *DesignService) Submit(ctx context.Context, userID uuid.UUID, req transport.SubmitDesignRequest) (*models.DesignUpload, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, fmt.Errorf("%w: imageUrl required", ErrValidation)
	}

	d := &models.DesignUpload{
		UserID:    userID,
		ImageURL:  req.ImageURL,
		PublicID:  req.PublicID,
		Note:      req.Note,
		PrintSize: req.PrintSize,
		Quantity:  max(req.Quantity, 1),
		Status:    models.DesignStatusPending,
	}
	if err := s.Repo.CreateDesign(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DesignService) ListMine(ctx context.Context, userID uuid.UUID) ([]models.DesignUpload, error) {
	return s.Repo.ListDesignsByUser(ctx, userID)
}

func (s *DesignService) GetMine(ctx context.Context, userID uuid.UUID, id uint) (*models.DesignUpload, error) {
	d, err := s.Repo.GetUserDesign(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: design %d", ErrNotFound, id)
	}
	return d, err
}

// DeleteMine only removes designs that have not entered review or production.
func (s *DesignService) DeleteMine(ctx context.Context, userID uuid.UUID, id uint) error {
	d, err := s.GetMine(ctx, userID, id)
	if err != nil {
		return err
	}
	if d.Status != models.DesignStatusPending && d.Status != models.DesignStatusRejected {
		return fmt.Errorf("%w: design in status %s cannot be deleted", ErrValidation, d.Status)
	}
	return s.Repo.DeleteDesign(ctx, id)
}

func (s *DesignService) ListAll(ctx context.Context) ([]models.DesignUpload, error) {
	return s.Repo.ListDesigns(ctx)
}

func (s *DesignService) UpdateStatus(ctx context.Context, id uint, status string, adminNote *string) (*models.DesignUpload, error) {
	if !slices.Contains(models.DesignStatuses, status) {
		return nil, fmt.Errorf("%w: status must be one of %v", ErrValidation, models.DesignStatuses)
	}

	d, err := s.Repo.UpdateDesignStatus(ctx, id, status, adminNote)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: design %d", ErrNotFound, id)
	}
	return d, err
}

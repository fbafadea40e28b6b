package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
)

// InsertOutbox stores an event for the relay. Called inside the business
// transaction so the event exists iff the state change committed.
func (r *GormRepo) InsertOutbox(ctx context.Context, topic, key string, payload any) (*models.OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal outbox payload: %w", err)
	}

	ev := &models.OutboxEvent{Topic: topic, Key: key, Payload: data}
	if err := r.DB.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *GormRepo) FetchPendingOutbox(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var out []models.OutboxEvent
	if err := r.DB.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) MarkOutboxSent(ctx context.Context, id uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Update("sent_at", at).Error
}

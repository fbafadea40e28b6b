package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

type OutboxStore interface {
	FetchPendingOutbox(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkOutboxSent(ctx context.Context, id uint, at time.Time) error
}

// Relay drains the outbox table into Kafka. Delivery is at-least-once:
// a crash between publish and mark re-sends the row on the next tick.
type Relay struct {
	Store     OutboxStore
	Publisher Publisher
	Interval  time.Duration
	BatchSize int
	Logger    *slog.Logger
}

func (r *Relay) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.logger().Warn("outbox_flush_error", "error", err)
			}
		}
	}
}

// Flush publishes pending rows in id order and stops at the first failure
// so per-key ordering is preserved.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Store.FetchPendingOutbox(ctx, limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, ev := range pending {
		if err := r.Publisher.Publish(ctx, ev.Topic, ev.Key, ev.Payload); err != nil {
			return sent, err
		}
		if err := r.Store.MarkOutboxSent(ctx, ev.ID, time.Now().UTC()); err != nil {
			return sent, err
		}
		sent++
	}
	if sent > 0 {
		r.logger().Info("outbox_flushed", "sent", sent)
	}
	return sent, nil
}

func (r *Relay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

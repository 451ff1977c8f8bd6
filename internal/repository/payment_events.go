package repository

import (
	"context"
	"time"

	"frankiemoji/backend/internal/models"
)

func (r *Repository) PaymentEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payment_events WHERE event_id = $1)`, eventID).Scan(&exists)
	return exists, err
}

// RecordPaymentEvent adds a processed event to the ledger. A second record for
// the same event id returns models.ErrDuplicate.
func (r *Repository) RecordPaymentEvent(ctx context.Context, rec models.PaymentEventRecord) error {
	processedAt := rec.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO payment_events (event_id, order_id, event_type, processed_at)
VALUES ($1, $2::uuid, $3, $4);`, rec.EventID, rec.OrderID, rec.EventType, processedAt)
	return mapErr(err)
}

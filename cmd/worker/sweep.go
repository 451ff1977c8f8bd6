package main

import (
	"context"
	"log/slog"
	"time"

	"frankiemoji/backend/internal/orders"
)

type sweeper interface {
	Sweep(ctx context.Context, limit int) (orders.SweepResult, error)
	SweepDeliveries(ctx context.Context, limit int) (orders.SweepResult, error)
}

// runLoop sweeps immediately and then every interval until ctx is done. A
// failed pass is logged and retried on the next tick.
func runLoop(ctx context.Context, s sweeper, interval time.Duration, limit int, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := sweepOnce(ctx, s, limit, logger); err != nil && ctx.Err() == nil {
			logger.Error("sweep_failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sweepOnce(ctx context.Context, s sweeper, limit int, logger *slog.Logger) error {
	confirmations, err := s.Sweep(ctx, limit)
	if err != nil {
		return err
	}
	if confirmations.Checked > 0 {
		logger.Info("sweep_confirmations", "checked", confirmations.Checked,
			"email_sent", confirmations.EmailSent, "email_failed", confirmations.EmailFailed,
			"sms_sent", confirmations.SMSSent, "sms_failed", confirmations.SMSFailed)
	}

	deliveries, err := s.SweepDeliveries(ctx, limit)
	if err != nil {
		return err
	}
	if deliveries.Checked > 0 {
		logger.Info("sweep_deliveries", "checked", deliveries.Checked,
			"email_sent", deliveries.EmailSent, "email_failed", deliveries.EmailFailed,
			"sms_sent", deliveries.SMSSent, "sms_failed", deliveries.SMSFailed)
	}
	return nil
}

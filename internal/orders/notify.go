package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"frankiemoji/backend/internal/models"
	"frankiemoji/backend/internal/pricing"
)

const (
	DefaultSweepLimit = 50
	MaxSweepLimit     = 200
)

// SweepResult counts one sweep pass.
type SweepResult struct {
	Checked     int `json:"checked"`
	EmailSent   int `json:"email_sent"`
	EmailFailed int `json:"email_failed"`
	SMSSent     int `json:"sms_sent"`
	SMSFailed   int `json:"sms_failed"`
}

// Dispatcher sends order notifications at least once per channel. A channel
// flag is set right after its send succeeds, so a crash between the two causes
// at most one repeated message.
type Dispatcher struct {
	store  NotifyStore
	mailer Mailer
	sms    SMSSender
	logger *slog.Logger
}

// NewDispatcher builds a dispatcher. A nil mailer or sms sender disables that
// channel.
func NewDispatcher(store NotifyStore, mailer Mailer, sms SMSSender, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: store, mailer: mailer, sms: sms, logger: logger}
}

func (d *Dispatcher) channels() []models.Channel {
	var out []models.Channel
	if d.mailer != nil {
		out = append(out, models.ChannelEmail)
	}
	if d.sms != nil {
		out = append(out, models.ChannelSMS)
	}
	return out
}

// Sweep sends the order confirmation to up to limit paid orders that still
// miss it on a configured channel, oldest first.
func (d *Dispatcher) Sweep(ctx context.Context, limit int) (SweepResult, error) {
	var res SweepResult
	channels := d.channels()
	if len(channels) == 0 {
		d.logger.Warn("notification_sweep", "status", "no_channels")
		return res, nil
	}
	candidates, err := d.store.ListNotificationCandidates(ctx, models.PostPaymentStatuses, channels, clampSweepLimit(limit))
	if err != nil {
		return res, upstream("list notification candidates", err)
	}
	for _, order := range candidates {
		if ctx.Err() != nil {
			break
		}
		res.Checked++
		if d.sms != nil && !order.SMSSent && order.Phone != "" {
			if d.sendSMS(ctx, order, confirmationSMS(order)) {
				res.SMSSent++
				d.markNotified(ctx, order.ID, models.ChannelSMS)
			} else {
				res.SMSFailed++
			}
		}
		if d.mailer != nil && !order.EmailSent && order.Email != "" {
			if d.sendEmail(ctx, order, confirmationEmail(order)) {
				res.EmailSent++
				d.markNotified(ctx, order.ID, models.ChannelEmail)
			} else {
				res.EmailFailed++
			}
		}
	}
	d.logger.Info("notification_sweep", "status", "done", "checked", res.Checked,
		"email_sent", res.EmailSent, "email_failed", res.EmailFailed,
		"sms_sent", res.SMSSent, "sms_failed", res.SMSFailed)
	return res, ctx.Err()
}

// SweepDeliveries tells customers of ready orders that their pack is done.
// The delivery flag is set once any configured channel succeeded.
func (d *Dispatcher) SweepDeliveries(ctx context.Context, limit int) (SweepResult, error) {
	var res SweepResult
	if len(d.channels()) == 0 {
		return res, nil
	}
	candidates, err := d.store.ListDeliveryCandidates(ctx, clampSweepLimit(limit))
	if err != nil {
		return res, upstream("list delivery candidates", err)
	}
	for _, order := range candidates {
		if ctx.Err() != nil {
			break
		}
		res.Checked++
		delivered := false
		if d.sms != nil && order.Phone != "" {
			if d.sendSMS(ctx, order, readySMS(order)) {
				res.SMSSent++
				delivered = true
			} else {
				res.SMSFailed++
			}
		}
		if d.mailer != nil && order.Email != "" {
			if d.sendEmail(ctx, order, readyEmail(order)) {
				res.EmailSent++
				delivered = true
			} else {
				res.EmailFailed++
			}
		}
		if delivered {
			d.markNotified(ctx, order.ID, models.ChannelDelivery)
		}
	}
	d.logger.Info("delivery_sweep", "status", "done", "checked", res.Checked,
		"email_sent", res.EmailSent, "sms_sent", res.SMSSent)
	return res, ctx.Err()
}

func (d *Dispatcher) sendSMS(ctx context.Context, order models.Order, body string) bool {
	to, err := NormalizePhone(order.Phone)
	if err != nil || to == "" {
		d.logger.Warn("notification_sms", "status", "invalid_phone", "order_id", order.ID)
		return false
	}
	if err := d.sms.SendSMS(ctx, to, body); err != nil {
		d.logger.Warn("notification_sms", "status", "send_failed", "order_id", order.ID, "error", err)
		return false
	}
	return true
}

func (d *Dispatcher) sendEmail(ctx context.Context, order models.Order, msg EmailMessage) bool {
	if err := d.mailer.SendEmail(ctx, msg); err != nil {
		d.logger.Warn("notification_email", "status", "send_failed", "order_id", order.ID, "error", err)
		return false
	}
	return true
}

func (d *Dispatcher) markNotified(ctx context.Context, orderID string, ch models.Channel) {
	if _, err := d.store.MarkNotified(ctx, orderID, ch); err != nil {
		d.logger.Warn("notification_flag", "status", "write_failed", "order_id", orderID, "channel", ch, "error", err)
	}
}

func clampSweepLimit(limit int) int {
	if limit <= 0 {
		return DefaultSweepLimit
	}
	if limit > MaxSweepLimit {
		return MaxSweepLimit
	}
	return limit
}

// ShortOrderID is the customer-facing order reference.
func ShortOrderID(id string) string {
	short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(short) > 8 {
		short = short[:8]
	}
	return short
}

func confirmationSMS(order models.Order) string {
	return fmt.Sprintf("Frankiemoji: we got your %s order #%s. We'll text you when your emojis are ready.",
		pricing.Label(order.PackType), ShortOrderID(order.ID))
}

func confirmationEmail(order models.Order) EmailMessage {
	ref := ShortOrderID(order.ID)
	return EmailMessage{
		To:      order.Email,
		Subject: fmt.Sprintf("Your Frankiemoji order #%s", ref),
		Text: fmt.Sprintf("Thanks for your order!\n\nWe received your %s order #%s and our artists are on it. "+
			"We'll let you know as soon as your emojis are ready.\n\n– Frankiemoji Studios",
			pricing.Label(order.PackType), ref),
	}
}

func readySMS(order models.Order) string {
	return fmt.Sprintf("Frankiemoji: your %s #%s is ready! Check your email for the download link.",
		pricing.Label(order.PackType), ShortOrderID(order.ID))
}

func readyEmail(order models.Order) EmailMessage {
	ref := ShortOrderID(order.ID)
	return EmailMessage{
		To:      order.Email,
		Subject: fmt.Sprintf("Your Frankiemoji %s is ready", pricing.Label(order.PackType)),
		Text: fmt.Sprintf("Good news! Your %s order #%s is ready.\n\n– Frankiemoji Studios",
			pricing.Label(order.PackType), ref),
	}
}

package orders

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"frankiemoji/backend/internal/models"

	"github.com/google/uuid"
)

const (
	EventTypeSessionCompleted      = "checkout.session.completed"
	EventTypeAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// maxApplyAttempts bounds compare-and-swap retries when the order status moves
// underneath a reconciliation.
const maxApplyAttempts = 3

// Outcome describes what a webhook delivery did. Every outcome is acknowledged
// to the provider; only errors make it redeliver.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeIgnored    Outcome = "ignored"
	OutcomeUnresolved Outcome = "unresolved"
)

var errUnresolved = errors.New("order unresolved")

// Reconciler applies verified payment events and admin transitions to orders.
type Reconciler struct {
	store    ReconcileStore
	verifier EventVerifier
	logger   *slog.Logger
}

func NewReconciler(store ReconcileStore, verifier EventVerifier, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, verifier: verifier, logger: logger}
}

// HandleWebhook verifies payload against signature and, for payment
// confirmations, moves the matched order into its post-payment status with the
// provider's amounts. A verification failure touches nothing.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	if strings.TrimSpace(signature) == "" {
		return "", &AuthError{Reason: "missing signature"}
	}
	ev, err := r.verifier.VerifyEvent(payload, signature)
	if err != nil {
		r.logger.Warn("stripe_webhook", "status", "invalid_signature", "error", err)
		return "", &AuthError{Reason: "invalid signature"}
	}

	if !confirmsPayment(ev) {
		r.logger.Debug("stripe_webhook", "status", "ignored", "event_id", ev.ID, "event_type", ev.Type)
		return OutcomeIgnored, nil
	}

	if ev.ID != "" {
		done, err := r.store.PaymentEventProcessed(ctx, ev.ID)
		if err != nil {
			return "", upstream("check payment event", err)
		}
		if done {
			r.logger.Info("stripe_webhook", "status", "duplicate", "event_id", ev.ID)
			return OutcomeDuplicate, nil
		}
	}

	order, err := r.resolveOrder(ctx, ev)
	if errors.Is(err, errUnresolved) {
		r.logger.Warn("stripe_webhook", "status", "order_unresolved", "event_id", ev.ID,
			"session_id", ev.SessionID, "metadata_order_id", ev.OrderID)
		return OutcomeUnresolved, nil
	}
	if err != nil {
		return "", upstream("load order", err)
	}

	order, err = r.applyPayment(ctx, order, ev)
	if err != nil {
		r.logger.Error("stripe_webhook", "status", "apply_failed", "event_id", ev.ID, "order_id", order.ID, "error", err)
		return "", err
	}

	if ev.ID != "" {
		rec := models.PaymentEventRecord{
			EventID:     ev.ID,
			OrderID:     order.ID,
			EventType:   ev.Type,
			ProcessedAt: time.Now().UTC(),
		}
		if err := r.store.RecordPaymentEvent(ctx, rec); err != nil && !errors.Is(err, models.ErrDuplicate) {
			r.logger.Warn("stripe_webhook", "status", "ledger_write_failed", "event_id", ev.ID, "order_id", order.ID, "error", err)
		}
	}

	r.logger.Info("stripe_webhook", "status", "applied", "event_id", ev.ID, "order_id", order.ID,
		"order_status", order.Status, "final_price_cents", order.FinalPriceCents)
	return OutcomeApplied, nil
}

// Advance applies an operator event such as a manual payment or a fulfillment
// step and returns the order as stored afterwards.
func (r *Reconciler) Advance(ctx context.Context, orderID string, ev Event) (models.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return models.Order{}, &NotFoundError{ID: orderID}
	}
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		order, err := r.store.GetOrder(ctx, orderID)
		if errors.Is(err, models.ErrNotFound) {
			return models.Order{}, &NotFoundError{ID: orderID}
		}
		if err != nil {
			return models.Order{}, upstream("load order", err)
		}
		next, err := Next(order.Status, ev)
		if err != nil {
			return order, err
		}
		if next == order.Status {
			return order, nil
		}
		err = r.store.UpdateStatus(ctx, orderID, order.Status, next)
		if errors.Is(err, models.ErrStatusConflict) {
			continue
		}
		if err != nil {
			return order, upstream("update order status", err)
		}
		r.logger.Info("order_transition", "status", "applied", "order_id", orderID,
			"from", order.Status, "to", next, "event", ev)
		order.Status = next
		return order, nil
	}
	return models.Order{}, upstream("update order status", models.ErrStatusConflict)
}

func (r *Reconciler) applyPayment(ctx context.Context, order models.Order, ev PaymentEvent) (models.Order, error) {
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		next, err := Next(order.Status, EventPaymentConfirmed)
		if err != nil {
			return order, err
		}
		upd := models.PaymentUpdate{
			Status:          next,
			BasePriceCents:  ev.AmountTotal + ev.AmountDiscount,
			FinalPriceCents: ev.AmountTotal,
			PaymentIntentID: ev.PaymentIntentID,
		}
		err = r.store.ApplyPayment(ctx, order.ID, order.Status, upd)
		if err == nil {
			order.Status = upd.Status
			order.BasePriceCents = upd.BasePriceCents
			order.FinalPriceCents = upd.FinalPriceCents
			if upd.PaymentIntentID != "" {
				order.PaymentIntentID = upd.PaymentIntentID
			}
			return order, nil
		}
		if !errors.Is(err, models.ErrStatusConflict) {
			return order, upstream("apply payment", err)
		}
		reloaded, err := r.store.GetOrder(ctx, order.ID)
		if err != nil {
			return order, upstream("reload order", err)
		}
		order = reloaded
	}
	return order, upstream("apply payment", models.ErrStatusConflict)
}

// resolveOrder finds the order by the metadata order id, falling back to the
// linked session id.
func (r *Reconciler) resolveOrder(ctx context.Context, ev PaymentEvent) (models.Order, error) {
	if id := strings.TrimSpace(ev.OrderID); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			order, err := r.store.GetOrder(ctx, id)
			if err == nil {
				return order, nil
			}
			if !errors.Is(err, models.ErrNotFound) {
				return models.Order{}, err
			}
		}
	}
	if ev.SessionID == "" {
		return models.Order{}, errUnresolved
	}
	order, err := r.store.GetOrderBySession(ctx, ev.SessionID)
	if errors.Is(err, models.ErrNotFound) {
		return models.Order{}, errUnresolved
	}
	return order, err
}

func confirmsPayment(ev PaymentEvent) bool {
	switch ev.Type {
	case EventTypeSessionCompleted:
		return ev.PaymentStatus != "unpaid"
	case EventTypeAsyncPaymentSucceeded:
		return true
	default:
		return false
	}
}

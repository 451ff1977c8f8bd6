package handlers

import (
	"errors"
	"io"
	"net/http"

	"frankiemoji/backend/internal/orders"
)

const (
	maxWebhookBody  = 65536
	signatureHeader = "Stripe-Signature"
)

// StripeWebhook acknowledges an event only after it has been applied or
// deliberately skipped. Anything else is answered with an error status so
// Stripe delivers it again.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		logger.Warn("stripe_webhook", "status", "read_failed", "error", err)
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if len(body) > maxWebhookBody {
		logger.Warn("stripe_webhook", "status", "body_too_large")
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	outcome, err := h.svc.Payments.HandleWebhook(ctx, body, r.Header.Get(signatureHeader))
	if err != nil {
		var aerr *orders.AuthError
		if errors.As(err, &aerr) {
			writeError(w, http.StatusBadRequest, "invalid signature")
			return
		}
		logger.Error("stripe_webhook", "status", "processing_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"received": true, "outcome": outcome})
}

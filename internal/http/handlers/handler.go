package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"frankiemoji/backend/internal/integrations"
	"frankiemoji/backend/internal/models"
	"frankiemoji/backend/internal/orders"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type CheckoutService interface {
	Initiate(ctx context.Context, req orders.CheckoutRequest) (orders.CheckoutResult, error)
	DirectUpload(ctx context.Context, req orders.UploadRequest) (models.Order, error)
}

type PaymentService interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (orders.Outcome, error)
	Advance(ctx context.Context, orderID string, ev orders.Event) (models.Order, error)
}

type NotificationService interface {
	Sweep(ctx context.Context, limit int) (orders.SweepResult, error)
	SweepDeliveries(ctx context.Context, limit int) (orders.SweepResult, error)
}

type OrderQueries interface {
	List(ctx context.Context, q orders.ListQuery) (orders.Page, error)
	Get(ctx context.Context, id string) (models.Order, error)
}

type WaitlistService interface {
	Join(ctx context.Context, req orders.WaitlistRequest) (models.WaitlistEntry, bool, error)
}

type PhotoUploader interface {
	PresignPhotoUpload(ctx context.Context, contentType string) (integrations.UploadTarget, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Services bundles what the handlers call. Uploads and Health may be nil.
type Services struct {
	Checkout      CheckoutService
	Payments      PaymentService
	Notifications NotificationService
	Orders        OrderQueries
	Waitlist      WaitlistService
	Uploads       PhotoUploader
	Health        HealthChecker
}

type Handler struct {
	svc    Services
	logger *slog.Logger
}

func New(svc Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

func (h *Handler) loggerForRequest(r *http.Request) *slog.Logger {
	logger := h.logger
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.svc.Health != nil {
		ctx, cancel := h.withTimeout(r.Context())
		defer cancel()
		if err := h.svc.Health.Ping(ctx); err != nil {
			h.loggerForRequest(r).Error("healthz", "status", "db_unreachable", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

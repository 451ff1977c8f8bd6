package main

import (
	"log/slog"
	"net/http"
	"time"

	"frankiemoji/backend/internal/config"
	"frankiemoji/backend/internal/http/handlers"
	"frankiemoji/backend/internal/http/middleware"
	"frankiemoji/backend/internal/rate"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// newRouter wires every route. limiter may be nil, which disables rate
// limiting.
func newRouter(h *handlers.Handler, admin config.AdminConfig, limiter rate.Limiter, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(10 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/healthz", h.Healthz)

	// Stripe retries on its own schedule; it is never rate limited.
	r.Post("/api/stripe-webhook", h.StripeWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter, logger))
		r.Post("/api/create-checkout-session", h.CreateCheckoutSession)
		r.Post("/api/upload", h.Upload)
		r.Post("/api/upload-url", h.CreateUploadURL)
		r.Post("/api/notify-waitlist", h.NotifyWaitlist)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminKey(admin.OrdersKey, admin.OrdersKeyHash, logger))
		r.Get("/orders", h.ListAdminOrders)
		r.Get("/orders/{id}", h.GetAdminOrder)
		r.Post("/orders/{id}/mark-paid", h.MarkOrderPaid)
		r.Post("/orders/{id}/status", h.SetOrderStatus)
		r.Post("/notifications/sweep", h.RunNotificationSweep)
	})

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,X-Admin-Key,Stripe-Signature")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"frankiemoji/backend/internal/models"
	"frankiemoji/backend/internal/orders"

	"github.com/go-chi/chi/v5"
)

type listOrdersResponse struct {
	OK     bool           `json:"ok"`
	Orders []models.Order `json:"orders"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type orderResponse struct {
	OK    bool         `json:"ok"`
	Order models.Order `json:"order"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type sweepResponse struct {
	OK            bool               `json:"ok"`
	Confirmations orders.SweepResult `json:"confirmations"`
	Deliveries    orders.SweepResult `json:"deliveries"`
}

func (h *Handler) ListAdminOrders(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	query := r.URL.Query()

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	page, err := h.svc.Orders.List(ctx, orders.ListQuery{
		Limit:  parseIntQuery(r, "limit", orders.DefaultPageLimit),
		Offset: parseIntQuery(r, "offset", 0),
		Status: query.Get("status"),
		Email:  query.Get("email"),
		Phone:  query.Get("phone"),
	})
	if err != nil {
		writeOrderError(logger, w, "admin_list_orders", err)
		return
	}
	writeJSON(w, http.StatusOK, listOrdersResponse{
		OK:     true,
		Orders: page.Orders,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

func (h *Handler) GetAdminOrder(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	orderID := strings.TrimSpace(chi.URLParam(r, "id"))
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	order, err := h.svc.Orders.Get(ctx, orderID)
	if err != nil {
		writeOrderError(logger, w, "admin_get_order", err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{OK: true, Order: order})
}

func (h *Handler) MarkOrderPaid(w http.ResponseWriter, r *http.Request) {
	h.advanceOrder(w, r, "admin_mark_paid", orders.EventManualPaid)
}

func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("admin_set_status", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ev, ok := orders.EventForStatus(models.Status(strings.ToLower(strings.TrimSpace(req.Status))))
	if !ok {
		logger.Warn("admin_set_status", "status", "invalid_target", "target", req.Status)
		writeError(w, http.StatusBadRequest, "status must be one of paid, ready, delivered")
		return
	}
	h.advanceOrder(w, r, "admin_set_status", ev)
}

func (h *Handler) advanceOrder(w http.ResponseWriter, r *http.Request, action string, ev orders.Event) {
	logger := h.loggerForRequest(r)
	orderID := strings.TrimSpace(chi.URLParam(r, "id"))
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	order, err := h.svc.Payments.Advance(ctx, orderID, ev)
	if err != nil {
		writeOrderError(logger, w, action, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{OK: true, Order: order})
}

// RunNotificationSweep runs one confirmation pass and one delivery pass.
func (h *Handler) RunNotificationSweep(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	limit := parseIntQuery(r, "limit", orders.DefaultSweepLimit)

	confirmations, err := h.svc.Notifications.Sweep(r.Context(), limit)
	if err != nil {
		writeOrderError(logger, w, "admin_notification_sweep", err)
		return
	}
	deliveries, err := h.svc.Notifications.SweepDeliveries(r.Context(), limit)
	if err != nil {
		writeOrderError(logger, w, "admin_notification_sweep", err)
		return
	}
	writeJSON(w, http.StatusOK, sweepResponse{OK: true, Confirmations: confirmations, Deliveries: deliveries})
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

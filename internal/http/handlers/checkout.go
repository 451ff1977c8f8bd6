package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"frankiemoji/backend/internal/orders"
)

// orderPayload accepts both the camelCase fields the upload page sends and
// the snake_case fields older pages used.
type orderPayload struct {
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	PackType       string   `json:"packType"`
	PackTypeSnake  string   `json:"pack_type"`
	PromoCode      string   `json:"promoCode"`
	PromoCodeSnake string   `json:"promo_code"`
	Expressions    []string `json:"expressions"`
	ImageURL       string   `json:"imageUrl"`
	ImageURLSnake  string   `json:"image_url"`
	ImagePath      string   `json:"image_path"`
}

func (p orderPayload) packType() string {
	return firstNonEmpty(p.PackType, p.PackTypeSnake)
}

func (p orderPayload) promoCode() string {
	return firstNonEmpty(p.PromoCode, p.PromoCodeSnake)
}

func (p orderPayload) image() string {
	return firstNonEmpty(p.ImageURL, p.ImageURLSnake, p.ImagePath)
}

type checkoutResponse struct {
	OK          bool   `json:"ok"`
	CheckoutURL string `json:"checkoutUrl"`
	OrderID     string `json:"orderId"`
}

func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var payload orderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Warn("create_checkout_session", "status", "invalid_json")
		writeFailure(w, http.StatusBadRequest, "invalid json", "")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	res, err := h.svc.Checkout.Initiate(ctx, orders.CheckoutRequest{
		Email:       payload.Email,
		Phone:       payload.Phone,
		PackType:    payload.packType(),
		PromoCode:   payload.promoCode(),
		Expressions: payload.Expressions,
		ImagePath:   payload.image(),
	})
	if err != nil {
		writePublicOrderError(logger, w, "create_checkout_session", err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{OK: true, CheckoutURL: res.CheckoutURL, OrderID: res.OrderID})
}

// Upload records a direct photo submission without hosted checkout.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var payload orderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Warn("upload", "status", "invalid_json")
		writeFailure(w, http.StatusBadRequest, "invalid json", "")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	order, err := h.svc.Checkout.DirectUpload(ctx, orders.UploadRequest{
		Email:       payload.Email,
		Phone:       payload.Phone,
		PackType:    payload.packType(),
		PromoCode:   payload.promoCode(),
		Expressions: payload.Expressions,
		ImagePath:   payload.image(),
	})
	if err != nil {
		writePublicOrderError(logger, w, "upload", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "order_id": order.ID})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

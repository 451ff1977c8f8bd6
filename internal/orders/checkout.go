package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"frankiemoji/backend/internal/models"
	"frankiemoji/backend/internal/pricing"

	"github.com/go-playground/validator/v10"
)

// maxMetadataValue is the provider's per-value metadata limit.
const maxMetadataValue = 500

type CheckoutRequest struct {
	Email       string   `json:"email" validate:"required,email,max=320"`
	Phone       string   `json:"phone" validate:"max=32"`
	PackType    string   `json:"packType" validate:"required,packtier"`
	PromoCode   string   `json:"promoCode" validate:"max=64"`
	Expressions []string `json:"expressions" validate:"max=50,dive,max=64"`
	ImagePath   string   `json:"imageUrl" validate:"required,max=2048"`
}

type CheckoutResult struct {
	CheckoutURL string `json:"checkoutUrl"`
	OrderID     string `json:"orderId"`
}

// Initiator creates orders and the hosted payment sessions that pay for them.
type Initiator struct {
	store    CheckoutStore
	payments PaymentProvider
	validate *validator.Validate
	logger   *slog.Logger
}

func NewInitiator(store CheckoutStore, payments PaymentProvider, logger *slog.Logger) *Initiator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Initiator{
		store:    store,
		payments: payments,
		validate: newValidator(),
		logger:   logger,
	}
}

// Initiate inserts a pending order, opens a hosted checkout for it and links
// the session back to the order. The link write is best effort: once the
// session exists the caller gets its URL even if the link could not be stored.
// A failed session leaves the pending order in place without a session id.
func (i *Initiator) Initiate(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	req, err := i.normalize(req)
	if err != nil {
		return CheckoutResult{}, err
	}
	quote := pricing.Resolve(req.PackType, req.PromoCode)

	order, err := i.store.InsertOrder(ctx, models.NewOrder{
		Status:          models.StatusPendingPayment,
		PackType:        quote.PackType,
		Expressions:     req.Expressions,
		Email:           req.Email,
		Phone:           req.Phone,
		ImagePath:       req.ImagePath,
		PromoCode:       req.PromoCode,
		BasePriceCents:  quote.BaseCents,
		FinalPriceCents: quote.FinalCents,
	})
	if err != nil {
		return CheckoutResult{}, upstream("insert order", err)
	}

	session, err := i.payments.CreateSession(ctx, SessionRequest{
		OrderID:       order.ID,
		PackType:      order.PackType,
		PackLabel:     pricing.Label(order.PackType),
		BaseCents:     quote.BaseCents,
		PromoCode:     quote.AppliedPromo,
		CustomerEmail: order.Email,
		Metadata:      snapshotMetadata(order),
	})
	if err != nil {
		i.logger.Error("checkout", "status", "session_failed", "order_id", order.ID, "error", err)
		return CheckoutResult{OrderID: order.ID}, providerFailure("create payment session", err)
	}

	if err := i.store.SetPaymentSession(ctx, order.ID, session.ID); err != nil {
		i.logger.Warn("checkout", "status", "session_link_failed", "order_id", order.ID, "session_id", session.ID, "error", err)
	}

	i.logger.Info("checkout", "status", "created", "order_id", order.ID, "session_id", session.ID,
		"pack_type", order.PackType, "promo_code", quote.AppliedPromo, "final_price_cents", quote.FinalCents)
	return CheckoutResult{CheckoutURL: session.URL, OrderID: order.ID}, nil
}

func (i *Initiator) normalize(req CheckoutRequest) (CheckoutRequest, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.PackType = string(pricing.NormalizeTier(req.PackType))
	req.PromoCode = pricing.NormalizePromo(req.PromoCode)
	req.ImagePath = strings.TrimSpace(req.ImagePath)
	req.Expressions = cleanExpressions(req.Expressions)
	if err := i.validate.Struct(req); err != nil {
		return req, validationError(err)
	}
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return req, &ValidationError{Field: "phone", Reason: "must be a valid phone number"}
	}
	req.Phone = phone
	return req, nil
}

// snapshotMetadata copies the order fields the webhook may need into session
// metadata, so the order can be understood even if the link write failed.
func snapshotMetadata(order models.Order) map[string]string {
	return map[string]string{
		"orderId":     order.ID,
		"email":       order.Email,
		"phone":       order.Phone,
		"packType":    string(order.PackType),
		"promoCode":   order.PromoCode,
		"expressions": expressionsJSON(order.Expressions),
		"imageUrl":    truncate(order.ImagePath, maxMetadataValue),
	}
}

// expressionsJSON encodes as many leading expressions as fit in one metadata
// value.
func expressionsJSON(expressions []string) string {
	for n := len(expressions); n >= 0; n-- {
		raw, err := json.Marshal(expressions[:n])
		if err != nil {
			return "[]"
		}
		if len(raw) <= maxMetadataValue {
			return string(raw)
		}
	}
	return "[]"
}

func cleanExpressions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, expr := range in {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		out = append(out, expr)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// UploadRequest is a photo submission that skips hosted checkout. The pack
// defaults to the starter tier.
type UploadRequest struct {
	Email       string   `json:"email" validate:"required,email,max=320"`
	Phone       string   `json:"phone" validate:"max=32"`
	PackType    string   `json:"packType" validate:"omitempty,packtier"`
	PromoCode   string   `json:"promoCode" validate:"max=64"`
	Expressions []string `json:"expressions" validate:"max=50,dive,max=64"`
	ImagePath   string   `json:"imageUrl" validate:"required,max=2048"`
}

// DirectUpload records an order that is already settled outside the hosted
// checkout, so it starts in received and is picked up by the next sweep.
func (i *Initiator) DirectUpload(ctx context.Context, req UploadRequest) (models.Order, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.PackType = string(pricing.NormalizeTier(req.PackType))
	req.PromoCode = pricing.NormalizePromo(req.PromoCode)
	req.ImagePath = strings.TrimSpace(req.ImagePath)
	req.Expressions = cleanExpressions(req.Expressions)
	if err := i.validate.Struct(req); err != nil {
		return models.Order{}, validationError(err)
	}
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return models.Order{}, &ValidationError{Field: "phone", Reason: "must be a valid phone number"}
	}
	if req.PackType == "" {
		req.PackType = string(pricing.DefaultTier)
	}

	quote := pricing.Resolve(req.PackType, req.PromoCode)
	order, err := i.store.InsertOrder(ctx, models.NewOrder{
		Status:          models.StatusReceived,
		PackType:        quote.PackType,
		Expressions:     req.Expressions,
		Email:           req.Email,
		Phone:           phone,
		ImagePath:       req.ImagePath,
		PromoCode:       req.PromoCode,
		BasePriceCents:  quote.BaseCents,
		FinalPriceCents: quote.FinalCents,
	})
	if err != nil {
		return models.Order{}, upstream("insert order", err)
	}
	i.logger.Info("upload", "status", "created", "order_id", order.ID, "pack_type", order.PackType)
	return order, nil
}

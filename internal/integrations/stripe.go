package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"frankiemoji/backend/internal/config"
	"frankiemoji/backend/internal/orders"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeClient creates hosted checkout sessions and verifies webhook events.
type StripeClient struct {
	api            *client.API
	webhookSecret  string
	successURL     string
	cancelURL      string
	priceIDs       map[string]string
	promotionCodes map[string]string
}

// NewStripeClient creates stripe client. A non-empty cfg.APIBaseURL points the
// client at another API host, which tests use.
func NewStripeClient(cfg config.StripeConfig, httpClient *http.Client) *StripeClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	var backends *stripe.Backends
	if cfg.APIBaseURL != "" {
		backendCfg := &stripe.BackendConfig{
			HTTPClient: httpClient,
			URL:        stripe.String(strings.TrimRight(cfg.APIBaseURL, "/")),
		}
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)
		backends = &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	} else {
		backends = stripe.NewBackends(httpClient)
	}
	return &StripeClient{
		api:            client.New(cfg.SecretKey, backends),
		webhookSecret:  cfg.WebhookSecret,
		successURL:     cfg.SuccessURL,
		cancelURL:      cfg.CancelURL,
		priceIDs:       cfg.PriceIDs,
		promotionCodes: cfg.PromotionCodes,
	}
}

// CreateSession creates a one-item payment session. Tiers with a configured
// price id use it; others are charged inline from the pricing table. Promo
// codes with a configured promotion id are applied up front; otherwise the
// customer may still enter a code on the hosted page.
func (c *StripeClient) CreateSession(ctx context.Context, req orders.SessionRequest) (orders.Session, error) {
	item := &stripe.CheckoutSessionLineItemParams{Quantity: stripe.Int64(1)}
	if priceID := c.priceIDs[string(req.PackType)]; priceID != "" {
		item.Price = stripe.String(priceID)
	} else {
		item.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(string(stripe.CurrencyUSD)),
			UnitAmount: stripe.Int64(req.BaseCents),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(req.PackLabel),
			},
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(strings.ReplaceAll(c.successURL, "{order_id}", req.OrderID)),
		CancelURL:         stripe.String(c.cancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
		LineItems:         []*stripe.CheckoutSessionLineItemParams{item},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if promoID := c.promotionCodes[req.PromoCode]; req.PromoCode != "" && promoID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{PromotionCode: stripe.String(promoID)},
		}
	} else {
		params.AllowPromotionCodes = stripe.Bool(true)
	}
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return orders.Session{}, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return orders.Session{ID: session.ID, URL: session.URL}, nil
}

// checkoutSessionObject is the part of a checkout session event payload that
// reconciliation reads.
type checkoutSessionObject struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	AmountTotal       int64             `json:"amount_total"`
	PaymentStatus     string            `json:"payment_status"`
	Metadata          map[string]string `json:"metadata"`
	PaymentIntent     json.RawMessage   `json:"payment_intent"`
	TotalDetails      struct {
		AmountDiscount int64 `json:"amount_discount"`
	} `json:"total_details"`
	Discounts []struct {
		PromotionCode json.RawMessage `json:"promotion_code"`
	} `json:"discounts"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

// VerifyEvent checks the Stripe-Signature header against the webhook secret
// and decodes checkout session events.
func (c *StripeClient) VerifyEvent(payload []byte, signature string) (orders.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return orders.PaymentEvent{}, err
	}
	out := orders.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "checkout.session.") || event.Data == nil {
		return out, nil
	}

	var session checkoutSessionObject
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return out, fmt.Errorf("decode checkout session: %w", err)
	}
	out.SessionID = session.ID
	out.PaymentStatus = session.PaymentStatus
	out.AmountTotal = session.AmountTotal
	out.AmountDiscount = session.TotalDetails.AmountDiscount
	out.PaymentIntentID = expandableID(session.PaymentIntent)
	out.CustomerEmail = session.CustomerDetails.Email
	out.OrderID = firstNonEmpty(session.Metadata["orderId"], session.Metadata["order_id"], session.ClientReferenceID)
	for _, d := range session.Discounts {
		if id := expandableID(d.PromotionCode); id != "" {
			out.PromotionCodes = append(out.PromotionCodes, id)
		}
	}
	return out, nil
}

// expandableID reads a field Stripe sends either as an id string or as the
// expanded object.
func expandableID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

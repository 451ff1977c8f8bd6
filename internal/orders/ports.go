package orders

import (
	"context"

	"frankiemoji/backend/internal/models"
)

// CheckoutStore is what the checkout path needs from the order table.
type CheckoutStore interface {
	InsertOrder(ctx context.Context, in models.NewOrder) (models.Order, error)
	SetPaymentSession(ctx context.Context, orderID, sessionID string) error
}

// ReconcileStore is what payment reconciliation and admin transitions need.
// ApplyPayment and UpdateStatus are compare-and-swap on the current status and
// return models.ErrStatusConflict when it no longer matches expected.
type ReconcileStore interface {
	GetOrder(ctx context.Context, id string) (models.Order, error)
	GetOrderBySession(ctx context.Context, sessionID string) (models.Order, error)
	ApplyPayment(ctx context.Context, id string, expected models.Status, upd models.PaymentUpdate) error
	UpdateStatus(ctx context.Context, id string, expected, next models.Status) error
	PaymentEventProcessed(ctx context.Context, eventID string) (bool, error)
	RecordPaymentEvent(ctx context.Context, rec models.PaymentEventRecord) error
}

// NotifyStore is what the notification sweep needs. MarkNotified flips the
// channel flag only if it is still false and reports whether it did.
type NotifyStore interface {
	ListNotificationCandidates(ctx context.Context, statuses []models.Status, channels []models.Channel, limit int) ([]models.Order, error)
	ListDeliveryCandidates(ctx context.Context, limit int) ([]models.Order, error)
	MarkNotified(ctx context.Context, id string, ch models.Channel) (bool, error)
}

// QueryStore backs the admin listing.
type QueryStore interface {
	GetOrder(ctx context.Context, id string) (models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter, limit, offset int) ([]models.Order, int, error)
}

// WaitlistStore inserts waitlist signups and returns models.ErrDuplicate on a
// repeated email.
type WaitlistStore interface {
	InsertWaitlistEntry(ctx context.Context, entry models.WaitlistEntry) (models.WaitlistEntry, error)
}

// SessionRequest describes one hosted checkout attempt.
type SessionRequest struct {
	OrderID       string
	PackType      models.PackType
	PackLabel     string
	BaseCents     int64
	PromoCode     string
	CustomerEmail string
	Metadata      map[string]string
}

// Session is a created hosted checkout page.
type Session struct {
	ID  string
	URL string
}

type PaymentProvider interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
}

// PaymentEvent is a verified provider event reduced to what reconciliation
// reads.
type PaymentEvent struct {
	ID              string
	Type            string
	SessionID       string
	OrderID         string
	PaymentStatus   string
	AmountTotal     int64
	AmountDiscount  int64
	PaymentIntentID string
	PromotionCodes  []string
	CustomerEmail   string
}

// EventVerifier authenticates a raw webhook body against its signature header
// and decodes it. Any error means the body must not be trusted.
type EventVerifier interface {
	VerifyEvent(payload []byte, signature string) (PaymentEvent, error)
}

type EmailMessage struct {
	To      string
	Subject string
	Text    string
}

type Mailer interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

package models

import "time"

// Status is the lifecycle state of an emoji order.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusReceived       Status = "received"
	StatusPaid           Status = "paid"
	StatusReady          Status = "ready"
	StatusDelivered      Status = "delivered"
)

var statusRank = map[Status]int{
	StatusPendingPayment: 0,
	StatusReceived:       1,
	StatusPaid:           1,
	StatusReady:          2,
	StatusDelivered:      3,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank orders statuses along the lifecycle. Unknown statuses rank -1.
func (s Status) Rank() int {
	rank, ok := statusRank[s]
	if !ok {
		return -1
	}
	return rank
}

// PostPayment reports whether the order has been paid for (by webhook, manual
// confirmation or direct upload) and is not further along.
func (s Status) PostPayment() bool {
	return s == StatusReceived || s == StatusPaid
}

// PostPaymentStatuses lists the statuses that qualify for confirmation messages.
var PostPaymentStatuses = []Status{StatusReceived, StatusPaid}

type PackType string

const (
	PackStarter  PackType = "starter"
	PackStandard PackType = "standard"
	PackPremium  PackType = "premium"
)

// Channel is an outbound notification channel with its own idempotency flag.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelDelivery Channel = "delivery"
)

type Order struct {
	ID               string     `json:"id"`
	Status           Status     `json:"status"`
	PackType         PackType   `json:"pack_type"`
	Expressions      []string   `json:"expressions"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone,omitempty"`
	ImagePath        string     `json:"image_path"`
	PromoCode        string     `json:"promo_code,omitempty"`
	BasePriceCents   int64      `json:"base_price_cents"`
	FinalPriceCents  int64      `json:"final_price_cents"`
	PaymentSessionID string     `json:"payment_session_id,omitempty"`
	PaymentIntentID  string     `json:"payment_intent_id,omitempty"`
	SMSSent          bool       `json:"sms_sent"`
	EmailSent        bool       `json:"email_sent"`
	DeliveryNotified bool       `json:"delivery_notified"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Notified reports the flag for ch.
func (o Order) Notified(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return o.EmailSent
	case ChannelSMS:
		return o.SMSSent
	case ChannelDelivery:
		return o.DeliveryNotified
	default:
		return false
	}
}

// NewOrder carries the insert-time fields. The store assigns ID and CreatedAt.
type NewOrder struct {
	Status          Status
	PackType        PackType
	Expressions     []string
	Email           string
	Phone           string
	ImagePath       string
	PromoCode       string
	BasePriceCents  int64
	FinalPriceCents int64
}

// PaymentUpdate is the set of fields written when a payment is confirmed. All
// of them are absolute values so applying the same update twice is harmless.
type PaymentUpdate struct {
	Status          Status
	BasePriceCents  int64
	FinalPriceCents int64
	PaymentIntentID string
}

// OrderFilter narrows admin listings. Empty fields match everything.
type OrderFilter struct {
	Status Status
	Email  string
	Phone  string
}

// PaymentEventRecord is a processed provider event.
type PaymentEventRecord struct {
	EventID     string
	OrderID     string
	EventType   string
	ProcessedAt time.Time
}

type WaitlistEntry struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Tag       string    `json:"tag"`
	UserAgent string    `json:"user_agent,omitempty"`
	Referer   string    `json:"referer,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

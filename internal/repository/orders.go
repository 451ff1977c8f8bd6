package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"frankiemoji/backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const orderColumns = `
	id::text,
	status,
	pack_type,
	expressions,
	email,
	phone,
	image_path,
	promo_code,
	base_price_cents,
	final_price_cents,
	payment_session_id,
	payment_intent_id,
	sms_sent,
	email_sent,
	delivery_notified,
	paid_at,
	created_at,
	updated_at`

func scanOrder(row pgx.Row) (models.Order, error) {
	var out models.Order
	var status, packType string
	var sessionID, intentID sql.NullString
	var paidAt *time.Time
	err := row.Scan(
		&out.ID,
		&status,
		&packType,
		&out.Expressions,
		&out.Email,
		&out.Phone,
		&out.ImagePath,
		&out.PromoCode,
		&out.BasePriceCents,
		&out.FinalPriceCents,
		&sessionID,
		&intentID,
		&out.SMSSent,
		&out.EmailSent,
		&out.DeliveryNotified,
		&paidAt,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return models.Order{}, err
	}
	out.Status = models.Status(status)
	out.PackType = models.PackType(packType)
	out.PaymentSessionID = sessionID.String
	out.PaymentIntentID = intentID.String
	out.PaidAt = paidAt
	if out.Expressions == nil {
		out.Expressions = []string{}
	}
	return out, nil
}

func (r *Repository) InsertOrder(ctx context.Context, in models.NewOrder) (models.Order, error) {
	expressions := in.Expressions
	if expressions == nil {
		expressions = []string{}
	}
	row := r.pool.QueryRow(ctx, `
INSERT INTO emoji_orders (
	status, pack_type, expressions, email, phone, image_path, promo_code,
	base_price_cents, final_price_cents, paid_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CASE WHEN $1 IN ('received', 'paid') THEN now() END)
RETURNING `+orderColumns+`;`,
		string(in.Status),
		string(in.PackType),
		expressions,
		in.Email,
		in.Phone,
		in.ImagePath,
		in.PromoCode,
		in.BasePriceCents,
		in.FinalPriceCents,
	)
	out, err := scanOrder(row)
	return out, mapErr(err)
}

func (r *Repository) SetPaymentSession(ctx context.Context, orderID, sessionID string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE emoji_orders
SET payment_session_id = $2, updated_at = now()
WHERE id = $1::uuid;`, orderID, sessionID)
	if err != nil {
		return mapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, id string) (models.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM emoji_orders WHERE id = $1::uuid`, id)
	out, err := scanOrder(row)
	return out, mapErr(err)
}

func (r *Repository) GetOrderBySession(ctx context.Context, sessionID string) (models.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM emoji_orders WHERE payment_session_id = $1`, sessionID)
	out, err := scanOrder(row)
	return out, mapErr(err)
}

// ApplyPayment writes the confirmed amounts if the order is still in expected.
// paid_at keeps the first confirmation time.
func (r *Repository) ApplyPayment(ctx context.Context, id string, expected models.Status, upd models.PaymentUpdate) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE emoji_orders
SET status = $3,
	base_price_cents = $4,
	final_price_cents = $5,
	payment_intent_id = COALESCE($6, payment_intent_id),
	paid_at = COALESCE(paid_at, now()),
	updated_at = now()
WHERE id = $1::uuid AND status = $2;`,
		id,
		string(expected),
		string(upd.Status),
		upd.BasePriceCents,
		upd.FinalPriceCents,
		nullString(upd.PaymentIntentID),
	)
	if err != nil {
		return mapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return r.missReason(ctx, id)
	}
	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, expected, next models.Status) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE emoji_orders
SET status = $3,
	paid_at = CASE WHEN $3 IN ('received', 'paid') THEN COALESCE(paid_at, now()) ELSE paid_at END,
	updated_at = now()
WHERE id = $1::uuid AND status = $2;`, id, string(expected), string(next))
	if err != nil {
		return mapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return r.missReason(ctx, id)
	}
	return nil
}

// missReason explains a compare-and-swap that touched no row.
func (r *Repository) missReason(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM emoji_orders WHERE id = $1::uuid)`, id).Scan(&exists); err != nil {
		return mapErr(err)
	}
	if !exists {
		return models.ErrNotFound
	}
	return models.ErrStatusConflict
}

func (r *Repository) ListNotificationCandidates(ctx context.Context, statuses []models.Status, channels []models.Channel, limit int) ([]models.Order, error) {
	var wantEmail, wantSMS bool
	for _, ch := range channels {
		switch ch {
		case models.ChannelEmail:
			wantEmail = true
		case models.ChannelSMS:
			wantSMS = true
		}
	}
	if !wantEmail && !wantSMS {
		return nil, nil
	}
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}
	rows, err := r.pool.Query(ctx, `
SELECT `+orderColumns+`
FROM emoji_orders
WHERE status = ANY($1::text[])
	AND (
		($2::boolean AND email_sent = false AND email <> '')
		OR ($3::boolean AND sms_sent = false AND phone <> '')
	)
ORDER BY created_at ASC
LIMIT $4;`, names, wantEmail, wantSMS, limit)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *Repository) ListDeliveryCandidates(ctx context.Context, limit int) ([]models.Order, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+orderColumns+`
FROM emoji_orders
WHERE status = $1 AND delivery_notified = false
ORDER BY created_at ASC
LIMIT $2;`, string(models.StatusReady), limit)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// MarkNotified sets the channel flag if it is still false and reports whether
// this call set it.
func (r *Repository) MarkNotified(ctx context.Context, id string, ch models.Channel) (bool, error) {
	column, err := flagColumn(ch)
	if err != nil {
		return false, err
	}
	cmd, err := r.pool.Exec(ctx, fmt.Sprintf(`
UPDATE emoji_orders
SET %[1]s = true, updated_at = now()
WHERE id = $1::uuid AND %[1]s = false;`, column), id)
	if err != nil {
		return false, mapErr(err)
	}
	return cmd.RowsAffected() == 1, nil
}

func flagColumn(ch models.Channel) (string, error) {
	switch ch {
	case models.ChannelEmail:
		return "email_sent", nil
	case models.ChannelSMS:
		return "sms_sent", nil
	case models.ChannelDelivery:
		return "delivery_notified", nil
	default:
		return "", fmt.Errorf("unknown notification channel %q", ch)
	}
}

func (r *Repository) ListOrders(ctx context.Context, filter models.OrderFilter, limit, offset int) ([]models.Order, int, error) {
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	status := string(filter.Status)
	email := strings.ToLower(strings.TrimSpace(filter.Email))
	phone := strings.TrimSpace(filter.Phone)

	var total int
	if err := r.pool.QueryRow(ctx, `
SELECT count(*)
FROM emoji_orders
WHERE ($1::text = '' OR status = $1)
	AND ($2::text = '' OR lower(email) = $2)
	AND ($3::text = '' OR phone = $3);`, status, email, phone).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+orderColumns+`
FROM emoji_orders
WHERE ($1::text = '' OR status = $1)
	AND ($2::text = '' OR lower(email) = $2)
	AND ($3::text = '' OR phone = $3)
ORDER BY created_at DESC, id DESC
LIMIT $4 OFFSET $5;`, status, email, phone, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func collectOrders(rows pgx.Rows) ([]models.Order, error) {
	defer rows.Close()
	var items []models.Order
	for rows.Next() {
		item, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

package orders

import (
	"context"
	"errors"
	"strings"

	"frankiemoji/backend/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 25
	MaxPageLimit     = 100
)

type ListQuery struct {
	Limit  int
	Offset int
	Status string
	Email  string
	Phone  string
}

type Page struct {
	Orders []models.Order `json:"orders"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// AdminQueries is read-only access to orders for operators. Callers are
// expected to have authenticated the request already.
type AdminQueries struct {
	store QueryStore
}

func NewAdminQueries(store QueryStore) *AdminQueries {
	return &AdminQueries{store: store}
}

// List returns a page of orders, newest first.
func (a *AdminQueries) List(ctx context.Context, q ListQuery) (Page, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	filter := models.OrderFilter{
		Email: strings.ToLower(strings.TrimSpace(q.Email)),
	}
	if status := strings.TrimSpace(q.Status); status != "" {
		filter.Status = models.Status(strings.ToLower(status))
		if !filter.Status.Valid() {
			return Page{}, &ValidationError{Field: "status", Reason: "unknown status"}
		}
	}
	if phone := strings.TrimSpace(q.Phone); phone != "" {
		normalized, err := NormalizePhone(phone)
		if err != nil {
			return Page{}, &ValidationError{Field: "phone", Reason: "must be a valid phone number"}
		}
		filter.Phone = normalized
	}

	items, total, err := a.store.ListOrders(ctx, filter, limit, offset)
	if err != nil {
		return Page{}, upstream("list orders", err)
	}
	if items == nil {
		items = []models.Order{}
	}
	return Page{Orders: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (a *AdminQueries) Get(ctx context.Context, id string) (models.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Order{}, &NotFoundError{ID: id}
	}
	order, err := a.store.GetOrder(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return models.Order{}, &NotFoundError{ID: id}
	}
	if err != nil {
		return models.Order{}, upstream("get order", err)
	}
	return order, nil
}

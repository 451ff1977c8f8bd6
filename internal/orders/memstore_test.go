package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"frankiemoji/backend/internal/models"

	"github.com/google/uuid"
)

// memStore is an in-memory order store used by the service tests. It mirrors
// the compare-and-swap and flag semantics of the Postgres store.
type memStore struct {
	mu       sync.Mutex
	orders   map[string]*models.Order
	events   map[string]models.PaymentEventRecord
	waitlist map[string]models.WaitlistEntry
	clock    time.Time

	insertErr     error
	linkErr       error
	applyErr      error
	flagErr       error
	listErr       error
	applyCalls    int
	conflictsLeft int
	// beforeApply runs once inside ApplyPayment before the status check.
	beforeApply func(o *models.Order)
}

func newMemStore() *memStore {
	return &memStore{
		orders:   make(map[string]*models.Order),
		events:   make(map[string]models.PaymentEventRecord),
		waitlist: make(map[string]models.WaitlistEntry),
		clock:    time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) InsertOrder(_ context.Context, in models.NewOrder) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return models.Order{}, s.insertErr
	}
	now := s.tick()
	o := &models.Order{
		ID:              uuid.NewString(),
		Status:          in.Status,
		PackType:        in.PackType,
		Expressions:     append([]string(nil), in.Expressions...),
		Email:           in.Email,
		Phone:           in.Phone,
		ImagePath:       in.ImagePath,
		PromoCode:       in.PromoCode,
		BasePriceCents:  in.BasePriceCents,
		FinalPriceCents: in.FinalPriceCents,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.Status.PostPayment() {
		o.PaidAt = &now
	}
	s.orders[o.ID] = o
	return *o, nil
}

func (s *memStore) put(o models.Order) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.tick()
	}
	cp := o
	s.orders[o.ID] = &cp
	return cp
}

func (s *memStore) get(id string) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}
	}
	return *o
}

func (s *memStore) SetPaymentSession(_ context.Context, orderID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linkErr != nil {
		return s.linkErr
	}
	o, ok := s.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	o.PaymentSessionID = sessionID
	return nil
}

func (s *memStore) GetOrder(_ context.Context, id string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, models.ErrNotFound
	}
	return *o, nil
}

func (s *memStore) GetOrderBySession(_ context.Context, sessionID string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.PaymentSessionID == sessionID {
			return *o, nil
		}
	}
	return models.Order{}, models.ErrNotFound
}

func (s *memStore) ApplyPayment(_ context.Context, id string, expected models.Status, upd models.PaymentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyCalls++
	if s.applyErr != nil {
		return s.applyErr
	}
	o, ok := s.orders[id]
	if !ok {
		return models.ErrNotFound
	}
	if s.beforeApply != nil {
		s.beforeApply(o)
		s.beforeApply = nil
	}
	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		return models.ErrStatusConflict
	}
	if o.Status != expected {
		return models.ErrStatusConflict
	}
	now := s.tick()
	o.Status = upd.Status
	o.BasePriceCents = upd.BasePriceCents
	o.FinalPriceCents = upd.FinalPriceCents
	if upd.PaymentIntentID != "" {
		o.PaymentIntentID = upd.PaymentIntentID
	}
	if o.PaidAt == nil {
		o.PaidAt = &now
	}
	o.UpdatedAt = now
	return nil
}

func (s *memStore) UpdateStatus(_ context.Context, id string, expected, next models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.ErrNotFound
	}
	if o.Status != expected {
		return models.ErrStatusConflict
	}
	now := s.tick()
	o.Status = next
	if next.PostPayment() && o.PaidAt == nil {
		o.PaidAt = &now
	}
	o.UpdatedAt = now
	return nil
}

func (s *memStore) PaymentEventProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.events[eventID]
	return ok, nil
}

func (s *memStore) RecordPaymentEvent(_ context.Context, rec models.PaymentEventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[rec.EventID]; ok {
		return models.ErrDuplicate
	}
	s.events[rec.EventID] = rec
	return nil
}

func (s *memStore) ListNotificationCandidates(_ context.Context, statuses []models.Status, channels []models.Channel, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Order
	for _, o := range s.orders {
		if !containsStatus(statuses, o.Status) {
			continue
		}
		pending := false
		for _, ch := range channels {
			switch ch {
			case models.ChannelEmail:
				pending = pending || (!o.EmailSent && o.Email != "")
			case models.ChannelSMS:
				pending = pending || (!o.SMSSent && o.Phone != "")
			}
		}
		if pending {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) ListDeliveryCandidates(_ context.Context, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.Status == models.StatusReady && !o.DeliveryNotified {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) MarkNotified(_ context.Context, id string, ch models.Channel) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flagErr != nil {
		return false, s.flagErr
	}
	o, ok := s.orders[id]
	if !ok {
		return false, models.ErrNotFound
	}
	var flag *bool
	switch ch {
	case models.ChannelEmail:
		flag = &o.EmailSent
	case models.ChannelSMS:
		flag = &o.SMSSent
	case models.ChannelDelivery:
		flag = &o.DeliveryNotified
	default:
		return false, fmt.Errorf("unknown channel %q", ch)
	}
	if *flag {
		return false, nil
	}
	*flag = true
	return true, nil
}

func (s *memStore) ListOrders(_ context.Context, filter models.OrderFilter, limit, offset int) ([]models.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	var all []models.Order
	for _, o := range s.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.Email != "" && o.Email != filter.Email {
			continue
		}
		if filter.Phone != "" && o.Phone != filter.Phone {
			continue
		}
		all = append(all, *o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *memStore) InsertWaitlistEntry(_ context.Context, entry models.WaitlistEntry) (models.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return models.WaitlistEntry{}, s.insertErr
	}
	if _, ok := s.waitlist[entry.Email]; ok {
		return models.WaitlistEntry{}, models.ErrDuplicate
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = s.tick()
	s.waitlist[entry.Email] = entry
	return entry, nil
}

func containsStatus(list []models.Status, s models.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type fakeProvider struct {
	mu       sync.Mutex
	err      error
	requests []SessionRequest
}

func (p *fakeProvider) CreateSession(_ context.Context, req SessionRequest) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return Session{}, p.err
	}
	id := fmt.Sprintf("cs_test_%d", len(p.requests))
	return Session{ID: id, URL: "https://checkout.example.test/pay/" + id}, nil
}

// fakeVerifier accepts exactly one signature and hands back a fixed event.
type fakeVerifier struct {
	signature string
	event     PaymentEvent
}

var errBadSignature = errors.New("signature mismatch")

func (v *fakeVerifier) VerifyEvent(_ []byte, signature string) (PaymentEvent, error) {
	if signature != v.signature {
		return PaymentEvent{}, errBadSignature
	}
	return v.event, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []EmailMessage
}

func (m *fakeMailer) SendEmail(_ context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type smsCall struct {
	To   string
	Body string
}

type fakeSMS struct {
	mu   sync.Mutex
	err  error
	sent []smsCall
}

func (f *fakeSMS) SendSMS(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, smsCall{To: to, Body: body})
	return f.err
}

func (f *fakeSMS) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

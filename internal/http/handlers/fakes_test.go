package handlers

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"frankiemoji/backend/internal/integrations"
	"frankiemoji/backend/internal/models"
	"frankiemoji/backend/internal/orders"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCheckout struct {
	got       orders.CheckoutRequest
	gotUpload orders.UploadRequest
	res       orders.CheckoutResult
	order     models.Order
	err       error
}

func (f *fakeCheckout) Initiate(_ context.Context, req orders.CheckoutRequest) (orders.CheckoutResult, error) {
	f.got = req
	return f.res, f.err
}

func (f *fakeCheckout) DirectUpload(_ context.Context, req orders.UploadRequest) (models.Order, error) {
	f.gotUpload = req
	return f.order, f.err
}

type fakePayments struct {
	outcome    orders.Outcome
	order      models.Order
	err        error
	payload    []byte
	signature  string
	advancedID string
	advancedEv orders.Event
}

func (f *fakePayments) HandleWebhook(_ context.Context, payload []byte, signature string) (orders.Outcome, error) {
	f.payload = payload
	f.signature = signature
	return f.outcome, f.err
}

func (f *fakePayments) Advance(_ context.Context, id string, ev orders.Event) (models.Order, error) {
	f.advancedID = id
	f.advancedEv = ev
	return f.order, f.err
}

type fakeNotifications struct {
	limits []int
	res    orders.SweepResult
	err    error
}

func (f *fakeNotifications) Sweep(_ context.Context, limit int) (orders.SweepResult, error) {
	f.limits = append(f.limits, limit)
	return f.res, f.err
}

func (f *fakeNotifications) SweepDeliveries(_ context.Context, limit int) (orders.SweepResult, error) {
	f.limits = append(f.limits, limit)
	return orders.SweepResult{}, f.err
}

type fakeQueries struct {
	query orders.ListQuery
	page  orders.Page
	order models.Order
	err   error
}

func (f *fakeQueries) List(_ context.Context, q orders.ListQuery) (orders.Page, error) {
	f.query = q
	return f.page, f.err
}

func (f *fakeQueries) Get(_ context.Context, id string) (models.Order, error) {
	if f.err != nil {
		return models.Order{}, f.err
	}
	if id != f.order.ID {
		return models.Order{}, &orders.NotFoundError{ID: id}
	}
	return f.order, nil
}

type fakeWaitlist struct {
	got     orders.WaitlistRequest
	created bool
	err     error
}

func (f *fakeWaitlist) Join(_ context.Context, req orders.WaitlistRequest) (models.WaitlistEntry, bool, error) {
	f.got = req
	if f.err != nil {
		return models.WaitlistEntry{}, false, f.err
	}
	return models.WaitlistEntry{Email: req.Email, Tag: "splash"}, f.created, nil
}

type fakeUploader struct {
	contentType string
	err         error
}

func (f *fakeUploader) PresignPhotoUpload(_ context.Context, contentType string) (integrations.UploadTarget, error) {
	f.contentType = contentType
	if f.err != nil {
		return integrations.UploadTarget{}, f.err
	}
	return integrations.UploadTarget{
		UploadURL:  "https://s3.example.test/bucket/uploads/x.jpg?sig=1",
		ObjectPath: "uploads/x.jpg",
		PublicURL:  "https://s3.example.test/bucket/uploads/x.jpg",
	}, nil
}

// recordingStore is an order store that fails the test run if reconciliation
// writes anything.
type recordingStore struct {
	mu     sync.Mutex
	order  models.Order
	writes int
	reads  int
}

func (s *recordingStore) GetOrder(_ context.Context, id string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if id != s.order.ID {
		return models.Order{}, models.ErrNotFound
	}
	return s.order, nil
}

func (s *recordingStore) GetOrderBySession(_ context.Context, sessionID string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if sessionID != s.order.PaymentSessionID {
		return models.Order{}, models.ErrNotFound
	}
	return s.order, nil
}

func (s *recordingStore) ApplyPayment(_ context.Context, _ string, expected models.Status, upd models.PaymentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.order.Status != expected {
		return models.ErrStatusConflict
	}
	s.order.Status = upd.Status
	s.order.FinalPriceCents = upd.FinalPriceCents
	s.order.PaymentIntentID = upd.PaymentIntentID
	return nil
}

func (s *recordingStore) UpdateStatus(_ context.Context, _ string, _, next models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.order.Status = next
	return nil
}

func (s *recordingStore) PaymentEventProcessed(context.Context, string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return false, nil
}

func (s *recordingStore) RecordPaymentEvent(context.Context, models.PaymentEventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	return nil
}

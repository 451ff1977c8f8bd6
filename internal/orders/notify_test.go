package orders

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"frankiemoji/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paidOrder(store *memStore, phone string) models.Order {
	return store.put(models.Order{
		Status:          models.StatusReceived,
		PackType:        models.PackPremium,
		Email:           "fan@example.com",
		Phone:           phone,
		ImagePath:       "uploads/photo.jpg",
		BasePriceCents:  2500,
		FinalPriceCents: 2500,
	})
}

func TestSweepSendsOncePerChannel(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	order := paidOrder(store, "(555) 123-4567")
	mailer := &fakeMailer{}
	sms := &fakeSMS{}
	d := NewDispatcher(store, mailer, sms, discardLogger())

	res, err := d.Sweep(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Checked: 1, EmailSent: 1, SMSSent: 1}, res)
	assert.Equal(t, 1, mailer.count())
	assert.Equal(t, 1, sms.count())
	assert.Equal(t, "+15551234567", sms.sent[0].To)

	got := store.get(order.ID)
	assert.True(t, got.EmailSent)
	assert.True(t, got.SMSSent)

	res, err = d.Sweep(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Checked)
	assert.Equal(t, 1, mailer.count())
	assert.Equal(t, 1, sms.count())
}

func TestSweepChannelsAreIndependent(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	order := paidOrder(store, "+15551234567")
	mailer := &fakeMailer{}
	sms := &fakeSMS{err: errors.New("twilio down")}
	d := NewDispatcher(store, mailer, sms, discardLogger())

	res, err := d.Sweep(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.EmailSent)
	assert.Equal(t, 1, res.SMSFailed)

	got := store.get(order.ID)
	assert.True(t, got.EmailSent)
	assert.False(t, got.SMSSent)

	sms.err = nil
	res, err = d.Sweep(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SMSSent)
	assert.Equal(t, 0, res.EmailSent)
	assert.Equal(t, 1, mailer.count())
	assert.True(t, store.get(order.ID).SMSSent)
}

func TestSweepSkipsUnpaidAndMissingContacts(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.put(models.Order{Status: models.StatusPendingPayment, Email: "a@example.com", PackType: models.PackStarter})
	noPhone := paidOrder(store, "")
	mailer := &fakeMailer{}
	sms := &fakeSMS{}

	res, err := NewDispatcher(store, mailer, sms, discardLogger()).Sweep(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)
	assert.Equal(t, 0, sms.count())
	assert.Equal(t, 1, mailer.count())
	assert.False(t, store.get(noPhone.ID).SMSSent)
}

func TestSweepUnconfiguredChannelIsSkipped(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	order := paidOrder(store, "+15551234567")
	mailer := &fakeMailer{}

	res, err := NewDispatcher(store, mailer, nil, discardLogger()).Sweep(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.EmailSent)
	assert.Equal(t, 0, res.SMSFailed)
	assert.False(t, store.get(order.ID).SMSSent)

	res, err = NewDispatcher(store, nil, nil, discardLogger()).Sweep(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)
}

func TestSweepOldestFirstAndBounded(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, paidOrder(store, "").ID)
	}
	mailer := &fakeMailer{}

	res, err := NewDispatcher(store, mailer, nil, discardLogger()).Sweep(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Checked)
	assert.True(t, store.get(ids[0]).EmailSent)
	assert.True(t, store.get(ids[1]).EmailSent)
	assert.False(t, store.get(ids[2]).EmailSent)
}

func TestSweepFlagWriteFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	paidOrder(store, "")
	store.flagErr = errors.New("deadlock")

	res, err := NewDispatcher(store, &fakeMailer{}, nil, discardLogger()).Sweep(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.EmailSent)
}

func TestSweepListFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.listErr = errors.New("boom")

	_, err := NewDispatcher(store, &fakeMailer{}, nil, discardLogger()).Sweep(context.Background(), 10)
	var uerr *UpstreamError
	require.ErrorAs(t, err, &uerr)
}

func TestSweepStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	paidOrder(store, "")
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	mailer := &fakeMailer{}
	res, err := NewDispatcher(store, mailer, nil, discardLogger()).Sweep(ctx, 10)
	require.Error(t, err)
	assert.Equal(t, 0, res.Checked)
	assert.Equal(t, 0, mailer.count())
}

func TestSweepDeliveriesMarksOnce(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	order := paidOrder(store, "+15551234567")
	store.orders[order.ID].Status = models.StatusReady
	mailer := &fakeMailer{}
	sms := &fakeSMS{err: errors.New("undeliverable")}
	d := NewDispatcher(store, mailer, sms, discardLogger())

	res, err := d.SweepDeliveries(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.EmailSent)
	assert.Equal(t, 1, res.SMSFailed)
	assert.True(t, store.get(order.ID).DeliveryNotified)
	assert.Contains(t, mailer.sent[0].Subject, "Premium Pack")

	res, err = d.SweepDeliveries(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Checked)
}

func TestSweepDeliveriesAllChannelsFailing(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	order := paidOrder(store, "")
	store.orders[order.ID].Status = models.StatusReady

	_, err := NewDispatcher(store, &fakeMailer{err: errors.New("bounced")}, nil, discardLogger()).SweepDeliveries(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, store.get(order.ID).DeliveryNotified)
}

func TestMessagesAreDeterministic(t *testing.T) {
	t.Parallel()

	order := models.Order{ID: "0b7f3c1e-9a2d-4a44-8f5e-2d1c3b4a5e6f", PackType: models.PackStandard, Email: "fan@example.com"}
	assert.Equal(t, "0B7F3C1E", ShortOrderID(order.ID))
	assert.Equal(t, confirmationSMS(order), confirmationSMS(order))
	assert.True(t, strings.Contains(confirmationSMS(order), "Standard Pack order #0B7F3C1E"))

	msg := confirmationEmail(order)
	assert.Equal(t, "fan@example.com", msg.To)
	assert.Equal(t, "Your Frankiemoji order #0B7F3C1E", msg.Subject)
}

func TestClampSweepLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultSweepLimit, clampSweepLimit(0))
	assert.Equal(t, DefaultSweepLimit, clampSweepLimit(-3))
	assert.Equal(t, 7, clampSweepLimit(7))
	assert.Equal(t, MaxSweepLimit, clampSweepLimit(10000))
}

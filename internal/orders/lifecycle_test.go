package orders

import (
	"errors"
	"testing"

	"frankiemoji/backend/internal/models"
)

func TestNextTransitionTable(t *testing.T) {
	t.Parallel()

	const reject = models.Status("")
	statuses := []models.Status{
		models.StatusPendingPayment,
		models.StatusReceived,
		models.StatusPaid,
		models.StatusReady,
		models.StatusDelivered,
	}
	events := []Event{EventPaymentConfirmed, EventManualPaid, EventMarkReady, EventMarkDelivered}
	want := map[models.Status][]models.Status{
		models.StatusPendingPayment: {models.StatusReceived, models.StatusPaid, reject, reject},
		models.StatusReceived:       {models.StatusReceived, models.StatusReceived, models.StatusReady, reject},
		models.StatusPaid:           {models.StatusPaid, models.StatusPaid, models.StatusReady, reject},
		models.StatusReady:          {models.StatusReady, models.StatusReady, models.StatusReady, models.StatusDelivered},
		models.StatusDelivered:      {models.StatusDelivered, models.StatusDelivered, reject, models.StatusDelivered},
	}

	for _, from := range statuses {
		for i, ev := range events {
			got, err := Next(from, ev)
			expected := want[from][i]
			if expected == reject {
				if !errors.Is(err, ErrTransitionNotAllowed) {
					t.Fatalf("Next(%s, %s) error = %v, want ErrTransitionNotAllowed", from, ev, err)
				}
				if got != from {
					t.Fatalf("Next(%s, %s) = %s on rejection, want unchanged", from, ev, got)
				}
				continue
			}
			if err != nil {
				t.Fatalf("Next(%s, %s) unexpected error: %v", from, ev, err)
			}
			if got != expected {
				t.Fatalf("Next(%s, %s) = %s, want %s", from, ev, got, expected)
			}
		}
	}
}

func TestNextNeverMovesBackward(t *testing.T) {
	t.Parallel()

	for from, byEvent := range transitions {
		for ev, to := range byEvent {
			if to.Rank() < from.Rank() {
				t.Fatalf("%s on %s moves back to %s", ev, from, to)
			}
		}
	}
}

func TestNextUnknownStatus(t *testing.T) {
	t.Parallel()

	if _, err := Next(models.Status("refunded"), EventPaymentConfirmed); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}
}

func TestEventForStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		target models.Status
		want   Event
		ok     bool
	}{
		{target: models.StatusPaid, want: EventManualPaid, ok: true},
		{target: models.StatusReady, want: EventMarkReady, ok: true},
		{target: models.StatusDelivered, want: EventMarkDelivered, ok: true},
		{target: models.StatusReceived, ok: false},
		{target: models.StatusPendingPayment, ok: false},
	}
	for _, tc := range cases {
		got, ok := EventForStatus(tc.target)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("EventForStatus(%s) = (%s, %v), want (%s, %v)", tc.target, got, ok, tc.want, tc.ok)
		}
	}
}

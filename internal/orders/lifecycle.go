package orders

import (
	"fmt"

	"frankiemoji/backend/internal/models"
)

// Event drives a status transition.
type Event string

const (
	// EventPaymentConfirmed comes from the payment provider webhook.
	EventPaymentConfirmed Event = "payment_confirmed"
	// EventManualPaid is an operator marking an order paid by hand.
	EventManualPaid    Event = "manual_paid"
	EventMarkReady     Event = "mark_ready"
	EventMarkDelivered Event = "mark_delivered"
)

// transitions is the whole lifecycle. Re-applying an event to a state it has
// already produced maps the state onto itself, so redelivered events are
// no-ops. Nothing maps to a lower rank.
var transitions = map[models.Status]map[Event]models.Status{
	models.StatusPendingPayment: {
		EventPaymentConfirmed: models.StatusReceived,
		EventManualPaid:       models.StatusPaid,
	},
	models.StatusReceived: {
		EventPaymentConfirmed: models.StatusReceived,
		EventManualPaid:       models.StatusReceived,
		EventMarkReady:        models.StatusReady,
	},
	models.StatusPaid: {
		EventPaymentConfirmed: models.StatusPaid,
		EventManualPaid:       models.StatusPaid,
		EventMarkReady:        models.StatusReady,
	},
	models.StatusReady: {
		EventPaymentConfirmed: models.StatusReady,
		EventManualPaid:       models.StatusReady,
		EventMarkReady:        models.StatusReady,
		EventMarkDelivered:    models.StatusDelivered,
	},
	models.StatusDelivered: {
		EventPaymentConfirmed: models.StatusDelivered,
		EventManualPaid:       models.StatusDelivered,
		EventMarkDelivered:    models.StatusDelivered,
	},
}

// Next returns the status an order in from moves to on ev.
func Next(from models.Status, ev Event) (models.Status, error) {
	byEvent, ok := transitions[from]
	if !ok {
		return from, fmt.Errorf("%w: unknown status %q", ErrTransitionNotAllowed, from)
	}
	to, ok := byEvent[ev]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrTransitionNotAllowed, ev, from)
	}
	return to, nil
}

// EventForStatus maps an admin-requested target status to the event that
// reaches it.
func EventForStatus(target models.Status) (Event, bool) {
	switch target {
	case models.StatusPaid:
		return EventManualPaid, true
	case models.StatusReady:
		return EventMarkReady, true
	case models.StatusDelivered:
		return EventMarkDelivered, true
	default:
		return "", false
	}
}

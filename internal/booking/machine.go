package booking

import (
	"rentdesk-backend/internal/domain"
)

// Event is a lifecycle trigger applied to a booking.
type Event string

const (
	EventConfirm       Event = "confirm"
	EventStartDelivery Event = "startDelivery"
	EventComplete      Event = "complete"
	EventCancel        Event = "cancel"
)

// transitions is the legal-move table. Anything absent is an
// InvalidTransition. OVERDUE never appears here: it is derived on read,
// not a stored state.
var transitions = map[domain.BookingStatus]map[Event]domain.BookingStatus{
	domain.BookingStatusDraft: {
		EventConfirm: domain.BookingStatusConfirmed,
		EventCancel:  domain.BookingStatusCancelled,
	},
	domain.BookingStatusConfirmed: {
		EventStartDelivery: domain.BookingStatusInProgress,
		EventCancel:        domain.BookingStatusCancelled,
	},
	domain.BookingStatusInProgress: {
		EventComplete: domain.BookingStatusCompleted,
	},
}

// Next returns the state the event moves the booking to, or
// InvalidTransition without touching state.
func Next(from domain.BookingStatus, event Event) (domain.BookingStatus, error) {
	if to, ok := transitions[from][event]; ok {
		return to, nil
	}
	return from, domain.Errorf(domain.KindInvalidTransition, "cannot %s a booking in status %s", event, from)
}

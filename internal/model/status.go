package model

import "strings"

// BookingStatus enumerates the lifecycle states of a booking.
// PENDING is reserved for a future payment-pending flow; the current
// creation path confirms immediately. COMPLETED and CANCELLED are
// terminal: no transition leaves them. Re-activating a cancelled
// booking is deliberately unsupported.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"   // created, awaiting confirmation
	StatusConfirmed BookingStatus = "CONFIRMED" // confirmed and counted against capacity
	StatusCompleted BookingStatus = "COMPLETED" // session took place, booking fulfilled
	StatusCancelled BookingStatus = "CANCELLED" // cancelled, capacity released
)

// transitions maps each status to the set of statuses it may move to.
// Terminal statuses have no entries.
var transitions = map[BookingStatus]map[BookingStatus]bool{
	StatusPending: {
		StatusConfirmed: true,
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
}

// ParseBookingStatus normalizes a raw string into a BookingStatus.
// It returns false when the value is not a known status.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, true
	case StatusConfirmed:
		return StatusConfirmed, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusCancelled:
		return StatusCancelled, true
	}
	return "", false
}

// CanTransition reports whether a booking may move from one status to
// another. Moving to the same status is not a transition and is
// rejected.
func CanTransition(from, to BookingStatus) bool {
	return transitions[from][to]
}

// IsTerminal reports whether a status permits no further transitions.
func IsTerminal(s BookingStatus) bool {
	return len(transitions[s]) == 0
}

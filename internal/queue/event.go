// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking is successfully confirmed.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID       uint64 `json:"booking_id"`
	SessionID       uint64 `json:"session_id"`
	GuestID         uint64 `json:"guest_id"`
	Quantity        int    `json:"quantity"`
	TotalPriceCents int64  `json:"total_price_cents"`
	EventTitle      string `json:"event_title"`
	ExperienceTitle string `json:"experience_title"`
	StartsAt        string `json:"starts_at"`
	ConfirmedAt     string `json:"confirmed_at"`
}

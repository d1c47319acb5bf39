package model

// EffectiveCapacity resolves the capacity ceiling for a session using
// the session → event → experience fallback chain. The nearest
// non-null override wins; the experience capacity is the final
// fallback and is always present.
func EffectiveCapacity(sessionCap, eventCap *int, experienceCap int) int {
	if sessionCap != nil {
		return *sessionCap
	}
	if eventCap != nil {
		return *eventCap
	}
	return experienceCap
}

// EffectivePriceCents resolves the per-ticket base price for a session.
// A session-level override wins over the event's base price.
func EffectivePriceCents(sessionPrice *int64, eventPrice int64) int64 {
	if sessionPrice != nil {
		return *sessionPrice
	}
	return eventPrice
}

// CapacityDecision is the outcome of a capacity check. When a request
// is rejected, SpotsAvailable carries the exact number of tickets the
// session can still accept so callers can produce a precise error.
type CapacityDecision struct {
	Admitted       bool
	SpotsAvailable int
}

// CheckCapacity decides whether a requested change in committed
// quantity fits under the ceiling. committed is the session's current
// committed quantity over non-cancelled bookings, excluding the
// booking being mutated when one applies. delta may be negative;
// releases are always admitted.
func CheckCapacity(committed, delta, ceiling int) CapacityDecision {
	if delta <= 0 || committed+delta <= ceiling {
		return CapacityDecision{Admitted: true, SpotsAvailable: ceiling - committed}
	}
	spots := ceiling - committed
	if spots < 0 {
		spots = 0
	}
	return CapacityDecision{Admitted: false, SpotsAvailable: spots}
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int       { return &v }
func centsPtr(v int64) *int64 { return &v }

func TestEffectiveCapacityFallback(t *testing.T) {
	// Session override wins over event and experience.
	assert.Equal(t, 5, EffectiveCapacity(intPtr(5), intPtr(20), 100))
	// Event override wins when the session has none.
	assert.Equal(t, 20, EffectiveCapacity(nil, intPtr(20), 100))
	// Experience is the final fallback.
	assert.Equal(t, 100, EffectiveCapacity(nil, nil, 100))
	// A zero session override is still an override, not "unset".
	assert.Equal(t, 0, EffectiveCapacity(intPtr(0), intPtr(20), 100))
}

func TestEffectivePriceCents(t *testing.T) {
	assert.Equal(t, int64(1500), EffectivePriceCents(centsPtr(1500), 1900))
	assert.Equal(t, int64(1900), EffectivePriceCents(nil, 1900))
}

func TestCheckCapacityAdmitsUpToCeiling(t *testing.T) {
	// Empty session with capacity 10 admits exactly 10.
	d := CheckCapacity(0, 10, 10)
	assert.True(t, d.Admitted)
	assert.Equal(t, 10, d.SpotsAvailable)

	// A full session rejects one more ticket with zero spots reported.
	d = CheckCapacity(10, 1, 10)
	assert.False(t, d.Admitted)
	assert.Equal(t, 0, d.SpotsAvailable)
}

func TestCheckCapacityReportsExactRemainingSpots(t *testing.T) {
	// 8 of 10 committed; asking for 3 more must report 2 spots left.
	d := CheckCapacity(8, 3, 10)
	assert.False(t, d.Admitted)
	assert.Equal(t, 2, d.SpotsAvailable)
}

func TestCheckCapacityExcludingOwnQuantity(t *testing.T) {
	// A quantity edit excludes the booking's own prior contribution:
	// committed 8 all belonging to the edited booking, moving to 11 on
	// a ceiling of 10 means committed-excluding-self is 0 and the
	// delta is the full new quantity.
	d := CheckCapacity(8-8, 11, 10)
	assert.False(t, d.Admitted)
	assert.Equal(t, 10, d.SpotsAvailable)

	// Moving the same booking to 10 fits exactly.
	d = CheckCapacity(0, 10, 10)
	assert.True(t, d.Admitted)
}

func TestCheckCapacityReleasesAlwaysAdmitted(t *testing.T) {
	// Negative deltas (quantity decreases, cancellations) never reject,
	// even when the session is somehow over its current ceiling.
	d := CheckCapacity(12, -3, 10)
	assert.True(t, d.Admitted)

	d = CheckCapacity(10, 0, 10)
	assert.True(t, d.Admitted)
}

func TestCancellationFreesSpotsForSubsequentCreate(t *testing.T) {
	// Session at 7/10; cancelling a quantity-3 booking leaves 4
	// committed, so a following create of 6 is admitted.
	afterCancel := 7 - 3
	d := CheckCapacity(afterCancel, 6, 10)
	assert.True(t, d.Admitted)
	assert.Equal(t, 6, d.SpotsAvailable)
}

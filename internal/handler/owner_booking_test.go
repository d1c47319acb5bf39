package handler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlenko/bookery/internal/model"
)

func TestIsRetryableConflict(t *testing.T) {
	assert.True(t, isRetryableConflict(&mysql.MySQLError{Number: 1213}))
	assert.True(t, isRetryableConflict(&mysql.MySQLError{Number: 1205}))
	assert.False(t, isRetryableConflict(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isRetryableConflict(errors.New("plain failure")))
	assert.False(t, isRetryableConflict(nil))

	// wrapped driver errors must still be recognized
	wrapped := fmt.Errorf("tx failed: %w", &mysql.MySQLError{Number: 1213})
	assert.True(t, isRetryableConflict(wrapped))
}

func TestLinesToItemsRoundTrip(t *testing.T) {
	addOnID := uint64(7)
	lines, total := model.BuildLines(1900, 2, []model.AddOnCharge{{AddOnID: addOnID, UnitPriceCents: 395}})
	require.Equal(t, int64(4590), total)

	items := linesToItems(11, lines)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, uint64(11), it.BookingID)
		assert.Equal(t, 2, it.Quantity)
	}
	assert.Equal(t, string(model.ItemSession), items[0].ItemType)
	assert.Nil(t, items[0].AddOnID)
	assert.Equal(t, string(model.ItemAddOn), items[1].ItemType)
	require.NotNil(t, items[1].AddOnID)
	assert.Equal(t, addOnID, *items[1].AddOnID)

	back := itemsToLines(items)
	require.Len(t, back, 2)
	assert.Equal(t, lines[0].UnitPriceCents, back[0].UnitPriceCents)
	assert.Equal(t, lines[1].TotalPriceCents, back[1].TotalPriceCents)
}

func TestDBTimeToRFC3339(t *testing.T) {
	assert.Equal(t, "2026-03-14T18:30:00Z", dbTimeToRFC3339("2026-03-14 18:30:00"))
	// unparseable input passes through untouched
	assert.Equal(t, "garbage", dbTimeToRFC3339("garbage"))
}

func TestParseSessionTime(t *testing.T) {
	got, ok := parseSessionTime("2026-03-14T18:30:00+02:00")
	require.True(t, ok)
	assert.Equal(t, "2026-03-14 16:30:00", got)

	_, ok = parseSessionTime("2026-03-14 18:30")
	assert.False(t, ok)
}

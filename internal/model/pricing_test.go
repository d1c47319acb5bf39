package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLinesSessionOnly(t *testing.T) {
	lines, total := BuildLines(1900, 2, nil)
	require.Len(t, lines, 1)
	assert.Equal(t, ItemSession, lines[0].Type)
	assert.Nil(t, lines[0].AddOnID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, int64(1900), lines[0].UnitPriceCents)
	assert.Equal(t, int64(3800), lines[0].TotalPriceCents)
	assert.Equal(t, int64(3800), total)
}

func TestBuildLinesWithAddOns(t *testing.T) {
	// Session 19.00 × 2 plus add-on 3.95 × 2 must total 45.90.
	lines, total := BuildLines(1900, 2, []AddOnCharge{{AddOnID: 7, UnitPriceCents: 395}})
	require.Len(t, lines, 2)

	assert.Equal(t, int64(3800), lines[0].TotalPriceCents)

	addOn := lines[1]
	assert.Equal(t, ItemAddOn, addOn.Type)
	require.NotNil(t, addOn.AddOnID)
	assert.Equal(t, uint64(7), *addOn.AddOnID)
	assert.Equal(t, 2, addOn.Quantity)
	assert.Equal(t, int64(395), addOn.UnitPriceCents)
	assert.Equal(t, int64(790), addOn.TotalPriceCents)

	assert.Equal(t, int64(4590), total)
	assert.Equal(t, total, SumLines(lines))
}

func TestBuildLinesEveryLineCarriesBookingQuantity(t *testing.T) {
	lines, _ := BuildLines(1000, 4, []AddOnCharge{
		{AddOnID: 1, UnitPriceCents: 100},
		{AddOnID: 2, UnitPriceCents: 250},
	})
	for _, l := range lines {
		assert.Equal(t, 4, l.Quantity)
		assert.Equal(t, l.UnitPriceCents*4, l.TotalPriceCents)
	}
}

func TestScaleLinesPreservesPriceSnapshot(t *testing.T) {
	lines, _ := BuildLines(1900, 2, []AddOnCharge{{AddOnID: 7, UnitPriceCents: 395}})

	// The catalog price changing after purchase must not matter:
	// scaling only uses the stored unit prices.
	scaled, total := ScaleLines(lines, 5)
	require.Len(t, scaled, 2)
	assert.Equal(t, int64(1900), scaled[0].UnitPriceCents)
	assert.Equal(t, int64(9500), scaled[0].TotalPriceCents)
	assert.Equal(t, int64(395), scaled[1].UnitPriceCents)
	assert.Equal(t, int64(1975), scaled[1].TotalPriceCents)
	assert.Equal(t, int64(11475), total)

	// Originals are untouched.
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, int64(3800), lines[0].TotalPriceCents)
}

func TestScaleLinesDownToOne(t *testing.T) {
	lines, _ := BuildLines(500, 3, []AddOnCharge{{AddOnID: 9, UnitPriceCents: 50}})
	scaled, total := ScaleLines(lines, 1)
	assert.Equal(t, int64(550), total)
	for _, l := range scaled {
		assert.Equal(t, 1, l.Quantity)
		assert.Equal(t, l.UnitPriceCents, l.TotalPriceCents)
	}
}

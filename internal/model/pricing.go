package model

// ItemType distinguishes the two kinds of charged lines in a booking.
type ItemType string

const (
	ItemSession ItemType = "SESSION" // the per-ticket session charge
	ItemAddOn   ItemType = "ADD_ON"  // one selected add-on
)

// Line is one priced component of a booking. UnitPriceCents is a
// snapshot captured when the line is created; later catalog price
// changes never touch it. TotalPriceCents is always
// UnitPriceCents × Quantity.
type Line struct {
	Type            ItemType
	AddOnID         *uint64 // nil for SESSION lines
	Quantity        int
	UnitPriceCents  int64
	TotalPriceCents int64
}

// AddOnCharge names an add-on and its unit price at selection time.
type AddOnCharge struct {
	AddOnID        uint64
	UnitPriceCents int64
}

// BuildLines produces the full set of lines for a new booking: one
// SESSION line priced at the session's effective base price, then one
// ADD_ON line per selected add-on. Every line carries the booking's
// ticket quantity, so session and add-on charges scale together.
// The second return value is the booking total.
func BuildLines(basePriceCents int64, quantity int, addOns []AddOnCharge) ([]Line, int64) {
	lines := make([]Line, 0, 1+len(addOns))
	lines = append(lines, Line{
		Type:            ItemSession,
		Quantity:        quantity,
		UnitPriceCents:  basePriceCents,
		TotalPriceCents: basePriceCents * int64(quantity),
	})
	for _, a := range addOns {
		id := a.AddOnID
		lines = append(lines, Line{
			Type:            ItemAddOn,
			AddOnID:         &id,
			Quantity:        quantity,
			UnitPriceCents:  a.UnitPriceCents,
			TotalPriceCents: a.UnitPriceCents * int64(quantity),
		})
	}
	return lines, SumLines(lines)
}

// ScaleLines rewrites every line for a new ticket quantity. Totals are
// recomputed from each line's stored unit price, never from the
// current catalog, which is what keeps existing bookings immune to
// later price changes. The second return value is the new booking
// total.
func ScaleLines(lines []Line, quantity int) ([]Line, int64) {
	out := make([]Line, len(lines))
	for i, l := range lines {
		l.Quantity = quantity
		l.TotalPriceCents = l.UnitPriceCents * int64(quantity)
		out[i] = l
	}
	return out, SumLines(out)
}

// SumLines returns the sum of the line totals.
func SumLines(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += l.TotalPriceCents
	}
	return total
}

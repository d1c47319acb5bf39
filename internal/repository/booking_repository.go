// Package repository contains data access logic for Booking operations.
// Bookings and their line items are only ever written inside a ledger
// transaction that also holds the session row lock, so the committed
// counter, the booking rows and the line items always move together.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// BookingRecord represents a booking row. Status is one of the ledger
// states (PENDING, CONFIRMED, COMPLETED, CANCELLED). TotalPriceCents is
// the sum of the booking's line-item totals and is rewritten whenever
// the quantity changes.
type BookingRecord struct {
	ID              uint64 // ID is the primary key of the booking
	SessionID       uint64 // SessionID references the booked session
	GuestID         uint64 // GuestID references the guest the booking is for
	Quantity        int    // Quantity is the number of spots held
	Status          string // Status is the current ledger state
	TotalPriceCents int64  // TotalPriceCents is the summed line-item total
	CreatedAt       string // CreatedAt records row creation time
	UpdatedAt       string // UpdatedAt records last update time
}

// BookingItemRecord represents one price line of a booking: the session
// tickets themselves or one attached add-on. UnitPriceCents is captured
// at booking time and never follows later catalog price changes.
type BookingItemRecord struct {
	ID              uint64  // ID is the primary key of the line item
	BookingID       uint64  // BookingID references the owning booking
	ItemType        string  // ItemType is SESSION or ADD_ON
	AddOnID         *uint64 // AddOnID references the add-on for ADD_ON lines, nil for SESSION
	Quantity        int     // Quantity mirrors the booking quantity
	UnitPriceCents  int64   // UnitPriceCents is the per-unit price captured at booking time
	TotalPriceCents int64   // TotalPriceCents is UnitPriceCents * Quantity
}

// ErrBookingNotFound indicates that a booking was not located in the DB.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepo manages persistence for bookings and their line items.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// DB exposes the underlying sql.DB so the ledger can begin transactions
// spanning sessions, bookings and items.
func (r *BookingRepo) DB() *sql.DB {
	return r.db
}

// CreateTx inserts a booking inside the ledger transaction and fills the
// generated ID and timestamps on the struct.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *BookingRecord) error {
	const q = `INSERT INTO bookings (session_id, guest_id, quantity, status, total_price_cents) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.SessionID, b.GuestID, b.Quantity, b.Status, b.TotalPriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// CreateItemsTx bulk-inserts the line items of a freshly created booking.
func (r *BookingRepo) CreateItemsTx(ctx context.Context, tx *sql.Tx, items []BookingItemRecord) error {
	const q = `INSERT INTO booking_items (booking_id, item_type, add_on_id, quantity, unit_price_cents, total_price_cents)
	           VALUES (?, ?, ?, ?, ?, ?)`
	for i := range items {
		it := &items[i]
		res, err := tx.ExecContext(ctx, q, it.BookingID, it.ItemType, it.AddOnID, it.Quantity, it.UnitPriceCents, it.TotalPriceCents)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		it.ID = uint64(id)
	}
	return nil
}

// GetForOwnerTx loads a booking inside the ledger transaction and
// verifies through the session chain that it belongs to the given
// owner. It returns ErrBookingNotFound when the id matches nothing and
// ErrForbidden when the booking exists under another owner.
func (r *BookingRepo) GetForOwnerTx(ctx context.Context, tx *sql.Tx, id, ownerUserID uint64) (*BookingRecord, error) {
	const q = `SELECT bk.id, bk.session_id, bk.guest_id, bk.quantity, bk.status, bk.total_price_cents, bk.created_at, bk.updated_at,
	                  b.owner_user_id
	           FROM bookings bk
	           JOIN sessions s ON s.id = bk.session_id
	           JOIN events ev ON ev.id = s.event_id
	           JOIN experiences e ON e.id = ev.experience_id
	           JOIN businesses b ON b.id = e.business_id
	           WHERE bk.id = ?`
	var bk BookingRecord
	var dbOwnerID uint64
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&bk.ID, &bk.SessionID, &bk.GuestID, &bk.Quantity, &bk.Status, &bk.TotalPriceCents, &bk.CreatedAt, &bk.UpdatedAt,
		&dbOwnerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if dbOwnerID != ownerUserID {
		return nil, ErrForbidden
	}
	return &bk, nil
}

// ItemsByBookingTx returns the line items of a booking inside a
// transaction, session line first.
func (r *BookingRepo) ItemsByBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]BookingItemRecord, error) {
	const q = `SELECT id, booking_id, item_type, add_on_id, quantity, unit_price_cents, total_price_cents
	           FROM booking_items WHERE booking_id = ?
	           ORDER BY item_type DESC, id ASC`
	rows, err := tx.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// ItemsByBooking is the non-transactional variant used by the query
// surface.
func (r *BookingRepo) ItemsByBooking(ctx context.Context, bookingID uint64) ([]BookingItemRecord, error) {
	const q = `SELECT id, booking_id, item_type, add_on_id, quantity, unit_price_cents, total_price_cents
	           FROM booking_items WHERE booking_id = ?
	           ORDER BY item_type DESC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]BookingItemRecord, error) {
	out := make([]BookingItemRecord, 0)
	for rows.Next() {
		var it BookingItemRecord
		if err := rows.Scan(&it.ID, &it.BookingID, &it.ItemType, &it.AddOnID, &it.Quantity, &it.UnitPriceCents, &it.TotalPriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RescaleItemsTx rewrites every line item of a booking to the new
// quantity, recomputing each total from the unit price captured at
// booking time. Catalog price changes made since the booking was
// created are deliberately not picked up.
func (r *BookingRepo) RescaleItemsTx(ctx context.Context, tx *sql.Tx, bookingID uint64, quantity int) error {
	const q = `UPDATE booking_items
	           SET quantity = ?, total_price_cents = unit_price_cents * ?
	           WHERE booking_id = ?`
	_, err := tx.ExecContext(ctx, q, quantity, quantity, bookingID)
	return err
}

// UpdateQuantityTx rewrites the booking's quantity and total inside the
// ledger transaction.
func (r *BookingRepo) UpdateQuantityTx(ctx context.Context, tx *sql.Tx, id uint64, quantity int, totalCents int64) error {
	const q = `UPDATE bookings SET quantity = ?, total_price_cents = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, quantity, totalCents, id)
	return err
}

// UpdateStatusTx moves the booking to a new ledger state inside the
// ledger transaction. Legality of the transition is decided by the
// caller before the write.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	const q = `UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, id)
	return err
}

// CommittedQuantity sums the quantity of all non-cancelled bookings on
// a session, optionally excluding one booking id. It exists for the
// query surface and for consistency checks; the ledger itself trusts
// the locked committed counter on the session row.
func (r *BookingRepo) CommittedQuantity(ctx context.Context, sessionID uint64, excludeBookingID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0) FROM bookings
	           WHERE session_id = ? AND status != 'CANCELLED' AND id != ?`
	var total int
	if err := r.db.QueryRowContext(ctx, q, sessionID, excludeBookingID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// BookingSummary is the list projection of a booking: the row itself
// plus the guest's name for display.
type BookingSummary struct {
	ID              uint64 `json:"id"`
	SessionID       uint64 `json:"session_id"`
	GuestID         uint64 `json:"guest_id"`
	GuestName       string `json:"guest_name"`
	Quantity        int    `json:"quantity"`
	Status          string `json:"status"`
	TotalPriceCents int64  `json:"total_price_cents"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// ListBySessionForOwner returns the bookings of one session, newest
// first, provided the session belongs to the given owner. A session
// under another owner yields ErrForbidden; an unknown session yields
// ErrSessionNotFound.
func (r *BookingRepo) ListBySessionForOwner(ctx context.Context, sessionID, ownerUserID uint64) ([]BookingSummary, error) {
	var dbOwnerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT b.owner_user_id
		 FROM sessions s
		 JOIN events ev ON ev.id = s.event_id
		 JOIN experiences e ON e.id = ev.experience_id
		 JOIN businesses b ON b.id = e.business_id
		 WHERE s.id = ?`, sessionID,
	).Scan(&dbOwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if dbOwnerID != ownerUserID {
		return nil, ErrForbidden
	}
	const q = `SELECT bk.id, bk.session_id, bk.guest_id, g.full_name, bk.quantity, bk.status, bk.total_price_cents, bk.created_at, bk.updated_at
	           FROM bookings bk
	           JOIN guests g ON g.id = bk.guest_id
	           WHERE bk.session_id = ?
	           ORDER BY bk.created_at DESC, bk.id DESC`
	return r.scanSummaries(ctx, q, sessionID)
}

// ListByGuestForOwner returns all bookings of one guest across the
// owner's sessions, newest first. Guest lookups under another owner
// yield ErrGuestNotFound through the join producing no guest row.
func (r *BookingRepo) ListByGuestForOwner(ctx context.Context, guestID, ownerUserID uint64) ([]BookingSummary, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM guests g JOIN businesses b ON b.id = g.business_id WHERE g.id = ? AND b.owner_user_id = ? LIMIT 1`,
		guestID, ownerUserID,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGuestNotFound
		}
		return nil, err
	}
	const q = `SELECT bk.id, bk.session_id, bk.guest_id, g.full_name, bk.quantity, bk.status, bk.total_price_cents, bk.created_at, bk.updated_at
	           FROM bookings bk
	           JOIN guests g ON g.id = bk.guest_id
	           WHERE bk.guest_id = ?
	           ORDER BY bk.created_at DESC, bk.id DESC`
	return r.scanSummaries(ctx, q, guestID)
}

func (r *BookingRepo) scanSummaries(ctx context.Context, q string, args ...any) ([]BookingSummary, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BookingSummary, 0)
	for rows.Next() {
		var s BookingSummary
		if err := rows.Scan(&s.ID, &s.SessionID, &s.GuestID, &s.GuestName, &s.Quantity, &s.Status, &s.TotalPriceCents, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// BookingDetail is the full projection of one booking: the summary
// fields, the session schedule, the event and experience titles and
// every line item.
type BookingDetail struct {
	BookingSummary
	GuestEmail      string              `json:"guest_email"`
	SessionStartsAt string              `json:"session_starts_at"`
	SessionEndsAt   string              `json:"session_ends_at"`
	EventTitle      string              `json:"event_title"`
	ExperienceTitle string              `json:"experience_title"`
	Items           []BookingItemRecord `json:"-"`
}

// GetDetailForOwner loads the full projection of a booking scoped to
// the given owner, line items included.
func (r *BookingRepo) GetDetailForOwner(ctx context.Context, id, ownerUserID uint64) (*BookingDetail, error) {
	const q = `SELECT bk.id, bk.session_id, bk.guest_id, g.full_name, g.email, bk.quantity, bk.status, bk.total_price_cents,
	                  bk.created_at, bk.updated_at, s.starts_at, s.ends_at, ev.title, e.title, b.owner_user_id
	           FROM bookings bk
	           JOIN guests g ON g.id = bk.guest_id
	           JOIN sessions s ON s.id = bk.session_id
	           JOIN events ev ON ev.id = s.event_id
	           JOIN experiences e ON e.id = ev.experience_id
	           JOIN businesses b ON b.id = e.business_id
	           WHERE bk.id = ?`
	var d BookingDetail
	var dbOwnerID uint64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.SessionID, &d.GuestID, &d.GuestName, &d.GuestEmail, &d.Quantity, &d.Status, &d.TotalPriceCents,
		&d.CreatedAt, &d.UpdatedAt, &d.SessionStartsAt, &d.SessionEndsAt, &d.EventTitle, &d.ExperienceTitle, &dbOwnerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if dbOwnerID != ownerUserID {
		return nil, ErrForbidden
	}
	items, err := r.ItemsByBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Items = items
	return &d, nil
}

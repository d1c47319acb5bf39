package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// AddOn represents an optional extra a business sells alongside
// session tickets. EventID scopes the add-on to one event; when nil the
// add-on is offered business-wide. Inactive add-ons stay on record for
// historical bookings but cannot be attached to new ones.
type AddOn struct {
	ID         uint64  // ID is the primary key of the add-on
	BusinessID uint64  // BusinessID references the owning business
	EventID    *uint64 // EventID optionally restricts the add-on to one event
	Name       string  // Name is the customer-facing label
	PriceCents int64   // PriceCents is the current unit price
	IsActive   bool    // IsActive marks whether new bookings may attach it
	CreatedAt  string  // CreatedAt records row creation time
	UpdatedAt  string  // UpdatedAt records last update time
}

// ErrAddOnNotFound indicates an add-on lookup matched no row.
var ErrAddOnNotFound = errors.New("add-on not found")

// ErrAddOnUnavailable indicates a requested add-on cannot be attached
// to the booking: it does not exist, is inactive, belongs to another
// business or is scoped to a different event.
var ErrAddOnUnavailable = errors.New("add-on not available for this session")

// AddOnRepo manages persistence for add-ons.
type AddOnRepo struct {
	db *sql.DB
}

// NewAddOnRepo constructs an AddOnRepo with the given DB handle.
func NewAddOnRepo(db *sql.DB) *AddOnRepo {
	return &AddOnRepo{db: db}
}

// Create inserts an add-on and populates generated fields on the struct.
func (r *AddOnRepo) Create(ctx context.Context, a *AddOn) error {
	const q = `INSERT INTO add_ons (business_id, event_id, name, price_cents, is_active) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, a.BusinessID, a.EventID, a.Name, a.PriceCents, a.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	const sel = `SELECT id, business_id, event_id, name, price_cents, is_active, created_at, updated_at FROM add_ons WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, a.ID).Scan(
		&a.ID, &a.BusinessID, &a.EventID, &a.Name, &a.PriceCents, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
}

// GetByIDAndOwner retrieves an add-on scoped to the given owner.
func (r *AddOnRepo) GetByIDAndOwner(ctx context.Context, id, ownerUserID uint64) (*AddOn, error) {
	const q = `SELECT a.id, a.business_id, a.event_id, a.name, a.price_cents, a.is_active, a.created_at, a.updated_at
	           FROM add_ons a
	           JOIN businesses b ON b.id = a.business_id
	           WHERE a.id = ? AND b.owner_user_id = ?`
	var a AddOn
	err := r.db.QueryRowContext(ctx, q, id, ownerUserID).Scan(
		&a.ID, &a.BusinessID, &a.EventID, &a.Name, &a.PriceCents, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddOnNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListByOwner returns all add-ons of the owner's business.
func (r *AddOnRepo) ListByOwner(ctx context.Context, ownerUserID uint64) ([]AddOn, error) {
	const q = `SELECT a.id, a.business_id, a.event_id, a.name, a.price_cents, a.is_active, a.created_at, a.updated_at
	           FROM add_ons a
	           JOIN businesses b ON b.id = a.business_id
	           WHERE b.owner_user_id = ?
	           ORDER BY a.name ASC`
	return r.scanList(ctx, q, ownerUserID)
}

// ListActiveForEvent returns the active add-ons a booking on the given
// event may attach: event-scoped ones plus business-wide ones of the
// event's business. Used by public browse.
func (r *AddOnRepo) ListActiveForEvent(ctx context.Context, eventID uint64) ([]AddOn, error) {
	const q = `SELECT a.id, a.business_id, a.event_id, a.name, a.price_cents, a.is_active, a.created_at, a.updated_at
	           FROM events ev
	           JOIN experiences e ON e.id = ev.experience_id
	           JOIN add_ons a ON a.business_id = e.business_id
	           WHERE ev.id = ? AND a.is_active = TRUE AND (a.event_id IS NULL OR a.event_id = ev.id)
	           ORDER BY a.name ASC`
	return r.scanList(ctx, q, eventID)
}

func (r *AddOnRepo) scanList(ctx context.Context, q string, args ...any) ([]AddOn, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]AddOn, 0)
	for rows.Next() {
		var a AddOn
		if err := rows.Scan(&a.ID, &a.BusinessID, &a.EventID, &a.Name, &a.PriceCents, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveForBookingTx validates the requested add-on ids against the
// booking's business and event inside the ledger transaction and
// returns each id's current unit price. Every id must name an active
// add-on of the session's business that is either business-wide or
// scoped to the session's event; any other id fails the whole call
// with ErrAddOnUnavailable so the booking is rejected outright rather
// than partially priced.
func (r *AddOnRepo) ResolveForBookingTx(ctx context.Context, tx *sql.Tx, ids []uint64, businessID, eventID uint64) (map[uint64]int64, error) {
	if len(ids) == 0 {
		return map[uint64]int64{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	q := fmt.Sprintf(
		`SELECT id, price_cents FROM add_ons
		 WHERE id IN (%s) AND business_id = ? AND is_active = TRUE AND (event_id IS NULL OR event_id = ?)`,
		placeholders,
	)
	args := make([]any, 0, len(ids)+2)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, businessID, eventID)
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	prices := make(map[uint64]int64, len(ids))
	for rows.Next() {
		var id uint64
		var cents int64
		if err := rows.Scan(&id, &cents); err != nil {
			return nil, err
		}
		prices[id] = cents
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			return nil, ErrAddOnUnavailable
		}
	}
	return prices, nil
}

// Update modifies an add-on's name, price, event scope and active flag
// for the given owner. Price changes never touch existing bookings;
// their line items keep the unit price captured at booking time.
func (r *AddOnRepo) Update(ctx context.Context, a *AddOn, ownerUserID uint64) error {
	const q = `UPDATE add_ons a
	           JOIN businesses b ON b.id = a.business_id
	           SET a.name = ?, a.price_cents = ?, a.event_id = ?, a.is_active = ?, a.updated_at = CURRENT_TIMESTAMP
	           WHERE a.id = ? AND b.owner_user_id = ?`
	res, err := r.db.ExecContext(ctx, q, a.Name, a.PriceCents, a.EventID, a.IsActive, a.ID, ownerUserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM add_ons a JOIN businesses b ON b.id = a.business_id WHERE a.id = ? AND b.owner_user_id = ? LIMIT 1`,
			a.ID, ownerUserID,
		).Scan(&one)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteByIDAndOwner removes an add-on provided no booking item refers
// to it. Referenced add-ons cannot be deleted (the booking lines would
// dangle); deactivate them instead.
func (r *AddOnRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerUserID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	var dbOwnerID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT b.owner_user_id FROM add_ons a JOIN businesses b ON b.id = a.business_id WHERE a.id = ?`, id,
	).Scan(&dbOwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAddOnNotFound
		}
		return err
	}
	if dbOwnerID != ownerUserID {
		return ErrForbidden
	}
	var refCount int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM booking_items WHERE add_on_id = ?`, id).Scan(&refCount); err != nil {
		return err
	}
	if refCount > 0 {
		return ErrConflict
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM add_ons WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}

// Package repository contains data access logic for Session operations. A
// Session is a bookable time slot of an event and carries the shared
// committed-quantity counter that the booking ledger maintains. The
// counter is never written outside a ledger transaction.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Session represents a session row. PriceCents and MaxCapacity are
// nullable overrides; when nil the event (then experience) fallbacks
// apply. CommittedQty equals the summed quantity of non-cancelled
// bookings on the session and is adjusted only inside the same
// transaction as the booking write that changes it.
// NOTE: Time strings are stored in DB format "2006-01-02 15:04:05" (UTC).
type Session struct {
	ID           uint64 // ID is the primary key of the session
	EventID      uint64 // EventID references the owning event
	StartsAt     string // StartsAt is the DB timestamp when the session begins
	EndsAt       string // EndsAt is the DB timestamp when the session ends
	PriceCents   *int64 // PriceCents optionally overrides the event base price
	MaxCapacity  *int   // MaxCapacity optionally overrides the event/experience capacity
	CommittedQty int    // CommittedQty is the running occupancy counter
	CreatedAt    string // CreatedAt records row creation time
	UpdatedAt    string // UpdatedAt records last update time
}

// SessionPricing carries the resolved fallback inputs for one session:
// the event and experience values the capacity ceiling and base price
// are derived from, plus the session's own overrides and counter. It is
// read inside ledger transactions after the session row is locked.
type SessionPricing struct {
	Session         Session
	EventPriceCents int64  // events.base_price_cents
	EventCapacity   *int   // events.max_capacity (nullable)
	ExperienceCap   int    // experiences.max_capacity (final fallback)
	EventID         uint64 // convenience copy of the owning event id
	ExperienceID    uint64 // owning experience id
	BusinessID      uint64 // owning business id
	OwnerUserID     uint64 // operating owner of the business
	EventTitle      string // events.title, used in notifications
	ExperienceTitle string // experiences.title, used in notifications
}

// ErrSessionNotFound indicates that a session was not located in the DB.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepo manages persistence for sessions.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo constructs a SessionRepo with the given DB handle.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create inserts a new session and populates the generated ID and DB
// defaults on the given struct. CommittedQty always starts at zero.
func (r *SessionRepo) Create(ctx context.Context, s *Session) error {
	const q = `INSERT INTO sessions (event_id, starts_at, ends_at, price_cents, max_capacity) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.EventID, s.StartsAt, s.EndsAt, s.PriceCents, s.MaxCapacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT id, event_id, starts_at, ends_at, price_cents, max_capacity, committed_qty, created_at, updated_at
	             FROM sessions WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(
		&s.ID, &s.EventID, &s.StartsAt, &s.EndsAt, &s.PriceCents, &s.MaxCapacity, &s.CommittedQty, &s.CreatedAt, &s.UpdatedAt,
	)
}

// GetByID retrieves a session by its ID. It returns ErrSessionNotFound if
// there is no matching row.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*Session, error) {
	const q = `SELECT id, event_id, starts_at, ends_at, price_cents, max_capacity, committed_qty, created_at, updated_at
	           FROM sessions WHERE id = ?`
	var s Session
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.EventID, &s.StartsAt, &s.EndsAt, &s.PriceCents, &s.MaxCapacity, &s.CommittedQty, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// LockForUpdateTx loads a session inside the provided transaction while
// taking a row lock on it (SELECT ... FOR UPDATE). Every ledger mutation
// locks the session row first so concurrent capacity decisions on the
// same session serialize; the lock is held until the caller commits or
// rolls back. The fallback chain (event price/capacity, experience
// capacity) and tenancy fields are read with a follow-up join once the
// lock is held, so the values cannot change under the decision.
func (r *SessionRepo) LockForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*SessionPricing, error) {
	const lock = `SELECT id, event_id, starts_at, ends_at, price_cents, max_capacity, committed_qty, created_at, updated_at
	              FROM sessions WHERE id = ? FOR UPDATE`
	var sp SessionPricing
	err := tx.QueryRowContext(ctx, lock, id).Scan(
		&sp.Session.ID, &sp.Session.EventID, &sp.Session.StartsAt, &sp.Session.EndsAt,
		&sp.Session.PriceCents, &sp.Session.MaxCapacity, &sp.Session.CommittedQty,
		&sp.Session.CreatedAt, &sp.Session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	const chain = `SELECT ev.id, ev.title, ev.base_price_cents, ev.max_capacity,
	                      e.id, e.title, e.max_capacity, e.business_id, b.owner_user_id
	               FROM events ev
	               JOIN experiences e ON e.id = ev.experience_id
	               JOIN businesses b ON b.id = e.business_id
	               WHERE ev.id = ?`
	err = tx.QueryRowContext(ctx, chain, sp.Session.EventID).Scan(
		&sp.EventID, &sp.EventTitle, &sp.EventPriceCents, &sp.EventCapacity,
		&sp.ExperienceID, &sp.ExperienceTitle, &sp.ExperienceCap, &sp.BusinessID, &sp.OwnerUserID,
	)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// AdjustCommittedTx changes the session's committed-quantity counter by
// delta inside the provided transaction. The caller must have locked
// the session row first and already admitted the change through the
// capacity check; the guard here only prevents the counter from going
// negative through a logic error elsewhere.
func (r *SessionRepo) AdjustCommittedTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
	const q = `UPDATE sessions
	           SET committed_qty = committed_qty + ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND committed_qty + ? >= 0`
	res, err := tx.ExecContext(ctx, q, delta, id, delta)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 && delta != 0 {
		return ErrConflict
	}
	return nil
}

// SessionAvailability is the public projection of a session: its
// schedule plus the resolved capacity ceiling, remaining spots and
// effective per-ticket price.
type SessionAvailability struct {
	ID                  uint64 `json:"id"`
	EventID             uint64 `json:"event_id"`
	StartsAt            string `json:"starts_at"`
	EndsAt              string `json:"ends_at"`
	Capacity            int    `json:"capacity"`
	SpotsAvailable      int    `json:"spots_available"`
	EffectivePriceCents int64  `json:"effective_price_cents"`
}

// ListByEventWithAvailability returns all sessions of an event with the
// ceiling resolved through the session → event → experience fallback
// and the remaining spots derived from the committed counter. Used by
// public browse, so reads are not serialized against the ledger; the
// counts are a consistent snapshot, not a reservation.
func (r *SessionRepo) ListByEventWithAvailability(ctx context.Context, eventID uint64) ([]SessionAvailability, error) {
	const q = `SELECT s.id, s.event_id, s.starts_at, s.ends_at,
	                  COALESCE(s.max_capacity, ev.max_capacity, e.max_capacity),
	                  s.committed_qty,
	                  COALESCE(s.price_cents, ev.base_price_cents)
	           FROM sessions s
	           JOIN events ev ON ev.id = s.event_id
	           JOIN experiences e ON e.id = ev.experience_id
	           WHERE s.event_id = ?
	           ORDER BY s.starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]SessionAvailability, 0)
	for rows.Next() {
		var sa SessionAvailability
		var committed int
		if err := rows.Scan(&sa.ID, &sa.EventID, &sa.StartsAt, &sa.EndsAt, &sa.Capacity, &committed, &sa.EffectivePriceCents); err != nil {
			return nil, err
		}
		sa.SpotsAvailable = sa.Capacity - committed
		if sa.SpotsAvailable < 0 {
			sa.SpotsAvailable = 0
		}
		out = append(out, sa)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies a session's schedule and overrides if it belongs to the
// given owner. The committed counter is never written here; only the
// ledger touches it. It returns sql.ErrNoRows when the row/ownership
// doesn't match.
func (r *SessionRepo) Update(ctx context.Context, s *Session, ownerUserID uint64) error {
	const q = `UPDATE sessions se
	           JOIN events ev ON ev.id = se.event_id
	           JOIN experiences e ON e.id = ev.experience_id
	           JOIN businesses b ON b.id = e.business_id
	           SET se.starts_at = ?, se.ends_at = ?, se.price_cents = ?, se.max_capacity = ?, se.updated_at = CURRENT_TIMESTAMP
	           WHERE se.id = ? AND b.owner_user_id = ?`
	res, err := r.db.ExecContext(ctx, q, s.StartsAt, s.EndsAt, s.PriceCents, s.MaxCapacity, s.ID, ownerUserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		const qExists = `SELECT 1 FROM sessions se
		                 JOIN events ev ON ev.id = se.event_id
		                 JOIN experiences e ON e.id = ev.experience_id
		                 JOIN businesses b ON b.id = e.business_id
		                 WHERE se.id = ? AND b.owner_user_id = ? LIMIT 1`
		var one int
		if err := r.db.QueryRowContext(ctx, qExists, s.ID, ownerUserID).Scan(&one); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByIDAndOwner removes a session provided it belongs to the given
// owner and has no bookings at all, cancelled included. If the session
// does not exist, ErrSessionNotFound is returned; foreign ownership
// yields ErrForbidden; existing bookings abort with ErrConflict.
func (r *SessionRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerUserID uint64) error {
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
		`SELECT b.owner_user_id
		 FROM sessions s
		 JOIN events ev ON ev.id = s.event_id
		 JOIN experiences e ON e.id = ev.experience_id
		 JOIN businesses b ON b.id = e.business_id
		 WHERE s.id = ?`, id,
	).Scan(&dbOwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}
	if dbOwnerID != ownerUserID {
		return ErrForbidden
	}
	var bookingCount int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE session_id = ?`, id).Scan(&bookingCount); err != nil {
		return err
	}
	if bookingCount > 0 {
		return ErrConflict
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}

// Package repository contains data access logic for Event operations. An
// Event groups sessions under an experience and supplies the mid-level
// capacity fallback together with the base ticket price used when a
// session carries no override.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Event represents an event row. MaxCapacity is nullable: when nil, the
// owning experience's capacity applies. BasePriceCents is the per-ticket
// price for sessions without a price override.
type Event struct {
	ID             uint64 // ID is the primary key of the event
	ExperienceID   uint64 // ExperienceID references the owning experience
	Title          string // Title is the public name of the event
	BasePriceCents int64  // BasePriceCents is the fallback per-ticket price in cents
	MaxCapacity    *int   // MaxCapacity optionally overrides the experience capacity
	CreatedAt      string // CreatedAt records row creation time
	UpdatedAt      string // UpdatedAt records last update time
}

// ErrEventNotFound indicates that an event was not located in the DB.
var ErrEventNotFound = errors.New("event not found")

// EventRepo manages persistence for events.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// Create inserts a new event and populates the generated ID and DB defaults
// on the given struct.
func (r *EventRepo) Create(ctx context.Context, e *Event) error {
	const q = `INSERT INTO events (experience_id, title, base_price_cents, max_capacity) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.ExperienceID, e.Title, e.BasePriceCents, e.MaxCapacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	const sel = `SELECT id, experience_id, title, base_price_cents, max_capacity, created_at, updated_at
	             FROM events WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, e.ID).Scan(
		&e.ID, &e.ExperienceID, &e.Title, &e.BasePriceCents, &e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt,
	)
}

// GetByID retrieves an event by its ID. It returns ErrEventNotFound if
// there is no matching row.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*Event, error) {
	const q = `SELECT id, experience_id, title, base_price_cents, max_capacity, created_at, updated_at
	           FROM events WHERE id = ?`
	var e Event
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.ExperienceID, &e.Title, &e.BasePriceCents, &e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// GetByIDAndOwner retrieves an event only when its experience belongs to a
// business operated by the given owner. Missing rows and foreign ownership
// both surface as ErrEventNotFound.
func (r *EventRepo) GetByIDAndOwner(ctx context.Context, id, ownerUserID uint64) (*Event, error) {
	const q = `SELECT ev.id, ev.experience_id, ev.title, ev.base_price_cents, ev.max_capacity, ev.created_at, ev.updated_at
	           FROM events ev
	           JOIN experiences e ON e.id = ev.experience_id
	           JOIN businesses b ON b.id = e.business_id
	           WHERE ev.id = ? AND b.owner_user_id = ?`
	var e Event
	err := r.db.QueryRowContext(ctx, q, id, ownerUserID).Scan(
		&e.ID, &e.ExperienceID, &e.Title, &e.BasePriceCents, &e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListByExperience returns all events of an experience ordered by id. It is
// used by both public browse and the owner dashboard.
func (r *EventRepo) ListByExperience(ctx context.Context, experienceID uint64) ([]*Event, error) {
	const q = `SELECT id, experience_id, title, base_price_cents, max_capacity, created_at, updated_at
	           FROM events WHERE experience_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, experienceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Event
	for rows.Next() {
		e := new(Event)
		if err := rows.Scan(&e.ID, &e.ExperienceID, &e.Title, &e.BasePriceCents, &e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies an event's attributes if it belongs to the given owner.
// It returns sql.ErrNoRows when the row/ownership doesn't match.
func (r *EventRepo) Update(ctx context.Context, e *Event, ownerUserID uint64) error {
	const q = `UPDATE events ev
	           JOIN experiences ex ON ex.id = ev.experience_id
	           JOIN businesses b ON b.id = ex.business_id
	           SET ev.title = ?, ev.base_price_cents = ?, ev.max_capacity = ?, ev.updated_at = CURRENT_TIMESTAMP
	           WHERE ev.id = ? AND b.owner_user_id = ?`
	res, err := r.db.ExecContext(ctx, q, e.Title, e.BasePriceCents, e.MaxCapacity, e.ID, ownerUserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		const qExists = `SELECT 1 FROM events ev
		                 JOIN experiences ex ON ex.id = ev.experience_id
		                 JOIN businesses b ON b.id = ex.business_id
		                 WHERE ev.id = ? AND b.owner_user_id = ? LIMIT 1`
		var one int
		if err := r.db.QueryRowContext(ctx, qExists, e.ID, ownerUserID).Scan(&one); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByIDAndOwner removes an event together with its sessions and
// event-scoped add-ons provided it belongs to the given owner. Any booking
// referencing a session of this event, cancelled or not, aborts the
// deletion with ErrConflict. If the event does not exist,
// ErrEventNotFound is returned; foreign ownership yields ErrForbidden.
func (r *EventRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerUserID uint64) error {
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
		 FROM events ev
		 JOIN experiences e ON e.id = ev.experience_id
		 JOIN businesses b ON b.id = e.business_id
		 WHERE ev.id = ?`, id,
	).Scan(&dbOwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return err
	}
	if dbOwnerID != ownerUserID {
		return ErrForbidden
	}
	// Refuse when any booking references a session of this event. The
	// booking set, not its statuses, is what gates deletion.
	var bookingCount int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings bk
		 JOIN sessions s ON s.id = bk.session_id
		 WHERE s.event_id = ?`, id,
	).Scan(&bookingCount); err != nil {
		return err
	}
	if bookingCount > 0 {
		return ErrConflict
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE event_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM add_ons WHERE event_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}

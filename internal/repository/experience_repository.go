// Package repository contains data access logic for Experience operations.
// An Experience is a business's top-level offering; it groups events and
// supplies the final capacity fallback for sessions. Ownership checks are
// enforced by joining through the businesses table.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Experience represents an experience row. MaxCapacity is the last resort of
// the session → event → experience capacity fallback and is always set.
type Experience struct {
	ID          uint64 // ID is the primary key of the experience
	BusinessID  uint64 // BusinessID references the owning business
	Title       string // Title is the public name of the experience
	Description string // Description is free-form marketing text
	MaxCapacity int    // MaxCapacity is the capacity fallback of last resort
	CreatedAt   string // CreatedAt records row creation time
	UpdatedAt   string // UpdatedAt records last update time
}

// ErrExperienceNotFound indicates that an experience was not located in the DB.
var ErrExperienceNotFound = errors.New("experience not found")

// ExperienceRepo manages persistence for experiences.
type ExperienceRepo struct {
	db *sql.DB
}

// NewExperienceRepo constructs an ExperienceRepo with the given DB handle.
func NewExperienceRepo(db *sql.DB) *ExperienceRepo {
	return &ExperienceRepo{db: db}
}

// Create inserts a new experience and populates the generated ID and
// timestamp defaults on the given struct.
func (r *ExperienceRepo) Create(ctx context.Context, e *Experience) error {
	const q = `INSERT INTO experiences (business_id, title, description, max_capacity) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.BusinessID, e.Title, e.Description, e.MaxCapacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	const sel = `SELECT id, business_id, title, description, max_capacity, created_at, updated_at
	             FROM experiences WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, e.ID).Scan(
		&e.ID, &e.BusinessID, &e.Title, &e.Description, &e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt,
	)
}

// GetByID retrieves an experience by its ID regardless of owner. It returns
// ErrExperienceNotFound if there is no matching row.
func (r *ExperienceRepo) GetByID(ctx context.Context, id uint64) (*Experience, error) {
	const q = `SELECT id, business_id, title, description, max_capacity, created_at, updated_at
	           FROM experiences WHERE id = ?`
	var e Experience
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.BusinessID, &e.Title, &e.Description, &e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExperienceNotFound
		}
		return nil, err
	}
	return &e, nil
}

// GetByIDAndOwner retrieves an experience only when its business is operated
// by the given owner. Missing rows and foreign ownership both surface as
// ErrExperienceNotFound so callers cannot probe other tenants' data.
func (r *ExperienceRepo) GetByIDAndOwner(ctx context.Context, id, ownerUserID uint64) (*Experience, error) {
	const q = `SELECT e.id, e.business_id, e.title, e.description, e.max_capacity, e.created_at, e.updated_at
	           FROM experiences e
	           JOIN businesses b ON b.id = e.business_id
	           WHERE e.id = ? AND b.owner_user_id = ?`
	var e Experience
	err := r.db.QueryRowContext(ctx, q, id, ownerUserID).Scan(
		&e.ID, &e.BusinessID, &e.Title, &e.Description, &e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExperienceNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListByOwner returns all experiences of the owner's business ordered by id.
func (r *ExperienceRepo) ListByOwner(ctx context.Context, ownerUserID uint64) ([]*Experience, error) {
	const q = `SELECT e.id, e.business_id, e.title, e.description, e.max_capacity, e.created_at, e.updated_at
	           FROM experiences e
	           JOIN businesses b ON b.id = e.business_id
	           WHERE b.owner_user_id = ? ORDER BY e.id`
	rows, err := r.db.QueryContext(ctx, q, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Experience
	for rows.Next() {
		e := new(Experience)
		if err := rows.Scan(&e.ID, &e.BusinessID, &e.Title, &e.Description, &e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns all experiences regardless of owner. It is used for public
// browsing endpoints. Only presentation fields are selected to avoid
// exposing tenant internals.
func (r *ExperienceRepo) ListAll(ctx context.Context) ([]*Experience, error) {
	const q = `SELECT id, title, description FROM experiences ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Experience
	for rows.Next() {
		e := &Experience{}
		if err := rows.Scan(&e.ID, &e.Title, &e.Description); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies an experience's attributes if its business belongs to the
// given owner. It returns sql.ErrNoRows when the row does not exist or is
// owned by another business.
func (r *ExperienceRepo) Update(ctx context.Context, e *Experience, ownerUserID uint64) error {
	const q = `UPDATE experiences ex
	           JOIN businesses b ON b.id = ex.business_id
	           SET ex.title = ?, ex.description = ?, ex.max_capacity = ?, ex.updated_at = CURRENT_TIMESTAMP
	           WHERE ex.id = ? AND b.owner_user_id = ?`
	res, err := r.db.ExecContext(ctx, q, e.Title, e.Description, e.MaxCapacity, e.ID, ownerUserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "not found / not owned" from "values identical".
		const qExists = `SELECT 1 FROM experiences ex
		                 JOIN businesses b ON b.id = ex.business_id
		                 WHERE ex.id = ? AND b.owner_user_id = ? LIMIT 1`
		var one int
		if err := r.db.QueryRowContext(ctx, qExists, e.ID, ownerUserID).Scan(&one); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByIDAndOwner removes an experience together with its events,
// sessions and add-on associations, provided it belongs to the given owner
// and none of its sessions has bookings. If the experience does not exist,
// sql.ErrNoRows is returned; foreign ownership yields ErrForbidden; any
// booking under the experience aborts the deletion with ErrConflict. The
// deletion occurs within a transaction to maintain integrity.
func (r *ExperienceRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerUserID uint64) error {
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
	// Verify the experience exists and resolve its owner.
	var dbOwnerID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT b.owner_user_id FROM experiences e JOIN businesses b ON b.id = e.business_id WHERE e.id = ?`, id,
	).Scan(&dbOwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return err
	}
	if dbOwnerID != ownerUserID {
		return ErrForbidden
	}
	// Any booking under any session of this experience blocks deletion,
	// cancelled ones included.
	var bookingCount int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings bk
		 JOIN sessions s ON s.id = bk.session_id
		 JOIN events ev ON ev.id = s.event_id
		 WHERE ev.experience_id = ?`, id,
	).Scan(&bookingCount); err != nil {
		return err
	}
	if bookingCount > 0 {
		return ErrConflict
	}
	// Cascade: sessions, event-scoped add-ons, events, then the experience.
	if _, err = tx.ExecContext(ctx,
		`DELETE s FROM sessions s
		 JOIN events ev ON ev.id = s.event_id
		 WHERE ev.experience_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE a FROM add_ons a
		 JOIN events ev ON ev.id = a.event_id
		 WHERE ev.experience_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM events WHERE experience_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM experiences WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Guest represents a guest record of a business. Guests are customer
// contact entries owned by the business; they do not authenticate.
type Guest struct {
	ID         uint64 // ID is the primary key of the guest
	BusinessID uint64 // BusinessID references the owning business
	FullName   string // FullName is the guest's display name
	Email      string // Email is the guest's contact address
	CreatedAt  string // CreatedAt records row creation time
	UpdatedAt  string // UpdatedAt records last update time
}

// ErrGuestNotFound indicates a guest lookup matched no row.
var ErrGuestNotFound = errors.New("guest not found")

// GuestRepo manages persistence for guests.
type GuestRepo struct {
	db *sql.DB
}

// NewGuestRepo constructs a GuestRepo with the given DB handle.
func NewGuestRepo(db *sql.DB) *GuestRepo {
	return &GuestRepo{db: db}
}

// Create inserts a guest and populates generated fields on the struct.
func (r *GuestRepo) Create(ctx context.Context, g *Guest) error {
	const q = `INSERT INTO guests (business_id, full_name, email) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, g.BusinessID, g.FullName, g.Email)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	const sel = `SELECT id, business_id, full_name, email, created_at, updated_at FROM guests WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, g.ID).Scan(&g.ID, &g.BusinessID, &g.FullName, &g.Email, &g.CreatedAt, &g.UpdatedAt)
}

// GetByIDAndOwner retrieves a guest scoped to the businesses of the
// given owner. It returns ErrGuestNotFound when no row matches, which
// intentionally covers both absence and foreign ownership.
func (r *GuestRepo) GetByIDAndOwner(ctx context.Context, id, ownerUserID uint64) (*Guest, error) {
	const q = `SELECT g.id, g.business_id, g.full_name, g.email, g.created_at, g.updated_at
	           FROM guests g
	           JOIN businesses b ON b.id = g.business_id
	           WHERE g.id = ? AND b.owner_user_id = ?`
	var g Guest
	err := r.db.QueryRowContext(ctx, q, id, ownerUserID).Scan(&g.ID, &g.BusinessID, &g.FullName, &g.Email, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGuestNotFound
		}
		return nil, err
	}
	return &g, nil
}

// ListByOwner returns all guests of the owner's business ordered by name.
func (r *GuestRepo) ListByOwner(ctx context.Context, ownerUserID uint64) ([]Guest, error) {
	const q = `SELECT g.id, g.business_id, g.full_name, g.email, g.created_at, g.updated_at
	           FROM guests g
	           JOIN businesses b ON b.id = g.business_id
	           WHERE b.owner_user_id = ?
	           ORDER BY g.full_name ASC`
	rows, err := r.db.QueryContext(ctx, q, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Guest, 0)
	for rows.Next() {
		var g Guest
		if err := rows.Scan(&g.ID, &g.BusinessID, &g.FullName, &g.Email, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes a guest's contact fields for the given owner. Returns
// sql.ErrNoRows when nothing matched.
func (r *GuestRepo) Update(ctx context.Context, g *Guest, ownerUserID uint64) error {
	const q = `UPDATE guests g
	           JOIN businesses b ON b.id = g.business_id
	           SET g.full_name = ?, g.email = ?, g.updated_at = CURRENT_TIMESTAMP
	           WHERE g.id = ? AND b.owner_user_id = ?`
	res, err := r.db.ExecContext(ctx, q, g.FullName, g.Email, g.ID, ownerUserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM guests g JOIN businesses b ON b.id = g.business_id WHERE g.id = ? AND b.owner_user_id = ? LIMIT 1`,
			g.ID, ownerUserID,
		).Scan(&one)
		if err != nil {
			return err
		}
	}
	return nil
}

// Package repository contains data access logic separated from HTTP handlers.
// This file defines the Business model and repository methods. A Business is
// the tenant boundary of the platform: every experience, guest and add-on
// belongs to exactly one business, and all reads are scoped through it.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Business represents a tenant persisted in the database. Each business is
// operated by a single owner user. The ID field is the primary key and is
// auto-incremented by the DB.
type Business struct {
	ID          uint64 // ID is the unique identifier of the business
	OwnerUserID uint64 // OwnerUserID references users.id of the operating owner
	Name        string // Name is the human-friendly name of the business
	CreatedAt   string // CreatedAt stores when the row was created
	UpdatedAt   string // UpdatedAt stores when the row was last updated
}

// ErrBusinessNotFound is returned when a business cannot be found in the DB.
var ErrBusinessNotFound = errors.New("business not found")

// BusinessRepo encapsulates all database queries related to businesses.
type BusinessRepo struct {
	db *sql.DB
}

// NewBusinessRepo constructs a BusinessRepo with the provided DB handle.
func NewBusinessRepo(db *sql.DB) *BusinessRepo {
	return &BusinessRepo{db: db}
}

// Create inserts a new business. On success the ID field is populated with
// the auto-generated value and a follow-up SELECT fills the timestamps.
func (r *BusinessRepo) Create(ctx context.Context, b *Business) error {
	const qInsert = "INSERT INTO businesses (owner_user_id, name) VALUES (?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, b.OwnerUserID, b.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	const qSelect = "SELECT owner_user_id, name, created_at, updated_at FROM businesses WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, b.ID).Scan(&b.OwnerUserID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
}

// GetByOwner fetches the business operated by the given owner user. It
// returns ErrBusinessNotFound when the owner has no business, which
// handlers treat as an authorization failure for tenant-scoped routes.
func (r *BusinessRepo) GetByOwner(ctx context.Context, ownerUserID uint64) (*Business, error) {
	const q = "SELECT id, owner_user_id, name, created_at, updated_at FROM businesses WHERE owner_user_id = ? LIMIT 1"
	var b Business
	if err := r.db.QueryRowContext(ctx, q, ownerUserID).Scan(&b.ID, &b.OwnerUserID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return &b, nil
}

// GetByID fetches a business by its ID regardless of owner.
func (r *BusinessRepo) GetByID(ctx context.Context, id uint64) (*Business, error) {
	const q = "SELECT id, owner_user_id, name, created_at, updated_at FROM businesses WHERE id = ?"
	var b Business
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.OwnerUserID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return &b, nil
}

// UpdateName updates the business name if it belongs to the provided owner.
// It returns sql.ErrNoRows when no row is affected (not found / not owned).
func (r *BusinessRepo) UpdateName(ctx context.Context, id, ownerUserID uint64, name string) error {
	const q = `UPDATE businesses
	           SET name = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND owner_user_id = ?`
	res, err := r.db.ExecContext(ctx, q, name, id, ownerUserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Package postgres provides the PostgreSQL implementation of the
// suspension repositories.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zapmanager/zapmanager/internal/domain"
)

// ErrResourceNotFound is returned when a status update matches no resource.
var ErrResourceNotFound = errors.New("resource not found")

// Repository implements the suspension resource, ledger and account
// repositories using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListActiveByUser returns the user's ACTIVE automation resources.
func (r *Repository) ListActiveByUser(ctx context.Context, userID string) ([]domain.AutomationResource, error) {
	query := `
		SELECT id, user_id, type, name, status, created_at, updated_at
		FROM automation_resources
		WHERE user_id = $1 AND status = 'ACTIVE'
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list active resources: %w", err)
	}
	defer rows.Close()

	resources := make([]domain.AutomationResource, 0)
	for rows.Next() {
		var res domain.AutomationResource
		err := rows.Scan(
			&res.ID,
			&res.UserID,
			&res.Type,
			&res.Name,
			&res.Status,
			&res.CreatedAt,
			&res.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, res)
	}

	return resources, rows.Err()
}

// SetStatus updates one resource's status.
func (r *Repository) SetStatus(ctx context.Context, id string, status domain.ResourceStatus) error {
	query := `UPDATE automation_resources SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("set resource status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrResourceNotFound
	}
	return nil
}

// Upsert inserts a blocked-resource record, a no-op when it exists.
func (r *Repository) Upsert(ctx context.Context, rec domain.BlockedResourceRecord) error {
	query := `
		INSERT INTO blocked_resources (user_id, resource_type, resource_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, resource_type, resource_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, rec.UserID, rec.ResourceType, rec.ResourceID); err != nil {
		return fmt.Errorf("upsert blocked resource: %w", err)
	}
	return nil
}

// ListByUser returns all blocked-resource records for a user.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.BlockedResourceRecord, error) {
	query := `
		SELECT user_id, resource_type, resource_id, created_at
		FROM blocked_resources
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list blocked resources: %w", err)
	}
	defer rows.Close()

	records := make([]domain.BlockedResourceRecord, 0)
	for rows.Next() {
		var rec domain.BlockedResourceRecord
		if err := rows.Scan(&rec.UserID, &rec.ResourceType, &rec.ResourceID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan blocked resource: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// DeleteByUser removes all blocked-resource records for a user.
func (r *Repository) DeleteByUser(ctx context.Context, userID string) error {
	query := `DELETE FROM blocked_resources WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("delete blocked resources: %w", err)
	}
	return nil
}

// BlockUser moves the user's subscription to BLOCKED. Reports false when no
// non-blocked subscription existed.
func (r *Repository) BlockUser(ctx context.Context, userID string) (bool, error) {
	query := `
		UPDATE subscriptions
		SET status = 'BLOCKED', updated_at = NOW()
		WHERE user_id = $1 AND status <> 'BLOCKED'
	`
	result, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("block user: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// UnblockUser moves the user's BLOCKED subscription back to ACTIVE.
// Reports false when it was not blocked.
func (r *Repository) UnblockUser(ctx context.Context, userID string) (bool, error) {
	query := `
		UPDATE subscriptions
		SET status = 'ACTIVE', updated_at = NOW()
		WHERE user_id = $1 AND status = 'BLOCKED'
	`
	result, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("unblock user: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

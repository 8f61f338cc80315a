// Package postgres provides the PostgreSQL implementation of the lifecycle
// repositories.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zapmanager/zapmanager/internal/domain"
)

// ErrUserNotFound is returned when a notice recipient does not exist.
var ErrUserNotFound = errors.New("user not found")

// Repository implements the lifecycle subscription, user and notification
// log repositories using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const subscriptionColumns = `id, user_id, plan_id, status, current_period_end, created_at, updated_at`

// ListActiveEndedBefore returns ACTIVE subscriptions whose period ended at
// or before cutoff.
func (r *Repository) ListActiveEndedBefore(ctx context.Context, cutoff time.Time) ([]domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'ACTIVE' AND current_period_end <= $1
		ORDER BY current_period_end
	`
	return r.querySubscriptions(ctx, query, cutoff)
}

// ListExpiredUpdatedBetween returns EXPIRED subscriptions last updated in
// [from, to).
func (r *Repository) ListExpiredUpdatedBetween(ctx context.Context, from, to time.Time) ([]domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'EXPIRED' AND updated_at >= $1 AND updated_at < $2
		ORDER BY updated_at
	`
	return r.querySubscriptions(ctx, query, from, to)
}

// ListActiveEndingBetween returns ACTIVE subscriptions whose period ends in
// [from, to).
func (r *Repository) ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'ACTIVE' AND current_period_end >= $1 AND current_period_end < $2
		ORDER BY current_period_end
	`
	return r.querySubscriptions(ctx, query, from, to)
}

// ListExpiredUpdatedBefore returns EXPIRED subscriptions last updated at or
// before cutoff.
func (r *Repository) ListExpiredUpdatedBefore(ctx context.Context, cutoff time.Time) ([]domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'EXPIRED' AND updated_at <= $1
		ORDER BY updated_at
	`
	return r.querySubscriptions(ctx, query, cutoff)
}

// ListBlockedWithoutNotice returns BLOCKED subscriptions with no blockage
// entry in the notification log.
func (r *Repository) ListBlockedWithoutNotice(ctx context.Context) ([]domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions s
		WHERE s.status = 'BLOCKED'
		  AND NOT EXISTS (
			SELECT 1 FROM notification_log nl
			WHERE nl.subscription_id = s.id AND nl.type = 'blockage'
		  )
		ORDER BY s.updated_at
	`
	return r.querySubscriptions(ctx, query)
}

// MarkExpired transitions a subscription from ACTIVE to EXPIRED. Reports
// false when the row was not ACTIVE anymore.
func (r *Repository) MarkExpired(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE subscriptions
		SET status = 'EXPIRED', updated_at = NOW()
		WHERE id = $1 AND status = 'ACTIVE'
	`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark expired: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkBlocked transitions a subscription from EXPIRED to BLOCKED. Reports
// false when the row was not EXPIRED anymore.
func (r *Repository) MarkBlocked(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE subscriptions
		SET status = 'BLOCKED', updated_at = NOW()
		WHERE id = $1 AND status = 'EXPIRED'
	`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark blocked: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *Repository) querySubscriptions(ctx context.Context, query string, args ...any) ([]domain.Subscription, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]domain.Subscription, 0)
	for rows.Next() {
		var sub domain.Subscription
		err := rows.Scan(
			&sub.ID,
			&sub.UserID,
			&sub.PlanID,
			&sub.Status,
			&sub.CurrentPeriodEnd,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// GetUser retrieves a user by ID.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, name, email, created_at FROM users WHERE id = $1`

	var user domain.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// SentBetween reports whether a notice of the given type was logged for the
// subscription with sent_at in [from, to).
func (r *Repository) SentBetween(ctx context.Context, subscriptionID string, t domain.NoticeType, from, to time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notification_log
			WHERE subscription_id = $1 AND type = $2
			  AND sent_at >= $3 AND sent_at < $4
		)
	`
	var sent bool
	if err := r.db.QueryRow(ctx, query, subscriptionID, t, from, to).Scan(&sent); err != nil {
		return false, fmt.Errorf("check notice sent: %w", err)
	}
	return sent, nil
}

// SentEver reports whether a notice of the given type was ever logged for
// the subscription.
func (r *Repository) SentEver(ctx context.Context, subscriptionID string, t domain.NoticeType) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notification_log
			WHERE subscription_id = $1 AND type = $2
		)
	`
	var sent bool
	if err := r.db.QueryRow(ctx, query, subscriptionID, t).Scan(&sent); err != nil {
		return false, fmt.Errorf("check notice sent: %w", err)
	}
	return sent, nil
}

// Record logs a delivered notice.
func (r *Repository) Record(ctx context.Context, subscriptionID string, t domain.NoticeType, at time.Time) error {
	query := `
		INSERT INTO notification_log (id, subscription_id, type, sent_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, uuid.NewString(), subscriptionID, t, at); err != nil {
		return fmt.Errorf("record notice: %w", err)
	}
	return nil
}

// Package postgres provides the PostgreSQL implementation of the plans
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zapmanager/zapmanager/internal/domain"
)

// ErrPlanNotFound is returned when a plan does not exist.
var ErrPlanNotFound = errors.New("plan not found")

// Repository implements plans.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetPlan retrieves a plan by ID.
func (r *Repository) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	query := `SELECT id, name, max_chatbots, max_flows, created_at FROM plans WHERE id = $1`

	var plan domain.Plan
	err := r.db.QueryRow(ctx, query, id).Scan(
		&plan.ID,
		&plan.Name,
		&plan.MaxChatbots,
		&plan.MaxFlows,
		&plan.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &plan, nil
}

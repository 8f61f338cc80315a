// Package plans resolves plan labels and limits for other modules.
package plans

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/zapmanager/zapmanager/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Repository defines plan data access.
type Repository interface {
	GetPlan(ctx context.Context, id string) (*domain.Plan, error)
}

var titleCaser = cases.Title(language.BrazilianPortuguese)

// Service reads plans through a per-key TTL cache. Keyed entries with an
// explicit TTL, never a single process-wide slot: stale data for one plan
// must not leak into another tenant's notices.
type Service struct {
	repo  Repository
	cache *gocache.Cache
}

// NewService creates a plan service with the given cache TTL.
func NewService(repo Repository, ttl time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// GetPlan returns a plan, served from cache when fresh.
func (s *Service) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	if cached, ok := s.cache.Get(id); ok {
		return cached.(*domain.Plan), nil
	}

	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(id, plan)
	return plan, nil
}

// PlanName resolves the display label used in notice bodies. Lookup
// failures fall back to an empty label so the template renderer applies
// its default instead of the notice failing.
func (s *Service) PlanName(ctx context.Context, planID string) string {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		slog.Warn("failed to resolve plan name",
			"plan_id", planID,
			"error", err,
		)
		return ""
	}
	return titleCaser.String(plan.Name)
}

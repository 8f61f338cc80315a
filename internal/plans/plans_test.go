package plans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapmanager/zapmanager/internal/domain"
)

type mockPlanRepo struct {
	plans map[string]*domain.Plan
	calls int
	err   error
}

func (r *mockPlanRepo) GetPlan(_ context.Context, id string) (*domain.Plan, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	plan, ok := r.plans[id]
	if !ok {
		return nil, errors.New("plan not found")
	}
	return plan, nil
}

func TestService_GetPlan_Caches(t *testing.T) {
	repo := &mockPlanRepo{plans: map[string]*domain.Plan{
		"p1": {ID: "p1", Name: "pro", MaxChatbots: 5, MaxFlows: 10},
	}}
	service := NewService(repo, time.Minute)

	first, err := service.GetPlan(context.Background(), "p1")
	require.NoError(t, err)
	second, err := service.GetPlan(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls)
}

func TestService_PlanName_TitleCased(t *testing.T) {
	repo := &mockPlanRepo{plans: map[string]*domain.Plan{
		"p1": {ID: "p1", Name: "plano profissional"},
	}}
	service := NewService(repo, time.Minute)

	assert.Equal(t, "Plano Profissional", service.PlanName(context.Background(), "p1"))
}

func TestService_PlanName_LookupFailureFallsBack(t *testing.T) {
	repo := &mockPlanRepo{err: errors.New("db down")}
	service := NewService(repo, time.Minute)

	// Empty label lets the template renderer apply its default.
	assert.Equal(t, "", service.PlanName(context.Background(), "missing"))
}

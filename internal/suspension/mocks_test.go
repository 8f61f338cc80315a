package suspension

import (
	"context"
	"fmt"
	"sync"

	"github.com/zapmanager/zapmanager/internal/domain"
)

// mockResourceStore is an in-memory ResourceRepository plus LedgerRepository,
// mirroring the way both live in one PostgreSQL repository.
type mockResourceStore struct {
	mu        sync.Mutex
	resources map[string]*domain.AutomationResource
	records   map[string]domain.BlockedResourceRecord

	upsertErr    error
	setStatusErr map[string]error
}

func newMockResourceStore(resources ...domain.AutomationResource) *mockResourceStore {
	s := &mockResourceStore{
		resources:    make(map[string]*domain.AutomationResource),
		records:      make(map[string]domain.BlockedResourceRecord),
		setStatusErr: make(map[string]error),
	}
	for i := range resources {
		res := resources[i]
		s.resources[res.ID] = &res
	}
	return s
}

func (s *mockResourceStore) status(id string) domain.ResourceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resources[id].Status
}

func (s *mockResourceStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *mockResourceStore) ListActiveByUser(_ context.Context, userID string) ([]domain.AutomationResource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AutomationResource, 0)
	for _, res := range s.resources {
		if res.UserID == userID && res.Status == domain.ResourceStatusActive {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (s *mockResourceStore) SetStatus(_ context.Context, id string, status domain.ResourceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setStatusErr[id]; err != nil {
		return err
	}
	res, ok := s.resources[id]
	if !ok {
		return fmt.Errorf("resource %s not found", id)
	}
	res.Status = status
	return nil
}

func recordKey(rec domain.BlockedResourceRecord) string {
	return rec.UserID + "/" + string(rec.ResourceType) + "/" + rec.ResourceID
}

func (s *mockResourceStore) Upsert(_ context.Context, rec domain.BlockedResourceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.records[recordKey(rec)] = rec
	return nil
}

func (s *mockResourceStore) ListByUser(_ context.Context, userID string) ([]domain.BlockedResourceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.BlockedResourceRecord, 0)
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *mockResourceStore) DeleteByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, rec := range s.records {
		if rec.UserID == userID {
			delete(s.records, key)
		}
	}
	return nil
}

type mockAccountRepo struct {
	mu      sync.Mutex
	blocked map[string]bool
}

func newMockAccountRepo(blockedUsers ...string) *mockAccountRepo {
	r := &mockAccountRepo{blocked: make(map[string]bool)}
	for _, u := range blockedUsers {
		r.blocked[u] = true
	}
	return r
}

func (r *mockAccountRepo) BlockUser(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.blocked[userID] {
		return false, nil
	}
	r.blocked[userID] = true
	return true, nil
}

func (r *mockAccountRepo) UnblockUser(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.blocked[userID] {
		return false, nil
	}
	delete(r.blocked, userID)
	return true, nil
}

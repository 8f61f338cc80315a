package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zapmanager/zapmanager/internal/domain"
)

// mockSubscriptionStore is an in-memory SubscriptionRepository backed by a
// map, with the same guarded-update semantics as the real one.
type mockSubscriptionStore struct {
	mu      sync.Mutex
	subs    map[string]*domain.Subscription
	logs    *mockLogRepo
	listErr error
	markErr map[string]error
}

func newMockSubscriptionStore(subs ...domain.Subscription) *mockSubscriptionStore {
	s := &mockSubscriptionStore{
		subs:    make(map[string]*domain.Subscription),
		markErr: make(map[string]error),
	}
	for i := range subs {
		sub := subs[i]
		s.subs[sub.ID] = &sub
	}
	return s
}

func (s *mockSubscriptionStore) get(id string) domain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.subs[id]
}

func (s *mockSubscriptionStore) list(filter func(*domain.Subscription) bool) ([]domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Subscription, 0)
	for _, sub := range s.subs {
		if filter(sub) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *mockSubscriptionStore) ListActiveEndedBefore(_ context.Context, cutoff time.Time) ([]domain.Subscription, error) {
	return s.list(func(sub *domain.Subscription) bool {
		return sub.Status == domain.SubscriptionStatusActive && !sub.CurrentPeriodEnd.After(cutoff)
	})
}

func (s *mockSubscriptionStore) ListExpiredUpdatedBetween(_ context.Context, from, to time.Time) ([]domain.Subscription, error) {
	return s.list(func(sub *domain.Subscription) bool {
		return sub.Status == domain.SubscriptionStatusExpired &&
			!sub.UpdatedAt.Before(from) && sub.UpdatedAt.Before(to)
	})
}

func (s *mockSubscriptionStore) ListActiveEndingBetween(_ context.Context, from, to time.Time) ([]domain.Subscription, error) {
	return s.list(func(sub *domain.Subscription) bool {
		return sub.Status == domain.SubscriptionStatusActive &&
			!sub.CurrentPeriodEnd.Before(from) && sub.CurrentPeriodEnd.Before(to)
	})
}

func (s *mockSubscriptionStore) ListExpiredUpdatedBefore(_ context.Context, cutoff time.Time) ([]domain.Subscription, error) {
	return s.list(func(sub *domain.Subscription) bool {
		return sub.Status == domain.SubscriptionStatusExpired && !sub.UpdatedAt.After(cutoff)
	})
}

// ListBlockedWithoutNotice joins against the log repo the same way the SQL
// implementation joins against the notification_log table.
func (s *mockSubscriptionStore) ListBlockedWithoutNotice(_ context.Context) ([]domain.Subscription, error) {
	return s.list(func(sub *domain.Subscription) bool {
		if sub.Status != domain.SubscriptionStatusBlocked {
			return false
		}
		return s.logs == nil || s.logs.count(sub.ID, domain.NoticeTypeBlockage) == 0
	})
}

func (s *mockSubscriptionStore) mark(id string, from, to domain.SubscriptionStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markErr[id]; err != nil {
		return false, err
	}
	sub, ok := s.subs[id]
	if !ok || sub.Status != from {
		return false, nil
	}
	sub.Status = to
	sub.UpdatedAt = time.Now()
	return true, nil
}

func (s *mockSubscriptionStore) MarkExpired(_ context.Context, id string) (bool, error) {
	return s.mark(id, domain.SubscriptionStatusActive, domain.SubscriptionStatusExpired)
}

func (s *mockSubscriptionStore) MarkBlocked(_ context.Context, id string) (bool, error) {
	return s.mark(id, domain.SubscriptionStatusExpired, domain.SubscriptionStatusBlocked)
}

type mockUserRepo struct {
	users map[string]*domain.User
}

func newMockUserRepo(users ...domain.User) *mockUserRepo {
	r := &mockUserRepo{users: make(map[string]*domain.User)}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *mockUserRepo) GetUser(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return u, nil
}

type logEntry struct {
	subscriptionID string
	noticeType     domain.NoticeType
	sentAt         time.Time
}

type mockLogRepo struct {
	mu        sync.Mutex
	entries   []logEntry
	recordErr error
}

func (r *mockLogRepo) SentBetween(_ context.Context, subscriptionID string, t domain.NoticeType, from, to time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.subscriptionID == subscriptionID && e.noticeType == t &&
			!e.sentAt.Before(from) && e.sentAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockLogRepo) SentEver(_ context.Context, subscriptionID string, t domain.NoticeType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.subscriptionID == subscriptionID && e.noticeType == t {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockLogRepo) Record(_ context.Context, subscriptionID string, t domain.NoticeType, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recordErr != nil {
		return r.recordErr
	}
	r.entries = append(r.entries, logEntry{subscriptionID: subscriptionID, noticeType: t, sentAt: at})
	return nil
}

func (r *mockLogRepo) count(subscriptionID string, t domain.NoticeType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.subscriptionID == subscriptionID && e.noticeType == t {
			n++
		}
	}
	return n
}

type mockPlanResolver struct {
	names map[string]string
}

func (r *mockPlanResolver) PlanName(_ context.Context, planID string) string {
	return r.names[planID]
}

type mockSuspender struct {
	mu        sync.Mutex
	suspended []string
	count     int
	err       error
}

func (s *mockSuspender) Suspend(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.suspended = append(s.suspended, userID)
	return s.count, nil
}

type mockSender struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

func (s *mockSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *mockSender) sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

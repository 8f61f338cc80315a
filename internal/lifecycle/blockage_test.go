package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapmanager/zapmanager/internal/domain"
)

func newTestEnforcer(store *mockSubscriptionStore, users *mockUserRepo, logs *mockLogRepo, suspender ResourceSuspender, suspendOnBlock bool) *Enforcer {
	dispatcher := newTestDispatcher(store, users, logs)
	return NewEnforcer(store, dispatcher, suspender, 24*time.Hour, suspendOnBlock)
}

func TestEnforcer_EnforceBlockages(t *testing.T) {
	now := time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC)

	logs := &mockLogRepo{}
	store := newMockSubscriptionStore(
		domain.Subscription{ID: "sub-old", UserID: "u1", PlanID: "plan-pro", Status: domain.SubscriptionStatusExpired, UpdatedAt: now.Add(-25 * time.Hour)},
		domain.Subscription{ID: "sub-grace", UserID: "u2", PlanID: "plan-pro", Status: domain.SubscriptionStatusExpired, UpdatedAt: now.Add(-23 * time.Hour)},
		domain.Subscription{ID: "sub-active", UserID: "u3", PlanID: "plan-pro", Status: domain.SubscriptionStatusActive, UpdatedAt: now.Add(-48 * time.Hour)},
	)
	store.logs = logs
	users := newMockUserRepo(domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com"})
	suspender := &mockSuspender{count: 2}
	sender := &mockSender{}

	enforcer := newTestEnforcer(store, users, logs, suspender, true)
	results, err := enforcer.EnforceBlockages(context.Background(), now, testSettings(), sender)
	require.NoError(t, err)

	// Only the subscription past the grace window is blocked; it also gets
	// suspension and the one-time blockage notice.
	assert.Equal(t, domain.SubscriptionStatusBlocked, store.get("sub-old").Status)
	assert.Equal(t, domain.SubscriptionStatusExpired, store.get("sub-grace").Status)
	assert.Equal(t, domain.SubscriptionStatusActive, store.get("sub-active").Status)

	assert.Equal(t, []string{"u1"}, suspender.suspended)
	require.Len(t, sender.sent(), 1)
	assert.Equal(t, "ana@example.com", sender.sent()[0].To)

	actions := make([]string, 0, len(results))
	for _, r := range results {
		actions = append(actions, r.Action)
	}
	assert.ElementsMatch(t, []string{ActionBlocked, "notice_blockage"}, actions)
}

func TestEnforcer_BlockageNoticeOncePerLifetime(t *testing.T) {
	now := time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC)

	logs := &mockLogRepo{}
	store := newMockSubscriptionStore(
		domain.Subscription{ID: "sub-a", UserID: "u1", PlanID: "plan-pro", Status: domain.SubscriptionStatusExpired, UpdatedAt: now.Add(-30 * time.Hour)},
	)
	store.logs = logs
	users := newMockUserRepo(domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com"})
	sender := &mockSender{}

	enforcer := newTestEnforcer(store, users, logs, &mockSuspender{}, true)

	_, err := enforcer.EnforceBlockages(context.Background(), now, testSettings(), sender)
	require.NoError(t, err)
	require.Len(t, sender.sent(), 1)

	// Days later the notice is not repeated, even outside the original
	// calendar day.
	_, err = enforcer.EnforceBlockages(context.Background(), now.AddDate(0, 0, 3), testSettings(), sender)
	require.NoError(t, err)
	assert.Len(t, sender.sent(), 1)
	assert.Equal(t, 1, logs.count("sub-a", domain.NoticeTypeBlockage))
}

func TestEnforcer_NoticeRetriedAfterSendFailure(t *testing.T) {
	now := time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC)

	logs := &mockLogRepo{}
	store := newMockSubscriptionStore(
		domain.Subscription{ID: "sub-a", UserID: "u1", PlanID: "plan-pro", Status: domain.SubscriptionStatusExpired, UpdatedAt: now.Add(-30 * time.Hour)},
	)
	store.logs = logs
	users := newMockUserRepo(domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com"})

	enforcer := newTestEnforcer(store, users, logs, &mockSuspender{}, true)

	failing := &mockSender{err: errors.New("smtp timeout")}
	_, err := enforcer.EnforceBlockages(context.Background(), now, testSettings(), failing)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusBlocked, store.get("sub-a").Status)

	// Transition stuck, notice missing: the next sweep picks the blocked
	// subscription up again and delivers.
	working := &mockSender{}
	_, err = enforcer.EnforceBlockages(context.Background(), now.Add(time.Hour), testSettings(), working)
	require.NoError(t, err)
	assert.Len(t, working.sent(), 1)
	assert.Equal(t, 1, logs.count("sub-a", domain.NoticeTypeBlockage))
}

func TestEnforcer_SuspendFailureDoesNotAbort(t *testing.T) {
	now := time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC)

	logs := &mockLogRepo{}
	store := newMockSubscriptionStore(
		domain.Subscription{ID: "sub-a", UserID: "u1", PlanID: "plan-pro", Status: domain.SubscriptionStatusExpired, UpdatedAt: now.Add(-30 * time.Hour)},
		domain.Subscription{ID: "sub-b", UserID: "u2", PlanID: "plan-pro", Status: domain.SubscriptionStatusExpired, UpdatedAt: now.Add(-30 * time.Hour)},
	)
	store.logs = logs
	users := newMockUserRepo(
		domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com"},
		domain.User{ID: "u2", Name: "Bia", Email: "bia@example.com"},
	)
	suspender := &mockSuspender{err: errors.New("resource store down")}

	enforcer := newTestEnforcer(store, users, logs, suspender, true)
	_, err := enforcer.EnforceBlockages(context.Background(), now, testSettings(), &mockSender{})
	require.NoError(t, err)

	// Both transitions land even though suspension failed.
	assert.Equal(t, domain.SubscriptionStatusBlocked, store.get("sub-a").Status)
	assert.Equal(t, domain.SubscriptionStatusBlocked, store.get("sub-b").Status)
}

func TestEnforcer_NilSenderSkipsNotices(t *testing.T) {
	now := time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC)

	logs := &mockLogRepo{}
	store := newMockSubscriptionStore(
		domain.Subscription{ID: "sub-a", UserID: "u1", PlanID: "plan-pro", Status: domain.SubscriptionStatusExpired, UpdatedAt: now.Add(-30 * time.Hour)},
	)
	store.logs = logs
	users := newMockUserRepo(domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com"})

	enforcer := newTestEnforcer(store, users, logs, &mockSuspender{}, false)
	results, err := enforcer.EnforceBlockages(context.Background(), now, nil, nil)
	require.NoError(t, err)

	// Blocking still happens, the notice waits for a configured transport.
	assert.Equal(t, domain.SubscriptionStatusBlocked, store.get("sub-a").Status)
	require.Len(t, results, 1)
	assert.Equal(t, ActionBlocked, results[0].Action)
	assert.Equal(t, 0, logs.count("sub-a", domain.NoticeTypeBlockage))
}

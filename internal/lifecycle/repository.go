// Package lifecycle implements the access-lifecycle enforcement engine:
// expiration and blockage sweeps over subscriptions, deduplicated lifecycle
// notices, and the hour-gated runner tying them together.
package lifecycle

import (
	"context"
	"time"

	"github.com/zapmanager/zapmanager/internal/domain"
)

// SubscriptionRepository defines subscription data access for the sweeps.
// All status-changing methods use guarded updates: they report false when
// the row no longer satisfies the precondition, which is how duplicate or
// overlapping sweeps converge without duplicate side effects.
type SubscriptionRepository interface {
	// ListActiveEndedBefore returns ACTIVE subscriptions whose current
	// period ended at or before cutoff.
	ListActiveEndedBefore(ctx context.Context, cutoff time.Time) ([]domain.Subscription, error)

	// ListExpiredUpdatedBetween returns EXPIRED subscriptions whose last
	// update falls in [from, to). Used to find today's expirations.
	ListExpiredUpdatedBetween(ctx context.Context, from, to time.Time) ([]domain.Subscription, error)

	// ListActiveEndingBetween returns ACTIVE subscriptions whose current
	// period ends in [from, to). Used for reminder offsets.
	ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]domain.Subscription, error)

	// ListExpiredUpdatedBefore returns EXPIRED subscriptions whose last
	// update is at or before cutoff, i.e. past the grace window.
	ListExpiredUpdatedBefore(ctx context.Context, cutoff time.Time) ([]domain.Subscription, error)

	// ListBlockedWithoutNotice returns BLOCKED subscriptions that have no
	// blockage entry in the notification log, so a notice that failed
	// after the transition is retried on a later sweep.
	ListBlockedWithoutNotice(ctx context.Context) ([]domain.Subscription, error)

	// MarkExpired transitions ACTIVE -> EXPIRED.
	MarkExpired(ctx context.Context, id string) (bool, error)

	// MarkBlocked transitions EXPIRED -> BLOCKED.
	MarkBlocked(ctx context.Context, id string) (bool, error)
}

// UserRepository resolves notice recipients.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// NotificationLogRepository stores idempotency markers for sent notices.
type NotificationLogRepository interface {
	// SentBetween reports whether a notice of the given type was logged
	// for the subscription with sent_at in [from, to).
	SentBetween(ctx context.Context, subscriptionID string, t domain.NoticeType, from, to time.Time) (bool, error)

	// SentEver reports whether a notice of the given type was ever logged
	// for the subscription.
	SentEver(ctx context.Context, subscriptionID string, t domain.NoticeType) (bool, error)

	// Record logs a delivered notice.
	Record(ctx context.Context, subscriptionID string, t domain.NoticeType, at time.Time) error
}

// SettingsRepository reads the stored notification settings. Returns
// settings.ErrNotConfigured when no usable transport configuration exists.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.NotificationSettings, error)
}

// PlanResolver resolves a plan id to its display label for notice bodies.
type PlanResolver interface {
	PlanName(ctx context.Context, planID string) string
}

// ResourceSuspender freezes a user's automation resources. Implemented by
// the suspension ledger; also invoked by the manual admin block action so
// both paths share one entry point.
type ResourceSuspender interface {
	Suspend(ctx context.Context, userID string) (int, error)
}

// Message is a rendered notice ready for transport.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a rendered notice.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFactory builds a Sender from stored transport settings. Settings
// live in the database and may change between sweeps, so the sender is
// constructed per run.
type SenderFactory func(settings domain.SMTPSettings) Sender

// Clock abstracts wall-clock reads for the hour gates.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

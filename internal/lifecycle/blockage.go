package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/zapmanager/zapmanager/internal/domain"
)

// Enforcer flips EXPIRED subscriptions past the grace window to BLOCKED,
// suspends the owner's automation resources and sends the one-time blockage
// notice. Unlike the hour-gated sweeps it runs on every invocation, so a
// missed tick never extends the grace period.
type Enforcer struct {
	subs           SubscriptionRepository
	dispatcher     *Dispatcher
	suspender      ResourceSuspender
	graceWindow    time.Duration
	suspendOnBlock bool
}

// NewEnforcer creates an Enforcer.
func NewEnforcer(subs SubscriptionRepository, dispatcher *Dispatcher, suspender ResourceSuspender, graceWindow time.Duration, suspendOnBlock bool) *Enforcer {
	return &Enforcer{
		subs:           subs,
		dispatcher:     dispatcher,
		suspender:      suspender,
		graceWindow:    graceWindow,
		suspendOnBlock: suspendOnBlock,
	}
}

// EnforceBlockages blocks every EXPIRED subscription whose grace window ran
// out, then sends the blockage notice to blocked subscriptions that never
// got one. Notices are skipped when the transport is unconfigured (nil
// sender); the pending-notice query picks them up on a later sweep.
func (e *Enforcer) EnforceBlockages(ctx context.Context, now time.Time, settings *domain.NotificationSettings, sender Sender) ([]ActionResult, error) {
	cutoff := now.Add(-e.graceWindow)

	due, err := e.subs.ListExpiredUpdatedBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	results := make([]ActionResult, 0, len(due))
	for _, sub := range due {
		updated, err := e.subs.MarkBlocked(ctx, sub.ID)
		if err != nil {
			slog.Error("failed to block subscription",
				"subscription_id", sub.ID,
				"error", err,
			)
			results = append(results, ActionResult{
				SubscriptionID: sub.ID,
				Action:         ActionBlocked,
				Error:          err.Error(),
			})
			continue
		}
		if !updated {
			continue
		}

		recordTransition(string(domain.SubscriptionStatusBlocked))
		slog.Info("subscription blocked",
			"subscription_id", sub.ID,
			"user_id", sub.UserID,
			"expired_at", sub.UpdatedAt,
		)
		results = append(results, ActionResult{SubscriptionID: sub.ID, Action: ActionBlocked})

		if e.suspendOnBlock {
			count, err := e.suspender.Suspend(ctx, sub.UserID)
			if err != nil {
				slog.Error("failed to suspend resources for blocked user",
					"subscription_id", sub.ID,
					"user_id", sub.UserID,
					"error", err,
				)
				continue
			}
			slog.Info("resources suspended",
				"user_id", sub.UserID,
				"count", count,
			)
		}
	}

	if settings == nil || sender == nil {
		return results, nil
	}

	pending, err := e.subs.ListBlockedWithoutNotice(ctx)
	if err != nil {
		return results, err
	}
	for _, sub := range pending {
		if res := e.dispatcher.sendNotice(ctx, sub, domain.NoticeTypeBlockage, now, settings, sender); res != nil {
			results = append(results, *res)
		}
	}

	return results, nil
}

package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/zapmanager/zapmanager/internal/domain"
)

// Transitioner flips ACTIVE subscriptions past their period end to EXPIRED.
type Transitioner struct {
	subs SubscriptionRepository
}

// NewTransitioner creates a Transitioner.
func NewTransitioner(subs SubscriptionRepository) *Transitioner {
	return &Transitioner{subs: subs}
}

// ExpireDue expires every ACTIVE subscription whose period ended at or
// before now. Re-running is a no-op: expired rows no longer match the
// ACTIVE precondition. One record's failure never aborts the batch.
func (t *Transitioner) ExpireDue(ctx context.Context, now time.Time) ([]ActionResult, error) {
	due, err := t.subs.ListActiveEndedBefore(ctx, now)
	if err != nil {
		return nil, err
	}

	results := make([]ActionResult, 0, len(due))
	for _, sub := range due {
		updated, err := t.subs.MarkExpired(ctx, sub.ID)
		if err != nil {
			slog.Error("failed to expire subscription",
				"subscription_id", sub.ID,
				"error", err,
			)
			results = append(results, ActionResult{
				SubscriptionID: sub.ID,
				Action:         ActionExpired,
				Error:          err.Error(),
			})
			continue
		}
		if !updated {
			// Already expired by a concurrent or earlier sweep.
			continue
		}

		recordTransition(string(domain.SubscriptionStatusExpired))
		slog.Info("subscription expired",
			"subscription_id", sub.ID,
			"user_id", sub.UserID,
			"period_end", sub.CurrentPeriodEnd,
		)
		results = append(results, ActionResult{SubscriptionID: sub.ID, Action: ActionExpired})
	}

	return results, nil
}

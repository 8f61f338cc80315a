package suspension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zapmanager/zapmanager/internal/domain"
)

// Ledger suspends and restores a user's automation resources. Both the
// scheduled blockage sweep and the manual admin action go through it, so
// the two paths can never drift apart.
type Ledger struct {
	resources ResourceRepository
	records   LedgerRepository
}

// NewLedger creates a Ledger.
func NewLedger(resources ResourceRepository, records LedgerRepository) *Ledger {
	return &Ledger{resources: resources, records: records}
}

// Suspend snapshots the user's ACTIVE resources into the ledger and pauses
// them. The ledger writes land before any status change: if the process
// dies in between, the records still say what must be restored later, which
// beats pausing a resource whose pre-block state was lost. Upsert-keyed
// records make a second Suspend for the same user a no-op. Returns the
// number of resources paused.
func (l *Ledger) Suspend(ctx context.Context, userID string) (int, error) {
	active, err := l.resources.ListActiveByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list active resources: %w", err)
	}

	for _, res := range active {
		rec := domain.BlockedResourceRecord{
			UserID:       userID,
			ResourceType: res.Type,
			ResourceID:   res.ID,
		}
		if err := l.records.Upsert(ctx, rec); err != nil {
			return 0, fmt.Errorf("record blocked resource %s/%s: %w", res.Type, res.ID, err)
		}
	}

	var errs []error
	paused := 0
	for _, res := range active {
		if err := l.resources.SetStatus(ctx, res.ID, domain.ResourceStatusPaused); err != nil {
			// The ledger row exists, so the resource is still restored
			// correctly later even though pausing failed now.
			slog.Error("failed to pause resource",
				"user_id", userID,
				"resource_type", res.Type,
				"resource_id", res.ID,
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		paused++
	}

	recordSuspended(paused)
	return paused, errors.Join(errs...)
}

// Restore reactivates exactly the resources the ledger recorded for the
// user and then empties the ledger. Resources the owner paused manually
// have no ledger row and are never touched. A user without ledger rows is
// a no-op. Returns the number of resources reactivated.
func (l *Ledger) Restore(ctx context.Context, userID string) (int, error) {
	recs, err := l.records.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list blocked resources: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	restored := 0
	for _, rec := range recs {
		if err := l.resources.SetStatus(ctx, rec.ResourceID, domain.ResourceStatusActive); err != nil {
			// Keep the ledger rows so the next restore retries the lot.
			return restored, fmt.Errorf("reactivate resource %s/%s: %w", rec.ResourceType, rec.ResourceID, err)
		}
		restored++
	}

	// Delete only after every resource is back up, so a crash mid-restore
	// leaves the remaining rows for a retry.
	if err := l.records.DeleteByUser(ctx, userID); err != nil {
		return restored, fmt.Errorf("clear blocked resources: %w", err)
	}

	recordRestored(restored)
	return restored, nil
}

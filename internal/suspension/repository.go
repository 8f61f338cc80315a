// Package suspension implements the resource-suspension ledger: the
// snapshot/restore mechanism that freezes a blocked user's chatbots and
// flows and later reactivates exactly the ones it froze.
package suspension

import (
	"context"

	"github.com/zapmanager/zapmanager/internal/domain"
)

// ResourceRepository defines automation-resource data access.
type ResourceRepository interface {
	// ListActiveByUser returns the user's ACTIVE resources of all types.
	ListActiveByUser(ctx context.Context, userID string) ([]domain.AutomationResource, error)

	// SetStatus updates one resource's status.
	SetStatus(ctx context.Context, id string, status domain.ResourceStatus) error
}

// LedgerRepository stores blocked-resource records, the authoritative
// account of what was paused because of blocking.
type LedgerRepository interface {
	// Upsert inserts a record, a no-op if it already exists.
	Upsert(ctx context.Context, rec domain.BlockedResourceRecord) error

	// ListByUser returns all records for a user.
	ListByUser(ctx context.Context, userID string) ([]domain.BlockedResourceRecord, error)

	// DeleteByUser removes all records for a user.
	DeleteByUser(ctx context.Context, userID string) error
}

// AccountRepository flips subscription access state for the manual
// administrative block/unblock actions.
type AccountRepository interface {
	// BlockUser moves the user's subscription to BLOCKED. Reports false
	// when it already was.
	BlockUser(ctx context.Context, userID string) (bool, error)

	// UnblockUser moves the user's BLOCKED subscription back to ACTIVE.
	// Reports false when it was not blocked.
	UnblockUser(ctx context.Context, userID string) (bool, error)
}

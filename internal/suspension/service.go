package suspension

import (
	"context"
	"fmt"
	"log/slog"
)

// Service implements the manual administrative block/unblock actions. It
// shares the Ledger with the scheduled blockage sweep.
type Service struct {
	accounts AccountRepository
	ledger   *Ledger
}

// NewService creates a suspension service.
func NewService(accounts AccountRepository, ledger *Ledger) *Service {
	return &Service{accounts: accounts, ledger: ledger}
}

// BlockAccount blocks the user's subscription and suspends their automation
// resources.
func (s *Service) BlockAccount(ctx context.Context, userID string) error {
	updated, err := s.accounts.BlockUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("block account: %w", err)
	}
	if !updated {
		return ErrAlreadyBlocked
	}

	count, err := s.ledger.Suspend(ctx, userID)
	if err != nil {
		return fmt.Errorf("suspend resources: %w", err)
	}

	slog.Info("account blocked by admin",
		"user_id", userID,
		"resources_suspended", count,
	)
	return nil
}

// UnblockAccount restores the user's suspended resources and reactivates
// the subscription. Restore runs first so the account never reads ACTIVE
// while its resources are still frozen.
func (s *Service) UnblockAccount(ctx context.Context, userID string) error {
	count, err := s.ledger.Restore(ctx, userID)
	if err != nil {
		return fmt.Errorf("restore resources: %w", err)
	}

	updated, err := s.accounts.UnblockUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("unblock account: %w", err)
	}
	if !updated {
		// Resources were restored anyway; restoring twice is a no-op.
		return ErrNotBlocked
	}

	slog.Info("account unblocked by admin",
		"user_id", userID,
		"resources_restored", count,
	)
	return nil
}

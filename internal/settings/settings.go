// Package settings manages the stored notification configuration: SMTP
// transport parameters and the notice templates.
package settings

import (
	"context"
	"errors"

	"github.com/zapmanager/zapmanager/internal/domain"
)

// ErrNotConfigured means no usable notification settings exist yet. The
// lifecycle sweep treats this as a soft condition, not a failure.
var ErrNotConfigured = errors.New("notification settings not configured")

// Repository defines settings data access.
type Repository interface {
	// Get returns the stored settings, or ErrNotConfigured when the row
	// is missing or has no SMTP host.
	Get(ctx context.Context) (*domain.NotificationSettings, error)

	// Save upserts the settings row and its templates.
	Save(ctx context.Context, s *domain.NotificationSettings) error
}

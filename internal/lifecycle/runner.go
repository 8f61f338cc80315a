package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zapmanager/zapmanager/internal/settings"
)

// Hour gates for the day-granular sweeps, in the configured timezone.
// The blockage sweep carries no gate and runs every tick.
const (
	expirationHour = 0
	expiryHour     = 9
	remindersHour  = 14
)

// RunnerConfig tunes a Runner.
type RunnerConfig struct {
	Location       *time.Location
	GraceWindow    time.Duration
	SuspendOnBlock bool
}

// SweepResult aggregates everything one invocation did.
type SweepResult struct {
	Results []ActionResult
	// NotificationsConfigured is false when the settings row is missing:
	// transitions still ran, notices were skipped.
	NotificationsConfigured bool
}

// Runner is the periodic entry point: it reads the wall clock, decides
// which sweeps run this tick and aggregates their results. Every sweep is
// idempotent against its own precondition, so overlapping or duplicate
// invocations from the scheduler converge to the same state.
type Runner struct {
	transitioner *Transitioner
	dispatcher   *Dispatcher
	enforcer     *Enforcer
	settings     SettingsRepository
	senderFor    SenderFactory
	clock        Clock
	loc          *time.Location
}

// NewRunner creates a Runner. A nil clock defaults to the system clock.
func NewRunner(cfg RunnerConfig, subs SubscriptionRepository, users UserRepository, logs NotificationLogRepository, settingsRepo SettingsRepository, plans PlanResolver, suspender ResourceSuspender, senderFor SenderFactory, clock Clock) *Runner {
	if clock == nil {
		clock = SystemClock()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	dispatcher := NewDispatcher(subs, users, logs, plans)

	return &Runner{
		transitioner: NewTransitioner(subs),
		dispatcher:   dispatcher,
		enforcer:     NewEnforcer(subs, dispatcher, suspender, cfg.GraceWindow, cfg.SuspendOnBlock),
		settings:     settingsRepo,
		senderFor:    senderFor,
		clock:        clock,
		loc:          loc,
	}
}

// Run executes one lifecycle sweep.
func (r *Runner) Run(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	now := r.clock.Now().In(r.loc)
	results := make([]ActionResult, 0)

	if now.Hour() == expirationHour {
		expired, err := r.transitioner.ExpireDue(ctx, now)
		if err != nil {
			recordSweep("error", time.Since(start))
			return nil, fmt.Errorf("expire due subscriptions: %w", err)
		}
		results = append(results, expired...)
	}

	cfg, err := r.settings.Get(ctx)
	configured := err == nil
	if err != nil && !errors.Is(err, settings.ErrNotConfigured) {
		recordSweep("error", time.Since(start))
		return nil, fmt.Errorf("load notification settings: %w", err)
	}

	var sender Sender
	if configured {
		sender = r.senderFor(cfg.SMTP)
	}

	if configured && now.Hour() == expiryHour {
		notices, err := r.dispatcher.SendExpiryNotices(ctx, now, cfg, sender)
		if err != nil {
			recordSweep("error", time.Since(start))
			return nil, fmt.Errorf("send expiry notices: %w", err)
		}
		results = append(results, notices...)
	}

	if configured && now.Hour() == remindersHour {
		notices, err := r.dispatcher.SendReminders(ctx, now, cfg, sender)
		if err != nil {
			recordSweep("error", time.Since(start))
			return nil, fmt.Errorf("send reminders: %w", err)
		}
		results = append(results, notices...)
	}

	blocked, err := r.enforcer.EnforceBlockages(ctx, now, cfg, sender)
	if err != nil {
		recordSweep("error", time.Since(start))
		return nil, fmt.Errorf("enforce blockages: %w", err)
	}
	results = append(results, blocked...)

	recordSweep("ok", time.Since(start))
	slog.Info("lifecycle sweep completed",
		"hour", now.Hour(),
		"actions", len(results),
		"notifications_configured", configured,
		"duration", time.Since(start),
	)

	return &SweepResult{Results: results, NotificationsConfigured: configured}, nil
}

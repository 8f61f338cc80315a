package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/zapmanager/zapmanager/internal/domain"
)

// reminderOffsets lists the reminder notices in send order: days before the
// period end, with 0 meaning the period ends today.
var reminderOffsets = []struct {
	Type domain.NoticeType
	Days int
}{
	{domain.NoticeTypeReminder3d, 3},
	{domain.NoticeTypeReminder2d, 2},
	{domain.NoticeTypeReminder0d, 0},
}

// defaultTemplates backs any notice type missing from the stored settings.
var defaultTemplates = map[domain.NoticeType]domain.NoticeTemplate{
	domain.NoticeTypeReminder3d: {
		Subject: "Sua assinatura vence em 3 dias",
		Body:    "Olá {{user_name}}, sua assinatura do plano {{plan_name}} vence em {{expiry_date}}. Renove para não perder o acesso.",
	},
	domain.NoticeTypeReminder2d: {
		Subject: "Sua assinatura vence em 2 dias",
		Body:    "Olá {{user_name}}, sua assinatura do plano {{plan_name}} vence em {{expiry_date}}. Renove para não perder o acesso.",
	},
	domain.NoticeTypeReminder0d: {
		Subject: "Sua assinatura vence hoje",
		Body:    "Olá {{user_name}}, sua assinatura do plano {{plan_name}} vence hoje ({{expiry_date}}). Renove agora para manter seus atendimentos.",
	},
	domain.NoticeTypeExpiry: {
		Subject: "Sua assinatura expirou",
		Body:    "Olá {{user_name}}, sua assinatura do plano {{plan_name}} expirou em {{expiry_date}}. Renove em até 24 horas para evitar o bloqueio da conta.",
	},
	domain.NoticeTypeBlockage: {
		Subject: "Sua conta foi bloqueada",
		Body:    "Olá {{user_name}}, sua conta foi bloqueada por falta de renovação do plano {{plan_name}}. Seus chatbots e fluxos foram pausados e voltam automaticamente após a renovação.",
	},
}

// Dispatcher delivers templated lifecycle notices with idempotency gating
// against the notification log.
type Dispatcher struct {
	subs  SubscriptionRepository
	users UserRepository
	logs  NotificationLogRepository
	plans PlanResolver
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(subs SubscriptionRepository, users UserRepository, logs NotificationLogRepository, plans PlanResolver) *Dispatcher {
	return &Dispatcher{subs: subs, users: users, logs: logs, plans: plans}
}

// SendExpiryNotices notifies subscriptions that expired today.
func (d *Dispatcher) SendExpiryNotices(ctx context.Context, now time.Time, settings *domain.NotificationSettings, sender Sender) ([]ActionResult, error) {
	from, to := dayBounds(now)

	subs, err := d.subs.ListExpiredUpdatedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	results := make([]ActionResult, 0, len(subs))
	for _, sub := range subs {
		if res := d.sendNotice(ctx, sub, domain.NoticeTypeExpiry, now, settings, sender); res != nil {
			results = append(results, *res)
		}
	}
	return results, nil
}

// SendReminders notifies ACTIVE subscriptions whose period ends exactly 3,
// 2 or 0 days from today.
func (d *Dispatcher) SendReminders(ctx context.Context, now time.Time, settings *domain.NotificationSettings, sender Sender) ([]ActionResult, error) {
	results := make([]ActionResult, 0)

	for _, offset := range reminderOffsets {
		target := now.AddDate(0, 0, offset.Days)
		from, to := dayBounds(target)

		subs, err := d.subs.ListActiveEndingBetween(ctx, from, to)
		if err != nil {
			return results, err
		}

		for _, sub := range subs {
			if res := d.sendNotice(ctx, sub, offset.Type, now, settings, sender); res != nil {
				results = append(results, *res)
			}
		}
	}
	return results, nil
}

// sendNotice delivers a single notice if it passes the dedup gate. Returns
// nil when the notice was skipped (already sent, recipient unusable or a
// data error); skips are logged and counted, never fatal for the batch.
func (d *Dispatcher) sendNotice(ctx context.Context, sub domain.Subscription, t domain.NoticeType, now time.Time, settings *domain.NotificationSettings, sender Sender) *ActionResult {
	sent, err := d.alreadySent(ctx, sub.ID, t, now)
	if err != nil {
		slog.Error("failed to check notification log",
			"subscription_id", sub.ID,
			"type", t,
			"error", err,
		)
		return nil
	}
	if sent {
		recordNotice(string(t), noticeStatusSkippedDedup)
		return nil
	}

	user, err := d.users.GetUser(ctx, sub.UserID)
	if err != nil {
		slog.Error("failed to load notice recipient",
			"subscription_id", sub.ID,
			"user_id", sub.UserID,
			"error", err,
		)
		return nil
	}
	if user.Email == "" {
		// Skipped without logging: stays eligible for retry once the
		// address is filled in.
		slog.Warn("recipient has no email address, notice skipped",
			"subscription_id", sub.ID,
			"user_id", sub.UserID,
			"type", t,
		)
		recordNotice(string(t), noticeStatusSkippedNoMail)
		return nil
	}

	tmpl, ok := settings.Templates[t]
	if !ok {
		tmpl = defaultTemplates[t]
	}

	tctx := TemplateContext{
		UserName:   user.Name,
		PlanName:   d.plans.PlanName(ctx, sub.PlanID),
		ExpiryDate: sub.CurrentPeriodEnd,
	}
	msg := Message{
		To:      user.Email,
		Subject: RenderTemplate(tmpl.Subject, tctx),
		Body:    RenderTemplate(tmpl.Body, tctx),
	}

	// Send before logging. A crash between the two may re-send on the
	// next sweep; the reverse order could log a notice that was never
	// delivered, which is worse for an at-least-once system.
	if err := sender.Send(ctx, msg); err != nil {
		slog.Error("failed to send notice",
			"subscription_id", sub.ID,
			"type", t,
			"error", err,
		)
		recordNotice(string(t), noticeStatusFailed)
		return &ActionResult{SubscriptionID: sub.ID, Action: noticeAction(string(t)), Error: err.Error()}
	}

	if err := d.logs.Record(ctx, sub.ID, t, now); err != nil {
		slog.Error("notice sent but not logged, may be re-sent next sweep",
			"subscription_id", sub.ID,
			"type", t,
			"error", err,
		)
	}

	recordNotice(string(t), noticeStatusSent)
	slog.Info("notice sent",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"type", t,
	)
	return &ActionResult{SubscriptionID: sub.ID, Action: noticeAction(string(t))}
}

// alreadySent applies the dedup scope per notice type: blockage once per
// subscription lifetime, everything else once per calendar day.
func (d *Dispatcher) alreadySent(ctx context.Context, subscriptionID string, t domain.NoticeType, now time.Time) (bool, error) {
	if t == domain.NoticeTypeBlockage {
		return d.logs.SentEver(ctx, subscriptionID, t)
	}
	from, to := dayBounds(now)
	return d.logs.SentBetween(ctx, subscriptionID, t, from, to)
}

// dayBounds returns the half-open calendar day [00:00, +24h) containing ts,
// in ts's location.
func dayBounds(ts time.Time) (time.Time, time.Time) {
	from := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
	return from, from.AddDate(0, 0, 1)
}

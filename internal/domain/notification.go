package domain

import "time"

// NoticeType identifies a lifecycle notice.
type NoticeType string

// Notice types. The numeric types are reminders sent N days before the
// current period ends; expiry and blockage mark the two transitions.
const (
	NoticeTypeReminder3d NoticeType = "3d"
	NoticeTypeReminder2d NoticeType = "2d"
	NoticeTypeReminder0d NoticeType = "0d"
	NoticeTypeExpiry     NoticeType = "expiry"
	NoticeTypeBlockage   NoticeType = "blockage"
)

// NotificationLogEntry is the idempotency marker for a delivered notice.
// Reminder and expiry notices are deduplicated per calendar day; blockage
// is deduplicated once per subscription lifetime.
type NotificationLogEntry struct {
	ID             string
	SubscriptionID string
	Type           NoticeType
	SentAt         time.Time
}

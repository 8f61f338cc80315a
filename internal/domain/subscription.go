package domain

import "time"

// SubscriptionStatus represents the lifecycle state of a subscription.
type SubscriptionStatus string

// Subscription statuses. The lifecycle engine only ever moves a subscription
// forward (ACTIVE -> EXPIRED -> BLOCKED); renewal back to ACTIVE happens in
// the billing flow, outside this service.
const (
	SubscriptionStatusActive  SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpired SubscriptionStatus = "EXPIRED"
	SubscriptionStatusBlocked SubscriptionStatus = "BLOCKED"
)

// Subscription links a user to a plan and carries the access lifecycle state.
type Subscription struct {
	ID               string
	UserID           string
	PlanID           string
	Status           SubscriptionStatus
	CurrentPeriodEnd time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

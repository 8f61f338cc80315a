package domain

import "time"

// Plan describes a billing plan and its resource limits.
type Plan struct {
	ID          string
	Name        string
	MaxChatbots int
	MaxFlows    int
	CreatedAt   time.Time
}

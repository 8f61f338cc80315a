package domain

import "time"

// User is a tenant account owning subscriptions and automation resources.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

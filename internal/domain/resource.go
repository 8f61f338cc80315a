package domain

import "time"

// ResourceType identifies the kind of automation resource.
type ResourceType string

// Resource types.
const (
	ResourceTypeChatbot ResourceType = "chatbot"
	ResourceTypeFlow    ResourceType = "flow"
)

// ResourceStatus represents the execution state of an automation resource.
type ResourceStatus string

// Resource statuses. The flow/chatbot execution engine only processes
// inbound traffic for ACTIVE resources.
const (
	ResourceStatusActive ResourceStatus = "ACTIVE"
	ResourceStatusPaused ResourceStatus = "PAUSED"
	ResourceStatusDraft  ResourceStatus = "DRAFT"
)

// AutomationResource is a chatbot or conversation flow owned by a user.
type AutomationResource struct {
	ID        string
	UserID    string
	Type      ResourceType
	Name      string
	Status    ResourceStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BlockedResourceRecord marks a resource as suspended because of account
// blocking. Its existence, not the resource status, is authoritative for
// what must be reactivated on restore: a PAUSED resource without a record
// was paused by its owner and is never touched.
type BlockedResourceRecord struct {
	UserID       string
	ResourceType ResourceType
	ResourceID   string
	CreatedAt    time.Time
}

package domain

import (
	"errors"
	"time"
)

// NotificationType classifies what a notification refers to.
type NotificationType string

const (
	NotifyApplicationReviewed NotificationType = "application_reviewed"
	NotifyTaskAssigned        NotificationType = "task_assigned"
	NotifyTicketUpdated       NotificationType = "ticket_updated"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Notification is a per-user message produced by workflow side effects.
type Notification struct {
	ID            string           `json:"id" bson:"_id,omitempty"`
	UserID        string           `json:"user_id" bson:"user_id"`
	Type          NotificationType `json:"type" bson:"type"`
	Title         string           `json:"title" bson:"title"`
	Body          string           `json:"body" bson:"body"`
	ReferenceKind string           `json:"reference_kind,omitempty" bson:"reference_kind,omitempty"`
	ReferenceID   string           `json:"reference_id,omitempty" bson:"reference_id,omitempty"`
	Read          bool             `json:"read" bson:"read"`
	CreatedAt     time.Time        `json:"created_at" bson:"created_at"`
}

// AuditEntry records who did what to which entity.
type AuditEntry struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	ActorID    string    `json:"actor_id" bson:"actor_id"`
	Action     string    `json:"action" bson:"action"`
	EntityKind string    `json:"entity_kind" bson:"entity_kind"`
	EntityID   string    `json:"entity_id" bson:"entity_id"`
	Detail     string    `json:"detail,omitempty" bson:"detail,omitempty"`
	OrgID      string    `json:"org_id,omitempty" bson:"org_id,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

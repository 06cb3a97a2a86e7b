package domain

import (
	"errors"
	"time"
)

// TicketStatus represents the lifecycle state of a help-desk ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketInProgress TicketStatus = "In Progress"
	TicketResolved   TicketStatus = "Resolved"
	TicketClosed     TicketStatus = "Closed"
)

// ValidTicketStatus reports whether s is one of the four known statuses.
// Any-to-any movement among them is allowed for a privileged actor, so the
// ticket machine validates membership rather than edges.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

// responseEditLimit caps corrections by a non-superadmin responder.
const responseEditLimit = 1

var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrAlreadyResponded = errors.New("ticket already has a response")
	ErrEditLimitReached = errors.New("response edit limit reached")
	ErrTicketLocked     = errors.New("ticket is locked by another assignment")
	ErrTicketFinalized  = errors.New("ticket is resolved or closed")
	ErrNotAssignee      = errors.New("not the ticket assignee")
)

// TicketResponse is the single substantive answer attached to a ticket.
type TicketResponse struct {
	Text        string    `json:"text" bson:"text"`
	ResponderID string    `json:"responder_id" bson:"responder_id"`
	RespondedAt time.Time `json:"responded_at" bson:"responded_at"`
	EditCount   int       `json:"edit_count" bson:"edit_count"`
	Edited      bool      `json:"edited" bson:"edited"`
}

// Ticket is a help-desk support record with at most one active response.
type Ticket struct {
	ID           string          `json:"id" bson:"_id,omitempty"`
	TicketNumber string          `json:"ticket_number" bson:"ticket_number"`
	Subject      string          `json:"subject" bson:"subject"`
	Category     string          `json:"category" bson:"category"`
	Description  string          `json:"description" bson:"description"`
	Status       TicketStatus    `json:"status" bson:"status"`
	RaisedBy     string          `json:"raised_by" bson:"raised_by"`
	AssigneeID   string          `json:"assignee_id,omitempty" bson:"assignee_id,omitempty"`
	Response     *TicketResponse `json:"response,omitempty" bson:"response,omitempty"`
	OrgID        string          `json:"org_id,omitempty" bson:"org_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" bson:"updated_at"`
}

// Locked reports whether the ticket already carries a response. A locked
// ticket only accepts edits, never a second response.
func (t *Ticket) Locked() bool {
	return t.Response != nil && t.Response.ResponderID != ""
}

// Finalized reports whether assignment changes are blocked by status.
func (t *Ticket) Finalized() bool {
	return t.Status == TicketResolved || t.Status == TicketClosed
}

// CanEditResponse reports whether actor may amend the existing response.
// The original responder gets one correction; superadmin is uncapped.
func (t *Ticket) CanEditResponse(actorID string, role Role) bool {
	if t.Response == nil {
		return false
	}
	if role == RoleSuperAdmin {
		return true
	}
	return t.Response.ResponderID == actorID && t.Response.EditCount < responseEditLimit
}

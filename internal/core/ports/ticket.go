package ports

import (
	"context"

	"github.com/proveloce/connect/internal/core/domain"
)

// CreateTicketInput carries the fields a raiser supplies.
type CreateTicketInput struct {
	Subject     string
	Category    string
	Description string
}

// ListTicketsFilter carries query parameters for listing tickets.
type ListTicketsFilter struct {
	OrgID      string // empty = all tenants (superadmin only)
	RaisedBy   string
	AssigneeID string
	Status     domain.TicketStatus
	Page       int
	Limit      int
}

// TicketRepository persists help-desk tickets. SetResponseIfUnanswered is a
// compare-and-swap: it only lands when the ticket has no response yet.
type TicketRepository interface {
	Create(ctx context.Context, t *domain.Ticket) (*domain.Ticket, error)
	FindByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter ListTicketsFilter) ([]*domain.Ticket, int64, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error
	SetAssignee(ctx context.Context, id, assigneeID string) error
	SetResponseIfUnanswered(ctx context.Context, id string, resp domain.TicketResponse) (bool, error)
	UpdateResponse(ctx context.Context, id string, resp domain.TicketResponse) error
}

// TicketService implements the help-desk workflow.
type TicketService interface {
	Create(ctx context.Context, actor domain.AuthContext, input CreateTicketInput) (*domain.Ticket, error)
	Get(ctx context.Context, actor domain.AuthContext, id string) (*domain.Ticket, error)
	List(ctx context.Context, actor domain.AuthContext, filter ListTicketsFilter) ([]*domain.Ticket, int64, error)
	// UpdateStatus moves the ticket among Open/In Progress/Resolved/Closed.
	// Only the current assignee or superadmin may transition.
	UpdateStatus(ctx context.Context, actor domain.AuthContext, id string, status domain.TicketStatus) error
	Assign(ctx context.Context, actor domain.AuthContext, id, assigneeID string) error
	Reassign(ctx context.Context, actor domain.AuthContext, id, assigneeID string) error
	Unassign(ctx context.Context, actor domain.AuthContext, id string) error
	// Respond records the single substantive response, or edits it when
	// editRequested is set and the edit allowance permits.
	Respond(ctx context.Context, actor domain.AuthContext, id, text string, editRequested bool) (*domain.Ticket, error)
}

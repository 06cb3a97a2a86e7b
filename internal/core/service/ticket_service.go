package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

// TicketService implements the help-desk workflow: creation, assignment,
// status transitions, and the single-response rule.
type TicketService struct {
	tickets  ports.TicketRepository
	audit    ports.AuditRepository
	notifier ports.Notifier
	log      zerolog.Logger
}

func NewTicketService(tickets ports.TicketRepository, audit ports.AuditRepository, notifier ports.Notifier, log zerolog.Logger) *TicketService {
	return &TicketService{tickets: tickets, audit: audit, notifier: notifier, log: log}
}

func (s *TicketService) Create(ctx context.Context, actor domain.AuthContext, input ports.CreateTicketInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Subject) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, fmt.Errorf("%w: subject and description are required", domain.ErrValidation)
	}

	now := time.Now().UTC()
	ticket := &domain.Ticket{
		TicketNumber: generateTicketNumber(now),
		Subject:      input.Subject,
		Category:     input.Category,
		Description:  input.Description,
		Status:       domain.TicketOpen,
		RaisedBy:     actor.UserID,
		OrgID:        actor.OrgID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.tickets.Create(ctx, ticket)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("ticket_number", created.TicketNumber).Str("raised_by", actor.UserID).Msg("ticket created")
	return created, nil
}

func (s *TicketService) Get(ctx context.Context, actor domain.AuthContext, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Raiser and assignee always see their ticket; staff is tenant-scoped.
	if ticket.RaisedBy == actor.UserID || ticket.AssigneeID == actor.UserID {
		return ticket, nil
	}
	if !actor.Role.IsStaff() || !actor.SameTenant(ticket.OrgID) {
		return nil, domain.ErrForbidden
	}
	return ticket, nil
}

func (s *TicketService) List(ctx context.Context, actor domain.AuthContext, filter ports.ListTicketsFilter) ([]*domain.Ticket, int64, error) {
	if actor.Role.IsStaff() {
		if actor.Role != domain.RoleSuperAdmin {
			filter.OrgID = actor.OrgID
		}
	} else {
		// Non-staff callers only list what they raised.
		filter.RaisedBy = actor.UserID
	}
	return s.tickets.List(ctx, filter)
}

// UpdateStatus moves the ticket among the four statuses. Any-to-any movement
// is permitted, but only for the current assignee or superadmin.
func (s *TicketService) UpdateStatus(ctx context.Context, actor domain.AuthContext, id string, status domain.TicketStatus) error {
	if !domain.ValidTicketStatus(status) {
		return fmt.Errorf("%w: unknown ticket status %q", domain.ErrInvalidTransition, status)
	}
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleSuperAdmin && ticket.AssigneeID != actor.UserID {
		return domain.ErrNotAssignee
	}
	if err := s.tickets.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.recordAudit(ctx, actor, "ticket_status_changed", id, fmt.Sprintf("%s -> %s", ticket.Status, status))
	s.notifier.Notify(domain.Notification{
		UserID:        ticket.RaisedBy,
		Type:          domain.NotifyTicketUpdated,
		Title:         "Ticket " + ticket.TicketNumber + " updated",
		Body:          "Status changed to " + string(status),
		ReferenceKind: "ticket",
		ReferenceID:   id,
		CreatedAt:     time.Now().UTC(),
	})
	return nil
}

func (s *TicketService) Assign(ctx context.Context, actor domain.AuthContext, id, assigneeID string) error {
	return s.setAssignee(ctx, actor, id, assigneeID, "ticket_assigned")
}

func (s *TicketService) Reassign(ctx context.Context, actor domain.AuthContext, id, assigneeID string) error {
	return s.setAssignee(ctx, actor, id, assigneeID, "ticket_reassigned")
}

func (s *TicketService) Unassign(ctx context.Context, actor domain.AuthContext, id string) error {
	return s.setAssignee(ctx, actor, id, "", "ticket_unassigned")
}

func (s *TicketService) setAssignee(ctx context.Context, actor domain.AuthContext, id, assigneeID, action string) error {
	if !actor.Role.Can(domain.CapAssignTickets) {
		return domain.ErrForbidden
	}
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.SameTenant(ticket.OrgID) {
		return domain.ErrTenantMismatch
	}
	if ticket.Finalized() {
		return domain.ErrTicketFinalized
	}
	// An assignment held by someone else locks assignment changes for
	// everyone below superadmin.
	if ticket.AssigneeID != "" && ticket.AssigneeID != actor.UserID && actor.Role != domain.RoleSuperAdmin {
		return domain.ErrTicketLocked
	}

	if err := s.tickets.SetAssignee(ctx, id, assigneeID); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, action, id, assigneeID)
	return nil
}

// Respond records the single substantive response, or applies the one
// permitted edit when editRequested is set.
func (s *TicketService) Respond(ctx context.Context, actor domain.AuthContext, id, text string, editRequested bool) (*domain.Ticket, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: response text is required", domain.ErrValidation)
	}
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleSuperAdmin && ticket.AssigneeID != actor.UserID {
		return nil, domain.ErrNotAssignee
	}

	now := time.Now().UTC()

	if ticket.Locked() {
		if !editRequested {
			return nil, domain.ErrAlreadyResponded
		}
		if !ticket.CanEditResponse(actor.UserID, actor.Role) {
			return nil, domain.ErrEditLimitReached
		}
		resp := *ticket.Response
		resp.Text = text
		resp.EditCount++
		resp.Edited = true
		resp.RespondedAt = now
		if err := s.tickets.UpdateResponse(ctx, id, resp); err != nil {
			return nil, err
		}
		ticket.Response = &resp
		s.recordAudit(ctx, actor, "ticket_response_edited", id, "")
		return ticket, nil
	}

	resp := domain.TicketResponse{
		Text:        text,
		ResponderID: actor.UserID,
		RespondedAt: now,
	}
	ok, err := s.tickets.SetResponseIfUnanswered(ctx, id, resp)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race to another responder.
		return nil, domain.ErrAlreadyResponded
	}

	ticket.Response = &resp
	s.recordAudit(ctx, actor, "ticket_responded", id, "")
	s.notifier.Notify(domain.Notification{
		UserID:        ticket.RaisedBy,
		Type:          domain.NotifyTicketUpdated,
		Title:         "Ticket " + ticket.TicketNumber + " answered",
		Body:          "Your ticket has received a response.",
		ReferenceKind: "ticket",
		ReferenceID:   id,
		CreatedAt:     now,
	})
	return ticket, nil
}

func (s *TicketService) recordAudit(ctx context.Context, actor domain.AuthContext, action, entityID, detail string) {
	entry := &domain.AuditEntry{
		ActorID:    actor.UserID,
		Action:     action,
		EntityKind: "ticket",
		EntityID:   entityID,
		Detail:     detail,
		OrgID:      actor.OrgID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}

// generateTicketNumber returns a human-readable, date-derived ticket number
// in the format PVC-YYYYMMDD-XXXX.
func generateTicketNumber(now time.Time) string {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("PVC-%s-%04X", now.Format("20060102"), now.UnixNano()&0xFFFF)
	}
	return fmt.Sprintf("PVC-%s-%04X", now.Format("20060102"), b)
}

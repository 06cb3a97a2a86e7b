package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

func newTicketFixture() (*TicketService, *stubTicketRepo, *stubAuditRepo, *stubNotifier) {
	tickets := newStubTicketRepo()
	audit := &stubAuditRepo{}
	notifier := &stubNotifier{}
	svc := NewTicketService(tickets, audit, notifier, zerolog.Nop())
	return svc, tickets, audit, notifier
}

func seedTicket(t *testing.T, tickets *stubTicketRepo, raisedBy, assignee, orgID string, status domain.TicketStatus) *domain.Ticket {
	t.Helper()
	ticket, err := tickets.Create(context.Background(), &domain.Ticket{
		TicketNumber: "PVC-20260830-0001",
		Subject:      "login fails",
		Description:  "cannot log in",
		Status:       status,
		RaisedBy:     raisedBy,
		AssigneeID:   assignee,
		OrgID:        orgID,
	})
	if err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	return ticket
}

func TestTicketService_Create(t *testing.T) {
	svc, _, _, _ := newTicketFixture()
	actor := domain.AuthContext{UserID: "u1", Role: domain.RoleUser, OrgID: "org-a"}

	ticket, err := svc.Create(context.Background(), actor, ports.CreateTicketInput{
		Subject:     "billing question",
		Category:    "billing",
		Description: "charged twice",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if ticket.Status != domain.TicketOpen {
		t.Fatalf("expected Open, got %s", ticket.Status)
	}
	if !strings.HasPrefix(ticket.TicketNumber, "PVC-") {
		t.Fatalf("unexpected ticket number %q", ticket.TicketNumber)
	}

	if _, err := svc.Create(context.Background(), actor, ports.CreateTicketInput{Subject: " "}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank fields, got %v", err)
	}
}

func TestTicketService_Respond_SingleResponse(t *testing.T) {
	svc, tickets, _, notifier := newTicketFixture()
	ticket := seedTicket(t, tickets, "raiser", "agent-1", "org-a", domain.TicketOpen)
	agent := domain.AuthContext{UserID: "agent-1", Role: domain.RoleAdmin, OrgID: "org-a"}

	if _, err := svc.Respond(context.Background(), agent, ticket.ID, "please reset your password", false); err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].UserID != "raiser" {
		t.Fatalf("expected the raiser to be notified, got %+v", notifier.sent)
	}

	// A second plain response must be rejected, even from the same agent.
	if _, err := svc.Respond(context.Background(), agent, ticket.ID, "another answer", false); !errors.Is(err, domain.ErrAlreadyResponded) {
		t.Fatalf("expected ErrAlreadyResponded, got %v", err)
	}
}

func TestTicketService_Respond_EditAllowance(t *testing.T) {
	svc, tickets, _, _ := newTicketFixture()
	ticket := seedTicket(t, tickets, "raiser", "agent-1", "org-a", domain.TicketOpen)
	agent := domain.AuthContext{UserID: "agent-1", Role: domain.RoleAdmin, OrgID: "org-a"}

	if _, err := svc.Respond(context.Background(), agent, ticket.ID, "first draft", false); err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	edited, err := svc.Respond(context.Background(), agent, ticket.ID, "corrected answer", true)
	if err != nil {
		t.Fatalf("edit returned error: %v", err)
	}
	if !edited.Response.Edited || edited.Response.EditCount != 1 {
		t.Fatalf("expected edit to be marked, got %+v", edited.Response)
	}

	// The single correction is spent.
	if _, err := svc.Respond(context.Background(), agent, ticket.ID, "third version", true); !errors.Is(err, domain.ErrEditLimitReached) {
		t.Fatalf("expected ErrEditLimitReached, got %v", err)
	}

	// Superadmin is not capped.
	super := domain.AuthContext{UserID: "root", Role: domain.RoleSuperAdmin}
	if _, err := svc.Respond(context.Background(), super, ticket.ID, "override", true); err != nil {
		t.Fatalf("expected superadmin edit to pass, got %v", err)
	}
}

func TestTicketService_Respond_OnlyAssignee(t *testing.T) {
	svc, tickets, _, _ := newTicketFixture()
	ticket := seedTicket(t, tickets, "raiser", "agent-1", "org-a", domain.TicketOpen)

	other := domain.AuthContext{UserID: "agent-2", Role: domain.RoleAdmin, OrgID: "org-a"}
	if _, err := svc.Respond(context.Background(), other, ticket.ID, "drive-by answer", false); !errors.Is(err, domain.ErrNotAssignee) {
		t.Fatalf("expected ErrNotAssignee, got %v", err)
	}
}

func TestTicketService_Assign_LockAndFinalize(t *testing.T) {
	svc, tickets, _, _ := newTicketFixture()
	ticket := seedTicket(t, tickets, "raiser", "agent-1", "org-a", domain.TicketOpen)

	// Another admin cannot steal an assignment held by someone else.
	other := domain.AuthContext{UserID: "agent-2", Role: domain.RoleAdmin, OrgID: "org-a"}
	if err := svc.Reassign(context.Background(), other, ticket.ID, "agent-2"); !errors.Is(err, domain.ErrTicketLocked) {
		t.Fatalf("expected ErrTicketLocked, got %v", err)
	}

	// Superadmin may.
	super := domain.AuthContext{UserID: "root", Role: domain.RoleSuperAdmin}
	if err := svc.Reassign(context.Background(), super, ticket.ID, "agent-2"); err != nil {
		t.Fatalf("superadmin reassign returned error: %v", err)
	}

	closed := seedTicket(t, tickets, "raiser", "agent-1", "org-a", domain.TicketClosed)
	holder := domain.AuthContext{UserID: "agent-1", Role: domain.RoleAdmin, OrgID: "org-a"}
	if err := svc.Unassign(context.Background(), holder, closed.ID); !errors.Is(err, domain.ErrTicketFinalized) {
		t.Fatalf("expected ErrTicketFinalized, got %v", err)
	}
}

func TestTicketService_Reassign_HolderHandsOff(t *testing.T) {
	svc, tickets, _, _ := newTicketFixture()
	ticket := seedTicket(t, tickets, "raiser", "agent-1", "org-a", domain.TicketOpen)

	// The admin holding the assignment may pass it on without superadmin
	// involvement; the lock only bites other holders.
	holder := domain.AuthContext{UserID: "agent-1", Role: domain.RoleAdmin, OrgID: "org-a"}
	if err := svc.Reassign(context.Background(), holder, ticket.ID, "agent-2"); err != nil {
		t.Fatalf("holder reassign returned error: %v", err)
	}

	got, err := tickets.FindByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.AssigneeID != "agent-2" {
		t.Fatalf("expected assignee agent-2, got %q", got.AssigneeID)
	}
}

func TestTicketService_Assign_TenantScoped(t *testing.T) {
	svc, tickets, _, _ := newTicketFixture()
	ticket := seedTicket(t, tickets, "raiser", "", "org-a", domain.TicketOpen)

	foreign := domain.AuthContext{UserID: "adm-b", Role: domain.RoleAdmin, OrgID: "org-b"}
	if err := svc.Assign(context.Background(), foreign, ticket.ID, "adm-b"); !errors.Is(err, domain.ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch, got %v", err)
	}
}

func TestTicketService_UpdateStatus(t *testing.T) {
	svc, tickets, _, notifier := newTicketFixture()
	ticket := seedTicket(t, tickets, "raiser", "agent-1", "org-a", domain.TicketOpen)
	agent := domain.AuthContext{UserID: "agent-1", Role: domain.RoleAdmin, OrgID: "org-a"}

	if err := svc.UpdateStatus(context.Background(), agent, ticket.ID, "Bogus"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for unknown status, got %v", err)
	}

	other := domain.AuthContext{UserID: "agent-2", Role: domain.RoleAdmin, OrgID: "org-a"}
	if err := svc.UpdateStatus(context.Background(), other, ticket.ID, domain.TicketResolved); !errors.Is(err, domain.ErrNotAssignee) {
		t.Fatalf("expected ErrNotAssignee, got %v", err)
	}

	if err := svc.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketResolved); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	stored, _ := tickets.FindByID(context.Background(), ticket.ID)
	if stored.Status != domain.TicketResolved {
		t.Fatalf("expected Resolved, got %s", stored.Status)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].UserID != "raiser" {
		t.Fatalf("expected the raiser to be notified, got %+v", notifier.sent)
	}
}

func TestTicketService_List_Scoping(t *testing.T) {
	svc, tickets, _, _ := newTicketFixture()
	seedTicket(t, tickets, "u1", "", "org-a", domain.TicketOpen)
	seedTicket(t, tickets, "u2", "", "org-a", domain.TicketOpen)
	seedTicket(t, tickets, "u3", "", "org-b", domain.TicketOpen)

	raiser := domain.AuthContext{UserID: "u1", Role: domain.RoleUser, OrgID: "org-a"}
	rows, _, err := svc.List(context.Background(), raiser, ports.ListTicketsFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(rows) != 1 || rows[0].RaisedBy != "u1" {
		t.Fatalf("expected only own tickets for a raiser, got %d rows", len(rows))
	}

	admin := domain.AuthContext{UserID: "adm", Role: domain.RoleAdmin, OrgID: "org-a"}
	rows, _, err = svc.List(context.Background(), admin, ports.ListTicketsFilter{})
	if err != nil {
		t.Fatalf("admin List returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected org-a tickets only, got %d rows", len(rows))
	}
}

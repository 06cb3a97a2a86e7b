package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

func newAdminUserFixture() (*AdminUserService, *stubUserRepo, *stubAuditRepo) {
	users := newStubUserRepo()
	audit := &stubAuditRepo{}
	svc := NewAdminUserService(users, audit, zerolog.Nop())
	return svc, users, audit
}

func confirmedUpdate(input ports.UpdateUserInput) ports.UpdateUserInput {
	input.SaveCTAState = "enabled"
	input.SaveCTAAction = "commit_changes_to_db"
	return input
}

func TestAdminUserService_Update_ConfirmationGate(t *testing.T) {
	svc, users, _ := newAdminUserFixture()
	target, _ := users.Create(context.Background(), &domain.User{Email: "t@example.com", Role: domain.RoleUser, OrgID: "org-a"})
	admin := domain.AuthContext{UserID: "adm", Role: domain.RoleAdmin, OrgID: "org-a"}

	name := "Renamed"
	cases := []ports.UpdateUserInput{
		{Name: &name},
		{Name: &name, SaveCTAState: "enabled"},
		{Name: &name, SaveCTAState: "disabled", SaveCTAAction: "commit_changes_to_db"},
		{Name: &name, SaveCTAState: "enabled", SaveCTAAction: "preview"},
	}
	for i, input := range cases {
		if _, err := svc.Update(context.Background(), admin, target.ID, input); !errors.Is(err, domain.ErrConfirmationGate) {
			t.Fatalf("case %d: expected ErrConfirmationGate, got %v", i, err)
		}
	}
	stored, _ := users.FindByID(context.Background(), target.ID)
	if stored.Name == "Renamed" {
		t.Fatalf("expected no write without confirmation")
	}

	if _, err := svc.Update(context.Background(), admin, target.ID, confirmedUpdate(ports.UpdateUserInput{Name: &name})); err != nil {
		t.Fatalf("confirmed update returned error: %v", err)
	}
	stored, _ = users.FindByID(context.Background(), target.ID)
	if stored.Name != "Renamed" {
		t.Fatalf("expected update to land, got %q", stored.Name)
	}
}

func TestAdminUserService_Update_RoleEscalation(t *testing.T) {
	svc, users, _ := newAdminUserFixture()
	target, _ := users.Create(context.Background(), &domain.User{Email: "t@example.com", Role: domain.RoleUser, OrgID: "org-a"})

	// A tenant admin cannot mint another admin.
	admin := domain.AuthContext{UserID: "adm", Role: domain.RoleAdmin, OrgID: "org-a"}
	role := domain.RoleAdmin
	if _, err := svc.Update(context.Background(), admin, target.ID, confirmedUpdate(ports.UpdateUserInput{Role: &role})); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	super := domain.AuthContext{UserID: "root", Role: domain.RoleSuperAdmin}
	if _, err := svc.Update(context.Background(), super, target.ID, confirmedUpdate(ports.UpdateUserInput{Role: &role})); err != nil {
		t.Fatalf("superadmin role grant returned error: %v", err)
	}

	bogus := domain.Role("owner")
	if _, err := svc.Update(context.Background(), super, target.ID, confirmedUpdate(ports.UpdateUserInput{Role: &bogus})); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown role, got %v", err)
	}
}

func TestAdminUserService_Create(t *testing.T) {
	svc, _, _ := newAdminUserFixture()
	admin := domain.AuthContext{UserID: "adm", Role: domain.RoleAdmin, OrgID: "org-a"}

	created, err := svc.Create(context.Background(), admin, ports.CreateUserInput{
		Email:    "New@Example.com",
		Name:     "New User",
		Password: "pass123",
		OrgID:    "org-b", // ignored for tenant admins
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.OrgID != "org-a" {
		t.Fatalf("expected account pinned to the admin's org, got %q", created.OrgID)
	}
	if created.Email != "new@example.com" {
		t.Fatalf("expected normalised email, got %q", created.Email)
	}

	// Tenant admins cannot create staff accounts.
	if _, err := svc.Create(context.Background(), admin, ports.CreateUserInput{
		Email: "staff@example.com", Password: "x", Role: domain.RoleAdmin,
	}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if _, err := svc.Create(context.Background(), admin, ports.CreateUserInput{
		Email: "new@example.com", Password: "x",
	}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAdminUserService_List_TenantScoped(t *testing.T) {
	svc, users, _ := newAdminUserFixture()
	_, _ = users.Create(context.Background(), &domain.User{Email: "a@example.com", OrgID: "org-a"})
	_, _ = users.Create(context.Background(), &domain.User{Email: "b@example.com", OrgID: "org-b"})

	admin := domain.AuthContext{UserID: "adm", Role: domain.RoleAdmin, OrgID: "org-a"}
	rows, total, err := svc.List(context.Background(), admin, ports.ListUsersFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 1 || rows[0].OrgID != "org-a" {
		t.Fatalf("expected only org-a accounts, got %d", total)
	}

	expert := domain.AuthContext{UserID: "exp", Role: domain.RoleExpert, OrgID: "org-a"}
	if _, _, err := svc.List(context.Background(), expert, ports.ListUsersFilter{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-staff, got %v", err)
	}
}

func TestAdminUserService_Deactivate(t *testing.T) {
	svc, users, _ := newAdminUserFixture()
	target, _ := users.Create(context.Background(), &domain.User{Email: "t@example.com", Status: domain.UserActive, OrgID: "org-a"})
	admin := domain.AuthContext{UserID: "adm", Role: domain.RoleAdmin, OrgID: "org-a"}

	if err := svc.Deactivate(context.Background(), admin, target.ID); err != nil {
		t.Fatalf("Deactivate returned error: %v", err)
	}
	stored, err := users.FindByID(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("expected a soft delete, account is gone: %v", err)
	}
	if stored.Status != domain.UserInactive {
		t.Fatalf("expected INACTIVE, got %s", stored.Status)
	}

	// Self-deactivation is rejected.
	self, _ := users.Create(context.Background(), &domain.User{ID: "adm", Email: "adm@example.com", Status: domain.UserActive, OrgID: "org-a"})
	if err := svc.Deactivate(context.Background(), admin, self.ID); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for self-deactivation, got %v", err)
	}
}

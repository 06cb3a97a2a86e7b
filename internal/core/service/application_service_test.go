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

func newApplicationFixture() (*ApplicationService, *stubAppRepo, *stubUserRepo, *stubAuditRepo, *stubNotifier) {
	apps := newStubAppRepo()
	users := newStubUserRepo()
	audit := &stubAuditRepo{}
	notifier := &stubNotifier{}
	svc := NewApplicationService(apps, users, audit, notifier, zerolog.Nop())
	return svc, apps, users, audit, notifier
}

func seedPendingApplication(t *testing.T, apps *stubAppRepo, userID, orgID string) *domain.ExpertApplication {
	t.Helper()
	app, err := apps.Create(context.Background(), &domain.ExpertApplication{
		UserID: userID,
		OrgID:  orgID,
		Status: domain.ApplicationPending,
	})
	if err != nil {
		t.Fatalf("seed application: %v", err)
	}
	return app
}

func TestApplicationService_GetOrCreate_AutoDraft(t *testing.T) {
	svc, _, _, _, _ := newApplicationFixture()
	actor := domain.AuthContext{UserID: "u1", Role: domain.RoleUser, OrgID: "org-a"}

	app, err := svc.GetOrCreate(context.Background(), actor)
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	if app.Status != domain.ApplicationDraft {
		t.Fatalf("expected DRAFT on first access, got %s", app.Status)
	}

	again, err := svc.GetOrCreate(context.Background(), actor)
	if err != nil {
		t.Fatalf("second GetOrCreate returned error: %v", err)
	}
	if again.ID != app.ID {
		t.Fatalf("expected the same application, got %s and %s", app.ID, again.ID)
	}
}

func TestApplicationService_SubmitAndResubmit(t *testing.T) {
	svc, _, _, _, _ := newApplicationFixture()
	actor := domain.AuthContext{UserID: "u1", Role: domain.RoleUser, OrgID: "org-a"}
	admin := domain.AuthContext{UserID: "adm", Role: domain.RoleAdmin, OrgID: "org-a"}

	app, _ := svc.GetOrCreate(context.Background(), actor)
	if _, err := svc.Submit(context.Background(), actor); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	// Double submit is an invalid transition.
	if _, err := svc.Submit(context.Background(), actor); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on double submit, got %v", err)
	}

	if err := svc.Reject(context.Background(), admin, app.ID, "incomplete portfolio"); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}
	// A rejected application can be edited and submitted again.
	if _, err := svc.UpdateProfile(context.Background(), actor, domain.ApplicationProfile{Portfolio: "https://example.com"}); err != nil {
		t.Fatalf("UpdateProfile after rejection returned error: %v", err)
	}
	if _, err := svc.Submit(context.Background(), actor); err != nil {
		t.Fatalf("resubmit returned error: %v", err)
	}
}

func TestApplicationService_ReviewRequiresPrivilege(t *testing.T) {
	svc, apps, _, _, _ := newApplicationFixture()
	app := seedPendingApplication(t, apps, "u1", "org-a")

	for _, role := range []domain.Role{domain.RoleUser, domain.RoleExpert} {
		actor := domain.AuthContext{UserID: "x", Role: role, OrgID: "org-a"}
		if err := svc.Approve(context.Background(), actor, app.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden for %s approve, got %v", role, err)
		}
		if err := svc.Reject(context.Background(), actor, app.ID, "reason"); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden for %s reject, got %v", role, err)
		}
	}
}

func TestApplicationService_TenantIsolation(t *testing.T) {
	svc, apps, users, _, _ := newApplicationFixture()
	_, _ = users.Create(context.Background(), &domain.User{ID: "u1", Email: "u1@example.com", Role: domain.RoleUser, OrgID: "org-a"})
	app := seedPendingApplication(t, apps, "u1", "org-a")

	foreignAdmin := domain.AuthContext{UserID: "adm-b", Role: domain.RoleAdmin, OrgID: "org-b"}
	if err := svc.Approve(context.Background(), foreignAdmin, app.ID); !errors.Is(err, domain.ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch for cross-org approve, got %v", err)
	}

	super := domain.AuthContext{UserID: "root", Role: domain.RoleSuperAdmin, OrgID: "org-z"}
	if err := svc.Approve(context.Background(), super, app.ID); err != nil {
		t.Fatalf("expected superadmin to span tenants, got %v", err)
	}
}

func TestApplicationService_Approve_PromotesAndNotifies(t *testing.T) {
	svc, apps, users, audit, notifier := newApplicationFixture()
	owner, _ := users.Create(context.Background(), &domain.User{Email: "u1@example.com", Role: domain.RoleUser, OrgID: "org-a"})
	app := seedPendingApplication(t, apps, owner.ID, "org-a")
	admin := domain.AuthContext{UserID: "adm", Role: domain.RoleAdmin, OrgID: "org-a"}

	if err := svc.Approve(context.Background(), admin, app.ID); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}

	stored, _ := apps.FindByID(context.Background(), app.ID)
	if stored.Status != domain.ApplicationApproved {
		t.Fatalf("expected APPROVED, got %s", stored.Status)
	}
	promoted, _ := users.FindByID(context.Background(), owner.ID)
	if promoted.Role != domain.RoleExpert {
		t.Fatalf("expected role promotion to expert, got %s", promoted.Role)
	}
	if !audit.hasAction("application_approved") {
		t.Fatalf("expected an application_approved audit entry")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].UserID != owner.ID {
		t.Fatalf("expected one notification to the applicant, got %+v", notifier.sent)
	}
}

func TestApplicationService_Reject_RequiresReason(t *testing.T) {
	svc, apps, _, _, notifier := newApplicationFixture()
	app := seedPendingApplication(t, apps, "u1", "org-a")
	admin := domain.AuthContext{UserID: "adm", Role: domain.RoleAdmin, OrgID: "org-a"}

	if err := svc.Reject(context.Background(), admin, app.ID, "   "); !errors.Is(err, domain.ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no notification on failed reject")
	}

	if err := svc.Reject(context.Background(), admin, app.ID, "missing references"); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}
	stored, _ := apps.FindByID(context.Background(), app.ID)
	if stored.RejectionReason != "missing references" {
		t.Fatalf("expected reason persisted, got %q", stored.RejectionReason)
	}
	if len(notifier.sent) != 1 || !strings.Contains(notifier.sent[0].Body, "missing references") {
		t.Fatalf("expected notification carrying the reason, got %+v", notifier.sent)
	}
}

func TestApplicationService_ApproveRace_SecondReviewerLoses(t *testing.T) {
	svc, apps, users, _, notifier := newApplicationFixture()
	owner, _ := users.Create(context.Background(), &domain.User{Email: "u1@example.com", Role: domain.RoleUser, OrgID: "org-a"})
	app := seedPendingApplication(t, apps, owner.ID, "org-a")
	admin := domain.AuthContext{UserID: "adm", Role: domain.RoleAdmin, OrgID: "org-a"}

	if err := svc.Approve(context.Background(), admin, app.ID); err != nil {
		t.Fatalf("first Approve returned error: %v", err)
	}
	if err := svc.Approve(context.Background(), admin, app.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected second approve to lose the status check, got %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifier.sent))
	}
}

func TestApplicationService_Remove_DemotesOwner(t *testing.T) {
	svc, apps, users, _, _ := newApplicationFixture()
	owner, _ := users.Create(context.Background(), &domain.User{Email: "u1@example.com", Role: domain.RoleExpert, OrgID: "org-a"})
	app, _ := apps.Create(context.Background(), &domain.ExpertApplication{
		UserID: owner.ID,
		OrgID:  "org-a",
		Status: domain.ApplicationApproved,
	})
	admin := domain.AuthContext{UserID: "adm", Role: domain.RoleAdmin, OrgID: "org-a"}

	if err := svc.Remove(context.Background(), admin, app.ID); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	stored, _ := apps.FindByID(context.Background(), app.ID)
	if stored.Status != domain.ApplicationRevoked {
		t.Fatalf("expected REVOKED, got %s", stored.Status)
	}
	demoted, _ := users.FindByID(context.Background(), owner.ID)
	if demoted.Role != domain.RoleUser {
		t.Fatalf("expected demotion to user, got %s", demoted.Role)
	}
}

func TestApplicationService_List_ScopesAdminToTenant(t *testing.T) {
	svc, apps, _, _, _ := newApplicationFixture()
	seedPendingApplication(t, apps, "u1", "org-a")
	seedPendingApplication(t, apps, "u2", "org-b")

	admin := domain.AuthContext{UserID: "adm", Role: domain.RoleAdmin, OrgID: "org-a"}
	rows, total, err := svc.List(context.Background(), admin, ports.ListApplicationsFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].OrgID != "org-a" {
		t.Fatalf("expected only org-a rows, got %d rows", len(rows))
	}

	super := domain.AuthContext{UserID: "root", Role: domain.RoleSuperAdmin}
	_, total, err = svc.List(context.Background(), super, ports.ListApplicationsFilter{})
	if err != nil {
		t.Fatalf("superadmin List returned error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected superadmin to see both tenants, got %d", total)
	}
}

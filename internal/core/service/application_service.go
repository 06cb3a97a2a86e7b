package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

// ApplicationService implements the expert-application review workflow.
type ApplicationService struct {
	apps     ports.ApplicationRepository
	users    ports.UserRepository
	audit    ports.AuditRepository
	notifier ports.Notifier
	log      zerolog.Logger
}

func NewApplicationService(
	apps ports.ApplicationRepository,
	users ports.UserRepository,
	audit ports.AuditRepository,
	notifier ports.Notifier,
	log zerolog.Logger,
) *ApplicationService {
	return &ApplicationService{apps: apps, users: users, audit: audit, notifier: notifier, log: log}
}

func (s *ApplicationService) GetOrCreate(ctx context.Context, actor domain.AuthContext) (*domain.ExpertApplication, error) {
	app, err := s.apps.FindByUser(ctx, actor.UserID)
	if err == nil {
		return app, nil
	}
	if !errors.Is(err, domain.ErrApplicationNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	return s.apps.Create(ctx, &domain.ExpertApplication{
		UserID:    actor.UserID,
		OrgID:     actor.OrgID,
		Status:    domain.ApplicationDraft,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *ApplicationService) UpdateProfile(ctx context.Context, actor domain.AuthContext, profile domain.ApplicationProfile) (*domain.ExpertApplication, error) {
	app, err := s.GetOrCreate(ctx, actor)
	if err != nil {
		return nil, err
	}
	if app.UserID != actor.UserID {
		return nil, domain.ErrNotOwner
	}
	if !app.Editable() {
		return nil, fmt.Errorf("%w: cannot edit a %s application", domain.ErrInvalidTransition, app.Status)
	}
	if err := s.apps.UpdateProfile(ctx, app.ID, profile); err != nil {
		return nil, err
	}
	app.Profile = profile
	return app, nil
}

func (s *ApplicationService) Submit(ctx context.Context, actor domain.AuthContext) (*domain.ExpertApplication, error) {
	app, err := s.apps.FindByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if app.UserID != actor.UserID {
		return nil, domain.ErrNotOwner
	}
	if !app.Status.CanTransitionTo(domain.ApplicationPending) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, app.Status, domain.ApplicationPending)
	}

	now := time.Now().UTC()
	ok, err := s.apps.UpdateIfStatus(ctx, app.ID, app.Status, domain.ApplicationPending,
		ports.ApplicationUpdate{SubmittedAt: now})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Someone raced this submit; state already moved.
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, app.Status, domain.ApplicationPending)
	}

	app.Status = domain.ApplicationPending
	app.SubmittedAt = now
	s.recordAudit(ctx, actor, "application_submitted", app.ID, "")
	return app, nil
}

func (s *ApplicationService) List(ctx context.Context, actor domain.AuthContext, filter ports.ListApplicationsFilter) ([]*domain.ExpertApplication, int64, error) {
	if !actor.Role.Can(domain.CapReviewApplications) {
		return nil, 0, domain.ErrForbidden
	}
	// Tenant-scoped admins only ever see their own org's rows.
	if actor.Role != domain.RoleSuperAdmin {
		filter.OrgID = actor.OrgID
	}
	return s.apps.List(ctx, filter)
}

// Approve transitions PENDING to APPROVED. The compare-and-swap status write is
// the primary update; the audit entry, role promotion, and notification
// follow in that order, and none of them fire when the primary write loses.
func (s *ApplicationService) Approve(ctx context.Context, actor domain.AuthContext, id string) error {
	app, err := s.reviewable(ctx, actor, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	ok, err := s.apps.UpdateIfStatus(ctx, app.ID, domain.ApplicationPending, domain.ApplicationApproved,
		ports.ApplicationUpdate{ReviewerID: actor.UserID, ReviewedAt: now})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: application is no longer pending", domain.ErrInvalidTransition)
	}

	s.recordAudit(ctx, actor, "application_approved", app.ID, "")

	// The authorization-relevant write lands only after the audit trail.
	if err := s.users.UpdateRole(ctx, app.UserID, domain.RoleExpert); err != nil {
		s.log.Error().Err(err).Str("user_id", app.UserID).Msg("role promotion failed after approval")
		return err
	}

	s.notifier.Notify(domain.Notification{
		UserID:        app.UserID,
		Type:          domain.NotifyApplicationReviewed,
		Title:         "Application approved",
		Body:          "Your expert application has been approved.",
		ReferenceKind: "application",
		ReferenceID:   app.ID,
		CreatedAt:     now,
	})
	return nil
}

func (s *ApplicationService) Reject(ctx context.Context, actor domain.AuthContext, id, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return domain.ErrReasonRequired
	}
	app, err := s.reviewable(ctx, actor, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	ok, err := s.apps.UpdateIfStatus(ctx, app.ID, domain.ApplicationPending, domain.ApplicationRejected,
		ports.ApplicationUpdate{ReviewerID: actor.UserID, RejectionReason: reason, ReviewedAt: now})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: application is no longer pending", domain.ErrInvalidTransition)
	}

	s.recordAudit(ctx, actor, "application_rejected", app.ID, reason)
	s.notifier.Notify(domain.Notification{
		UserID:        app.UserID,
		Type:          domain.NotifyApplicationReviewed,
		Title:         "Application rejected",
		Body:          "Your expert application was rejected: " + reason,
		ReferenceKind: "application",
		ReferenceID:   app.ID,
		CreatedAt:     now,
	})
	return nil
}

// Remove revokes an approved application and demotes the owner back to the
// base role.
func (s *ApplicationService) Remove(ctx context.Context, actor domain.AuthContext, id string) error {
	app, err := s.findForReviewer(ctx, actor, id)
	if err != nil {
		return err
	}
	if !app.Status.CanTransitionTo(domain.ApplicationRevoked) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, app.Status, domain.ApplicationRevoked)
	}

	now := time.Now().UTC()
	ok, err := s.apps.UpdateIfStatus(ctx, app.ID, domain.ApplicationApproved, domain.ApplicationRevoked,
		ports.ApplicationUpdate{ReviewerID: actor.UserID, ReviewedAt: now})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: application is not approved", domain.ErrInvalidTransition)
	}

	s.recordAudit(ctx, actor, "application_revoked", app.ID, "")
	if err := s.users.UpdateRole(ctx, app.UserID, domain.RoleUser); err != nil {
		s.log.Error().Err(err).Str("user_id", app.UserID).Msg("role demotion failed after revoke")
		return err
	}
	return nil
}

// reviewable loads an application and checks it is PENDING and that the actor
// may review it.
func (s *ApplicationService) reviewable(ctx context.Context, actor domain.AuthContext, id string) (*domain.ExpertApplication, error) {
	app, err := s.findForReviewer(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if app.Status != domain.ApplicationPending {
		return nil, fmt.Errorf("%w: review requires a pending application, found %s", domain.ErrInvalidTransition, app.Status)
	}
	return app, nil
}

func (s *ApplicationService) findForReviewer(ctx context.Context, actor domain.AuthContext, id string) (*domain.ExpertApplication, error) {
	if !actor.Role.Can(domain.CapReviewApplications) {
		return nil, domain.ErrForbidden
	}
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.SameTenant(app.OrgID) {
		return nil, domain.ErrTenantMismatch
	}
	return app, nil
}

func (s *ApplicationService) recordAudit(ctx context.Context, actor domain.AuthContext, action, entityID, detail string) {
	entry := &domain.AuditEntry{
		ActorID:    actor.UserID,
		Action:     action,
		EntityKind: "application",
		EntityID:   entityID,
		Detail:     detail,
		OrgID:      actor.OrgID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}

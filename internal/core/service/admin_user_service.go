package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

const (
	saveCTAStateEnabled = "enabled"
	saveCTAActionCommit = "commit_changes_to_db"
)

// AdminUserService is the privileged account-management surface. Updates go
// through an explicit confirmation gate before anything is written.
type AdminUserService struct {
	users ports.UserRepository
	audit ports.AuditRepository
	log   zerolog.Logger
}

func NewAdminUserService(users ports.UserRepository, audit ports.AuditRepository, log zerolog.Logger) *AdminUserService {
	return &AdminUserService{users: users, audit: audit, log: log}
}

func (s *AdminUserService) List(ctx context.Context, actor domain.AuthContext, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	if !actor.Role.Can(domain.CapManageUsers) {
		return nil, 0, domain.ErrForbidden
	}
	if actor.Role != domain.RoleSuperAdmin {
		filter.OrgID = actor.OrgID
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	return s.users.List(ctx, filter)
}

func (s *AdminUserService) Create(ctx context.Context, actor domain.AuthContext, input ports.CreateUserInput) (*domain.User, error) {
	if !actor.Role.Can(domain.CapManageUsers) {
		return nil, domain.ErrForbidden
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	// Only superadmin may mint admins or place accounts in another tenant.
	if actor.Role != domain.RoleSuperAdmin {
		if role.IsStaff() {
			return nil, domain.ErrForbidden
		}
		input.OrgID = actor.OrgID
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Name:         input.Name,
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.UserActive,
		OrgID:        input.OrgID,
		Provider:     domain.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, "user_created", user.ID, email)
	return user, nil
}

func (s *AdminUserService) Update(ctx context.Context, actor domain.AuthContext, id string, input ports.UpdateUserInput) (*domain.User, error) {
	if !actor.Role.Can(domain.CapManageUsers) {
		return nil, domain.ErrForbidden
	}
	if input.SaveCTAState != saveCTAStateEnabled || input.SaveCTAAction != saveCTAActionCommit {
		return nil, domain.ErrConfirmationGate
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.SameTenant(user.OrgID) {
		return nil, domain.ErrTenantMismatch
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Role != nil {
		role := domain.ParseRole(string(*input.Role))
		if role == "" {
			return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, *input.Role)
		}
		if role.IsStaff() && actor.Role != domain.RoleSuperAdmin {
			return nil, domain.ErrForbidden
		}
		user.Role = role
	}
	if input.Status != nil {
		user.Status = *input.Status
	}
	if input.OrgID != nil {
		if actor.Role != domain.RoleSuperAdmin {
			return nil, domain.ErrForbidden
		}
		user.OrgID = *input.OrgID
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "user_updated", user.ID, "")
	return user, nil
}

func (s *AdminUserService) Deactivate(ctx context.Context, actor domain.AuthContext, id string) error {
	if !actor.Role.Can(domain.CapManageUsers) {
		return domain.ErrForbidden
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.SameTenant(user.OrgID) {
		return domain.ErrTenantMismatch
	}
	if user.ID == actor.UserID {
		return fmt.Errorf("%w: cannot deactivate your own account", domain.ErrValidation)
	}
	if err := s.users.UpdateStatus(ctx, id, domain.UserInactive); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "user_deactivated", id, "")
	return nil
}

func (s *AdminUserService) recordAudit(ctx context.Context, actor domain.AuthContext, action, entityID, detail string) {
	entry := &domain.AuditEntry{
		ActorID:    actor.UserID,
		Action:     action,
		EntityKind: "user",
		EntityID:   entityID,
		Detail:     detail,
		OrgID:      actor.OrgID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}

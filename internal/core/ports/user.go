package ports

import (
	"context"

	"github.com/proveloce/connect/internal/core/domain"
)

// ListUsersFilter carries query parameters for listing accounts.
// OrgID is enforced by the service layer for tenant-scoped admins.
type ListUsersFilter struct {
	OrgID  string // empty = all tenants (superadmin only)
	Role   domain.Role
	Status domain.UserStatus
	Search string // partial match on email or name
	Page   int    // 1-based
	Limit  int    // capped by the service
}

// UserRepository persists platform accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
}

// CreateUserInput carries admin-created account details.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
	OrgID    string
}

// UpdateUserInput is a partial account update. The SaveCTA fields are the
// explicit confirmation gate: the update is rejected unless SaveCTAState is
// "enabled" and SaveCTAAction is "commit_changes_to_db".
type UpdateUserInput struct {
	Name          *string
	Role          *domain.Role
	Status        *domain.UserStatus
	OrgID         *string
	SaveCTAState  string
	SaveCTAAction string
}

// AdminUserService is the privileged account-management surface.
type AdminUserService interface {
	List(ctx context.Context, actor domain.AuthContext, filter ListUsersFilter) ([]*domain.User, int64, error)
	Create(ctx context.Context, actor domain.AuthContext, input CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, actor domain.AuthContext, id string, input UpdateUserInput) (*domain.User, error)
	// Deactivate soft-deletes: the account is marked INACTIVE, never removed.
	Deactivate(ctx context.Context, actor domain.AuthContext, id string) error
}

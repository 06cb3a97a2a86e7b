package domain

import (
	"errors"
	"time"
)

// Role is the closed set of actor roles in the platform.
type Role string

const (
	RoleUser       Role = "user"
	RoleExpert     Role = "expert"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole normalises a raw role string to a known Role, or "" if unknown.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleExpert, RoleAdmin, RoleSuperAdmin:
		return Role(s)
	}
	return ""
}

// IsStaff reports whether the role carries tenant-administration rights.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Capability names a protected operation. The allow-list for each capability
// is declared once here so per-endpoint role checks stay auditable.
type Capability string

const (
	CapReviewApplications Capability = "review_applications"
	CapManageUsers        Capability = "manage_users"
	CapManageTasks        Capability = "manage_tasks"
	CapAssignTickets      Capability = "assign_tickets"
	CapUpdateConfig       Capability = "update_config"
)

var capabilityRoles = map[Capability][]Role{
	CapReviewApplications: {RoleAdmin, RoleSuperAdmin},
	CapManageUsers:        {RoleAdmin, RoleSuperAdmin},
	CapManageTasks:        {RoleAdmin, RoleSuperAdmin},
	CapAssignTickets:      {RoleAdmin, RoleSuperAdmin},
	CapUpdateConfig:       {RoleSuperAdmin},
}

// Can reports whether the role may perform the given capability.
func (r Role) Can(c Capability) bool {
	for _, allowed := range capabilityRoles[c] {
		if allowed == r {
			return true
		}
	}
	return false
}

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	UserPendingVerification UserStatus = "PENDING_VERIFICATION"
	UserActive              UserStatus = "ACTIVE"
	UserInactive            UserStatus = "INACTIVE"
)

// AuthProvider identifies how an account authenticates.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("access forbidden")
	ErrTenantMismatch     = errors.New("tenant mismatch")
	ErrConfirmationGate   = errors.New("explicit confirmation required")
)

// User models an account in the platform.
type User struct {
	ID           string       `json:"id" bson:"_id,omitempty"`
	Email        string       `json:"email" bson:"email"`
	Name         string       `json:"name" bson:"name"`
	PasswordHash string       `json:"-" bson:"password_hash,omitempty"`
	Role         Role         `json:"role" bson:"role"`
	Status       UserStatus   `json:"status" bson:"status"`
	OrgID        string       `json:"org_id,omitempty" bson:"org_id,omitempty"`
	Provider     AuthProvider `json:"provider" bson:"provider"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" bson:"updated_at"`
}

// AuthContext carries the claims derived from a validated bearer credential.
type AuthContext struct {
	UserID string
	Email  string
	Name   string
	Role   Role
	OrgID  string
}

// SameTenant reports whether the actor may touch rows belonging to orgID.
// Superadmin spans all tenants; everyone else is scoped to their own org.
func (a AuthContext) SameTenant(orgID string) bool {
	if a.Role == RoleSuperAdmin {
		return true
	}
	return a.OrgID == orgID
}

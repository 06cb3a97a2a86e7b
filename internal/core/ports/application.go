package ports

import (
	"context"
	"time"

	"github.com/proveloce/connect/internal/core/domain"
)

// ListApplicationsFilter carries query parameters for the reviewer list.
type ListApplicationsFilter struct {
	OrgID  string // empty = all tenants (superadmin only)
	Status domain.ApplicationStatus
	Page   int
	Limit  int
}

// ApplicationUpdate is the field set written alongside a guarded status
// transition.
type ApplicationUpdate struct {
	ReviewerID      string
	RejectionReason string
	ReviewedAt      time.Time
	SubmittedAt     time.Time
}

// ApplicationRepository persists expert applications. UpdateIfStatus is the
// typed compare-and-swap: the write only lands when the row still holds the
// expected status, and the returned bool reports whether it did.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.ExpertApplication) (*domain.ExpertApplication, error)
	FindByUser(ctx context.Context, userID string) (*domain.ExpertApplication, error)
	FindByID(ctx context.Context, id string) (*domain.ExpertApplication, error)
	UpdateProfile(ctx context.Context, id string, profile domain.ApplicationProfile) error
	List(ctx context.Context, filter ListApplicationsFilter) ([]*domain.ExpertApplication, int64, error)
	UpdateIfStatus(ctx context.Context, id string, expected, next domain.ApplicationStatus, update ApplicationUpdate) (bool, error)
}

// ApplicationService implements the expert-application review workflow.
type ApplicationService interface {
	// GetOrCreate returns the caller's application, auto-creating a DRAFT on
	// first access.
	GetOrCreate(ctx context.Context, actor domain.AuthContext) (*domain.ExpertApplication, error)
	// UpdateProfile lets the owner edit a DRAFT or REJECTED application.
	UpdateProfile(ctx context.Context, actor domain.AuthContext, profile domain.ApplicationProfile) (*domain.ExpertApplication, error)
	// Submit moves the owner's application to PENDING.
	Submit(ctx context.Context, actor domain.AuthContext) (*domain.ExpertApplication, error)
	List(ctx context.Context, actor domain.AuthContext, filter ListApplicationsFilter) ([]*domain.ExpertApplication, int64, error)
	// Approve transitions PENDING to APPROVED and promotes the owner to expert.
	Approve(ctx context.Context, actor domain.AuthContext, id string) error
	// Reject transitions PENDING to REJECTED; reason must be non-empty.
	Reject(ctx context.Context, actor domain.AuthContext, id, reason string) error
	// Remove transitions APPROVED to REVOKED.
	Remove(ctx context.Context, actor domain.AuthContext, id string) error
}

package ports

import (
	"context"
	"time"

	"github.com/proveloce/connect/internal/core/domain"
)

// CreateTaskInput carries the fields for a new task, optionally fanning out
// assignment rows to the listed experts at creation time.
type CreateTaskInput struct {
	Title       string
	Description string
	Domain      string
	Deadline    time.Time
	Priority    domain.TaskPriority
	ExpertIDs   []string
}

// TaskPatch is a partial task update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Domain      *string
	Deadline    *time.Time
	Priority    *domain.TaskPriority
}

// ListTasksFilter carries query parameters for listing tasks.
type ListTasksFilter struct {
	OrgID     string
	CreatedBy string
	Page      int
	Limit     int
}

// TaskDetail is a task together with its per-expert assignment rows. It is
// rendered as-is by the API layer, so the field names are wire names.
type TaskDetail struct {
	Task          *domain.Task         `json:"task"`
	Assignments   []*domain.ExpertTask `json:"assignments"`
	AssignedCount int                  `json:"assigned_count"`
}

// TaskRepository persists tasks.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter ListTasksFilter) ([]*domain.Task, int64, error)
	Update(ctx context.Context, id string, patch TaskPatch) error
}

// ExpertTaskRepository persists per-expert assignment rows. UpdateIfStatus is
// the compare-and-swap guarding concurrent transitions on the same row.
type ExpertTaskRepository interface {
	Create(ctx context.Context, et *domain.ExpertTask) error
	FindByTaskAndExpert(ctx context.Context, taskID, expertID string) (*domain.ExpertTask, error)
	ListByTask(ctx context.Context, taskID string) ([]*domain.ExpertTask, error)
	ListByExpert(ctx context.Context, expertID string) ([]*domain.ExpertTask, error)
	UpdateIfStatus(ctx context.Context, id string, expected, next domain.AssignmentStatus, respondedAt time.Time) (bool, error)
}

// TaskService implements task creation, fan-out, and the assignee-driven
// assignment state machine.
type TaskService interface {
	Create(ctx context.Context, actor domain.AuthContext, input CreateTaskInput) (*TaskDetail, error)
	Get(ctx context.Context, actor domain.AuthContext, id string) (*TaskDetail, error)
	List(ctx context.Context, actor domain.AuthContext, filter ListTasksFilter) ([]*domain.Task, int64, error)
	Update(ctx context.Context, actor domain.AuthContext, id string, patch TaskPatch) (*domain.Task, error)
	// Assign fans out PENDING rows to additional experts.
	Assign(ctx context.Context, actor domain.AuthContext, taskID string, expertIDs []string) (*TaskDetail, error)
	// Respond transitions the actor's own assignment row. next must be one of
	// ACCEPTED, DECLINED, COMPLETED.
	Respond(ctx context.Context, actor domain.AuthContext, taskID string, next domain.AssignmentStatus) (*domain.ExpertTask, error)
	// ListMine returns the actor's assignment rows.
	ListMine(ctx context.Context, actor domain.AuthContext) ([]*domain.ExpertTask, error)
}

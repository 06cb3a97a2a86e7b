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

// TaskService implements task creation, assignment fan-out, and the
// assignee-driven per-row state machine.
type TaskService struct {
	tasks    ports.TaskRepository
	rows     ports.ExpertTaskRepository
	audit    ports.AuditRepository
	notifier ports.Notifier
	log      zerolog.Logger
}

func NewTaskService(tasks ports.TaskRepository, rows ports.ExpertTaskRepository, audit ports.AuditRepository, notifier ports.Notifier, log zerolog.Logger) *TaskService {
	return &TaskService{tasks: tasks, rows: rows, audit: audit, notifier: notifier, log: log}
}

func (s *TaskService) Create(ctx context.Context, actor domain.AuthContext, input ports.CreateTaskInput) (*ports.TaskDetail, error) {
	if !actor.Role.Can(domain.CapManageTasks) {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}

	now := time.Now().UTC()
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	task, err := s.tasks.Create(ctx, &domain.Task{
		Title:       input.Title,
		Description: input.Description,
		Domain:      input.Domain,
		Deadline:    input.Deadline,
		Priority:    priority,
		CreatedBy:   actor.UserID,
		OrgID:       actor.OrgID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	assignments, err := s.fanOut(ctx, task, input.ExpertIDs)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, "task_created", task.ID, task.Title)
	return &ports.TaskDetail{Task: task, Assignments: assignments, AssignedCount: len(assignments)}, nil
}

func (s *TaskService) Get(ctx context.Context, actor domain.AuthContext, id string) (*ports.TaskDetail, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	assignments, err := s.rows.ListByTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.Role.IsStaff() {
		// Experts only see tasks they are assigned to.
		mine := false
		for _, row := range assignments {
			if row.ExpertID == actor.UserID {
				mine = true
				break
			}
		}
		if !mine {
			return nil, domain.ErrForbidden
		}
	} else if !actor.SameTenant(task.OrgID) {
		return nil, domain.ErrTenantMismatch
	}

	return &ports.TaskDetail{Task: task, Assignments: assignments, AssignedCount: len(assignments)}, nil
}

func (s *TaskService) List(ctx context.Context, actor domain.AuthContext, filter ports.ListTasksFilter) ([]*domain.Task, int64, error) {
	if !actor.Role.Can(domain.CapManageTasks) {
		return nil, 0, domain.ErrForbidden
	}
	if actor.Role != domain.RoleSuperAdmin {
		filter.OrgID = actor.OrgID
	}
	return s.tasks.List(ctx, filter)
}

func (s *TaskService) Update(ctx context.Context, actor domain.AuthContext, id string, patch ports.TaskPatch) (*domain.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.Can(domain.CapManageTasks) {
		return nil, domain.ErrForbidden
	}
	if !actor.SameTenant(task.OrgID) {
		return nil, domain.ErrTenantMismatch
	}
	if err := s.tasks.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "task_updated", id, "")
	return s.tasks.FindByID(ctx, id)
}

func (s *TaskService) Assign(ctx context.Context, actor domain.AuthContext, taskID string, expertIDs []string) (*ports.TaskDetail, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.Can(domain.CapManageTasks) {
		return nil, domain.ErrForbidden
	}
	if !actor.SameTenant(task.OrgID) {
		return nil, domain.ErrTenantMismatch
	}

	if _, err := s.fanOut(ctx, task, expertIDs); err != nil {
		return nil, err
	}
	assignments, err := s.rows.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &ports.TaskDetail{Task: task, Assignments: assignments, AssignedCount: len(assignments)}, nil
}

// Respond transitions the actor's own assignment row. Admins cannot drive an
// expert's row; only the assignee may.
func (s *TaskService) Respond(ctx context.Context, actor domain.AuthContext, taskID string, next domain.AssignmentStatus) (*domain.ExpertTask, error) {
	row, err := s.rows.FindByTaskAndExpert(ctx, taskID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if row.ExpertID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if !row.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, row.Status, next)
	}

	now := time.Now().UTC()
	ok, err := s.rows.UpdateIfStatus(ctx, row.ID, row.Status, next, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: assignment already moved past %s", domain.ErrInvalidTransition, row.Status)
	}

	row.Status = next
	row.RespondedAt = now
	s.recordAudit(ctx, actor, "assignment_"+strings.ToLower(string(next)), row.ID, taskID)
	return row, nil
}

func (s *TaskService) ListMine(ctx context.Context, actor domain.AuthContext) ([]*domain.ExpertTask, error) {
	return s.rows.ListByExpert(ctx, actor.UserID)
}

// fanOut creates PENDING rows for the given experts, skipping any expert that
// already holds a row on this task, and notifies each newly assigned expert.
func (s *TaskService) fanOut(ctx context.Context, task *domain.Task, expertIDs []string) ([]*domain.ExpertTask, error) {
	now := time.Now().UTC()
	created := make([]*domain.ExpertTask, 0, len(expertIDs))
	for _, expertID := range expertIDs {
		if expertID == "" {
			continue
		}
		row := &domain.ExpertTask{
			TaskID:    task.ID,
			ExpertID:  expertID,
			Status:    domain.AssignmentPending,
			CreatedAt: now,
		}
		if err := s.rows.Create(ctx, row); err != nil {
			if errors.Is(err, domain.ErrAlreadyAssigned) {
				continue
			}
			return nil, err
		}
		created = append(created, row)

		s.notifier.Notify(domain.Notification{
			UserID:        expertID,
			Type:          domain.NotifyTaskAssigned,
			Title:         "New task offer: " + task.Title,
			Body:          "You have been offered a task. Accept or decline it from your task list.",
			ReferenceKind: "task",
			ReferenceID:   task.ID,
			CreatedAt:     now,
		})
	}
	return created, nil
}

func (s *TaskService) recordAudit(ctx context.Context, actor domain.AuthContext, action, entityID, detail string) {
	entry := &domain.AuditEntry{
		ActorID:    actor.UserID,
		Action:     action,
		EntityKind: "task",
		EntityID:   entityID,
		Detail:     detail,
		OrgID:      actor.OrgID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}

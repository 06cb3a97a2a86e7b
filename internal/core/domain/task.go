package domain

import (
	"errors"
	"time"
)

// AssignmentStatus is the per-expert state of a task assignment row.
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "PENDING"
	AssignmentAccepted  AssignmentStatus = "ACCEPTED"
	AssignmentDeclined  AssignmentStatus = "DECLINED"
	AssignmentCompleted AssignmentStatus = "COMPLETED"
)

// assignmentTransitions defines what the assigned expert may do with their row.
var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentPending:  {AssignmentAccepted, AssignmentDeclined},
	AssignmentAccepted: {AssignmentCompleted},
}

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrAssignmentNotFound = errors.New("task assignment not found")
	ErrAlreadyAssigned    = errors.New("expert already assigned to task")
)

// CanTransitionTo reports whether the assignment may move from s to next.
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	for _, allowed := range assignmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TaskPriority orders work items for display.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Task is a work item created by a privileged role and offered to experts.
type Task struct {
	ID          string       `json:"id" bson:"_id,omitempty"`
	Title       string       `json:"title" bson:"title"`
	Description string       `json:"description" bson:"description"`
	Domain      string       `json:"domain" bson:"domain"`
	Deadline    time.Time    `json:"deadline" bson:"deadline"`
	Priority    TaskPriority `json:"priority" bson:"priority"`
	CreatedBy   string       `json:"created_by" bson:"created_by"`
	OrgID       string       `json:"org_id,omitempty" bson:"org_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at"`
}

// ExpertTask is one expert's assignment row. Sibling rows for the same task
// are fully independent of each other.
type ExpertTask struct {
	ID          string           `json:"id" bson:"_id,omitempty"`
	TaskID      string           `json:"task_id" bson:"task_id"`
	ExpertID    string           `json:"expert_id" bson:"expert_id"`
	Status      AssignmentStatus `json:"status" bson:"status"`
	RespondedAt time.Time        `json:"responded_at,omitempty" bson:"responded_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at" bson:"created_at"`
}

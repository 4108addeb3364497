package domain

import (
	"context"
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview,
		TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// Task is a unit of work inside a project. Its access rights derive from
// the parent project plus its own assignee.
type Task struct {
	ID             string
	Title          string
	Description    string
	ProjectID      string
	ParentTaskID   *string
	AssignedTo     *string
	Priority       Priority
	Status         TaskStatus
	Progress       int
	DueDate        string // YYYY-MM-DD, empty when unset
	StartDate      string
	CompletedAt    *time.Time
	EstimatedHours *float64
	ActualHours    *float64
	Tags           []string
	Dependencies   []string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TaskPatch carries a partial update. Nil fields are left unchanged; an
// empty AssignedTo clears the assignee.
type TaskPatch struct {
	Title          *string
	Description    *string
	AssignedTo     *string
	Priority       *Priority
	Status         *TaskStatus
	Progress       *int
	DueDate        *string
	StartDate      *string
	CompletedAt    *time.Time
	EstimatedHours *float64
	ActualHours    *float64
	Tags           *[]string
	Dependencies   *[]string
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p == TaskPatch{}
}

// Apply copies the set fields of the patch onto task.
func (p TaskPatch) Apply(task *Task) {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.AssignedTo != nil {
		task.AssignedTo = optional(*p.AssignedTo)
	}
	if p.Priority != nil {
		task.Priority = *p.Priority
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.Progress != nil {
		task.Progress = *p.Progress
	}
	if p.DueDate != nil {
		task.DueDate = *p.DueDate
	}
	if p.StartDate != nil {
		task.StartDate = *p.StartDate
	}
	if p.CompletedAt != nil {
		task.CompletedAt = p.CompletedAt
	}
	if p.EstimatedHours != nil {
		task.EstimatedHours = p.EstimatedHours
	}
	if p.ActualHours != nil {
		task.ActualHours = p.ActualHours
	}
	if p.Tags != nil {
		task.Tags = *p.Tags
	}
	if p.Dependencies != nil {
		task.Dependencies = *p.Dependencies
	}
}

// TaskRepository defines persistence operations for tasks.
// Deleting a task detaches its subtasks.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	ListByProject(ctx context.Context, projectID string) ([]Task, error)
	ListByAssignee(ctx context.Context, userID string) ([]Task, error)
	Update(ctx context.Context, id string, patch TaskPatch) (*Task, error)
	Delete(ctx context.Context, id string) error
}

// optional maps "" to nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

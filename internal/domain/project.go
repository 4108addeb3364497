package domain

import (
	"context"
	"time"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusOnHold,
		ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// Project groups tasks. CreatedBy is the owner; AssignedTo lists users
// who may read the project and contribute tasks to it.
type Project struct {
	ID          string
	Name        string
	Description string
	StartDate   string // YYYY-MM-DD, empty when unset
	EndDate     string
	Priority    Priority
	Status      ProjectStatus
	Progress    int
	Budget      *float64
	CategoryID  *string
	CreatedBy   string
	AssignedTo  []string
	Tags        []string
	IsArchived  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectPatch carries a partial update. Nil fields are left unchanged; an
// empty CategoryID clears the category.
type ProjectPatch struct {
	Name        *string
	Description *string
	StartDate   *string
	EndDate     *string
	Priority    *Priority
	Status      *ProjectStatus
	Progress    *int
	Budget      *float64
	CategoryID  *string
	AssignedTo  *[]string
	Tags        *[]string
	IsArchived  *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p ProjectPatch) IsEmpty() bool {
	return p == ProjectPatch{}
}

// Apply copies the set fields of the patch onto project.
func (p ProjectPatch) Apply(project *Project) {
	if p.Name != nil {
		project.Name = *p.Name
	}
	if p.Description != nil {
		project.Description = *p.Description
	}
	if p.StartDate != nil {
		project.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		project.EndDate = *p.EndDate
	}
	if p.Priority != nil {
		project.Priority = *p.Priority
	}
	if p.Status != nil {
		project.Status = *p.Status
	}
	if p.Progress != nil {
		project.Progress = *p.Progress
	}
	if p.Budget != nil {
		project.Budget = p.Budget
	}
	if p.CategoryID != nil {
		project.CategoryID = optional(*p.CategoryID)
	}
	if p.AssignedTo != nil {
		project.AssignedTo = *p.AssignedTo
	}
	if p.Tags != nil {
		project.Tags = *p.Tags
	}
	if p.IsArchived != nil {
		project.IsArchived = *p.IsArchived
	}
}

// ProjectRepository defines persistence operations for projects.
// Deleting a project removes its tasks.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	// ListVisibleTo returns projects the user owns or is assigned to,
	// newest first.
	ListVisibleTo(ctx context.Context, userID string) ([]Project, error)
	List(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, id string, patch ProjectPatch) (*Project, error)
	Delete(ctx context.Context, id string) error
}

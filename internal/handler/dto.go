package handler

import (
	"time"

	"github.com/msomdec/project-planner/internal/domain"
)

// UserDTO is the JSON representation of a user. The password hash never
// leaves the service layer.
type UserDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	ProfilePhoto string `json:"profile_photo"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username,
		Email:        u.Email,
		Role:         string(u.Role),
		ProfilePhoto: u.ProfilePhoto,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type ProjectDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	StartDate   *string  `json:"start_date"`
	EndDate     *string  `json:"end_date"`
	Priority    string   `json:"priority"`
	Status      string   `json:"status"`
	Progress    int      `json:"progress"`
	Budget      *float64 `json:"budget"`
	CategoryID  *string  `json:"category_id"`
	CreatedBy   string   `json:"created_by"`
	AssignedTo  []string `json:"assigned_to"`
	Tags        []string `json:"tags"`
	IsArchived  bool     `json:"is_archived"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toProjectDTO(p *domain.Project) ProjectDTO {
	return ProjectDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   optionalString(p.StartDate),
		EndDate:     optionalString(p.EndDate),
		Priority:    string(p.Priority),
		Status:      string(p.Status),
		Progress:    p.Progress,
		Budget:      p.Budget,
		CategoryID:  p.CategoryID,
		CreatedBy:   p.CreatedBy,
		AssignedTo:  nonNil(p.AssignedTo),
		Tags:        nonNil(p.Tags),
		IsArchived:  p.IsArchived,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type TaskDTO struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	ProjectID      string   `json:"project_id"`
	ParentTaskID   *string  `json:"parent_task_id"`
	AssignedTo     *string  `json:"assigned_to"`
	Priority       string   `json:"priority"`
	Status         string   `json:"status"`
	Progress       int      `json:"progress"`
	DueDate        *string  `json:"due_date"`
	StartDate      *string  `json:"start_date"`
	CompletedDate  *string  `json:"completed_date"`
	EstimatedHours *float64 `json:"estimated_hours"`
	ActualHours    *float64 `json:"actual_hours"`
	Tags           []string `json:"tags"`
	Dependencies   []string `json:"dependencies"`
	CreatedBy      string   `json:"created_by"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

func toTaskDTO(t *domain.Task) TaskDTO {
	dto := TaskDTO{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		ProjectID:      t.ProjectID,
		ParentTaskID:   t.ParentTaskID,
		AssignedTo:     t.AssignedTo,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		Progress:       t.Progress,
		DueDate:        optionalString(t.DueDate),
		StartDate:      optionalString(t.StartDate),
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		Tags:           nonNil(t.Tags),
		Dependencies:   nonNil(t.Dependencies),
		CreatedBy:      t.CreatedBy,
		CreatedAt:      t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      t.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.UTC().Format(time.RFC3339)
		dto.CompletedDate = &s
	}
	return dto
}

type CategoryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at"`
}

func toCategoryDTO(c *domain.Category) CategoryDTO {
	return CategoryDTO{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapSlice[T, D any](items []T, conv func(*T) D) []D {
	out := make([]D, 0, len(items))
	for i := range items {
		out = append(out, conv(&items[i]))
	}
	return out
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/msomdec/project-planner/internal/domain"
	"github.com/msomdec/project-planner/internal/policy"
)

// ProjectService implements project use cases on top of a store, applying
// the authorization policy to every access.
type ProjectService struct {
	projects   domain.ProjectRepository
	tasks      domain.TaskRepository
	users      domain.UserRepository
	categories domain.CategoryRepository
}

func NewProjectService(store domain.Store) *ProjectService {
	return &ProjectService{
		projects:   store.Projects(),
		tasks:      store.Tasks(),
		users:      store.Users(),
		categories: store.Categories(),
	}
}

// NewProject is the input to Create. Zero-valued priority and status take
// their defaults.
type NewProject struct {
	Name        string
	Description string
	StartDate   string
	EndDate     string
	Priority    domain.Priority
	Status      domain.ProjectStatus
	Budget      *float64
	CategoryID  *string
	AssignedTo  []string
	Tags        []string
}

// Create stores a new project owned by userID.
func (s *ProjectService) Create(ctx context.Context, userID string, in NewProject) (*domain.Project, error) {
	p := &domain.Project{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Priority:    in.Priority,
		Status:      in.Status,
		Budget:      in.Budget,
		CategoryID:  nonEmpty(in.CategoryID),
		CreatedBy:   userID,
		AssignedTo:  dedupe(in.AssignedTo),
		Tags:        dedupe(in.Tags),
	}
	if p.Priority == "" {
		p.Priority = domain.PriorityMedium
	}
	if p.Status == "" {
		p.Status = domain.ProjectStatusPlanning
	}

	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	slog.Info("project created", "project_id", p.ID, "user_id", userID)
	return p, nil
}

// List returns the projects userID owns or is assigned to, newest first.
func (s *ProjectService) List(ctx context.Context, userID string) ([]domain.Project, error) {
	projects, err := s.projects.ListVisibleTo(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Get returns a project userID may read.
func (s *ProjectService) Get(ctx context.Context, userID, id string) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(userID, policy.ActionRead, policy.ForProject(p)); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies patch to a project owned by userID.
func (s *ProjectService) Update(ctx context.Context, userID, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	if patch.IsEmpty() {
		return nil, invalid("no fields to update")
	}

	current, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(userID, policy.ActionUpdate, policy.ForProject(current)); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if patch.AssignedTo != nil {
		assigned := dedupe(*patch.AssignedTo)
		patch.AssignedTo = &assigned
	}
	if patch.Tags != nil {
		tags := dedupe(*patch.Tags)
		patch.Tags = &tags
	}

	// Validate the merged result so date order is checked across old and
	// new values.
	merged := *current
	patch.Apply(&merged)
	if err := s.validate(ctx, &merged); err != nil {
		return nil, err
	}

	updated, err := s.projects.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a project owned by userID together with its tasks.
func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(userID, policy.ActionDelete, policy.ForProject(p)); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("project deleted", "project_id", id, "user_id", userID)
	return nil
}

// ListTasks returns the tasks of a project userID may read.
func (s *ProjectService) ListTasks(ctx context.Context, userID, projectID string) ([]domain.Task, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := authorize(userID, policy.ActionListTasks, policy.ForProject(p)); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *ProjectService) validate(ctx context.Context, p *domain.Project) error {
	if err := checkTitle("name", p.Name); err != nil {
		return err
	}
	if !p.Priority.Valid() {
		return invalid("unknown priority %q", p.Priority)
	}
	if !p.Status.Valid() {
		return invalid("unknown status %q", p.Status)
	}
	if err := checkProgress(p.Progress); err != nil {
		return err
	}
	if err := checkNonNegative("budget", p.Budget); err != nil {
		return err
	}
	if err := checkDate("start_date", p.StartDate); err != nil {
		return err
	}
	if err := checkDate("end_date", p.EndDate); err != nil {
		return err
	}
	if err := checkDateOrder("start_date", p.StartDate, "end_date", p.EndDate); err != nil {
		return err
	}
	if p.CategoryID != nil && *p.CategoryID != "" {
		if _, err := s.categories.GetByID(ctx, *p.CategoryID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return invalid("category %s does not exist", *p.CategoryID)
			}
			return fmt.Errorf("check category: %w", err)
		}
	}
	return checkUsersExist(ctx, s.users, p.AssignedTo)
}

// authorize logs denials before returning domain.ErrForbidden.
func authorize(userID string, action policy.Action, resource policy.Resource) error {
	if err := policy.Authorize(userID, action, resource); err != nil {
		slog.Info("access denied", "user_id", userID, "action", string(action))
		return err
	}
	return nil
}

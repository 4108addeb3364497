package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/msomdec/project-planner/internal/domain"
	"github.com/msomdec/project-planner/internal/policy"
)

// TaskService implements task use cases. Access to a task is derived from
// its parent project plus the task's own assignee.
type TaskService struct {
	tasks    domain.TaskRepository
	projects domain.ProjectRepository
	users    domain.UserRepository
	now      func() time.Time
}

func NewTaskService(store domain.Store) *TaskService {
	return &TaskService{
		tasks:    store.Tasks(),
		projects: store.Projects(),
		users:    store.Users(),
		now:      time.Now,
	}
}

// NewTask is the input to Create.
type NewTask struct {
	Title          string
	Description    string
	ProjectID      string
	ParentTaskID   *string
	AssignedTo     *string
	Priority       domain.Priority
	Status         domain.TaskStatus
	DueDate        string
	StartDate      string
	EstimatedHours *float64
	Tags           []string
	Dependencies   []string
}

// Create adds a task to a project userID may read.
func (s *TaskService) Create(ctx context.Context, userID string, in NewTask) (*domain.Task, error) {
	if strings.TrimSpace(in.ProjectID) == "" {
		return nil, invalid("project_id is required")
	}
	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := authorize(userID, policy.ActionCreateTask, policy.ForProject(project)); err != nil {
		return nil, err
	}

	t := &domain.Task{
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		ProjectID:      project.ID,
		ParentTaskID:   nonEmpty(in.ParentTaskID),
		AssignedTo:     nonEmpty(in.AssignedTo),
		Priority:       in.Priority,
		Status:         in.Status,
		DueDate:        in.DueDate,
		StartDate:      in.StartDate,
		EstimatedHours: in.EstimatedHours,
		Tags:           dedupe(in.Tags),
		Dependencies:   dedupe(in.Dependencies),
		CreatedBy:      userID,
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if t.Status == "" {
		t.Status = domain.TaskStatusTodo
	}
	if t.Status == domain.TaskStatusCompleted {
		now := s.now().UTC()
		t.CompletedAt = &now
	}

	if err := s.validate(ctx, t); err != nil {
		return nil, err
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	slog.Info("task created", "task_id", t.ID, "project_id", t.ProjectID, "user_id", userID)
	return t, nil
}

// Get returns a task whose project userID may read.
func (s *TaskService) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	t, project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(userID, policy.ActionRead, policy.ForTask(t, project)); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the tasks userID may see. With a projectID it lists that
// project's tasks, which needs read access to the project. Without one it
// merges the tasks of every readable project with the tasks assigned to
// userID in other projects, oldest first.
func (s *TaskService) List(ctx context.Context, userID, projectID string) ([]domain.Task, error) {
	if projectID != "" {
		project, err := s.projects.GetByID(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if err := authorize(userID, policy.ActionListTasks, policy.ForProject(project)); err != nil {
			return nil, err
		}
		tasks, err := s.tasks.ListByProject(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		return tasks, nil
	}

	projects, err := s.projects.ListVisibleTo(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	seen := make(map[string]bool)
	tasks := []domain.Task{}
	add := func(list []domain.Task) {
		for _, t := range list {
			if !seen[t.ID] {
				seen[t.ID] = true
				tasks = append(tasks, t)
			}
		}
	}
	for _, p := range projects {
		list, err := s.tasks.ListByProject(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list tasks of project %s: %w", p.ID, err)
		}
		add(list)
	}
	assigned, err := s.tasks.ListByAssignee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list assigned tasks: %w", err)
	}
	add(assigned)

	slices.SortStableFunc(tasks, func(a, b domain.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return tasks, nil
}

// Update applies patch to a task. The project owner, project assignees and
// the task assignee may update. Moving a task to completed without an
// explicit completion time stamps it with the current time.
func (s *TaskService) Update(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.IsEmpty() {
		return nil, invalid("no fields to update")
	}

	current, project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(userID, policy.ActionUpdate, policy.ForTask(current, project)); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if patch.Tags != nil {
		tags := dedupe(*patch.Tags)
		patch.Tags = &tags
	}
	if patch.Dependencies != nil {
		deps := dedupe(*patch.Dependencies)
		patch.Dependencies = &deps
	}
	if patch.Status != nil && *patch.Status == domain.TaskStatusCompleted &&
		patch.CompletedAt == nil && current.CompletedAt == nil {
		now := s.now().UTC()
		patch.CompletedAt = &now
	}

	merged := *current
	patch.Apply(&merged)
	if err := s.validate(ctx, &merged); err != nil {
		return nil, err
	}

	return s.tasks.Update(ctx, id, patch)
}

// Delete removes a task. Only the parent project's owner may delete.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	t, project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(userID, policy.ActionDelete, policy.ForTask(t, project)); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("task deleted", "task_id", id, "user_id", userID)
	return nil
}

func (s *TaskService) load(ctx context.Context, id string) (*domain.Task, *domain.Project, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	project, err := s.projects.GetByID(ctx, t.ProjectID)
	if err != nil {
		// The cascade makes this unreachable for consistent stores.
		return nil, nil, fmt.Errorf("load parent project: %w", err)
	}
	return t, project, nil
}

func (s *TaskService) validate(ctx context.Context, t *domain.Task) error {
	if err := checkTitle("title", t.Title); err != nil {
		return err
	}
	if !t.Priority.Valid() {
		return invalid("unknown priority %q", t.Priority)
	}
	if !t.Status.Valid() {
		return invalid("unknown status %q", t.Status)
	}
	if err := checkProgress(t.Progress); err != nil {
		return err
	}
	if err := checkNonNegative("estimated_hours", t.EstimatedHours); err != nil {
		return err
	}
	if err := checkNonNegative("actual_hours", t.ActualHours); err != nil {
		return err
	}
	if err := checkDate("due_date", t.DueDate); err != nil {
		return err
	}
	if err := checkDate("start_date", t.StartDate); err != nil {
		return err
	}
	if err := checkDateOrder("start_date", t.StartDate, "due_date", t.DueDate); err != nil {
		return err
	}

	if t.ParentTaskID != nil {
		if t.ID != "" && *t.ParentTaskID == t.ID {
			return invalid("a task cannot be its own parent")
		}
		if err := s.checkSameProject(ctx, "parent task", *t.ParentTaskID, t.ProjectID); err != nil {
			return err
		}
	}
	if t.ID != "" && slices.Contains(t.Dependencies, t.ID) {
		return invalid("a task cannot depend on itself")
	}
	for _, dep := range t.Dependencies {
		if err := s.checkSameProject(ctx, "dependency", dep, t.ProjectID); err != nil {
			return err
		}
	}
	if t.AssignedTo != nil {
		return checkUsersExist(ctx, s.users, []string{*t.AssignedTo})
	}
	return nil
}

func (s *TaskService) checkSameProject(ctx context.Context, what, taskID, projectID string) error {
	other, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return invalid("%s %s does not exist", what, taskID)
		}
		return fmt.Errorf("check %s: %w", what, err)
	}
	if other.ProjectID != projectID {
		return invalid("%s %s belongs to another project", what, taskID)
	}
	return nil
}

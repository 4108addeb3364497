// Package storetest holds a conformance suite that every domain.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/project-planner/internal/domain"
)

// Factory returns a freshly migrated, empty store. The suite closes nothing;
// the factory registers its own cleanup.
type Factory func(t *testing.T) domain.Store

// Run exercises the store contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("Projects", func(t *testing.T) { testProjects(t, newStore(t)) })
	t.Run("ProjectVisibility", func(t *testing.T) { testProjectVisibility(t, newStore(t)) })
	t.Run("Tasks", func(t *testing.T) { testTasks(t, newStore(t)) })
	t.Run("CascadeDelete", func(t *testing.T) { testCascadeDelete(t, newStore(t)) })
	t.Run("Migrate is idempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Migrate(context.Background()))
		require.NoError(t, s.Ping(context.Background()))
	})
}

// NewUser inserts an active user with a unique username and email.
func NewUser(t *testing.T, s domain.Store, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:         username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func newProject(t *testing.T, s domain.Store, name, owner string, assigned ...string) *domain.Project {
	t.Helper()
	p := &domain.Project{
		Name:       name,
		Priority:   domain.PriorityMedium,
		Status:     domain.ProjectStatusPlanning,
		CreatedBy:  owner,
		AssignedTo: assigned,
	}
	require.NoError(t, s.Projects().Create(context.Background(), p))
	return p
}

func newTask(t *testing.T, s domain.Store, projectID, title, creator string) *domain.Task {
	t.Helper()
	task := &domain.Task{
		Title:     title,
		ProjectID: projectID,
		Priority:  domain.PriorityMedium,
		Status:    domain.TaskStatusTodo,
		CreatedBy: creator,
	}
	require.NoError(t, s.Tasks().Create(context.Background(), task))
	return task
}

func testUsers(t *testing.T, s domain.Store) {
	ctx := context.Background()
	users := s.Users()

	alice := NewUser(t, s, "alice")
	assert.NotEmpty(t, alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	got, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, domain.RoleUser, got.Role)
	assert.True(t, got.IsActive)

	got, err = users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	for _, login := range []string{"alice", "alice@example.com", "Alice@Example.COM"} {
		got, err = users.GetByLogin(ctx, login)
		require.NoError(t, err, login)
		assert.Equal(t, alice.ID, got.ID, login)
	}

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = users.GetByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = users.GetByLogin(ctx, "ALICE")
	assert.ErrorIs(t, err, domain.ErrNotFound, "username match is exact")

	dupName := &domain.User{Name: "x", Username: "alice", Email: "other@example.com", PasswordHash: "h", IsActive: true}
	assert.ErrorIs(t, users.Create(ctx, dupName), domain.ErrDuplicateUsername)

	dupEmail := &domain.User{Name: "x", Username: "alice2", Email: "alice@example.com", PasswordHash: "h", IsActive: true}
	assert.ErrorIs(t, users.Create(ctx, dupEmail), domain.ErrDuplicateEmail)

	NewUser(t, s, "bob")
	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testCategories(t *testing.T, s domain.Store) {
	ctx := context.Background()
	cats := s.Categories()

	for _, name := range []string{"Web", "Design"} {
		require.NoError(t, cats.Create(ctx, &domain.Category{Name: name, Color: "#000000"}))
	}
	err := cats.Create(ctx, &domain.Category{Name: "Web"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCategory)

	list, err := cats.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Design", list[0].Name)
	assert.Equal(t, "Web", list[1].Name)

	got, err := cats.GetByName(ctx, "Web")
	require.NoError(t, err)
	byID, err := cats.GetByID(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, "Web", byID.Name)

	_, err = cats.GetByName(ctx, "Nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testProjects(t *testing.T, s domain.Store) {
	ctx := context.Background()
	alice := NewUser(t, s, "alice")
	bob := NewUser(t, s, "bob")

	budget := 1500.5
	p := &domain.Project{
		Name:       "Website",
		StartDate:  "2024-01-01",
		Priority:   domain.PriorityHigh,
		Status:     domain.ProjectStatusActive,
		Budget:     &budget,
		CreatedBy:  alice.ID,
		AssignedTo: []string{bob.ID},
		Tags:       []string{"web", "q1"},
	}
	require.NoError(t, s.Projects().Create(ctx, p))
	require.NotEmpty(t, p.ID)

	got, err := s.Projects().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Website", got.Name)
	assert.Equal(t, "2024-01-01", got.StartDate)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
	require.NotNil(t, got.Budget)
	assert.InDelta(t, 1500.5, *got.Budget, 0.001)
	assert.Nil(t, got.CategoryID)
	assert.Equal(t, []string{bob.ID}, got.AssignedTo)
	assert.Equal(t, []string{"web", "q1"}, got.Tags)

	name := "Website v2"
	progress := 40
	tags := []string{}
	updated, err := s.Projects().Update(ctx, p.ID, domain.ProjectPatch{
		Name:     &name,
		Progress: &progress,
		Tags:     &tags,
	})
	require.NoError(t, err)
	assert.Equal(t, "Website v2", updated.Name)
	assert.Equal(t, 40, updated.Progress)
	assert.Empty(t, updated.Tags)
	assert.Equal(t, domain.ProjectStatusActive, updated.Status, "unpatched fields are kept")
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	reloaded, err := s.Projects().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Website v2", reloaded.Name)
	assert.Equal(t, []string{bob.ID}, reloaded.AssignedTo)

	_, err = s.Projects().Update(ctx, "missing", domain.ProjectPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Projects().Delete(ctx, p.ID))
	_, err = s.Projects().GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Projects().Delete(ctx, p.ID), domain.ErrNotFound)
}

func testProjectVisibility(t *testing.T, s domain.Store) {
	ctx := context.Background()
	alice := NewUser(t, s, "alice")
	bob := NewUser(t, s, "bob")
	carol := NewUser(t, s, "carol")

	own := newProject(t, s, "alice-own", alice.ID)
	time.Sleep(5 * time.Millisecond)
	shared := newProject(t, s, "bob-shared", bob.ID, alice.ID, carol.ID)
	time.Sleep(5 * time.Millisecond)
	newProject(t, s, "bob-private", bob.ID)

	visible, err := s.Projects().ListVisibleTo(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, shared.ID, visible[0].ID, "newest first")
	assert.Equal(t, own.ID, visible[1].ID)

	visible, err = s.Projects().ListVisibleTo(ctx, carol.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, shared.ID, visible[0].ID)

	visible, err = s.Projects().ListVisibleTo(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := s.Projects().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testTasks(t *testing.T, s domain.Store) {
	ctx := context.Background()
	alice := NewUser(t, s, "alice")
	bob := NewUser(t, s, "bob")
	p := newProject(t, s, "Website", alice.ID)

	parent := newTask(t, s, p.ID, "Design", alice.ID)
	hours := 3.5
	child := &domain.Task{
		Title:          "Mockups",
		ProjectID:      p.ID,
		ParentTaskID:   &parent.ID,
		AssignedTo:     &bob.ID,
		Priority:       domain.PriorityLow,
		Status:         domain.TaskStatusTodo,
		DueDate:        "2024-02-01",
		EstimatedHours: &hours,
		Tags:           []string{"ui"},
		Dependencies:   []string{parent.ID},
		CreatedBy:      alice.ID,
	}
	require.NoError(t, s.Tasks().Create(ctx, child))

	got, err := s.Tasks().GetByID(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentTaskID)
	assert.Equal(t, parent.ID, *got.ParentTaskID)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, bob.ID, *got.AssignedTo)
	assert.Equal(t, "2024-02-01", got.DueDate)
	assert.Nil(t, got.CompletedAt)
	require.NotNil(t, got.EstimatedHours)
	assert.InDelta(t, 3.5, *got.EstimatedHours, 0.001)
	assert.Nil(t, got.ActualHours)
	assert.Equal(t, []string{"ui"}, got.Tags)
	assert.Equal(t, []string{parent.ID}, got.Dependencies)

	list, err := s.Tasks().ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, parent.ID, list[0].ID)

	assigned, err := s.Tasks().ListByAssignee(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, child.ID, assigned[0].ID)

	assigned, err = s.Tasks().ListByAssignee(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, assigned)

	status := domain.TaskStatusCompleted
	done := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	updated, err := s.Tasks().Update(ctx, child.ID, domain.TaskPatch{Status: &status, CompletedAt: &done})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, updated.Status)

	reloaded, err := s.Tasks().GetByID(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.CompletedAt)
	assert.True(t, done.Equal(*reloaded.CompletedAt), "completed_at round-trips")
	assert.Equal(t, "Mockups", reloaded.Title)

	// Deleting the parent detaches the subtask.
	require.NoError(t, s.Tasks().Delete(ctx, parent.ID))
	reloaded, err = s.Tasks().GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ParentTaskID)

	assert.ErrorIs(t, s.Tasks().Delete(ctx, parent.ID), domain.ErrNotFound)
	_, err = s.Tasks().GetByID(ctx, parent.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testCascadeDelete(t *testing.T, s domain.Store) {
	ctx := context.Background()
	alice := NewUser(t, s, "alice")
	p := newProject(t, s, "Doomed", alice.ID)
	other := newProject(t, s, "Survivor", alice.ID)

	var ids []string
	for i := range 3 {
		ids = append(ids, newTask(t, s, p.ID, fmt.Sprintf("task %d", i), alice.ID).ID)
	}
	kept := newTask(t, s, other.ID, "kept", alice.ID)

	require.NoError(t, s.Projects().Delete(ctx, p.ID))

	for _, id := range ids {
		_, err := s.Tasks().GetByID(ctx, id)
		assert.True(t, errors.Is(err, domain.ErrNotFound), "task %s should be gone", id)
	}
	_, err := s.Tasks().GetByID(ctx, kept.ID)
	assert.NoError(t, err)
}

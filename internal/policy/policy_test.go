package policy_test

import (
	"errors"
	"testing"

	"github.com/msomdec/project-planner/internal/domain"
	"github.com/msomdec/project-planner/internal/policy"
	"github.com/stretchr/testify/assert"
)

const (
	owner    = "u-owner"
	assignee = "u-assignee"
	taskUser = "u-task-assignee"
	stranger = "u-stranger"
)

var project = policy.ProjectResource{OwnerID: owner, AssigneeIDs: []string{assignee}}

func TestCan_Project(t *testing.T) {
	tests := []struct {
		identity string
		action   policy.Action
		want     policy.Decision
	}{
		{owner, policy.ActionRead, policy.Allow},
		{owner, policy.ActionUpdate, policy.Allow},
		{owner, policy.ActionDelete, policy.Allow},
		{owner, policy.ActionCreateTask, policy.Allow},
		{owner, policy.ActionListTasks, policy.Allow},

		{assignee, policy.ActionRead, policy.Allow},
		{assignee, policy.ActionUpdate, policy.Deny},
		{assignee, policy.ActionDelete, policy.Deny},
		{assignee, policy.ActionCreateTask, policy.Allow},
		{assignee, policy.ActionListTasks, policy.Allow},

		{stranger, policy.ActionRead, policy.Deny},
		{stranger, policy.ActionUpdate, policy.Deny},
		{stranger, policy.ActionDelete, policy.Deny},
		{stranger, policy.ActionCreateTask, policy.Deny},
		{stranger, policy.ActionListTasks, policy.Deny},

		{"", policy.ActionRead, policy.Deny},
	}

	for _, tc := range tests {
		t.Run(tc.identity+"/"+string(tc.action), func(t *testing.T) {
			assert.Equal(t, tc.want, policy.Can(tc.identity, tc.action, project))
		})
	}
}

func TestCan_Task(t *testing.T) {
	task := policy.TaskResource{Project: project, AssigneeID: taskUser}

	tests := []struct {
		identity string
		action   policy.Action
		want     policy.Decision
	}{
		{owner, policy.ActionRead, policy.Allow},
		{owner, policy.ActionUpdate, policy.Allow},
		{owner, policy.ActionDelete, policy.Allow},

		{assignee, policy.ActionRead, policy.Allow},
		{assignee, policy.ActionUpdate, policy.Allow},
		{assignee, policy.ActionDelete, policy.Deny},

		// A task assignee outside the project may update but not read or delete.
		{taskUser, policy.ActionRead, policy.Deny},
		{taskUser, policy.ActionUpdate, policy.Allow},
		{taskUser, policy.ActionDelete, policy.Deny},

		{stranger, policy.ActionRead, policy.Deny},
		{stranger, policy.ActionUpdate, policy.Deny},
		{stranger, policy.ActionDelete, policy.Deny},
	}

	for _, tc := range tests {
		t.Run(tc.identity+"/"+string(tc.action), func(t *testing.T) {
			assert.Equal(t, tc.want, policy.Can(tc.identity, tc.action, task))
		})
	}
}

func TestCan_UnassignedTaskDoesNotMatchEmptyIdentity(t *testing.T) {
	task := policy.TaskResource{Project: project}
	assert.Equal(t, policy.Deny, policy.Can("", policy.ActionUpdate, task))
	assert.Equal(t, policy.Deny, policy.Can(stranger, policy.ActionUpdate, task))
}

func TestCan_Category(t *testing.T) {
	assert.Equal(t, policy.Allow, policy.Can(stranger, policy.ActionRead, policy.CategoryResource{}))
	assert.Equal(t, policy.Deny, policy.Can(stranger, policy.ActionDelete, policy.CategoryResource{}))
	assert.Equal(t, policy.Deny, policy.Can("", policy.ActionRead, policy.CategoryResource{}))
}

func TestCan_Deterministic(t *testing.T) {
	task := policy.TaskResource{Project: project, AssigneeID: taskUser}
	actions := []policy.Action{policy.ActionRead, policy.ActionUpdate, policy.ActionDelete, policy.ActionCreateTask, policy.ActionListTasks}
	identities := []string{owner, assignee, taskUser, stranger, ""}
	resources := []policy.Resource{project, task, policy.CategoryResource{}}

	for _, id := range identities {
		for _, a := range actions {
			for _, r := range resources {
				first := policy.Can(id, a, r)
				for range 10 {
					assert.Equal(t, first, policy.Can(id, a, r))
				}
			}
		}
	}
}

func TestForProject(t *testing.T) {
	p := &domain.Project{CreatedBy: owner, AssignedTo: []string{"u-bob", assignee}}
	r := policy.ForProject(p)

	assert.Equal(t, policy.Allow, policy.Can(assignee, policy.ActionRead, r))
	assert.Equal(t, policy.Allow, policy.Can("u-bob", policy.ActionListTasks, r))
	assert.Equal(t, policy.Deny, policy.Can(stranger, policy.ActionRead, r))
}

func TestForTask(t *testing.T) {
	assigned := taskUser
	p := &domain.Project{CreatedBy: owner, AssignedTo: []string{assignee}}
	tk := &domain.Task{AssignedTo: &assigned}

	r := policy.ForTask(tk, p)
	assert.Equal(t, owner, r.Project.OwnerID)
	assert.Equal(t, []string{assignee}, r.Project.AssigneeIDs)
	assert.Equal(t, taskUser, r.AssigneeID)

	// The snapshot does not alias the project's slice.
	p.AssignedTo[0] = stranger
	assert.Equal(t, []string{assignee}, r.Project.AssigneeIDs)
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, policy.Authorize(owner, policy.ActionDelete, project))
	err := policy.Authorize(assignee, policy.ActionDelete, project)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

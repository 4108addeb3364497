// Package policy decides whether an identity may act on a project, task or
// category. Decisions depend only on their inputs.
package policy

import (
	"slices"

	"github.com/msomdec/project-planner/internal/domain"
)

type Action string

const (
	ActionRead       Action = "read"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionCreateTask Action = "create_task"
	ActionListTasks  Action = "list_tasks"
)

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Resource is a snapshot of the ownership fields of a protected object.
type Resource interface {
	kind() string
}

// ProjectResource is the access snapshot of a project.
type ProjectResource struct {
	OwnerID     string
	AssigneeIDs []string
}

// TaskResource is the access snapshot of a task and its parent project.
type TaskResource struct {
	Project    ProjectResource
	AssigneeID string
}

// CategoryResource stands for any category; categories carry no ownership.
type CategoryResource struct{}

func (ProjectResource) kind() string  { return "project" }
func (TaskResource) kind() string     { return "task" }
func (CategoryResource) kind() string { return "category" }

// ForProject builds the access snapshot of p.
func ForProject(p *domain.Project) ProjectResource {
	return ProjectResource{OwnerID: p.CreatedBy, AssigneeIDs: slices.Clone(p.AssignedTo)}
}

// ForTask builds the access snapshot of t inside its parent project.
func ForTask(t *domain.Task, parent *domain.Project) TaskResource {
	r := TaskResource{Project: ForProject(parent)}
	if t.AssignedTo != nil {
		r.AssigneeID = *t.AssignedTo
	}
	return r
}

// Can reports whether identity may perform action on resource.
// An empty identity is never allowed anything.
func Can(identity string, action Action, resource Resource) Decision {
	if identity == "" {
		return Deny
	}

	switch r := resource.(type) {
	case ProjectResource:
		switch action {
		case ActionRead, ActionListTasks, ActionCreateTask:
			return r.canRead(identity)
		case ActionUpdate, ActionDelete:
			return r.isOwner(identity)
		}
	case TaskResource:
		switch action {
		case ActionRead:
			return r.Project.canRead(identity)
		case ActionUpdate:
			return r.Project.canRead(identity) || Decision(r.AssigneeID != "" && r.AssigneeID == identity)
		case ActionDelete:
			return r.Project.isOwner(identity)
		}
	case CategoryResource:
		return Decision(action == ActionRead)
	}
	return Deny
}

// Authorize is Can expressed as an error: nil on allow, domain.ErrForbidden
// on deny.
func Authorize(identity string, action Action, resource Resource) error {
	if Can(identity, action, resource) {
		return nil
	}
	return domain.ErrForbidden
}

func (r ProjectResource) isOwner(identity string) Decision {
	return Decision(r.OwnerID != "" && r.OwnerID == identity)
}

func (r ProjectResource) canRead(identity string) Decision {
	return r.isOwner(identity) || Decision(slices.Contains(r.AssigneeIDs, identity))
}

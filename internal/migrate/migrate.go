// Package migrate copies the contents of one store into another, typically
// from an embedded SQLite database into the hosted backend.
//
// Rows keep their ids. Users and categories are matched by their natural
// key (username, name); when a match exists in the destination the existing
// row is reused and every reference to the source id is rewritten. Projects
// and tasks already present in the destination are left alone, so a run can
// be repeated after a partial failure.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/msomdec/project-planner/internal/domain"
)

// Counts tallies one collection.
type Counts struct {
	Copied  int
	Skipped int
}

// Report summarises a run.
type Report struct {
	Users      Counts
	Categories Counts
	Projects   Counts
	Tasks      Counts
}

// Copier moves rows from src to dst.
type Copier struct {
	src, dst domain.Store

	users      map[string]string
	categories map[string]string
	projects   map[string]string
	tasks      map[string]string
}

func NewCopier(src, dst domain.Store) *Copier {
	return &Copier{
		src:        src,
		dst:        dst,
		users:      make(map[string]string),
		categories: make(map[string]string),
		projects:   make(map[string]string),
		tasks:      make(map[string]string),
	}
}

// Run copies users, categories, projects and tasks, in that order.
func (c *Copier) Run(ctx context.Context) (Report, error) {
	var rep Report
	var err error
	if rep.Users, err = c.copyUsers(ctx); err != nil {
		return rep, fmt.Errorf("users: %w", err)
	}
	if rep.Categories, err = c.copyCategories(ctx); err != nil {
		return rep, fmt.Errorf("categories: %w", err)
	}
	if rep.Projects, err = c.copyProjects(ctx); err != nil {
		return rep, fmt.Errorf("projects: %w", err)
	}
	if rep.Tasks, err = c.copyTasks(ctx); err != nil {
		return rep, fmt.Errorf("tasks: %w", err)
	}
	return rep, nil
}

func (c *Copier) copyUsers(ctx context.Context) (Counts, error) {
	var n Counts
	users, err := c.src.Users().List(ctx)
	if err != nil {
		return n, err
	}
	for _, u := range users {
		existing, err := c.dst.Users().GetByUsername(ctx, u.Username)
		switch {
		case err == nil:
			slog.Info("user already exists, reusing", "username", u.Username)
			c.users[u.ID] = existing.ID
			n.Skipped++
			continue
		case !errors.Is(err, domain.ErrNotFound):
			return n, err
		}

		copied := u
		if err := c.dst.Users().Create(ctx, &copied); err != nil {
			if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrDuplicateUsername) {
				slog.Warn("user conflicts with an existing account, skipping", "username", u.Username, "error", err)
				n.Skipped++
				continue
			}
			return n, fmt.Errorf("create %s: %w", u.Username, err)
		}
		c.users[u.ID] = copied.ID
		n.Copied++
	}
	return n, nil
}

func (c *Copier) copyCategories(ctx context.Context) (Counts, error) {
	var n Counts
	cats, err := c.src.Categories().List(ctx)
	if err != nil {
		return n, err
	}
	for _, cat := range cats {
		existing, err := c.dst.Categories().GetByName(ctx, cat.Name)
		switch {
		case err == nil:
			c.categories[cat.ID] = existing.ID
			n.Skipped++
			continue
		case !errors.Is(err, domain.ErrNotFound):
			return n, err
		}

		copied := cat
		if err := c.dst.Categories().Create(ctx, &copied); err != nil {
			return n, fmt.Errorf("create %s: %w", cat.Name, err)
		}
		c.categories[cat.ID] = copied.ID
		n.Copied++
	}
	return n, nil
}

func (c *Copier) copyProjects(ctx context.Context) (Counts, error) {
	var n Counts
	projects, err := c.src.Projects().List(ctx)
	if err != nil {
		return n, err
	}
	for _, p := range projects {
		if _, err := c.dst.Projects().GetByID(ctx, p.ID); err == nil {
			c.projects[p.ID] = p.ID
			n.Skipped++
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return n, err
		}

		owner, ok := c.users[p.CreatedBy]
		if !ok {
			slog.Warn("project owner was not migrated, skipping", "project", p.Name)
			n.Skipped++
			continue
		}

		copied := p
		copied.CreatedBy = owner
		copied.AssignedTo = remapAll(c.users, p.AssignedTo)
		copied.CategoryID = remap(c.categories, p.CategoryID)
		if err := c.dst.Projects().Create(ctx, &copied); err != nil {
			return n, fmt.Errorf("create %s: %w", p.Name, err)
		}
		c.projects[p.ID] = copied.ID
		n.Copied++
	}
	return n, nil
}

func (c *Copier) copyTasks(ctx context.Context) (Counts, error) {
	var n Counts
	var pending []domain.Task
	for src := range c.projects {
		tasks, err := c.src.Tasks().ListByProject(ctx, src)
		if err != nil {
			return n, err
		}
		pending = append(pending, tasks...)
	}

	// Parents must exist before their subtasks. Each pass inserts every task
	// whose parent is already present; whatever is left when a pass makes no
	// progress loses its parent.
	var withDeps []domain.Task
	for len(pending) > 0 {
		var next []domain.Task
		for _, t := range pending {
			if t.ParentTaskID != nil {
				if _, ok := c.tasks[*t.ParentTaskID]; !ok {
					next = append(next, t)
					continue
				}
			}
			copied, err := c.copyTask(ctx, t, &n)
			if err != nil {
				return n, err
			}
			if copied && len(t.Dependencies) > 0 {
				withDeps = append(withDeps, t)
			}
		}
		if len(next) == len(pending) {
			for i := range next {
				slog.Warn("parent task was not migrated, detaching", "task", next[i].Title)
				next[i].ParentTaskID = nil
			}
		}
		pending = next
	}

	// Dependencies carry no foreign key, so they are rewritten once every
	// task has its final id.
	for _, t := range withDeps {
		deps := remapAll(c.tasks, t.Dependencies)
		if _, err := c.dst.Tasks().Update(ctx, c.tasks[t.ID], domain.TaskPatch{Dependencies: &deps}); err != nil {
			return n, fmt.Errorf("set dependencies of %s: %w", t.Title, err)
		}
	}
	return n, nil
}

// copyTask inserts t unless it is already present or its creator is
// missing. It reports whether a row was inserted.
func (c *Copier) copyTask(ctx context.Context, t domain.Task, n *Counts) (bool, error) {
	if _, err := c.dst.Tasks().GetByID(ctx, t.ID); err == nil {
		c.tasks[t.ID] = t.ID
		n.Skipped++
		return false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	creator, ok := c.users[t.CreatedBy]
	if !ok {
		slog.Warn("task creator was not migrated, skipping", "task", t.Title)
		n.Skipped++
		return false, nil
	}

	copied := t
	copied.ProjectID = c.projects[t.ProjectID]
	copied.CreatedBy = creator
	copied.AssignedTo = remap(c.users, t.AssignedTo)
	copied.ParentTaskID = remap(c.tasks, t.ParentTaskID)
	copied.Dependencies = nil
	if err := c.dst.Tasks().Create(ctx, &copied); err != nil {
		return false, fmt.Errorf("create %s: %w", t.Title, err)
	}
	c.tasks[t.ID] = copied.ID
	n.Copied++
	return true, nil
}

func remap(ids map[string]string, id *string) *string {
	if id == nil {
		return nil
	}
	if mapped, ok := ids[*id]; ok {
		return &mapped
	}
	return nil
}

// remapAll rewrites ids and drops those without a mapping.
func remapAll(ids map[string]string, list []string) []string {
	out := make([]string, 0, len(list))
	for _, id := range list {
		if mapped, ok := ids[id]; ok {
			out = append(out, mapped)
		}
	}
	return out
}

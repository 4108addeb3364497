package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msomdec/project-planner/internal/domain"
)

const taskColumns = `id, title, description, project_id, parent_task_id, assigned_to, priority, status,
	progress, due_date, start_date, completed_at, estimated_hours, actual_hours, tags, dependencies,
	created_by, created_at, updated_at`

// TaskRepository implements domain.TaskRepository on the hosted database.
type TaskRepository struct {
	pool *pgxpool.Pool
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Tags = list(t.Tags)
	t.Dependencies = list(t.Dependencies)

	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		t.ID, t.Title, t.Description, t.ProjectID, t.ParentTaskID, t.AssignedTo, string(t.Priority),
		string(t.Status), t.Progress, t.DueDate, t.StartDate, t.CompletedAt, t.EstimatedHours,
		t.ActualHours, t.Tags, t.Dependencies, t.CreatedBy, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return getTask(ctx, r.pool, id, "")
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	return r.list(ctx, "project_id = $1", projectID)
}

func (r *TaskRepository) ListByAssignee(ctx context.Context, userID string) ([]domain.Task, error) {
	return r.list(ctx, "assigned_to = $1", userID)
}

func (r *TaskRepository) list(ctx context.Context, where string, arg any) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE `+where+` ORDER BY created_at, id`, arg)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	t, err := getTask(ctx, tx, id, "FOR UPDATE")
	if err != nil {
		return nil, err
	}
	patch.Apply(t)
	t.Tags = list(t.Tags)
	t.Dependencies = list(t.Dependencies)
	t.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx,
		`UPDATE tasks SET title = $1, description = $2, assigned_to = $3, priority = $4, status = $5,
		        progress = $6, due_date = $7, start_date = $8, completed_at = $9, estimated_hours = $10,
		        actual_hours = $11, tags = $12, dependencies = $13, updated_at = $14
		 WHERE id = $15`,
		t.Title, t.Description, t.AssignedTo, string(t.Priority), string(t.Status), t.Progress,
		t.DueDate, t.StartDate, t.CompletedAt, t.EstimatedHours, t.ActualHours, t.Tags,
		t.Dependencies, t.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func getTask(ctx context.Context, q querier, id, lock string) (*domain.Task, error) {
	t, err := scanTask(q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 `+lock, id))
	if err != nil {
		if notFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query task: %w", err)
	}
	return t, nil
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		t                domain.Task
		priority, status string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.ProjectID, &t.ParentTaskID, &t.AssignedTo,
		&priority, &status, &t.Progress, &t.DueDate, &t.StartDate, &t.CompletedAt, &t.EstimatedHours,
		&t.ActualHours, &t.Tags, &t.Dependencies, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Priority = domain.Priority(priority)
	t.Status = domain.TaskStatus(status)
	t.Tags = list(t.Tags)
	t.Dependencies = list(t.Dependencies)
	return &t, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/project-planner/internal/domain"
)

const taskColumns = `id, title, description, project_id, parent_task_id, assigned_to, priority, status,
	progress, due_date, start_date, completed_at, estimated_hours, actual_hours, tags, dependencies,
	created_by, created_at, updated_at`

// TaskRepository implements domain.TaskRepository using SQLite.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db.SqlDB}
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	tags, err := encodeList(t.Tags)
	if err != nil {
		return err
	}
	deps, err := encodeList(t.Dependencies)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.ProjectID, nullString(t.ParentTaskID), nullString(t.AssignedTo),
		string(t.Priority), string(t.Status), t.Progress, t.DueDate, t.StartDate, nullTime(t.CompletedAt),
		nullFloat(t.EstimatedHours), nullFloat(t.ActualHours), tags, deps, t.CreatedBy, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Dependencies == nil {
		t.Dependencies = []string{}
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return getTask(ctx, r.db, id)
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	return r.list(ctx, "project_id = ?", projectID)
}

func (r *TaskRepository) ListByAssignee(ctx context.Context, userID string) ([]domain.Task, error) {
	return r.list(ctx, "assigned_to = ?", userID)
}

func (r *TaskRepository) list(ctx context.Context, where string, arg any) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
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
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := getTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(t)

	tags, err := encodeList(t.Tags)
	if err != nil {
		return nil, err
	}
	deps, err := encodeList(t.Dependencies)
	if err != nil {
		return nil, err
	}

	t.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, assigned_to = ?, priority = ?, status = ?,
		        progress = ?, due_date = ?, start_date = ?, completed_at = ?, estimated_hours = ?,
		        actual_hours = ?, tags = ?, dependencies = ?, updated_at = ?
		 WHERE id = ?`,
		t.Title, t.Description, nullString(t.AssignedTo), string(t.Priority), string(t.Status),
		t.Progress, t.DueDate, t.StartDate, nullTime(t.CompletedAt), nullFloat(t.EstimatedHours),
		nullFloat(t.ActualHours), tags, deps, t.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func getTask(ctx context.Context, q querier, id string) (*domain.Task, error) {
	t, err := scanTask(q.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query task: %w", err)
	}
	return t, nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t                  domain.Task
		priority, status   string
		parentID, assignee sql.NullString
		completedAt        sql.NullTime
		estimated, actual  sql.NullFloat64
		tagsJSON, depsJSON string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.ProjectID, &parentID, &assignee, &priority,
		&status, &t.Progress, &t.DueDate, &t.StartDate, &completedAt, &estimated, &actual,
		&tagsJSON, &depsJSON, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Priority = domain.Priority(priority)
	t.Status = domain.TaskStatus(status)
	t.ParentTaskID = stringPtr(parentID)
	t.AssignedTo = stringPtr(assignee)
	if completedAt.Valid {
		ts := completedAt.Time
		t.CompletedAt = &ts
	}
	t.EstimatedHours = floatPtr(estimated)
	t.ActualHours = floatPtr(actual)
	if t.Tags, err = decodeList(tagsJSON); err != nil {
		return nil, err
	}
	if t.Dependencies, err = decodeList(depsJSON); err != nil {
		return nil, err
	}
	return &t, nil
}

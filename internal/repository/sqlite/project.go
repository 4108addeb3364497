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

const projectColumns = `id, name, description, start_date, end_date, priority, status, progress,
	budget, category_id, created_by, assigned_to, tags, is_archived, created_at, updated_at`

// ProjectRepository implements domain.ProjectRepository using SQLite.
type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db.SqlDB}
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	assigned, err := encodeList(p.AssignedTo)
	if err != nil {
		return err
	}
	tags, err := encodeList(p.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.StartDate, p.EndDate, string(p.Priority), string(p.Status),
		p.Progress, nullFloat(p.Budget), nullString(p.CategoryID), p.CreatedBy, assigned, tags,
		p.IsArchived, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	p.CreatedAt = now
	p.UpdatedAt = now
	if p.AssignedTo == nil {
		p.AssignedTo = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return getProject(ctx, r.db, id)
}

func (r *ProjectRepository) ListVisibleTo(ctx context.Context, userID string) ([]domain.Project, error) {
	return r.list(ctx,
		`WHERE created_by = ?
		    OR EXISTS (SELECT 1 FROM json_each(projects.assigned_to) WHERE json_each.value = ?)`,
		userID, userID)
}

func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	return r.list(ctx, "")
}

func (r *ProjectRepository) Update(ctx context.Context, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := getProject(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)

	assigned, err := encodeList(p.AssignedTo)
	if err != nil {
		return nil, err
	}
	tags, err := encodeList(p.Tags)
	if err != nil {
		return nil, err
	}

	p.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, start_date = ?, end_date = ?,
		        priority = ?, status = ?, progress = ?, budget = ?, category_id = ?,
		        assigned_to = ?, tags = ?, is_archived = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Description, p.StartDate, p.EndDate, string(p.Priority), string(p.Status),
		p.Progress, nullFloat(p.Budget), nullString(p.CategoryID), assigned, tags, p.IsArchived,
		p.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
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

func (r *ProjectRepository) list(ctx context.Context, where string, args ...any) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects `+where+` ORDER BY created_at DESC, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func getProject(ctx context.Context, q querier, id string) (*domain.Project, error) {
	p, err := scanProject(q.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query project: %w", err)
	}
	return p, nil
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		p                  domain.Project
		priority, status   string
		budget             sql.NullFloat64
		categoryID         sql.NullString
		assigned, tagsJSON string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &priority, &status,
		&p.Progress, &budget, &categoryID, &p.CreatedBy, &assigned, &tagsJSON, &p.IsArchived,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Priority = domain.Priority(priority)
	p.Status = domain.ProjectStatus(status)
	p.Budget = floatPtr(budget)
	p.CategoryID = stringPtr(categoryID)
	if p.AssignedTo, err = decodeList(assigned); err != nil {
		return nil, err
	}
	if p.Tags, err = decodeList(tagsJSON); err != nil {
		return nil, err
	}
	return &p, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msomdec/project-planner/internal/domain"
)

const projectColumns = `id, name, description, start_date, end_date, priority, status, progress,
	budget, category_id, created_by, assigned_to, tags, is_archived, created_at, updated_at`

// ProjectRepository implements domain.ProjectRepository on the hosted database.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.AssignedTo = list(p.AssignedTo)
	p.Tags = list(p.Tags)

	_, err := r.pool.Exec(ctx,
		`INSERT INTO projects (`+projectColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		p.ID, p.Name, p.Description, p.StartDate, p.EndDate, string(p.Priority), string(p.Status),
		p.Progress, p.Budget, p.CategoryID, p.CreatedBy, p.AssignedTo, p.Tags, p.IsArchived, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return getProject(ctx, r.pool, id, "")
}

func (r *ProjectRepository) ListVisibleTo(ctx context.Context, userID string) ([]domain.Project, error) {
	return r.list(ctx, `WHERE created_by = $1 OR $1 = ANY(assigned_to)`, userID)
}

func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	return r.list(ctx, "")
}

func (r *ProjectRepository) Update(ctx context.Context, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := getProject(ctx, tx, id, "FOR UPDATE")
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	p.AssignedTo = list(p.AssignedTo)
	p.Tags = list(p.Tags)
	p.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx,
		`UPDATE projects SET name = $1, description = $2, start_date = $3, end_date = $4,
		        priority = $5, status = $6, progress = $7, budget = $8, category_id = $9,
		        assigned_to = $10, tags = $11, is_archived = $12, updated_at = $13
		 WHERE id = $14`,
		p.Name, p.Description, p.StartDate, p.EndDate, string(p.Priority), string(p.Status),
		p.Progress, p.Budget, p.CategoryID, p.AssignedTo, p.Tags, p.IsArchived, p.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) list(ctx context.Context, where string, args ...any) ([]domain.Project, error) {
	rows, err := r.pool.Query(ctx,
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

func getProject(ctx context.Context, q querier, id, lock string) (*domain.Project, error) {
	p, err := scanProject(q.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 `+lock, id))
	if err != nil {
		if notFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query project: %w", err)
	}
	return p, nil
}

func scanProject(row scanner) (*domain.Project, error) {
	var (
		p                domain.Project
		priority, status string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &priority, &status,
		&p.Progress, &p.Budget, &p.CategoryID, &p.CreatedBy, &p.AssignedTo, &p.Tags, &p.IsArchived,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Priority = domain.Priority(priority)
	p.Status = domain.ProjectStatus(status)
	p.AssignedTo = list(p.AssignedTo)
	p.Tags = list(p.Tags)
	return &p, nil
}

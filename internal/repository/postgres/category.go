package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msomdec/project-planner/internal/domain"
)

// CategoryRepository implements domain.CategoryRepository on the hosted database.
type CategoryRepository struct {
	db *pgxpool.Pool
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO categories (id, name, color, created_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Color, now)
	if err != nil {
		if uniqueConstraint(err) != "" {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateCategory, c.Name)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	c.CreatedAt = now
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	return r.getOne(ctx, "name = $1", name)
}

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, color, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) getOne(ctx context.Context, where string, arg any) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRow(ctx, `SELECT id, name, color, created_at FROM categories WHERE `+where, arg).
		Scan(&c.ID, &c.Name, &c.Color, &c.CreatedAt)
	if err != nil {
		if notFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query category: %w", err)
	}
	return &c, nil
}

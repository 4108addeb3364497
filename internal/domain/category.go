package domain

import (
	"context"
	"time"
)

// Category is a flat, globally readable label for projects.
type Category struct {
	ID        string
	Name      string
	Color     string
	CreatedAt time.Time
}

type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	GetByName(ctx context.Context, name string) (*Category, error)
	List(ctx context.Context) ([]Category, error)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/msomdec/project-planner/internal/domain"
	"github.com/msomdec/project-planner/internal/policy"
)

// DefaultCategories are seeded into an empty store at startup.
var DefaultCategories = []domain.Category{
	{Name: "Development", Color: "#3B82F6"},
	{Name: "Design", Color: "#EC4899"},
	{Name: "Marketing", Color: "#F59E0B"},
	{Name: "Research", Color: "#10B981"},
	{Name: "Operations", Color: "#6366F1"},
	{Name: "Personal", Color: "#8B5CF6"},
}

// CategoryService exposes the global category list.
type CategoryService struct {
	categories domain.CategoryRepository
}

func NewCategoryService(categories domain.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// List returns all categories. Any authenticated user may read them.
func (s *CategoryService) List(ctx context.Context, userID string) ([]domain.Category, error) {
	if err := authorize(userID, policy.ActionRead, policy.CategoryResource{}); err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

// SeedDefaults inserts any missing default categories. It is idempotent,
// and safe to run from several processes at once.
func (s *CategoryService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, c := range DefaultCategories {
		_, err := s.categories.GetByName(ctx, c.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return created, fmt.Errorf("check category %s: %w", c.Name, err)
		}

		category := c
		if err := s.categories.Create(ctx, &category); err != nil {
			if errors.Is(err, domain.ErrDuplicateCategory) {
				continue
			}
			return created, fmt.Errorf("seed category %s: %w", c.Name, err)
		}
		created++
	}
	if created > 0 {
		slog.Info("default categories seeded", "count", created)
	}
	return created, nil
}

// Package repository selects the persistence backend named by the
// configuration.
package repository

import (
	"context"
	"fmt"

	"github.com/msomdec/project-planner/internal/config"
	"github.com/msomdec/project-planner/internal/domain"
	"github.com/msomdec/project-planner/internal/repository/postgres"
	"github.com/msomdec/project-planner/internal/repository/sqlite"
)

// Open connects to the configured backend. The caller owns the returned
// store and must Close it.
func Open(ctx context.Context, cfg config.StoreConfig) (domain.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.BackendHosted:
		db, err := postgres.New(ctx, cfg.HostedURL, cfg.HostedKey)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

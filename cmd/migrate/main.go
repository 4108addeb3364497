// Command migrate copies an embedded SQLite database into the hosted store.
//
// Usage:
//
//	migrate [-source planner.db] [-check]
//
// The hosted store is taken from HOSTED_DB_URL and HOSTED_DB_KEY. With
// -check, the command only verifies that both stores are reachable and
// reports how many rows each collection holds.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/msomdec/project-planner/internal/config"
	"github.com/msomdec/project-planner/internal/domain"
	"github.com/msomdec/project-planner/internal/migrate"
	"github.com/msomdec/project-planner/internal/repository"
)

func main() {
	if err := run(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	source := flag.String("source", cfg.Store.DatabasePath, "path of the SQLite database to copy from")
	check := flag.Bool("check", false, "only verify connectivity and report row counts")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall time limit")
	flag.Parse()

	if cfg.Store.HostedURL == "" || cfg.Store.HostedKey == "" {
		return fmt.Errorf("HOSTED_DB_URL and HOSTED_DB_KEY must be set")
	}
	if _, err := os.Stat(*source); err != nil {
		return fmt.Errorf("source database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	src, err := repository.Open(ctx, config.StoreConfig{Backend: config.BackendSQLite, DatabasePath: *source})
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dst, err := repository.Open(ctx, config.StoreConfig{
		Backend:   config.BackendHosted,
		HostedURL: cfg.Store.HostedURL,
		HostedKey: cfg.Store.HostedKey,
	})
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	defer dst.Close()

	if *check {
		for _, store := range []domain.Store{src, dst} {
			if err := report(ctx, store); err != nil {
				return err
			}
		}
		return nil
	}

	if err := dst.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate destination schema: %w", err)
	}

	rep, err := migrate.NewCopier(src, dst).Run(ctx)
	slog.Info("migration summary",
		"users_copied", rep.Users.Copied, "users_skipped", rep.Users.Skipped,
		"categories_copied", rep.Categories.Copied, "categories_skipped", rep.Categories.Skipped,
		"projects_copied", rep.Projects.Copied, "projects_skipped", rep.Projects.Skipped,
		"tasks_copied", rep.Tasks.Copied, "tasks_skipped", rep.Tasks.Skipped,
	)
	return err
}

func report(ctx context.Context, store domain.Store) error {
	statuses, err := migrate.Check(ctx, store)
	if err != nil {
		return err
	}
	failed := false
	for _, s := range statuses {
		if s.Err != nil {
			failed = true
			slog.Error("collection unreadable", "store", store.Kind(), "collection", s.Name, "error", s.Err)
			continue
		}
		slog.Info("collection ok", "store", store.Kind(), "collection", s.Name, "rows", s.Count)
	}
	if failed {
		return fmt.Errorf("%s store failed the check", store.Kind())
	}
	return nil
}

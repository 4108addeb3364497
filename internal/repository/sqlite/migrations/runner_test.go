package migrations_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/msomdec/project-planner/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	return db
}

func TestRunMigrations(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first migration run: %v", err)
	}

	for _, table := range []string{"users", "categories", "projects", "tasks"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != migrations.Count() {
		t.Fatalf("expected %d migration records, got %d", migrations.Count(), count)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("second run (idempotent): %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != migrations.Count() {
		t.Fatalf("expected %d migration records, got %d", migrations.Count(), count)
	}
}

func TestProgressCheckConstraint(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("run: %v", err)
	}

	_, err := db.ExecContext(ctx, `INSERT INTO users (id, name, username, email, password_hash, created_at, updated_at)
		VALUES ('u1', 'A', 'a', 'a@example.com', 'h', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO projects (id, name, progress, created_by, created_at, updated_at)
		VALUES ('p1', 'P', 101, 'u1', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	if err == nil {
		t.Fatal("expected progress above 100 to be rejected")
	}
}

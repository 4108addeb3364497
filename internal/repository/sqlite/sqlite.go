package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/project-planner/internal/domain"
	"github.com/msomdec/project-planner/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB is the embedded SQLite backend. It implements domain.Store.
type DB struct {
	SqlDB *sql.DB
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Project deletion relies on ON DELETE CASCADE.
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// PRAGMAs are per connection, so keep exactly one.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db}, nil
}

// NewFromDB wraps an already configured *sql.DB.
func NewFromDB(db *sql.DB) *DB {
	return &DB{SqlDB: db}
}

func (d *DB) Kind() string { return "sqlite" }

func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SqlDB)
}

func (d *DB) Ping(ctx context.Context) error {
	return d.SqlDB.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.SqlDB.Close()
}

func (d *DB) Users() domain.UserRepository { return NewUserRepository(d) }

func (d *DB) Projects() domain.ProjectRepository { return NewProjectRepository(d) }

func (d *DB) Tasks() domain.TaskRepository { return NewTaskRepository(d) }

func (d *DB) Categories() domain.CategoryRepository { return NewCategoryRepository(d) }

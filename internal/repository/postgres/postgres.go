// Package postgres implements the hosted backend on a managed PostgreSQL
// database, such as the one behind a Supabase project.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/msomdec/project-planner/internal/domain"
	"github.com/msomdec/project-planner/internal/repository/postgres/migrations"
)

const uniqueViolation = "23505"

// DB is the hosted backend. It implements domain.Store.
type DB struct {
	Pool *pgxpool.Pool
}

// New connects to the hosted database at url. A non-empty key replaces the
// password in url, so the service key can be kept out of the connection
// string.
func New(ctx context.Context, url, key string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse hosted url: %w", err)
	}
	if key != "" {
		cfg.ConnConfig.Password = key
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping hosted database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (d *DB) Kind() string { return "hosted" }

// Migrate applies the embedded goose migrations.
func (d *DB) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(d.Pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

func (d *DB) Close() error {
	d.Pool.Close()
	return nil
}

func (d *DB) Users() domain.UserRepository { return &UserRepository{db: d.Pool} }

func (d *DB) Projects() domain.ProjectRepository { return &ProjectRepository{pool: d.Pool} }

func (d *DB) Tasks() domain.TaskRepository { return &TaskRepository{pool: d.Pool} }

func (d *DB) Categories() domain.CategoryRepository { return &CategoryRepository{db: d.Pool} }

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// uniqueConstraint returns the violated constraint name, or "" if err is
// not a unique violation.
func uniqueConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}

func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// list normalizes nil to an empty slice; pgx encodes a nil slice as NULL.
func list(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

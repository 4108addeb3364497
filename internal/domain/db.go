package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation (SQLite, hosted Postgres) owns its own migration
// files and strategy, ensuring the entire backend is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Store bundles the repositories of one persistence backend.
// The API layer only ever sees this interface; the concrete backend is
// chosen once at startup.
type Store interface {
	Database

	// Kind names the backend, e.g. "sqlite" or "hosted".
	Kind() string

	Users() UserRepository
	Projects() ProjectRepository
	Tasks() TaskRepository
	Categories() CategoryRepository
}

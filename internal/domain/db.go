package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation (SQLite, Postgres) owns its own migration files and
// strategy, so the whole persistence layer is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Store bundles the repositories a backend provides.
type Store interface {
	Database
	Users() UserRepository
	Roles() RoleRepository
	Meetings() MeetingRepository
	FileStore() FileStore
}

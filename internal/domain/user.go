package domain

import (
	"context"
	"time"
)

// AuthProvider identifies how a user authenticates.
type AuthProvider string

const (
	AuthProviderLocal  AuthProvider = "LOCAL"
	AuthProviderGoogle AuthProvider = "GOOGLE"
	AuthProviderGitHub AuthProvider = "GITHUB"
)

// DefaultRole is assigned to every newly registered user.
const DefaultRole = "USER"

// User represents a registered user of the application.
type User struct {
	ID           int64
	FullName     string
	Email        string
	PasswordHash string
	Active       bool
	Provider     AuthProvider
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role is an entry of the role catalog.
type Role struct {
	ID   int64
	Name string
}

// UserRepository defines persistence operations for users.
// Email lookups are exact, case-sensitive matches.
type UserRepository interface {
	// Create inserts the user and links it to the roles named in user.Roles,
	// which must already exist in the catalog.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// RoleRepository manages the role catalog.
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*Role, error)
	Create(ctx context.Context, role *Role) error
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindmeet/mindmeet/internal/domain"
)

type userRepo struct {
	pool *pgxpool.Pool
}

const userColumns = `id, full_name, email, password_hash, active, provider, created_at, updated_at`

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	if user.Provider == "" {
		user.Provider = domain.AuthProviderLocal
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO users (full_name, email, password_hash, active, provider)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		user.FullName, user.Email, user.PasswordHash, user.Active, string(user.Provider),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	for _, role := range user.Roles {
		tag, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id) SELECT $1, id FROM roles WHERE name = $2`,
			user.ID, role,
		)
		if err != nil {
			return fmt.Errorf("link role %s: %w", role, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("link role %s: %w", role, domain.ErrNotFound)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit user: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

func (r *userRepo) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	user := &domain.User{}
	var provider string
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg,
	).Scan(&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &user.Active,
		&provider, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	user.Provider = domain.AuthProvider(provider)

	rows, err := r.pool.Query(ctx,
		`SELECT r.name FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = $1 ORDER BY r.name`, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	roles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan roles: %w", err)
	}
	if len(roles) > 0 {
		user.Roles = roles
	}
	return user, nil
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("update user active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type roleRepo struct {
	pool *pgxpool.Pool
}

func (r *roleRepo) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	role := &domain.Role{}
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM roles WHERE name = $1`, name).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query role: %w", err)
	}
	return role, nil
}

func (r *roleRepo) Create(ctx context.Context, role *domain.Role) error {
	err := r.pool.QueryRow(ctx, `INSERT INTO roles (name) VALUES ($1) RETURNING id`, role.Name).Scan(&role.ID)
	if err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

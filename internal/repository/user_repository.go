package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/blog-service/internal/domain"
)

// UserRepository defines persistence access for accounts.
// Lookups return pgx.ErrNoRows when the user is absent or soft-deleted.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmailWithRole(ctx context.Context, email string) (*domain.UserWithRole, error)
	GetByIDWithRole(ctx context.Context, id string) (*domain.UserWithRole, error)
	List(ctx context.Context) ([]domain.UserWithRole, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userWithRoleColumns = `
        u.id, u.email, u.password_hash, u.name, u.role_id,
        r.slug, r.name, u.created_at, u.updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, password_hash, name, role_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.RoleID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByEmailWithRole(ctx context.Context, email string) (*domain.UserWithRole, error) {
	query := `
        SELECT` + userWithRoleColumns + `
        FROM users u
        JOIN roles r ON u.role_id = r.id
        WHERE u.email = $1 AND u.deleted_at IS NULL`

	return scanUserWithRole(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) GetByIDWithRole(ctx context.Context, id string) (*domain.UserWithRole, error) {
	query := `
        SELECT` + userWithRoleColumns + `
        FROM users u
        JOIN roles r ON u.role_id = r.id
        WHERE u.id = $1 AND u.deleted_at IS NULL`

	return scanUserWithRole(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) List(ctx context.Context) ([]domain.UserWithRole, error) {
	query := `
        SELECT` + userWithRoleColumns + `
        FROM users u
        JOIN roles r ON u.role_id = r.id
        WHERE u.deleted_at IS NULL
        ORDER BY u.created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserWithRole, 0)
	for rows.Next() {
		user, err := scanUserWithRole(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `
        UPDATE users SET password_hash=$1, updated_at=NOW()
        WHERE id=$2 AND deleted_at IS NULL`

	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	const query = `
        UPDATE users SET deleted_at=NOW()
        WHERE id=$1 AND deleted_at IS NULL`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUserWithRole(row pgx.Row) (*domain.UserWithRole, error) {
	var user domain.UserWithRole
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.RoleID,
		&user.RoleSlug,
		&user.RoleName,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

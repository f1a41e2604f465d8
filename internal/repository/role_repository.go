package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/blog-service/internal/domain"
)

// ErrRoleInUse is returned when deleting a role still held by active users.
var ErrRoleInUse = errors.New("role is assigned to active users")

// RoleRepository handles roles, permissions and their association.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Update(ctx context.Context, role *domain.Role) error
	// Delete soft-deletes a role and drops its grants. It fails with
	// ErrRoleInUse while active users hold the role.
	Delete(ctx context.Context, id string) error

	// GetPermissions returns the permission names bound to roleID, ordered by name.
	GetPermissions(ctx context.Context, roleID string) ([]string, error)
	ListPermissions(ctx context.Context) ([]domain.Permission, error)
	AssignPermission(ctx context.Context, roleID, permissionID string) (bool, error)
	RemovePermission(ctx context.Context, roleID, permissionID string) (bool, error)
}

type roleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository instantiates the repository.
func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{pool: pool}
}

func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	const query = `
        INSERT INTO roles (name, slug, description)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		role.Name,
		role.Slug,
		role.Description,
	).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
}

func (r *roleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	const query = `
        SELECT id, name, slug, description, created_at, updated_at
        FROM roles WHERE id=$1 AND deleted_at IS NULL`

	return scanRole(r.pool.QueryRow(ctx, query, id))
}

func (r *roleRepository) GetBySlug(ctx context.Context, slug string) (*domain.Role, error) {
	const query = `
        SELECT id, name, slug, description, created_at, updated_at
        FROM roles WHERE slug=$1 AND deleted_at IS NULL`

	return scanRole(r.pool.QueryRow(ctx, query, slug))
}

func (r *roleRepository) List(ctx context.Context) ([]domain.Role, error) {
	const query = `
        SELECT id, name, slug, description, created_at, updated_at
        FROM roles WHERE deleted_at IS NULL
        ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]domain.Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, rows.Err()
}

func (r *roleRepository) Update(ctx context.Context, role *domain.Role) error {
	const query = `
        UPDATE roles SET name=$1, slug=$2, description=$3, updated_at=NOW()
        WHERE id=$4 AND deleted_at IS NULL
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		role.Name,
		role.Slug,
		role.Description,
		role.ID,
	).Scan(&role.UpdatedAt)
}

func (r *roleRepository) Delete(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Row lock conflicts with the key-share lock user inserts take on roles.
		var locked string
		err := tx.QueryRow(ctx, `
            SELECT id FROM roles
            WHERE id=$1 AND deleted_at IS NULL
            FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			return err
		}

		var holders int
		if err := tx.QueryRow(ctx, `
            SELECT count(*) FROM users
            WHERE role_id=$1 AND deleted_at IS NULL`, id).Scan(&holders); err != nil {
			return err
		}
		if holders > 0 {
			return ErrRoleInUse
		}

		if _, err := tx.Exec(ctx, `UPDATE roles SET deleted_at=NOW() WHERE id=$1`, id); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id=$1`, id)
		return err
	})
}

func (r *roleRepository) GetPermissions(ctx context.Context, roleID string) ([]string, error) {
	const query = `
        SELECT p.name
        FROM permissions p
        JOIN role_permissions rp ON p.id = rp.permission_id
        JOIN roles r ON r.id = rp.role_id AND r.deleted_at IS NULL
        WHERE rp.role_id = $1
        ORDER BY p.name ASC`

	rows, err := r.pool.Query(ctx, query, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	permissions := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		permissions = append(permissions, name)
	}
	return permissions, rows.Err()
}

func (r *roleRepository) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	const query = `
        SELECT id, name, description, resource, action, created_at
        FROM permissions
        ORDER BY resource ASC, action ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	permissions := make([]domain.Permission, 0)
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Resource, &p.Action, &p.CreatedAt); err != nil {
			return nil, err
		}
		permissions = append(permissions, p)
	}
	return permissions, rows.Err()
}

func (r *roleRepository) AssignPermission(ctx context.Context, roleID, permissionID string) (bool, error) {
	const query = `
        INSERT INTO role_permissions (role_id, permission_id)
        VALUES ($1,$2)
        ON CONFLICT (role_id, permission_id) DO NOTHING`

	cmd, err := r.pool.Exec(ctx, query, roleID, permissionID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *roleRepository) RemovePermission(ctx context.Context, roleID, permissionID string) (bool, error) {
	const query = `
        DELETE FROM role_permissions
        WHERE role_id=$1 AND permission_id=$2`

	cmd, err := r.pool.Exec(ctx, query, roleID, permissionID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func scanRole(row pgx.Row) (*domain.Role, error) {
	var role domain.Role
	if err := row.Scan(
		&role.ID,
		&role.Name,
		&role.Slug,
		&role.Description,
		&role.CreatedAt,
		&role.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &role, nil
}

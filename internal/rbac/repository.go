package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort defines data access methods for roles and permissions.
type RepositoryPort interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	UpsertPermission(ctx context.Context, name, guard string) (Permission, error)
	FindRole(ctx context.Context, name, guard string, tenantID *int64) (Role, error)
	InsertRole(ctx context.Context, name, guard string, tenantID *int64) (Role, error)
	ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error)
	AttachPermission(ctx context.Context, roleID, permissionID int64) error
	DetachPermission(ctx context.Context, roleID, permissionID int64) error
	InsertUserRole(ctx context.Context, userID, roleID int64, tenantID *int64) error
	UserHasRole(ctx context.Context, userID int64, name, guard string) (bool, error)
}

// ErrRoleNotFound indicates that the requested role does not exist.
var ErrRoleNotFound = errors.New("rbac: role not found")

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPermissions returns the full permission catalog ordered by name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, guard FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Guard); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// UpsertPermission inserts a permission if missing and returns the stored row.
func (r *Repository) UpsertPermission(ctx context.Context, name, guard string) (Permission, error) {
	var perm Permission
	err := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name, guard, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (name, guard) DO UPDATE SET updated_at = NOW()
		RETURNING id, name, guard`, name, guard).Scan(&perm.ID, &perm.Name, &perm.Guard)
	if err != nil {
		return Permission{}, err
	}
	return perm, nil
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Guard, &role.TenantID, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}

// FindRole fetches a role by its full scope. Tenant comparison treats
// NULL as a distinct scope, so tenant-less and tenant-scoped roles with
// the same name never collide.
func (r *Repository) FindRole(ctx context.Context, name, guard string, tenantID *int64) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `
		SELECT id, name, guard, tenant_id, created_at, updated_at FROM roles
		WHERE name = $1 AND guard = $2 AND tenant_id IS NOT DISTINCT FROM $3`, name, guard, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// InsertRole creates a role; concurrent duplicate inserts are absorbed
// by the unique index and surface as zero rows returned.
func (r *Repository) InsertRole(ctx context.Context, name, guard string, tenantID *int64) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, guard, tenant_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT DO NOTHING
		RETURNING id, name, guard, tenant_id, created_at, updated_at`, name, guard, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.FindRole(ctx, name, guard, tenantID)
		}
		return Role{}, err
	}
	return role, nil
}

// ListRolePermissions returns the permissions currently attached to a role.
func (r *Repository) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.guard FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1 ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Guard); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// AttachPermission links a permission to a role.
func (r *Repository) AttachPermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING`, roleID, permissionID)
	return err
}

// DetachPermission removes a permission from a role.
func (r *Repository) DetachPermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	return err
}

// InsertUserRole records a role assignment. Assignments are idempotent
// within a tenant and additive across tenants.
func (r *Repository) InsertUserRole(ctx context.Context, userID, roleID int64, tenantID *int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id, tenant_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT DO NOTHING`, userID, roleID, tenantID)
	return err
}

// UserHasRole reports whether the user holds a role with the given name
// under the guard, in any tenant.
func (r *Repository) UserHasRole(ctx context.Context, userID int64, name, guard string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = $1 AND r.name = $2 AND r.guard = $3
		)`, userID, name, guard).Scan(&exists)
	return exists, err
}

var _ RepositoryPort = (*Repository)(nil)

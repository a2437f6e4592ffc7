package rbac

import "time"

// Role represents a named permission grouping, unique per (name, guard)
// and, when multi-tenancy is active, per tenant.
type Role struct {
	ID        int64
	Name      string
	Guard     string
	TenantID  *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Permission represents an atomic capability namespaced by guard.
type Permission struct {
	ID    int64
	Name  string
	Guard string
}

// UserRole links a user to a role, optionally scoped to a tenant.
type UserRole struct {
	UserID    int64
	RoleID    int64
	TenantID  *int64
	CreatedAt time.Time
}

package rbac

import (
	"context"
	"errors"
	"strings"
)

// Service orchestrates role and permission operations.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService builds a Service instance. The cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Permissions returns the full permission catalog.
func (s *Service) Permissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// EnsurePermission upserts a permission under the given guard.
func (s *Service) EnsurePermission(ctx context.Context, name, guard string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, errors.New("rbac: permission name required")
	}
	return s.repo.UpsertPermission(ctx, name, guard)
}

// FindOrCreateRole fetches a role by (name, guard, tenant) scope,
// creating it when absent. A second call with the same scope returns
// the same role, never a duplicate.
func (s *Service) FindOrCreateRole(ctx context.Context, name, guard string, tenantID *int64) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	role, err := s.repo.FindRole(ctx, name, guard, tenantID)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, ErrRoleNotFound) {
		return Role{}, err
	}
	return s.repo.InsertRole(ctx, name, guard, tenantID)
}

// SyncPermissions replaces the role's permission set with exactly the
// provided permissions. Stale attachments are removed, missing ones added.
func (s *Service) SyncPermissions(ctx context.Context, role Role, perms []Permission) error {
	current, err := s.repo.ListRolePermissions(ctx, role.ID)
	if err != nil {
		return err
	}
	existing := make(map[int64]struct{}, len(current))
	for _, p := range current {
		existing[p.ID] = struct{}{}
	}
	keep := make(map[int64]struct{}, len(perms))
	for _, p := range perms {
		keep[p.ID] = struct{}{}
		if _, ok := existing[p.ID]; !ok {
			if err := s.repo.AttachPermission(ctx, role.ID, p.ID); err != nil {
				return err
			}
		}
	}
	for id := range existing {
		if _, ok := keep[id]; !ok {
			if err := s.repo.DetachPermission(ctx, role.ID, id); err != nil {
				return err
			}
		}
	}
	s.cache.Invalidate(ctx, role.ID)
	return nil
}

// AssignRole records the role against the user, scoped to the tenant
// when one is supplied.
func (s *Service) AssignRole(ctx context.Context, userID int64, role Role, tenantID *int64) error {
	return s.repo.InsertUserRole(ctx, userID, role.ID, tenantID)
}

// HasRole reports whether the user holds the named role under the guard.
func (s *Service) HasRole(ctx context.Context, userID int64, name, guard string) (bool, error) {
	return s.repo.UserHasRole(ctx, userID, name, guard)
}

// RolePermissionNames returns the sorted permission names attached to a
// role, served from cache when warm.
func (s *Service) RolePermissionNames(ctx context.Context, role Role) ([]string, error) {
	if names, ok := s.cache.RolePermissions(ctx, role.ID); ok {
		return names, nil
	}
	perms, err := s.repo.ListRolePermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = p.Name
	}
	s.cache.StoreRolePermissions(ctx, role.ID, names)
	return names, nil
}

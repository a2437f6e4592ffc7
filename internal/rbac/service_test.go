package rbac

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	perms       []Permission
	roles       map[string]Role
	rolePerms   map[int64][]Permission
	userRoles   map[string]struct{}
	nextRoleID  int64
	nextPermID  int64
	attachCalls int
	detachCalls int
}

func newFakeRepo(perms ...string) *fakeRepo {
	repo := &fakeRepo{
		roles:      make(map[string]Role),
		rolePerms:  make(map[int64][]Permission),
		userRoles:  make(map[string]struct{}),
		nextRoleID: 1,
		nextPermID: 1,
	}
	for _, name := range perms {
		repo.perms = append(repo.perms, Permission{ID: repo.nextPermID, Name: name, Guard: "web"})
		repo.nextPermID++
	}
	return repo
}

func scopeKey(name, guard string, tenantID *int64) string {
	if tenantID == nil {
		return name + "|" + guard + "|-"
	}
	return fmt.Sprintf("%s|%s|%d", name, guard, *tenantID)
}

func (f *fakeRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	return f.perms, nil
}

func (f *fakeRepo) UpsertPermission(ctx context.Context, name, guard string) (Permission, error) {
	for _, p := range f.perms {
		if p.Name == name && p.Guard == guard {
			return p, nil
		}
	}
	perm := Permission{ID: f.nextPermID, Name: name, Guard: guard}
	f.nextPermID++
	f.perms = append(f.perms, perm)
	return perm, nil
}

func (f *fakeRepo) FindRole(ctx context.Context, name, guard string, tenantID *int64) (Role, error) {
	role, ok := f.roles[scopeKey(name, guard, tenantID)]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return role, nil
}

func (f *fakeRepo) InsertRole(ctx context.Context, name, guard string, tenantID *int64) (Role, error) {
	key := scopeKey(name, guard, tenantID)
	if role, ok := f.roles[key]; ok {
		return role, nil
	}
	role := Role{ID: f.nextRoleID, Name: name, Guard: guard, TenantID: tenantID}
	f.nextRoleID++
	f.roles[key] = role
	return role, nil
}

func (f *fakeRepo) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	return f.rolePerms[roleID], nil
}

func (f *fakeRepo) AttachPermission(ctx context.Context, roleID, permissionID int64) error {
	f.attachCalls++
	for _, p := range f.perms {
		if p.ID == permissionID {
			f.rolePerms[roleID] = append(f.rolePerms[roleID], p)
			return nil
		}
	}
	return fmt.Errorf("unknown permission %d", permissionID)
}

func (f *fakeRepo) DetachPermission(ctx context.Context, roleID, permissionID int64) error {
	f.detachCalls++
	kept := f.rolePerms[roleID][:0]
	for _, p := range f.rolePerms[roleID] {
		if p.ID != permissionID {
			kept = append(kept, p)
		}
	}
	f.rolePerms[roleID] = kept
	return nil
}

func (f *fakeRepo) InsertUserRole(ctx context.Context, userID, roleID int64, tenantID *int64) error {
	f.userRoles[fmt.Sprintf("%d|%d|%s", userID, roleID, scopeKey("", "", tenantID))] = struct{}{}
	return nil
}

func (f *fakeRepo) UserHasRole(ctx context.Context, userID int64, name, guard string) (bool, error) {
	for _, role := range f.roles {
		if role.Name != name || role.Guard != guard {
			continue
		}
		for key := range f.userRoles {
			var uid int64
			if _, err := fmt.Sscanf(key, "%d|", &uid); err == nil && uid == userID {
				return true, nil
			}
		}
	}
	return false, nil
}

func TestFindOrCreateRoleIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	first, err := svc.FindOrCreateRole(context.Background(), "super_admin", "web", nil)
	require.NoError(t, err)
	second, err := svc.FindOrCreateRole(context.Background(), "super_admin", "web", nil)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.roles, 1)
}

func TestFindOrCreateRoleTenantScopesAreDistinct(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	tenant := int64(5)
	unscoped, err := svc.FindOrCreateRole(context.Background(), "super_admin", "web", nil)
	require.NoError(t, err)
	scoped, err := svc.FindOrCreateRole(context.Background(), "super_admin", "web", &tenant)
	require.NoError(t, err)
	require.NotEqual(t, unscoped.ID, scoped.ID)
}

func TestFindOrCreateRoleRejectsBlankName(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	_, err := svc.FindOrCreateRole(context.Background(), "  ", "web", nil)
	require.Error(t, err)
}

func TestSyncPermissionsReplacesSet(t *testing.T) {
	repo := newFakeRepo("view_users", "edit_users", "delete_users")
	svc := NewService(repo, nil)

	role, err := svc.FindOrCreateRole(context.Background(), "super_admin", "web", nil)
	require.NoError(t, err)

	// Start with a partial, partly stale set: view_users plus a
	// permission that is no longer in the catalog.
	repo.rolePerms[role.ID] = []Permission{
		{ID: 1, Name: "view_users", Guard: "web"},
		{ID: 99, Name: "stale_permission", Guard: "web"},
	}

	require.NoError(t, svc.SyncPermissions(context.Background(), role, repo.perms))

	names, err := svc.RolePermissionNames(context.Background(), role)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"view_users", "edit_users", "delete_users"}, names)
	require.Equal(t, 2, repo.attachCalls, "only missing permissions attached")
	require.Equal(t, 1, repo.detachCalls, "only stale permissions detached")
}

func TestSyncPermissionsEmptyCatalogClearsRole(t *testing.T) {
	repo := newFakeRepo("view_users")
	svc := NewService(repo, nil)

	role, err := svc.FindOrCreateRole(context.Background(), "super_admin", "web", nil)
	require.NoError(t, err)
	require.NoError(t, svc.SyncPermissions(context.Background(), role, repo.perms))
	require.NoError(t, svc.SyncPermissions(context.Background(), role, nil))

	names, err := svc.RolePermissionNames(context.Background(), role)
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestEnsurePermissionRequiresName(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	_, err := svc.EnsurePermission(context.Background(), "   ", "web")
	require.Error(t, err)
}

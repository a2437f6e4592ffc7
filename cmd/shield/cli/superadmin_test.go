package cli

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aligulzar729/shield/internal/panel"
	"github.com/aligulzar729/shield/internal/provision"
	"github.com/aligulzar729/shield/internal/rbac"
	"github.com/aligulzar729/shield/internal/users"
)

type stubIdentity struct {
	records map[int64]users.User
}

func (s stubIdentity) FindByID(ctx context.Context, id int64) (users.User, error) {
	user, ok := s.records[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return user, nil
}

func (s stubIdentity) Count(ctx context.Context) (int64, error) {
	return int64(len(s.records)), nil
}

func (s stubIdentity) FirstIfOnlyOne(ctx context.Context) (users.User, bool, error) {
	if len(s.records) != 1 {
		return users.User{}, false, nil
	}
	for _, user := range s.records {
		return user, true, nil
	}
	return users.User{}, false, nil
}

func (s stubIdentity) Create(ctx context.Context, name, email, passwordHash string) (users.User, error) {
	return users.User{ID: 1, Name: name, Email: email, PasswordHash: passwordHash}, nil
}

type stubAccess struct {
	perms []rbac.Permission
}

func (s stubAccess) Permissions(ctx context.Context) ([]rbac.Permission, error) {
	return s.perms, nil
}

func (s stubAccess) FindOrCreateRole(ctx context.Context, name, guard string, tenantID *int64) (rbac.Role, error) {
	return rbac.Role{ID: 1, Name: name, Guard: guard, TenantID: tenantID}, nil
}

func (s stubAccess) SyncPermissions(ctx context.Context, role rbac.Role, perms []rbac.Permission) error {
	return nil
}

func (s stubAccess) AssignRole(ctx context.Context, userID int64, role rbac.Role, tenantID *int64) error {
	return nil
}

func (s stubAccess) HasRole(ctx context.Context, userID int64, name, guard string) (bool, error) {
	return true, nil
}

type silentPrompter struct{}

func (silentPrompter) Select(label string, options []string) (string, error) { return "", nil }
func (silentPrompter) Ask(label string) (string, error)                      { return "", nil }
func (silentPrompter) AskSecret(label string) (string, error)                { return "", nil }

func testProvisioner(identity provision.IdentityStore) *provision.Provisioner {
	return provision.New(
		provision.Config{RoleName: "super_admin", Guard: "web"},
		identity,
		stubAccess{perms: []rbac.Permission{{ID: 1, Name: "view_users", Guard: "web"}}},
		panel.NewRegistry([]string{"admin"}),
		silentPrompter{},
		slog.New(slog.DiscardHandler),
	)
}

func TestCommandSuccessPrintsEmail(t *testing.T) {
	identity := stubIdentity{records: map[int64]users.User{7: {ID: 7, Email: "ava@example.com"}}}
	command, err := NewSuperAdminCLI(testProvisioner(identity), nil)
	require.NoError(t, err)

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	exitCode := command.Command(context.Background(), SuperAdminOptions{Stdout: stdout, Stderr: stderr})
	require.Zero(t, exitCode)
	require.Empty(t, stderr.String())
	require.Contains(t, stdout.String(), "ava@example.com")
	require.Contains(t, stdout.String(), "super admin")
}

func TestCommandUserNotFound(t *testing.T) {
	identity := stubIdentity{records: map[int64]users.User{7: {ID: 7, Email: "ava@example.com"}}}
	command, err := NewSuperAdminCLI(testProvisioner(identity), nil)
	require.NoError(t, err)

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	exitCode := command.Command(context.Background(), SuperAdminOptions{UserID: 42, Stdout: stdout, Stderr: stderr})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "user not found")
}

func TestCommandProhibitedGate(t *testing.T) {
	identity := stubIdentity{records: map[int64]users.User{7: {ID: 7, Email: "ava@example.com"}}}
	provisioner := testProvisioner(identity)
	provisioner.Prohibit()
	command, err := NewSuperAdminCLI(provisioner, nil)
	require.NoError(t, err)

	stderr := new(bytes.Buffer)
	exitCode := command.Command(context.Background(), SuperAdminOptions{Stdout: new(bytes.Buffer), Stderr: stderr})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "prohibited")

	provisioner.Allow()
	exitCode = command.Command(context.Background(), SuperAdminOptions{Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer)})
	require.Zero(t, exitCode)
}

func TestCommandNegativeUserFlag(t *testing.T) {
	identity := stubIdentity{records: map[int64]users.User{}}
	command, err := NewSuperAdminCLI(testProvisioner(identity), nil)
	require.NoError(t, err)

	stderr := new(bytes.Buffer)
	exitCode := command.Command(context.Background(), SuperAdminOptions{UserID: -1, Stdout: new(bytes.Buffer), Stderr: stderr})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "positive")
}

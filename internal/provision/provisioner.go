// Package provision implements the super-admin bootstrap policy:
// resolve a target user, ensure the super-admin role exists with the
// full permission catalog, and assign it, optionally scoped to a tenant.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/aligulzar729/shield/internal/rbac"
	"github.com/aligulzar729/shield/internal/users"
)

// Sentinel errors terminal for a provisioning run. None are retried.
var (
	// ErrProhibited indicates the operation is administratively disabled.
	ErrProhibited = errors.New("provision: super admin bootstrap is prohibited")
	// ErrNoPanels indicates the host application registered no panels.
	ErrNoPanels = errors.New("provision: no panels registered")
	// ErrUnknownPanel indicates the supplied panel id is not registered.
	ErrUnknownPanel = errors.New("provision: unknown panel")
	// ErrTenantRequired indicates tenancy is enabled but no tenant was supplied.
	ErrTenantRequired = errors.New("provision: tenant is required when tenancy is enabled")
	// ErrUserNotFound indicates the user id did not resolve to a record.
	ErrUserNotFound = errors.New("provision: user not found")
)

// CreationError wraps a failure from the user creation path.
type CreationError struct {
	Err error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("provision: create user: %v", e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// IdentityStore is the narrow contract the provisioner needs from the
// user store.
type IdentityStore interface {
	FindByID(ctx context.Context, id int64) (users.User, error)
	Count(ctx context.Context) (int64, error)
	FirstIfOnlyOne(ctx context.Context) (users.User, bool, error)
	Create(ctx context.Context, name, email, passwordHash string) (users.User, error)
}

// AccessControlStore is the narrow contract the provisioner needs from
// the role/permission store.
type AccessControlStore interface {
	Permissions(ctx context.Context) ([]rbac.Permission, error)
	FindOrCreateRole(ctx context.Context, name, guard string, tenantID *int64) (rbac.Role, error)
	SyncPermissions(ctx context.Context, role rbac.Role, perms []rbac.Permission) error
	AssignRole(ctx context.Context, userID int64, role rbac.Role, tenantID *int64) error
	HasRole(ctx context.Context, userID int64, name, guard string) (bool, error)
}

// PanelRegistry lists the panels registered by the host application.
type PanelRegistry interface {
	List() []string
	IsRegistered(id string) bool
	Default() (string, bool)
}

// CreateHook supplies a user for the zero-users case in place of the
// interactive prompts. Its output is taken as-is.
type CreateHook func(ctx context.Context) (*users.User, error)

// Config carries the provisioning constants.
type Config struct {
	RoleName       string
	Guard          string
	TenancyEnabled bool
}

// Options are the per-run inputs, typically mapped from CLI flags.
type Options struct {
	UserID *int64
	Panel  string
	Tenant *int64
}

// Result reports a successful provisioning run.
type Result struct {
	User            users.User
	Role            rbac.Role
	Panel           string
	TenantID        *int64
	PermissionCount int
	CreatedUser     bool
}

// Provisioner resolves a target user and grants it the fully
// permissioned super-admin role. Construct one instance per process;
// the gate and the creation hook are instance state, not globals.
type Provisioner struct {
	cfg      Config
	users    IdentityStore
	access   AccessControlStore
	panels   PanelRegistry
	prompter Prompter
	logger   *slog.Logger

	prohibited bool
	createHook CreateHook
}

// New constructs a Provisioner.
func New(cfg Config, identity IdentityStore, access AccessControlStore, panels PanelRegistry, prompter Prompter, logger *slog.Logger) *Provisioner {
	if cfg.RoleName == "" {
		cfg.RoleName = "super_admin"
	}
	if cfg.Guard == "" {
		cfg.Guard = "web"
	}
	return &Provisioner{
		cfg:      cfg,
		users:    identity,
		access:   access,
		panels:   panels,
		prompter: prompter,
		logger:   logger,
	}
}

// Prohibit disables provisioning for this instance until Allow is called.
func (p *Provisioner) Prohibit() { p.prohibited = true }

// Allow re-enables provisioning.
func (p *Provisioner) Allow() { p.prohibited = false }

// Prohibited reports the gate state.
func (p *Provisioner) Prohibited() bool { return p.prohibited }

// CreateSuperAdminUsing registers a custom creation hook, replacing any
// previously registered one. Returns the provisioner for chaining.
func (p *Provisioner) CreateSuperAdminUsing(hook CreateHook) *Provisioner {
	p.createHook = hook
	return p
}

// CreateSuperAdmin invokes the registered hook. It returns nil, nil
// when no hook is registered; that is a query outcome, not an error.
func (p *Provisioner) CreateSuperAdmin(ctx context.Context) (*users.User, error) {
	if p.createHook == nil {
		return nil, nil
	}
	return p.createHook(ctx)
}

// Run executes the bootstrap sequence: gate, panel, tenant, user, role,
// permission sync, assignment. Any failure aborts the run; no step is
// retried.
func (p *Provisioner) Run(ctx context.Context, opts Options) (Result, error) {
	if p.prohibited {
		return Result{}, ErrProhibited
	}

	panelID, err := p.resolvePanel(opts.Panel)
	if err != nil {
		return Result{}, err
	}

	tenantID, err := p.resolveTenant(opts.Tenant)
	if err != nil {
		return Result{}, err
	}

	user, created, err := p.resolveUser(ctx, opts.UserID)
	if err != nil {
		return Result{}, err
	}

	role, err := p.access.FindOrCreateRole(ctx, p.cfg.RoleName, p.cfg.Guard, tenantID)
	if err != nil {
		return Result{}, err
	}

	perms, err := p.access.Permissions(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := p.access.SyncPermissions(ctx, role, perms); err != nil {
		return Result{}, err
	}

	if err := p.access.AssignRole(ctx, user.ID, role, tenantID); err != nil {
		return Result{}, err
	}

	p.logger.Info("super admin provisioned",
		slog.String("email", user.Email),
		slog.String("role", role.Name),
		slog.String("panel", panelID),
		slog.Int("permissions", len(perms)),
	)

	return Result{
		User:            user,
		Role:            role,
		Panel:           panelID,
		TenantID:        tenantID,
		PermissionCount: len(perms),
		CreatedUser:     created,
	}, nil
}

// resolvePanel picks the target panel: auto-select when only one is
// registered, validate an explicit id, otherwise prompt.
func (p *Provisioner) resolvePanel(explicit string) (string, error) {
	registered := p.panels.List()
	if len(registered) == 0 {
		return "", ErrNoPanels
	}
	if explicit != "" {
		if !p.panels.IsRegistered(explicit) {
			return "", fmt.Errorf("%w: %s", ErrUnknownPanel, explicit)
		}
		return explicit, nil
	}
	if id, ok := p.panels.Default(); ok {
		return id, nil
	}
	choice, err := p.prompter.Select("Which panel should the super admin belong to?", registered)
	if err != nil {
		return "", err
	}
	if !p.panels.IsRegistered(choice) {
		return "", fmt.Errorf("%w: %s", ErrUnknownPanel, choice)
	}
	return choice, nil
}

// resolveTenant enforces the tenancy precondition. A supplied tenant is
// ignored when tenancy is disabled.
func (p *Provisioner) resolveTenant(tenant *int64) (*int64, error) {
	if !p.cfg.TenancyEnabled {
		return nil, nil
	}
	if tenant == nil {
		return nil, ErrTenantRequired
	}
	return tenant, nil
}

// resolveUser applies the selection policy: explicit id wins, a sole
// user is auto-selected, many users trigger a single-attempt prompt,
// and zero users fall through to the creation path.
func (p *Provisioner) resolveUser(ctx context.Context, explicit *int64) (users.User, bool, error) {
	if explicit != nil {
		user, err := p.users.FindByID(ctx, *explicit)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				return users.User{}, false, fmt.Errorf("%w: id %d", ErrUserNotFound, *explicit)
			}
			return users.User{}, false, err
		}
		return user, false, nil
	}

	count, err := p.users.Count(ctx)
	if err != nil {
		return users.User{}, false, err
	}
	switch {
	case count == 0:
		user, err := p.createUser(ctx)
		if err != nil {
			return users.User{}, false, err
		}
		return user, true, nil
	case count == 1:
		user, ok, err := p.users.FirstIfOnlyOne(ctx)
		if err != nil {
			return users.User{}, false, err
		}
		if !ok {
			return users.User{}, false, fmt.Errorf("%w: sole user vanished", ErrUserNotFound)
		}
		return user, false, nil
	default:
		answer, err := p.prompter.Ask("Enter the ID of the user to promote")
		if err != nil {
			return users.User{}, false, err
		}
		id, err := strconv.ParseInt(answer, 10, 64)
		if err != nil {
			return users.User{}, false, fmt.Errorf("%w: %q is not a valid id", ErrUserNotFound, answer)
		}
		user, err := p.users.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				return users.User{}, false, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
			}
			return users.User{}, false, err
		}
		return user, false, nil
	}
}

// createUser runs the creation path for the zero-users case: the custom
// hook when registered, otherwise three interactive prompts in order
// name, email, password.
func (p *Provisioner) createUser(ctx context.Context) (users.User, error) {
	if p.createHook != nil {
		created, err := p.createHook(ctx)
		if err != nil {
			return users.User{}, &CreationError{Err: err}
		}
		// Hook output is taken as-is apart from the nil case, which
		// cannot be assigned a role.
		if created == nil {
			return users.User{}, &CreationError{Err: errors.New("custom hook returned no user")}
		}
		return *created, nil
	}

	name, err := p.prompter.Ask("Name")
	if err != nil {
		return users.User{}, &CreationError{Err: err}
	}
	email, err := p.prompter.Ask("Email address")
	if err != nil {
		return users.User{}, &CreationError{Err: err}
	}
	password, err := p.prompter.AskSecret("Password")
	if err != nil {
		return users.User{}, &CreationError{Err: err}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return users.User{}, &CreationError{Err: err}
	}
	user, err := p.users.Create(ctx, name, email, string(hash))
	if err != nil {
		return users.User{}, &CreationError{Err: err}
	}
	return user, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aligulzar729/shield/internal/observability"
	"github.com/aligulzar729/shield/internal/provision"
)

// SuperAdminCLI drives the super-admin bootstrap command.
type SuperAdminCLI struct {
	provisioner *provision.Provisioner
	metrics     *observability.Metrics
}

// NewSuperAdminCLI constructs the command wrapper. Metrics may be nil.
func NewSuperAdminCLI(provisioner *provision.Provisioner, metrics *observability.Metrics) (*SuperAdminCLI, error) {
	if provisioner == nil {
		return nil, errors.New("super-admin cli: provisioner required")
	}
	return &SuperAdminCLI{provisioner: provisioner, metrics: metrics}, nil
}

// SuperAdminOptions defines available flags for the super-admin command.
// Zero values mean the flag was not supplied.
type SuperAdminOptions struct {
	UserID int64
	Panel  string
	Tenant int64
	Stdout io.Writer
	Stderr io.Writer
}

// Command executes the bootstrap workflow and prints the outcome.
func (c *SuperAdminCLI) Command(ctx context.Context, opts SuperAdminOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.UserID < 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "super-admin: --user must be a positive id")
		return 1
	}

	runOpts := provision.Options{Panel: opts.Panel}
	if opts.UserID > 0 {
		id := opts.UserID
		runOpts.UserID = &id
	}
	if opts.Tenant > 0 {
		tenant := opts.Tenant
		runOpts.Tenant = &tenant
	}

	result, err := c.provisioner.Run(ctx, runOpts)
	if err != nil {
		c.metrics.RecordProvisionRun("failure")
		_, _ = fmt.Fprintf(opts.Stderr, "super-admin: %s\n", failureMessage(err))
		return 1
	}
	c.metrics.RecordProvisionRun("success")

	if result.CreatedUser {
		_, _ = fmt.Fprintf(opts.Stdout, "Created user %s.\n", result.User.Email)
	}
	_, _ = fmt.Fprintf(opts.Stdout, "Success! %s is now a super admin on the %q panel with %d permission(s).\n",
		result.User.Email, result.Panel, result.PermissionCount)
	return 0
}

// failureMessage maps terminal provisioning errors to operator guidance.
func failureMessage(err error) string {
	var creation *provision.CreationError
	switch {
	case errors.Is(err, provision.ErrProhibited):
		return "bootstrap is prohibited on this installation"
	case errors.Is(err, provision.ErrNoPanels):
		return "no panels are registered; configure SHIELD_PANELS first"
	case errors.Is(err, provision.ErrUnknownPanel):
		return err.Error()
	case errors.Is(err, provision.ErrTenantRequired):
		return "tenancy is enabled; pass --tenant with a tenant id"
	case errors.Is(err, provision.ErrUserNotFound):
		return err.Error()
	case errors.As(err, &creation):
		return creation.Error()
	default:
		return err.Error()
	}
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/aligulzar729/shield/internal/observability"
	"github.com/aligulzar729/shield/internal/rbac"
)

// SuperAdminSyncJob keeps the super-admin role aligned with the
// permission catalog as it grows after the initial bootstrap.
type SuperAdminSyncJob struct {
	Service        *rbac.Service
	RoleName       string
	TenancyEnabled bool
	Metrics        *observability.Metrics
	Logger         *slog.Logger
}

// NewSuperAdminSyncJob wires dependencies for the sync handler. Metrics
// may be nil when no registry is available.
func NewSuperAdminSyncJob(service *rbac.Service, roleName string, tenancyEnabled bool, metrics *observability.Metrics, logger *slog.Logger) *SuperAdminSyncJob {
	return &SuperAdminSyncJob{
		Service:        service,
		RoleName:       roleName,
		TenancyEnabled: tenancyEnabled,
		Metrics:        metrics,
		Logger:         logger,
	}
}

// Handle processes TaskSuperAdminSync tasks and records the run outcome.
func (j *SuperAdminSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("superadmin sync: handler not configured")
	}
	if err := j.sync(ctx, t); err != nil {
		j.Metrics.RecordProvisionRun("failure")
		return err
	}
	j.Metrics.RecordProvisionRun("success")
	return nil
}

// sync fetches or creates the role for the payload scope and replaces
// its permission set with the full catalog, mirroring what a fresh
// bootstrap would produce. With tenancy enabled every payload must name
// a tenant; a tenantless payload is a misconfiguration, not a transient
// failure, so it is not retried.
func (j *SuperAdminSyncJob) sync(ctx context.Context, t *asynq.Task) error {
	var payload SuperAdminSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Guard == "" {
		payload.Guard = "web"
	}
	if j.TenancyEnabled && payload.TenantID == nil {
		j.Logger.Error("super admin sync rejected: tenant missing with tenancy enabled",
			slog.String("guard", payload.Guard),
		)
		return fmt.Errorf("superadmin sync: tenant is required when tenancy is enabled: %w", asynq.SkipRetry)
	}

	role, err := j.Service.FindOrCreateRole(ctx, j.RoleName, payload.Guard, payload.TenantID)
	if err != nil {
		return err
	}
	perms, err := j.Service.Permissions(ctx)
	if err != nil {
		return err
	}
	if err := j.Service.SyncPermissions(ctx, role, perms); err != nil {
		return err
	}
	j.Logger.Info("super admin role synced",
		slog.String("role", role.Name),
		slog.String("guard", payload.Guard),
		slog.Int("permissions", len(perms)),
	)
	return nil
}

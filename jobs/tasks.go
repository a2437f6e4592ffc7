package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSuperAdminSync re-syncs the super-admin role against the
	// live permission catalog.
	TaskSuperAdminSync = "rbac:superadmin_sync"
)

// SuperAdminSyncPayload scopes a re-sync run.
type SuperAdminSyncPayload struct {
	Guard    string `json:"guard"`
	TenantID *int64 `json:"tenant_id,omitempty"`
}

// NewSuperAdminSyncTask constructs an Asynq task.
func NewSuperAdminSyncTask(payload SuperAdminSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSuperAdminSync, data), nil
}

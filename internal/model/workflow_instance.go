package model

import "time"

// Instance status constants.
const (
	InstanceRunning   = "running"
	InstanceCompleted = "completed"
	InstanceFailed    = "failed"
	InstanceCancelled = "cancelled"
	InstancePaused    = "paused"
)

// WorkflowInstance is one execution of a template. Instances are never
// deleted; the row doubles as an audit record.
type WorkflowInstance struct {
	ID          string         `json:"id"`
	TemplateID  string         `json:"template_id"`
	TenantID    string         `json:"tenant_id"`
	ContextData map[string]any `json:"context_data,omitempty"`
	Status      string         `json:"status"`
	TriggeredBy string         `json:"triggered_by"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

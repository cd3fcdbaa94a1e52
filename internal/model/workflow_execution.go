package model

import "time"

// Execution status constants.
const (
	ExecutionRunning   = "running"
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
)

// WorkflowExecution is one attempt to run a specific step within a specific
// instance. The engine creates at most one execution per (instance, step).
type WorkflowExecution struct {
	ID           string         `json:"id"`
	InstanceID   string         `json:"instance_id"`
	StepID       string         `json:"step_id"`
	AssignedTo   *string        `json:"assigned_to,omitempty"`
	Status       string         `json:"status"`
	Output       map[string]any `json:"output,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	FailedAt     *time.Time     `json:"failed_at,omitempty"`
	// ResumeAt is set for DELAY executions awaiting their timer. Persisted so
	// a restart only postpones, never loses, the pending completion.
	ResumeAt *time.Time `json:"resume_at,omitempty"`
}

package engine

import (
	"context"
	"time"

	"github.com/edvin/flowline/internal/model"
)

// Store is the persistence boundary the engine drives instances through. The
// Postgres implementation lives in internal/core; tests use an in-memory fake.
type Store interface {
	// GetActiveTemplate loads a template with its steps; it returns
	// ErrTemplateNotFound when the id is unknown or the template is inactive.
	GetActiveTemplate(ctx context.Context, id string) (*model.WorkflowTemplate, error)
	// GetTemplate loads a template with its steps regardless of its active
	// flag. Running instances keep executing after deactivation.
	GetTemplate(ctx context.Context, id string) (*model.WorkflowTemplate, error)

	CreateInstance(ctx context.Context, instance *model.WorkflowInstance) error
	GetInstance(ctx context.Context, id string) (*model.WorkflowInstance, error)
	UpdateInstanceStatus(ctx context.Context, id, status string, completedAt *time.Time) error
	UpdateInstanceContext(ctx context.Context, id string, contextData map[string]any) error

	CreateExecution(ctx context.Context, execution *model.WorkflowExecution) error
	GetExecution(ctx context.Context, id string) (*model.WorkflowExecution, error)
	ListExecutions(ctx context.Context, instanceID string) ([]model.WorkflowExecution, error)
	// CompleteExecution transitions an execution to completed. It must be a
	// no-op returning false when the execution is no longer running, so the
	// delay timer and the recovery sweep cannot both complete the same row.
	CompleteExecution(ctx context.Context, id string, output map[string]any) (bool, error)
	FailExecution(ctx context.Context, id, errorMessage string) error

	// ScheduleExecutionResume persists the resume-at mark of a pending DELAY
	// execution.
	ScheduleExecutionResume(ctx context.Context, id string, resumeAt time.Time) error
	// ListDueResumes returns running executions whose resume-at mark has
	// passed.
	ListDueResumes(ctx context.Context, now time.Time) ([]model.WorkflowExecution, error)
}

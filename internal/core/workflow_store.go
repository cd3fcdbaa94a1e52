package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/flowline/internal/engine"
	"github.com/edvin/flowline/internal/model"
)

// WorkflowStore is the Postgres implementation of engine.Store.
type WorkflowStore struct {
	db DB
}

func NewWorkflowStore(db DB) *WorkflowStore {
	return &WorkflowStore{db: db}
}

func (s *WorkflowStore) GetActiveTemplate(ctx context.Context, id string) (*model.WorkflowTemplate, error) {
	tpl, err := s.getTemplate(ctx, id, true)
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *WorkflowStore) GetTemplate(ctx context.Context, id string) (*model.WorkflowTemplate, error) {
	return s.getTemplate(ctx, id, false)
}

func (s *WorkflowStore) getTemplate(ctx context.Context, id string, activeOnly bool) (*model.WorkflowTemplate, error) {
	query := `SELECT id, tenant_id, name, category, version, is_active, created_at, updated_at
	          FROM workflow_templates WHERE id = $1`
	if activeOnly {
		query += ` AND is_active = true`
	}

	var t model.WorkflowTemplate
	err := s.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.TenantID, &t.Name, &t.Category, &t.Version, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, engine.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", id, err)
	}

	steps, err := s.listSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Steps = steps
	return &t, nil
}

func (s *WorkflowStore) listSteps(ctx context.Context, templateID string) ([]model.WorkflowStep, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, template_id, name, step_type, step_order, configuration, dependencies, is_required, timeout_minutes
		 FROM workflow_steps WHERE template_id = $1 ORDER BY step_order, id`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list steps for template %s: %w", templateID, err)
	}
	defer rows.Close()

	var steps []model.WorkflowStep
	for rows.Next() {
		var step model.WorkflowStep
		var configuration, dependencies []byte
		if err := rows.Scan(&step.ID, &step.TemplateID, &step.Name, &step.StepType, &step.Order,
			&configuration, &dependencies, &step.IsRequired, &step.TimeoutMinutes); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		if step.Configuration, err = unmarshalMap(configuration); err != nil {
			return nil, fmt.Errorf("step %s configuration: %w", step.ID, err)
		}
		if step.Dependencies, err = unmarshalStrings(dependencies); err != nil {
			return nil, fmt.Errorf("step %s dependencies: %w", step.ID, err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

func (s *WorkflowStore) CreateInstance(ctx context.Context, instance *model.WorkflowInstance) error {
	contextData, err := marshalJSON(instance.ContextData)
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO workflow_instances (id, template_id, tenant_id, context_data, status, triggered_by, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		instance.ID, instance.TemplateID, instance.TenantID, contextData,
		instance.Status, instance.TriggeredBy, instance.StartedAt)
	if err != nil {
		return fmt.Errorf("insert instance: %w", err)
	}
	return nil
}

func (s *WorkflowStore) GetInstance(ctx context.Context, id string) (*model.WorkflowInstance, error) {
	var i model.WorkflowInstance
	var contextData []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, template_id, tenant_id, context_data, status, triggered_by, started_at, completed_at
		 FROM workflow_instances WHERE id = $1`, id).Scan(
		&i.ID, &i.TemplateID, &i.TenantID, &contextData, &i.Status, &i.TriggeredBy, &i.StartedAt, &i.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("instance %s: %w", id, engine.ErrInstanceNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get instance %s: %w", id, err)
	}
	if i.ContextData, err = unmarshalMap(contextData); err != nil {
		return nil, fmt.Errorf("instance %s context: %w", id, err)
	}
	return &i, nil
}

func (s *WorkflowStore) UpdateInstanceStatus(ctx context.Context, id, status string, completedAt *time.Time) error {
	_, err := s.db.Exec(ctx,
		`UPDATE workflow_instances SET status = $1, completed_at = $2 WHERE id = $3`,
		status, completedAt, id)
	if err != nil {
		return fmt.Errorf("update instance %s status: %w", id, err)
	}
	return nil
}

func (s *WorkflowStore) UpdateInstanceContext(ctx context.Context, id string, contextData map[string]any) error {
	data, err := marshalJSON(contextData)
	if err != nil {
		return fmt.Errorf("update instance %s context: %w", id, err)
	}
	_, err = s.db.Exec(ctx,
		`UPDATE workflow_instances SET context_data = $1 WHERE id = $2`, data, id)
	if err != nil {
		return fmt.Errorf("update instance %s context: %w", id, err)
	}
	return nil
}

func (s *WorkflowStore) CreateExecution(ctx context.Context, execution *model.WorkflowExecution) error {
	output, err := marshalJSON(execution.Output)
	if err != nil {
		return fmt.Errorf("create execution: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO workflow_executions (id, instance_id, step_id, assigned_to, status, output, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		execution.ID, execution.InstanceID, execution.StepID, execution.AssignedTo,
		execution.Status, output, execution.StartedAt)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

const executionColumns = `id, instance_id, step_id, assigned_to, status, output, error_message,
	started_at, completed_at, failed_at, resume_at`

func scanExecution(row pgx.Row) (*model.WorkflowExecution, error) {
	var e model.WorkflowExecution
	var output []byte
	err := row.Scan(&e.ID, &e.InstanceID, &e.StepID, &e.AssignedTo, &e.Status, &output,
		&e.ErrorMessage, &e.StartedAt, &e.CompletedAt, &e.FailedAt, &e.ResumeAt)
	if err != nil {
		return nil, err
	}
	if e.Output, err = unmarshalMap(output); err != nil {
		return nil, fmt.Errorf("execution %s output: %w", e.ID, err)
	}
	return &e, nil
}

func (s *WorkflowStore) GetExecution(ctx context.Context, id string) (*model.WorkflowExecution, error) {
	execution, err := scanExecution(s.db.QueryRow(ctx,
		`SELECT `+executionColumns+` FROM workflow_executions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("execution %s: %w", id, engine.ErrExecutionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get execution %s: %w", id, err)
	}
	return execution, nil
}

func (s *WorkflowStore) ListExecutions(ctx context.Context, instanceID string) ([]model.WorkflowExecution, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+executionColumns+` FROM workflow_executions WHERE instance_id = $1 ORDER BY started_at, id`,
		instanceID)
	if err != nil {
		return nil, fmt.Errorf("list executions for instance %s: %w", instanceID, err)
	}
	defer rows.Close()

	var executions []model.WorkflowExecution
	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		executions = append(executions, *execution)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	return executions, nil
}

func (s *WorkflowStore) CompleteExecution(ctx context.Context, id string, output map[string]any) (bool, error) {
	data, err := marshalJSON(output)
	if err != nil {
		return false, fmt.Errorf("complete execution %s: %w", id, err)
	}
	// Guarded on status so a delay timer and the recovery sweep cannot both
	// complete the same execution.
	tag, err := s.db.Exec(ctx,
		`UPDATE workflow_executions SET status = $1, output = $2, completed_at = now(), resume_at = NULL
		 WHERE id = $3 AND status = $4`,
		model.ExecutionCompleted, data, id, model.ExecutionRunning)
	if err != nil {
		return false, fmt.Errorf("complete execution %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *WorkflowStore) FailExecution(ctx context.Context, id, errorMessage string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE workflow_executions SET status = $1, error_message = $2, failed_at = now(), resume_at = NULL
		 WHERE id = $3 AND status = $4`,
		model.ExecutionFailed, errorMessage, id, model.ExecutionRunning)
	if err != nil {
		return fmt.Errorf("fail execution %s: %w", id, err)
	}
	return nil
}

func (s *WorkflowStore) ScheduleExecutionResume(ctx context.Context, id string, resumeAt time.Time) error {
	_, err := s.db.Exec(ctx,
		`UPDATE workflow_executions SET resume_at = $1 WHERE id = $2`, resumeAt, id)
	if err != nil {
		return fmt.Errorf("schedule resume for execution %s: %w", id, err)
	}
	return nil
}

func (s *WorkflowStore) ListDueResumes(ctx context.Context, now time.Time) ([]model.WorkflowExecution, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+executionColumns+` FROM workflow_executions
		 WHERE status = $1 AND resume_at IS NOT NULL AND resume_at <= $2 ORDER BY resume_at`,
		model.ExecutionRunning, now)
	if err != nil {
		return nil, fmt.Errorf("list due resumes: %w", err)
	}
	defer rows.Close()

	var executions []model.WorkflowExecution
	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		executions = append(executions, *execution)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due resumes: %w", err)
	}
	return executions, nil
}

package core

import (
	"context"
	"fmt"

	"github.com/edvin/flowline/internal/model"
)

type InstanceService struct {
	db DB
}

func NewInstanceService(db DB) *InstanceService {
	return &InstanceService{db: db}
}

// InstanceWithExecutions is the read model the API returns: the instance
// together with its execution records.
type InstanceWithExecutions struct {
	model.WorkflowInstance
	Executions []model.WorkflowExecution `json:"executions"`
}

func (s *InstanceService) GetByID(ctx context.Context, id string) (*InstanceWithExecutions, error) {
	store := NewWorkflowStore(s.db)
	instance, err := store.GetInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	executions, err := store.ListExecutions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &InstanceWithExecutions{WorkflowInstance: *instance, Executions: executions}, nil
}

// List returns instances filtered by status and template, newest first, with
// cursor pagination.
func (s *InstanceService) List(ctx context.Context, status, templateID string, limit int, cursor string) ([]model.WorkflowInstance, bool, error) {
	query := `SELECT id, template_id, tenant_id, context_data, status, triggered_by, started_at, completed_at
	          FROM workflow_instances WHERE 1=1`
	args := []any{}
	argIdx := 1

	if status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, status)
		argIdx++
	}
	if templateID != "" {
		query += fmt.Sprintf(` AND template_id = $%d`, argIdx)
		args = append(args, templateID)
		argIdx++
	}
	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}
	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var instances []model.WorkflowInstance
	for rows.Next() {
		var i model.WorkflowInstance
		var contextData []byte
		if err := rows.Scan(&i.ID, &i.TemplateID, &i.TenantID, &contextData, &i.Status,
			&i.TriggeredBy, &i.StartedAt, &i.CompletedAt); err != nil {
			return nil, false, fmt.Errorf("scan instance: %w", err)
		}
		if i.ContextData, err = unmarshalMap(contextData); err != nil {
			return nil, false, fmt.Errorf("instance %s context: %w", i.ID, err)
		}
		instances = append(instances, i)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate instances: %w", err)
	}

	hasMore := len(instances) > limit
	if hasMore {
		instances = instances[:limit]
	}
	return instances, hasMore, nil
}

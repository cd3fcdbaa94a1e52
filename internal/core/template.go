package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/flowline/internal/engine"
	"github.com/edvin/flowline/internal/model"
)

type TemplateService struct {
	db DB
}

func NewTemplateService(db DB) *TemplateService {
	return &TemplateService{db: db}
}

// Create persists a template with its steps. The step dependency graph is
// validated up front: dangling references and cycles are authoring errors
// rejected at save time, not at execution time.
func (s *TemplateService) Create(ctx context.Context, template *model.WorkflowTemplate) error {
	if err := ValidateStepGraph(template.Steps); err != nil {
		return fmt.Errorf("create template: %w", err)
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO workflow_templates (id, tenant_id, name, category, version, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		template.ID, template.TenantID, template.Name, template.Category,
		template.Version, template.IsActive, template.CreatedAt, template.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}

	for i := range template.Steps {
		step := &template.Steps[i]
		configuration, err := marshalJSON(step.Configuration)
		if err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		dependencies, err := marshalJSON(step.Dependencies)
		if err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		_, err = s.db.Exec(ctx,
			`INSERT INTO workflow_steps (id, template_id, name, step_type, step_order, configuration, dependencies, is_required, timeout_minutes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			step.ID, template.ID, step.Name, step.StepType, step.Order,
			configuration, dependencies, step.IsRequired, step.TimeoutMinutes)
		if err != nil {
			return fmt.Errorf("insert step %s: %w", step.Name, err)
		}
	}
	return nil
}

func (s *TemplateService) GetByID(ctx context.Context, id string) (*model.WorkflowTemplate, error) {
	return NewWorkflowStore(s.db).GetTemplate(ctx, id)
}

func (s *TemplateService) List(ctx context.Context, tenantID string, limit int, cursor string) ([]model.WorkflowTemplate, bool, error) {
	query := `SELECT id, tenant_id, name, category, version, is_active, created_at, updated_at
	          FROM workflow_templates WHERE 1=1`
	args := []any{}
	argIdx := 1

	if tenantID != "" {
		query += fmt.Sprintf(` AND tenant_id = $%d`, argIdx)
		args = append(args, tenantID)
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
		return nil, false, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []model.WorkflowTemplate
	for rows.Next() {
		var t model.WorkflowTemplate
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Name, &t.Category, &t.Version,
			&t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate templates: %w", err)
	}

	hasMore := len(templates) > limit
	if hasMore {
		templates = templates[:limit]
	}
	return templates, hasMore, nil
}

// UpdateMetadata changes name and category and bumps the version. Steps are
// immutable once saved; a changed process is a new template.
func (s *TemplateService) UpdateMetadata(ctx context.Context, id, name, category string) (*model.WorkflowTemplate, error) {
	err := s.db.QueryRow(ctx,
		`UPDATE workflow_templates SET name = $1, category = $2, version = version + 1, updated_at = now()
		 WHERE id = $3 RETURNING version`,
		name, category, id).Scan(new(int))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, engine.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update template %s: %w", id, err)
	}
	return s.GetByID(ctx, id)
}

// Deactivate blocks new instances of the template. Running instances are
// unaffected.
func (s *TemplateService) Deactivate(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE workflow_templates SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate template %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("template %s: %w", id, engine.ErrTemplateNotFound)
	}
	return nil
}

// ValidateStepGraph checks that every dependency references a step in the
// same template and that the graph is acyclic (Kahn's algorithm).
func ValidateStepGraph(steps []model.WorkflowStep) error {
	ids := make(map[string]bool, len(steps))
	for i := range steps {
		ids[steps[i].ID] = true
	}

	indegree := make(map[string]int, len(steps))
	dependents := make(map[string][]string, len(steps))
	for i := range steps {
		step := &steps[i]
		for _, dep := range step.Dependencies {
			if dep == step.ID {
				return fmt.Errorf("step %q depends on itself: %w", step.Name, engine.ErrCyclicDependency)
			}
			if !ids[dep] {
				return fmt.Errorf("step %q depends on unknown step %q: %w", step.Name, dep, engine.ErrStepNotFound)
			}
			indegree[step.ID]++
			dependents[dep] = append(dependents[dep], step.ID)
		}
	}

	var queue []string
	for i := range steps {
		if indegree[steps[i].ID] == 0 {
			queue = append(queue, steps[i].ID)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, dependent := range dependents[id] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}
	if visited != len(steps) {
		return engine.ErrCyclicDependency
	}
	return nil
}

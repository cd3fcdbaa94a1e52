package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/edvin/flowline/internal/model"
)

// ErrTaskNotFound is returned when a task id does not resolve.
var ErrTaskNotFound = errors.New("task not found")

// TaskService implements engine.TaskStore and the task listing surface.
type TaskService struct {
	db DB
}

func NewTaskService(db DB) *TaskService {
	return &TaskService{db: db}
}

func (s *TaskService) CreateTask(ctx context.Context, task *model.Task) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO tasks (id, tenant_id, title, description, category, priority, assigned_to, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		task.ID, task.TenantID, task.Title, task.Description, task.Category,
		task.Priority, task.AssignedTo, task.Status, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *TaskService) AssignTask(ctx context.Context, taskID, userID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tasks SET assigned_to = $1, updated_at = now() WHERE id = $2`, userID, taskID)
	if err != nil {
		return fmt.Errorf("assign task %s: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
	}
	return nil
}

func (s *TaskService) List(ctx context.Context, tenantID string, limit int, cursor string) ([]model.Task, bool, error) {
	query := `SELECT id, tenant_id, title, description, category, priority, assigned_to, status, created_at, updated_at
	          FROM tasks WHERE 1=1`
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
		return nil, false, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Title, &t.Description, &t.Category,
			&t.Priority, &t.AssignedTo, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate tasks: %w", err)
	}

	hasMore := len(tasks) > limit
	if hasMore {
		tasks = tasks[:limit]
	}
	return tasks, hasMore, nil
}

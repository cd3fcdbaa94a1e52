package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/edvin/flowline/internal/model"
	"github.com/edvin/flowline/internal/platform"
)

// TaskCreationHandler creates an external task record. Title and description
// come from configuration with {{variable}} substitution against the instance
// context; the new task id is published to downstream steps via the output.
type TaskCreationHandler struct {
	tasks TaskStore
}

func NewTaskCreationHandler(tasks TaskStore) *TaskCreationHandler {
	return &TaskCreationHandler{tasks: tasks}
}

func (h *TaskCreationHandler) Execute(ctx context.Context, req *Request) (*Result, error) {
	cfg := req.Config()
	contextData := req.ContextData()

	title := ReplaceVariables(configString(cfg, "title"), contextData)
	if title == "" {
		title = req.Step.Name
	}

	now := time.Now()
	task := &model.Task{
		ID:          platform.NewID(),
		TenantID:    req.Instance.TenantID,
		Title:       title,
		Description: ReplaceVariables(configString(cfg, "description"), contextData),
		Category:    configString(cfg, "category"),
		Priority:    configString(cfg, "priority"),
		Status:      model.TaskOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.tasks.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return &Result{Output: map[string]any{"task_id": task.ID}}, nil
}

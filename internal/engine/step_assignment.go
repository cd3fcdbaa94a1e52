package engine

import (
	"context"
	"fmt"
)

// AssignmentHandler asks the assignment rule engine for an assignee and
// applies it to the referenced task. Finding nobody is a valid outcome: the
// step still completes, with assigned=false in its output.
type AssignmentHandler struct {
	assigner Assignee
	tasks    TaskStore
}

func NewAssignmentHandler(assigner Assignee, tasks TaskStore) *AssignmentHandler {
	return &AssignmentHandler{assigner: assigner, tasks: tasks}
}

func (h *AssignmentHandler) Execute(ctx context.Context, req *Request) (*Result, error) {
	cfg := req.Config()
	contextData := req.ContextData()

	user, err := h.assigner.FindBestAssignee(ctx, req.Instance.TenantID, contextData)
	if err != nil {
		return nil, fmt.Errorf("find assignee: %w", err)
	}
	if user == nil {
		return &Result{Output: map[string]any{"assigned": false}}, nil
	}

	taskRef := configString(cfg, "task_id")
	if taskRef == "" {
		taskRef = "{{task_id}}"
	}
	// An unresolved reference means no upstream step produced a task; the
	// assignee is still reported so downstream steps can use it.
	taskID := ReplaceVariables(taskRef, contextData)
	if taskID != "" && !variableToken.MatchString(taskID) {
		if err := h.tasks.AssignTask(ctx, taskID, user.ID); err != nil {
			return nil, fmt.Errorf("assign task %s: %w", taskID, err)
		}
	}

	return &Result{Output: map[string]any{"assigned": true, "assignee_id": user.ID}}, nil
}

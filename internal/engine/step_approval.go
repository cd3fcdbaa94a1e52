package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/edvin/flowline/internal/model"
	"github.com/edvin/flowline/internal/platform"
)

// ApprovalHandler raises an approval request referencing the execution and
// leaves it running. Completion is driven externally by the approval gate.
type ApprovalHandler struct {
	approvals ApprovalStore
}

func NewApprovalHandler(approvals ApprovalStore) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

func (h *ApprovalHandler) Execute(ctx context.Context, req *Request) (*Result, error) {
	cfg := req.Config()
	contextData := req.ContextData()

	approvers := make([]string, 0)
	for _, a := range configStringList(cfg, "approvers") {
		approvers = append(approvers, ReplaceVariables(a, contextData))
	}
	if len(approvers) == 0 {
		return nil, fmt.Errorf("approval step %q: no approvers configured", req.Step.Name)
	}

	title := ReplaceVariables(configString(cfg, "title"), contextData)
	if title == "" {
		title = req.Step.Name
	}
	priority := configString(cfg, "priority")
	if priority == "" {
		priority = "normal"
	}

	approval := &model.ApprovalRequest{
		ID:                platform.NewID(),
		ExecutionID:       req.Execution.ID,
		InstanceID:        req.Instance.ID,
		TenantID:          req.Instance.TenantID,
		Title:             title,
		EligibleApprovers: approvers,
		Decision:          model.DecisionPending,
		Priority:          priority,
		CreatedAt:         time.Now(),
	}
	if hours, ok := configNumber(cfg, "dueInHours"); ok && hours > 0 {
		due := time.Now().Add(time.Duration(hours * float64(time.Hour)))
		approval.DueDate = &due
	}

	if err := h.approvals.CreateApproval(ctx, approval); err != nil {
		return nil, fmt.Errorf("create approval request: %w", err)
	}

	return &Result{Pending: true}, nil
}

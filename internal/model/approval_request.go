package model

import "time"

// Approval decision constants.
const (
	DecisionPending   = "pending"
	DecisionApproved  = "approved"
	DecisionRejected  = "rejected"
	DecisionCancelled = "cancelled"
)

// ApprovalRequest is raised by an APPROVAL step's execution. Its resolution is
// the only way that execution can complete.
type ApprovalRequest struct {
	ID                string     `json:"id"`
	ExecutionID       string     `json:"execution_id"`
	InstanceID        string     `json:"instance_id"`
	TenantID          string     `json:"tenant_id"`
	Title             string     `json:"title"`
	EligibleApprovers []string   `json:"eligible_approvers"`
	Decision          string     `json:"decision"`
	Priority          string     `json:"priority"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	RespondedBy       *string    `json:"responded_by,omitempty"`
	ResponseText      *string    `json:"response_text,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

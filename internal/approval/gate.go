// Package approval resolves human-in-the-loop steps: an APPROVAL execution
// stays running until a decision arrives here, and only an approved decision
// re-enters the execution engine.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/edvin/flowline/internal/model"
)

var (
	ErrApprovalNotFound = errors.New("approval request not found")
	ErrAlreadyResolved  = errors.New("approval request already resolved")
	ErrNotEligible      = errors.New("responder is not an eligible approver")
	ErrInvalidDecision  = errors.New("decision must be approved or rejected")
)

var approvalsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "flowline_approvals_resolved_total",
	Help: "Total number of approval requests resolved by decision",
}, []string{"decision"})

// Store is the persistence boundary for approval requests.
type Store interface {
	GetApproval(ctx context.Context, id string) (*model.ApprovalRequest, error)
	// ResolveApproval records the decision; it must fail if the request is no
	// longer pending.
	ResolveApproval(ctx context.Context, id, decision, responderID, responseText string, resolvedAt time.Time) error
	UpdateApprovers(ctx context.Context, id string, approvers []string) error
}

// Advancer is the slice of the execution engine the gate re-enters.
type Advancer interface {
	CompleteExternal(ctx context.Context, executionID string, output map[string]any) error
	FailExternal(ctx context.Context, executionID, message string) error
}

type Gate struct {
	store  Store
	engine Advancer
	logger zerolog.Logger
}

func NewGate(store Store, engine Advancer, logger zerolog.Logger) *Gate {
	return &Gate{store: store, engine: engine, logger: logger}
}

// Respond records a decision on a pending approval. Approval completes the
// originating execution and resumes the graph; rejection fails it, and the
// required-step policy decides whether the instance fails with it.
func (g *Gate) Respond(ctx context.Context, approvalID, responderID, decision, responseText string) (*model.ApprovalRequest, error) {
	if decision != model.DecisionApproved && decision != model.DecisionRejected {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	a, err := g.store.GetApproval(ctx, approvalID)
	if err != nil {
		return nil, fmt.Errorf("respond to approval %s: %w", approvalID, err)
	}
	if a.Decision != model.DecisionPending {
		return nil, fmt.Errorf("approval %s: %w", approvalID, ErrAlreadyResolved)
	}
	if !contains(a.EligibleApprovers, responderID) {
		return nil, fmt.Errorf("approval %s: %w", approvalID, ErrNotEligible)
	}

	now := time.Now()
	if err := g.store.ResolveApproval(ctx, approvalID, decision, responderID, responseText, now); err != nil {
		return nil, fmt.Errorf("resolve approval %s: %w", approvalID, err)
	}
	approvalsResolved.WithLabelValues(decision).Inc()
	g.logger.Info().
		Str("approval_id", approvalID).
		Str("responder_id", responderID).
		Str("decision", decision).
		Msg("approval resolved")

	if decision == model.DecisionApproved {
		output := map[string]any{
			"approved":    true,
			"approved_by": responderID,
		}
		if responseText != "" {
			output["approval_response"] = responseText
		}
		if err := g.engine.CompleteExternal(ctx, a.ExecutionID, output); err != nil {
			return nil, fmt.Errorf("resume after approval %s: %w", approvalID, err)
		}
	} else {
		message := "approval rejected"
		if responseText != "" {
			message = "approval rejected: " + responseText
		}
		if err := g.engine.FailExternal(ctx, a.ExecutionID, message); err != nil {
			return nil, fmt.Errorf("record rejection of approval %s: %w", approvalID, err)
		}
	}

	return g.store.GetApproval(ctx, approvalID)
}

// BulkResult is the per-id outcome of a bulk respond call.
type BulkResult struct {
	ApprovalID string `json:"approval_id"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// BulkRespond applies the same decision to many approvals, best-effort:
// individual failures are reported per id and do not abort the batch.
func (g *Gate) BulkRespond(ctx context.Context, approvalIDs []string, responderID, decision, responseText string) []BulkResult {
	results := make([]BulkResult, 0, len(approvalIDs))
	for _, id := range approvalIDs {
		if _, err := g.Respond(ctx, id, responderID, decision, responseText); err != nil {
			results = append(results, BulkResult{ApprovalID: id, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{ApprovalID: id, OK: true})
	}
	return results
}

// Delegate transfers one approver's eligibility to another user. The decision
// state is untouched; only who may respond changes.
func (g *Gate) Delegate(ctx context.Context, approvalID, fromUserID, toUserID, reason string) (*model.ApprovalRequest, error) {
	a, err := g.store.GetApproval(ctx, approvalID)
	if err != nil {
		return nil, fmt.Errorf("delegate approval %s: %w", approvalID, err)
	}
	if a.Decision != model.DecisionPending {
		return nil, fmt.Errorf("approval %s: %w", approvalID, ErrAlreadyResolved)
	}
	if !contains(a.EligibleApprovers, fromUserID) {
		return nil, fmt.Errorf("approval %s: %w", approvalID, ErrNotEligible)
	}

	approvers := make([]string, 0, len(a.EligibleApprovers))
	for _, id := range a.EligibleApprovers {
		if id == fromUserID {
			id = toUserID
		}
		if !contains(approvers, id) {
			approvers = append(approvers, id)
		}
	}
	if err := g.store.UpdateApprovers(ctx, approvalID, approvers); err != nil {
		return nil, fmt.Errorf("delegate approval %s: %w", approvalID, err)
	}
	g.logger.Info().
		Str("approval_id", approvalID).
		Str("from", fromUserID).
		Str("to", toUserID).
		Str("reason", reason).
		Msg("approval delegated")

	return g.store.GetApproval(ctx, approvalID)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

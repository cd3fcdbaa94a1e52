package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/flowline/internal/approval"
	"github.com/edvin/flowline/internal/model"
)

// ApprovalService implements approval.Store and engine.ApprovalStore.
type ApprovalService struct {
	db DB
}

func NewApprovalService(db DB) *ApprovalService {
	return &ApprovalService{db: db}
}

const approvalColumns = `id, execution_id, instance_id, tenant_id, title, eligible_approvers,
	decision, priority, due_date, responded_by, response_text, created_at, resolved_at`

func scanApproval(row pgx.Row) (*model.ApprovalRequest, error) {
	var a model.ApprovalRequest
	var approvers []byte
	err := row.Scan(&a.ID, &a.ExecutionID, &a.InstanceID, &a.TenantID, &a.Title, &approvers,
		&a.Decision, &a.Priority, &a.DueDate, &a.RespondedBy, &a.ResponseText, &a.CreatedAt, &a.ResolvedAt)
	if err != nil {
		return nil, err
	}
	if a.EligibleApprovers, err = unmarshalStrings(approvers); err != nil {
		return nil, fmt.Errorf("approval %s approvers: %w", a.ID, err)
	}
	return &a, nil
}

func (s *ApprovalService) CreateApproval(ctx context.Context, a *model.ApprovalRequest) error {
	approvers, err := marshalJSON(a.EligibleApprovers)
	if err != nil {
		return fmt.Errorf("create approval: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO approval_requests (id, execution_id, instance_id, tenant_id, title, eligible_approvers, decision, priority, due_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.ExecutionID, a.InstanceID, a.TenantID, a.Title, approvers,
		a.Decision, a.Priority, a.DueDate, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

func (s *ApprovalService) GetApproval(ctx context.Context, id string) (*model.ApprovalRequest, error) {
	a, err := scanApproval(s.db.QueryRow(ctx,
		`SELECT `+approvalColumns+` FROM approval_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("approval %s: %w", id, approval.ErrApprovalNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get approval %s: %w", id, err)
	}
	return a, nil
}

func (s *ApprovalService) ResolveApproval(ctx context.Context, id, decision, responderID, responseText string, resolvedAt time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE approval_requests SET decision = $1, responded_by = $2, response_text = $3, resolved_at = $4
		 WHERE id = $5 AND decision = $6`,
		decision, responderID, responseText, resolvedAt, id, model.DecisionPending)
	if err != nil {
		return fmt.Errorf("resolve approval %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("approval %s: %w", id, approval.ErrAlreadyResolved)
	}
	return nil
}

func (s *ApprovalService) UpdateApprovers(ctx context.Context, id string, approvers []string) error {
	data, err := marshalJSON(approvers)
	if err != nil {
		return fmt.Errorf("update approvers for %s: %w", id, err)
	}
	_, err = s.db.Exec(ctx,
		`UPDATE approval_requests SET eligible_approvers = $1 WHERE id = $2`, data, id)
	if err != nil {
		return fmt.Errorf("update approvers for %s: %w", id, err)
	}
	return nil
}

// List returns approvals filtered by decision and, when approverID is set,
// to requests that user may respond to.
func (s *ApprovalService) List(ctx context.Context, approverID, decision string, limit int, cursor string) ([]model.ApprovalRequest, bool, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE 1=1`
	args := []any{}
	argIdx := 1

	if decision != "" {
		query += fmt.Sprintf(` AND decision = $%d`, argIdx)
		args = append(args, decision)
		argIdx++
	}
	if approverID != "" {
		query += fmt.Sprintf(` AND eligible_approvers @> $%d`, argIdx)
		approverJSON, err := marshalJSON([]string{approverID})
		if err != nil {
			return nil, false, err
		}
		args = append(args, approverJSON)
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
		return nil, false, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var approvals []model.ApprovalRequest
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan approval: %w", err)
		}
		approvals = append(approvals, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate approvals: %w", err)
	}

	hasMore := len(approvals) > limit
	if hasMore {
		approvals = approvals[:limit]
	}
	return approvals, hasMore, nil
}

package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/flowline/internal/model"
)

// ErrRuleNotFound is returned when an assignment rule id does not resolve.
var ErrRuleNotFound = errors.New("assignment rule not found")

// RuleService implements assign.Store and the assignment rule CRUD surface.
type RuleService struct {
	db DB
}

func NewRuleService(db DB) *RuleService {
	return &RuleService{db: db}
}

const ruleColumns = `id, tenant_id, name, priority, is_active, condition, assignment_logic, created_at, updated_at`

func scanRule(row pgx.Row) (*model.AssignmentRule, error) {
	var r model.AssignmentRule
	var logic []byte
	err := row.Scan(&r.ID, &r.TenantID, &r.Name, &r.Priority, &r.IsActive, &r.Condition,
		&logic, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalInto(logic, &r.Logic); err != nil {
		return nil, fmt.Errorf("rule %s logic: %w", r.ID, err)
	}
	return &r, nil
}

func (s *RuleService) Create(ctx context.Context, rule *model.AssignmentRule) error {
	logic, err := marshalJSON(rule.Logic)
	if err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO assignment_rules (id, tenant_id, name, priority, is_active, condition, assignment_logic, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rule.ID, rule.TenantID, rule.Name, rule.Priority, rule.IsActive, rule.Condition,
		logic, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

func (s *RuleService) GetByID(ctx context.Context, id string) (*model.AssignmentRule, error) {
	rule, err := scanRule(s.db.QueryRow(ctx,
		`SELECT `+ruleColumns+` FROM assignment_rules WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("rule %s: %w", id, ErrRuleNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get rule %s: %w", id, err)
	}
	return rule, nil
}

func (s *RuleService) Update(ctx context.Context, rule *model.AssignmentRule) error {
	logic, err := marshalJSON(rule.Logic)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE assignment_rules SET name = $1, priority = $2, is_active = $3, condition = $4, assignment_logic = $5, updated_at = now()
		 WHERE id = $6`,
		rule.Name, rule.Priority, rule.IsActive, rule.Condition, logic, rule.ID)
	if err != nil {
		return fmt.Errorf("update rule %s: %w", rule.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rule %s: %w", rule.ID, ErrRuleNotFound)
	}
	return nil
}

func (s *RuleService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM assignment_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rule %s: %w", id, ErrRuleNotFound)
	}
	return nil
}

func (s *RuleService) List(ctx context.Context, tenantID string, limit int, cursor string) ([]model.AssignmentRule, bool, error) {
	query := `SELECT ` + ruleColumns + ` FROM assignment_rules WHERE 1=1`
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
		return nil, false, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []model.AssignmentRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate rules: %w", err)
	}

	hasMore := len(rules) > limit
	if hasMore {
		rules = rules[:limit]
	}
	return rules, hasMore, nil
}

// ---------- assign.Store ----------

func (s *RuleService) ListActiveRules(ctx context.Context, tenantID string) ([]model.AssignmentRule, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+ruleColumns+` FROM assignment_rules
		 WHERE tenant_id = $1 AND is_active = true ORDER BY priority DESC, id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	defer rows.Close()

	var rules []model.AssignmentRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active rules: %w", err)
	}
	return rules, nil
}

func (s *RuleService) ListEligibleUsers(ctx context.Context, tenantID, department string) ([]model.User, error) {
	query := `SELECT id, tenant_id, name, email, department, skills, is_active, created_at
	          FROM users WHERE tenant_id = $1 AND is_active = true`
	args := []any{tenantID}
	if department != "" {
		query += ` AND department = $2`
		args = append(args, department)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list eligible users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var skills []byte
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &u.Department,
			&skills, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if u.Skills, err = unmarshalStrings(skills); err != nil {
			return nil, fmt.Errorf("user %s skills: %w", u.ID, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// AdvanceRuleCursor advances the round-robin cursor in a single statement so
// concurrent assignments never observe the same value.
func (s *RuleService) AdvanceRuleCursor(ctx context.Context, ruleID string, poolSize int) (int, error) {
	var cursor int
	err := s.db.QueryRow(ctx,
		`UPDATE assignment_rules
		 SET assignment_logic = jsonb_set(
		     assignment_logic,
		     '{last_assigned_index}',
		     to_jsonb((COALESCE((assignment_logic->>'last_assigned_index')::int, -1) + 1) % $2)
		 ),
		 updated_at = now()
		 WHERE id = $1
		 RETURNING (assignment_logic->>'last_assigned_index')::int`,
		ruleID, poolSize).Scan(&cursor)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("rule %s: %w", ruleID, ErrRuleNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("advance cursor for rule %s: %w", ruleID, err)
	}
	return cursor, nil
}

func (s *RuleService) CountOpenTasks(ctx context.Context, userIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(userIDs))
	for _, id := range userIDs {
		counts[id] = 0
	}
	rows, err := s.db.Query(ctx,
		`SELECT assigned_to, COUNT(*) FROM tasks
		 WHERE status = $1 AND assigned_to = ANY($2)
		 GROUP BY assigned_to`,
		model.TaskOpen, userIDs)
	if err != nil {
		return nil, fmt.Errorf("count open tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("scan task count: %w", err)
		}
		counts[userID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task counts: %w", err)
	}
	return counts, nil
}

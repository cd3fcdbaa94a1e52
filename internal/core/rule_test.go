package core

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/flowline/internal/model"
)

func scanRuleRow(id string, priority int, logic string) func(dest ...any) error {
	now := time.Now().Truncate(time.Microsecond)
	return func(dest ...any) error {
		*(dest[0].(*string)) = id
		*(dest[1].(*string)) = "tenant-1"
		*(dest[2].(*string)) = "Rule " + id
		*(dest[3].(*int)) = priority
		*(dest[4].(*bool)) = true
		*(dest[5].(*string)) = `category == "hr"`
		*(dest[6].(*[]byte)) = []byte(logic)
		*(dest[7].(*time.Time)) = now
		*(dest[8].(*time.Time)) = now
		return nil
	}
}

func TestRuleService_GetByID_ParsesLogic(t *testing.T) {
	db := &mockDB{}
	svc := NewRuleService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: scanRuleRow("rule-1", 10,
		`{"type":"SKILLS_BASED","required_skills":["gdpr","contracts"],"last_assigned_index":-1}`)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	rule, err := svc.GetByID(ctx, "rule-1")
	require.NoError(t, err)
	assert.Equal(t, model.StrategySkillsBased, rule.Logic.Type)
	assert.Equal(t, []string{"gdpr", "contracts"}, rule.Logic.RequiredSkills)
	assert.Equal(t, -1, rule.Logic.LastAssignedIndex)
	assert.Equal(t, `category == "hr"`, rule.Condition)
}

func TestRuleService_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewRuleService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := svc.GetByID(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestRuleService_Update_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewRuleService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	rule := &model.AssignmentRule{ID: "missing", Logic: model.AssignmentLogic{Type: model.StrategyRoundRobin}}
	err := svc.Update(ctx, rule)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestRuleService_Delete_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewRuleService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.NewCommandTag("DELETE 0"), nil)

	err := svc.Delete(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestRuleService_ListActiveRules(t *testing.T) {
	db := &mockDB{}
	svc := NewRuleService(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newMockRows(
		scanRuleRow("rule-high", 20, `{"type":"ROUND_ROBIN","last_assigned_index":2}`),
		scanRuleRow("rule-low", 0, `{"type":"WORKLOAD_BASED","last_assigned_index":-1}`),
	), nil)

	rules, err := svc.ListActiveRules(ctx, "tenant-1")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, model.StrategyRoundRobin, rules[0].Logic.Type)
	assert.Equal(t, 2, rules[0].Logic.LastAssignedIndex)
	assert.Equal(t, model.StrategyWorkloadBased, rules[1].Logic.Type)
}

func TestRuleService_AdvanceRuleCursor(t *testing.T) {
	db := &mockDB{}
	svc := NewRuleService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 1
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	cursor, err := svc.AdvanceRuleCursor(ctx, "rule-1", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, cursor)
}

func TestRuleService_AdvanceRuleCursor_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewRuleService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := svc.AdvanceRuleCursor(ctx, "missing", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

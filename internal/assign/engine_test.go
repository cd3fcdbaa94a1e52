package assign

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/flowline/internal/model"
)

// fakeStore implements Store over in-memory state, mirroring the Postgres
// implementation's atomic cursor advance.
type fakeStore struct {
	rules     []model.AssignmentRule
	users     []model.User
	cursors   map[string]int
	openTasks map[string]int

	usersErr  error
	cursorErr error
	tasksErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cursors:   make(map[string]int),
		openTasks: make(map[string]int),
	}
}

func (s *fakeStore) ListActiveRules(ctx context.Context, tenantID string) ([]model.AssignmentRule, error) {
	var out []model.AssignmentRule
	for _, rule := range s.rules {
		if rule.TenantID == tenantID && rule.IsActive {
			out = append(out, rule)
		}
	}
	// Priority-descending, as the SQL ORDER BY does.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Priority > out[i].Priority {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (s *fakeStore) ListEligibleUsers(ctx context.Context, tenantID, department string) ([]model.User, error) {
	if s.usersErr != nil {
		return nil, s.usersErr
	}
	var out []model.User
	for _, user := range s.users {
		if user.TenantID != tenantID || !user.IsActive {
			continue
		}
		if department != "" && user.Department != department {
			continue
		}
		out = append(out, user)
	}
	return out, nil
}

func (s *fakeStore) AdvanceRuleCursor(ctx context.Context, ruleID string, poolSize int) (int, error) {
	if s.cursorErr != nil {
		return 0, s.cursorErr
	}
	cursor, ok := s.cursors[ruleID]
	if !ok {
		cursor = -1
	}
	cursor = (cursor + 1) % poolSize
	s.cursors[ruleID] = cursor
	return cursor, nil
}

func (s *fakeStore) CountOpenTasks(ctx context.Context, userIDs []string) (map[string]int, error) {
	if s.tasksErr != nil {
		return nil, s.tasksErr
	}
	out := make(map[string]int, len(userIDs))
	for _, id := range userIDs {
		out[id] = s.openTasks[id]
	}
	return out, nil
}

func activeUser(id, department string, skills ...string) model.User {
	return model.User{
		ID:         id,
		TenantID:   "tenant-1",
		Name:       id,
		Email:      id + "@example.com",
		Department: department,
		Skills:     skills,
		IsActive:   true,
	}
}

func roundRobinRule(id string, priority int, condition string) model.AssignmentRule {
	return model.AssignmentRule{
		ID:        id,
		TenantID:  "tenant-1",
		Name:      id,
		Priority:  priority,
		IsActive:  true,
		Condition: condition,
		Logic:     model.AssignmentLogic{Type: model.StrategyRoundRobin, LastAssignedIndex: -1},
	}
}

// ---------- Round robin ----------

func TestFindBestAssignee_RoundRobinCycles(t *testing.T) {
	store := newFakeStore()
	store.rules = []model.AssignmentRule{roundRobinRule("rule-1", 10, "")}
	store.users = []model.User{
		activeUser("user-a", ""),
		activeUser("user-b", ""),
		activeUser("user-c", ""),
	}
	engine := New(store, zerolog.Nop())
	ctx := context.Background()

	var picked []string
	for i := 0; i < 7; i++ {
		user, err := engine.FindBestAssignee(ctx, "tenant-1", nil)
		require.NoError(t, err)
		require.NotNil(t, user)
		picked = append(picked, user.ID)
	}

	// Wraps around after the pool is exhausted.
	assert.Equal(t, []string{"user-a", "user-b", "user-c", "user-a", "user-b", "user-c", "user-a"}, picked)
}

func TestFindBestAssignee_RoundRobinSurvivesPoolShrink(t *testing.T) {
	store := newFakeStore()
	store.rules = []model.AssignmentRule{roundRobinRule("rule-1", 10, "")}
	store.users = []model.User{
		activeUser("user-a", ""),
		activeUser("user-b", ""),
		activeUser("user-c", ""),
	}
	engine := New(store, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := engine.FindBestAssignee(ctx, "tenant-1", nil)
		require.NoError(t, err)
	}

	// The pool shrinks below the persisted cursor; the modulo advance keeps
	// the next pick in range.
	store.users = store.users[:1]
	user, err := engine.FindBestAssignee(ctx, "tenant-1", nil)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user-a", user.ID)
}

// ---------- Rule selection ----------

func TestFindBestAssignee_PriorityOrder(t *testing.T) {
	store := newFakeStore()
	low := roundRobinRule("rule-low", 0, "")
	high := roundRobinRule("rule-high", 20, "")
	high.Logic.Department = "support"
	store.rules = []model.AssignmentRule{low, high}
	store.users = []model.User{
		activeUser("user-hr", "hr"),
		activeUser("user-support", "support"),
	}
	engine := New(store, zerolog.Nop())

	user, err := engine.FindBestAssignee(context.Background(), "tenant-1", nil)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user-support", user.ID)
}

func TestFindBestAssignee_ConditionFiltersRules(t *testing.T) {
	store := newFakeStore()
	hr := roundRobinRule("rule-hr", 20, `category == "hr"`)
	hr.Logic.Department = "hr"
	fallback := roundRobinRule("rule-any", 0, "")
	fallback.Logic.Department = "support"
	store.rules = []model.AssignmentRule{hr, fallback}
	store.users = []model.User{
		activeUser("user-hr", "hr"),
		activeUser("user-support", "support"),
	}
	engine := New(store, zerolog.Nop())
	ctx := context.Background()

	user, err := engine.FindBestAssignee(ctx, "tenant-1", map[string]any{"category": "hr"})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user-hr", user.ID)

	user, err = engine.FindBestAssignee(ctx, "tenant-1", map[string]any{"category": "billing"})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user-support", user.ID)
}

func TestFindBestAssignee_BrokenConditionSkipsRule(t *testing.T) {
	store := newFakeStore()
	broken := roundRobinRule("rule-broken", 20, `category == `)
	fallback := roundRobinRule("rule-any", 0, "")
	store.rules = []model.AssignmentRule{broken, fallback}
	store.users = []model.User{activeUser("user-a", "")}
	engine := New(store, zerolog.Nop())

	user, err := engine.FindBestAssignee(context.Background(), "tenant-1", nil)
	require.NoError(t, err)
	require.NotNil(t, user)
	// The unparseable rule is skipped, not fatal.
	assert.Equal(t, "user-a", user.ID)
}

func TestFindBestAssignee_NoMatchingRule(t *testing.T) {
	store := newFakeStore()
	store.rules = []model.AssignmentRule{roundRobinRule("rule-1", 10, `category == "hr"`)}
	store.users = []model.User{activeUser("user-a", "")}
	engine := New(store, zerolog.Nop())

	user, err := engine.FindBestAssignee(context.Background(), "tenant-1", map[string]any{"category": "it"})
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestFindBestAssignee_EmptyPoolFallsThrough(t *testing.T) {
	store := newFakeStore()
	scoped := roundRobinRule("rule-scoped", 20, "")
	scoped.Logic.Department = "legal"
	fallback := roundRobinRule("rule-any", 0, "")
	store.rules = []model.AssignmentRule{scoped, fallback}
	store.users = []model.User{activeUser("user-a", "support")}
	engine := New(store, zerolog.Nop())

	user, err := engine.FindBestAssignee(context.Background(), "tenant-1", nil)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user-a", user.ID)
}

func TestFindBestAssignee_UnknownStrategy(t *testing.T) {
	store := newFakeStore()
	rule := roundRobinRule("rule-1", 10, "")
	rule.Logic.Type = "RANDOM"
	store.rules = []model.AssignmentRule{rule}
	store.users = []model.User{activeUser("user-a", "")}
	engine := New(store, zerolog.Nop())

	_, err := engine.FindBestAssignee(context.Background(), "tenant-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown assignment strategy")
}

func TestFindBestAssignee_StoreError(t *testing.T) {
	store := newFakeStore()
	store.rules = []model.AssignmentRule{roundRobinRule("rule-1", 10, "")}
	store.usersErr = errors.New("connection refused")
	engine := New(store, zerolog.Nop())

	_, err := engine.FindBestAssignee(context.Background(), "tenant-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load user pool")
}

// ---------- Skills based ----------

func skillsRule(required ...string) model.AssignmentRule {
	return model.AssignmentRule{
		ID:       "rule-skills",
		TenantID: "tenant-1",
		Name:     "rule-skills",
		Priority: 10,
		IsActive: true,
		Logic:    model.AssignmentLogic{Type: model.StrategySkillsBased, RequiredSkills: required},
	}
}

func TestFindBestAssignee_SkillsBasedMatches(t *testing.T) {
	store := newFakeStore()
	store.rules = []model.AssignmentRule{skillsRule("contracts", "gdpr")}
	store.users = []model.User{
		activeUser("user-a", "", "contracts"),
		activeUser("user-b", "", "gdpr", "contracts", "litigation"),
		activeUser("user-c", "", "gdpr", "contracts"),
	}
	engine := New(store, zerolog.Nop())

	user, err := engine.FindBestAssignee(context.Background(), "tenant-1", nil)
	require.NoError(t, err)
	require.NotNil(t, user)
	// First user in pool order covering the whole required set.
	assert.Equal(t, "user-b", user.ID)
}

func TestFindBestAssignee_SkillsBasedNobodyQualifies(t *testing.T) {
	store := newFakeStore()
	store.rules = []model.AssignmentRule{skillsRule("kubernetes")}
	store.users = []model.User{activeUser("user-a", "", "contracts")}
	engine := New(store, zerolog.Nop())

	user, err := engine.FindBestAssignee(context.Background(), "tenant-1", nil)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestFindBestAssignee_SkillsBasedWithoutRequiredSkills(t *testing.T) {
	store := newFakeStore()
	store.rules = []model.AssignmentRule{skillsRule()}
	store.users = []model.User{
		activeUser("user-a", ""),
		activeUser("user-b", ""),
	}
	engine := New(store, zerolog.Nop())

	user, err := engine.FindBestAssignee(context.Background(), "tenant-1", nil)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user-a", user.ID)
}

// ---------- Workload based ----------

func workloadRule() model.AssignmentRule {
	return model.AssignmentRule{
		ID:       "rule-workload",
		TenantID: "tenant-1",
		Name:     "rule-workload",
		Priority: 10,
		IsActive: true,
		Logic:    model.AssignmentLogic{Type: model.StrategyWorkloadBased},
	}
}

func TestFindBestAssignee_WorkloadPicksLeastLoaded(t *testing.T) {
	store := newFakeStore()
	store.rules = []model.AssignmentRule{workloadRule()}
	store.users = []model.User{
		activeUser("user-a", ""),
		activeUser("user-b", ""),
		activeUser("user-c", ""),
	}
	store.openTasks = map[string]int{"user-a": 5, "user-b": 1, "user-c": 3}
	engine := New(store, zerolog.Nop())

	user, err := engine.FindBestAssignee(context.Background(), "tenant-1", nil)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user-b", user.ID)
}

func TestFindBestAssignee_WorkloadTieBreaksByID(t *testing.T) {
	store := newFakeStore()
	store.rules = []model.AssignmentRule{workloadRule()}
	store.users = []model.User{
		activeUser("user-b", ""),
		activeUser("user-a", ""),
	}
	store.openTasks = map[string]int{"user-a": 2, "user-b": 2}
	engine := New(store, zerolog.Nop())

	user, err := engine.FindBestAssignee(context.Background(), "tenant-1", nil)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user-a", user.ID)
}

func TestFindBestAssignee_WorkloadCountError(t *testing.T) {
	store := newFakeStore()
	store.rules = []model.AssignmentRule{workloadRule()}
	store.users = []model.User{activeUser("user-a", "")}
	store.tasksErr = errors.New("timeout")
	engine := New(store, zerolog.Nop())

	_, err := engine.FindBestAssignee(context.Background(), "tenant-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count open tasks")
}

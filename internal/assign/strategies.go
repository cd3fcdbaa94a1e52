package assign

import (
	"context"
	"fmt"
	"sort"

	"github.com/edvin/flowline/internal/model"
)

// roundRobin cycles through the eligible pool via the rule's persisted
// cursor. The per-rule lock plus the store's atomic advance make concurrent
// assignments pick distinct users instead of racing on a read-modify-write.
func (e *Engine) roundRobin(ctx context.Context, rule *model.AssignmentRule, pool []model.User) (*model.User, error) {
	mu := e.ruleLock(rule.ID)
	mu.Lock()
	defer mu.Unlock()

	cursor, err := e.store.AdvanceRuleCursor(ctx, rule.ID, len(pool))
	if err != nil {
		return nil, fmt.Errorf("advance round-robin cursor: %w", err)
	}
	if cursor < 0 || cursor >= len(pool) {
		return nil, fmt.Errorf("round-robin cursor %d out of range for pool of %d", cursor, len(pool))
	}
	return &pool[cursor], nil
}

// skillsBased matches users whose skills cover the rule's required set and
// returns the first match in pool order. The source system shipped this
// strategy as a stub returning the first eligible user; that behavior is kept
// for rules that declare no required skills, with a warning instead of a
// silent degrade.
func (e *Engine) skillsBased(ctx context.Context, rule *model.AssignmentRule, pool []model.User) (*model.User, error) {
	required := rule.Logic.RequiredSkills
	if len(required) == 0 {
		e.logger.Warn().
			Str("rule_id", rule.ID).
			Msg("skills-based rule declares no required skills, falling back to first eligible user")
		return &pool[0], nil
	}

	for i := range pool {
		if hasAllSkills(pool[i].Skills, required) {
			return &pool[i], nil
		}
	}
	return nil, nil
}

func hasAllSkills(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, s := range have {
		set[s] = true
	}
	for _, s := range want {
		if !set[s] {
			return false
		}
	}
	return true
}

// workloadBased picks the user with the fewest open tasks, tie-breaking by
// user id so the choice is deterministic.
func (e *Engine) workloadBased(ctx context.Context, rule *model.AssignmentRule, pool []model.User) (*model.User, error) {
	ids := make([]string, len(pool))
	for i := range pool {
		ids[i] = pool[i].ID
	}
	counts, err := e.store.CountOpenTasks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count open tasks: %w", err)
	}

	sorted := make([]model.User, len(pool))
	copy(sorted, pool)
	sort.Slice(sorted, func(i, j int) bool {
		ci, cj := counts[sorted[i].ID], counts[sorted[j].ID]
		if ci != cj {
			return ci < cj
		}
		return sorted[i].ID < sorted[j].ID
	})
	return &sorted[0], nil
}

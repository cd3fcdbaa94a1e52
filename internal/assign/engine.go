// Package assign selects a responsible user for a piece of work by walking a
// tenant's prioritized assignment rules through interchangeable strategies.
package assign

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/edvin/flowline/internal/expr"
	"github.com/edvin/flowline/internal/model"
)

type strategyFunc func(ctx context.Context, rule *model.AssignmentRule, pool []model.User) (*model.User, error)

type Engine struct {
	store  Store
	logger zerolog.Logger

	strategies map[string]strategyFunc

	// ruleLocks serializes in-process round-robin advances per rule. The
	// store's single-statement cursor advance covers cross-process callers.
	locksMu   sync.Mutex
	ruleLocks map[string]*sync.Mutex
}

func New(store Store, logger zerolog.Logger) *Engine {
	e := &Engine{
		store:     store,
		logger:    logger,
		ruleLocks: make(map[string]*sync.Mutex),
	}
	e.strategies = map[string]strategyFunc{
		model.StrategyRoundRobin:    e.roundRobin,
		model.StrategySkillsBased:   e.skillsBased,
		model.StrategyWorkloadBased: e.workloadBased,
	}
	return e
}

// FindBestAssignee walks the tenant's active rules in priority-descending
// order and returns the first user a matching rule yields. A nil user with a
// nil error means no rule matched — a valid outcome, not a failure.
func (e *Engine) FindBestAssignee(ctx context.Context, tenantID string, contextData map[string]any) (*model.User, error) {
	rules, err := e.store.ListActiveRules(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list assignment rules: %w", err)
	}

	for i := range rules {
		rule := &rules[i]
		if rule.Condition != "" {
			matched, err := expr.Evaluate(rule.Condition, contextData)
			if err != nil {
				e.logger.Warn().Err(err).Str("rule_id", rule.ID).Msg("assignment rule condition failed to evaluate, skipping")
				continue
			}
			if !matched {
				continue
			}
		}

		user, err := e.applyRule(ctx, rule)
		if err != nil {
			return nil, fmt.Errorf("apply rule %s: %w", rule.ID, err)
		}
		if user != nil {
			e.logger.Debug().
				Str("rule_id", rule.ID).
				Str("strategy", rule.Logic.Type).
				Str("user_id", user.ID).
				Msg("assignee selected")
			return user, nil
		}
	}
	return nil, nil
}

func (e *Engine) applyRule(ctx context.Context, rule *model.AssignmentRule) (*model.User, error) {
	strategy, ok := e.strategies[rule.Logic.Type]
	if !ok {
		return nil, fmt.Errorf("unknown assignment strategy %q", rule.Logic.Type)
	}

	pool, err := e.store.ListEligibleUsers(ctx, rule.TenantID, rule.Logic.Department)
	if err != nil {
		return nil, fmt.Errorf("load user pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, nil
	}
	return strategy(ctx, rule, pool)
}

func (e *Engine) ruleLock(ruleID string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	mu, ok := e.ruleLocks[ruleID]
	if !ok {
		mu = &sync.Mutex{}
		e.ruleLocks[ruleID] = mu
	}
	return mu
}

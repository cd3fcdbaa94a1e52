package assign

import (
	"context"

	"github.com/edvin/flowline/internal/model"
)

// Store is the persistence boundary for assignment rules and user pools.
type Store interface {
	// ListActiveRules returns the tenant's active rules in priority-descending
	// order.
	ListActiveRules(ctx context.Context, tenantID string) ([]model.AssignmentRule, error)
	// ListEligibleUsers returns active users for the tenant (optionally
	// scoped to a department) ordered by creation time, so round-robin walks
	// a stable pool.
	ListEligibleUsers(ctx context.Context, tenantID, department string) ([]model.User, error)
	// AdvanceRuleCursor atomically advances the rule's round-robin cursor to
	// (cursor+1) mod poolSize and returns the new value. The advance must
	// happen in a single statement so concurrent callers cannot observe the
	// same cursor.
	AdvanceRuleCursor(ctx context.Context, ruleID string, poolSize int) (int, error)
	// CountOpenTasks returns the number of open tasks per user id.
	CountOpenTasks(ctx context.Context, userIDs []string) (map[string]int, error)
}

package model

import "time"

// Assignment strategy discriminators.
const (
	StrategyRoundRobin    = "ROUND_ROBIN"
	StrategySkillsBased   = "SKILLS_BASED"
	StrategyWorkloadBased = "WORKLOAD_BASED"
)

// AssignmentLogic selects and parameterizes an assignment strategy.
type AssignmentLogic struct {
	Type string `json:"type"`
	// Department scopes the eligible user pool; empty means the whole tenant.
	Department string `json:"department,omitempty"`
	// RequiredSkills is consulted by SKILLS_BASED only.
	RequiredSkills []string `json:"required_skills,omitempty"`
	// LastAssignedIndex is the persisted ROUND_ROBIN cursor. Advanced
	// atomically by the store; never read-modify-written across statements.
	LastAssignedIndex int `json:"last_assigned_index"`
}

// AssignmentRule is a tenant-scoped policy for picking a responsible user.
// Rules are evaluated in priority-descending order until one yields a user.
type AssignmentRule struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Name      string          `json:"name"`
	Priority  int             `json:"priority"`
	IsActive  bool            `json:"is_active"`
	Condition string          `json:"condition,omitempty"`
	Logic     AssignmentLogic `json:"assignment_logic"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

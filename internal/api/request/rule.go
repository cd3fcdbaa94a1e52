package request

type AssignmentLogic struct {
	Type           string   `json:"type" validate:"required,oneof=ROUND_ROBIN SKILLS_BASED WORKLOAD_BASED"`
	Department     string   `json:"department"`
	RequiredSkills []string `json:"required_skills"`
}

type CreateRule struct {
	TenantID  string          `json:"tenant_id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Priority  int             `json:"priority"`
	IsActive  *bool           `json:"is_active"`
	Condition string          `json:"condition"`
	Logic     AssignmentLogic `json:"assignment_logic" validate:"required"`
}

type UpdateRule struct {
	Name      string           `json:"name"`
	Priority  *int             `json:"priority"`
	IsActive  *bool            `json:"is_active"`
	Condition *string          `json:"condition"`
	Logic     *AssignmentLogic `json:"assignment_logic"`
}

// AutoAssign asks the rule engine for the best assignee given a task
// descriptor. The descriptor becomes the condition evaluation context.
type AutoAssign struct {
	TenantID string         `json:"tenant_id" validate:"required"`
	Task     map[string]any `json:"task" validate:"required"`
}

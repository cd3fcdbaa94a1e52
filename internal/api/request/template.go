package request

// CreateTemplateStep describes one step of a template being created.
// IDs are client-chosen and referenced by Dependencies of sibling steps.
type CreateTemplateStep struct {
	ID             string         `json:"id" validate:"required"`
	Name           string         `json:"name" validate:"required"`
	StepType       string         `json:"step_type" validate:"required,step_type"`
	Order          int            `json:"order" validate:"gte=0"`
	Configuration  map[string]any `json:"configuration"`
	Dependencies   []string       `json:"dependencies"`
	IsRequired     *bool          `json:"is_required"`
	TimeoutMinutes *int           `json:"timeout_minutes" validate:"omitempty,gt=0"`
}

type CreateTemplate struct {
	TenantID string               `json:"tenant_id" validate:"required"`
	Name     string               `json:"name" validate:"required"`
	Category string               `json:"category"`
	Steps    []CreateTemplateStep `json:"steps" validate:"required,min=1,dive"`
}

// UpdateTemplate touches metadata only. Steps are immutable once created;
// publish a new template to change the graph.
type UpdateTemplate struct {
	Name     string `json:"name" validate:"required"`
	Category string `json:"category"`
}

package model

import "time"

// Step type discriminators. A step's type selects its handler; the set is
// closed and adding a type means registering a new handler.
const (
	StepTaskCreation = "TASK_CREATION"
	StepApproval     = "APPROVAL"
	StepNotification = "NOTIFICATION"
	StepAssignment   = "ASSIGNMENT"
	StepCondition    = "CONDITION"
	StepDelay        = "DELAY"
	StepEmail        = "EMAIL"
	StepDataUpdate   = "DATA_UPDATE"
)

// StepTypes lists every known step type, in display order.
var StepTypes = []string{
	StepTaskCreation,
	StepApproval,
	StepNotification,
	StepAssignment,
	StepCondition,
	StepDelay,
	StepEmail,
	StepDataUpdate,
}

type WorkflowTemplate struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenant_id"`
	Name      string         `json:"name"`
	Category  string         `json:"category"`
	Version   int            `json:"version"`
	IsActive  bool           `json:"is_active"`
	Steps     []WorkflowStep `json:"steps,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// WorkflowStep belongs to exactly one template. Order is a display and
// tie-break field only; execution order is driven by Dependencies.
type WorkflowStep struct {
	ID             string         `json:"id"`
	TemplateID     string         `json:"template_id"`
	Name           string         `json:"name"`
	StepType       string         `json:"step_type"`
	Order          int            `json:"order"`
	Configuration  map[string]any `json:"configuration,omitempty"`
	Dependencies   []string       `json:"dependencies,omitempty"`
	IsRequired     bool           `json:"is_required"`
	TimeoutMinutes *int           `json:"timeout_minutes,omitempty"`
}

// StepByID returns the step with the given id, or nil.
func (t *WorkflowTemplate) StepByID(id string) *WorkflowStep {
	for i := range t.Steps {
		if t.Steps[i].ID == id {
			return &t.Steps[i]
		}
	}
	return nil
}

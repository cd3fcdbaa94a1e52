package request

type StartInstance struct {
	Context     map[string]any `json:"context"`
	TriggeredBy string         `json:"triggered_by" validate:"required"`
}

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/edvin/flowline/internal/model"
)

// Request carries everything a step handler may read: the instance (and its
// context data), the owning template, the step with its configuration, and
// the in-flight execution record.
type Request struct {
	Instance  *model.WorkflowInstance
	Template  *model.WorkflowTemplate
	Step      *model.WorkflowStep
	Execution *model.WorkflowExecution
}

// Config returns the step's configuration map, never nil.
func (r *Request) Config() map[string]any {
	if r.Step.Configuration == nil {
		return map[string]any{}
	}
	return r.Step.Configuration
}

// ContextData returns the instance's context data, never nil.
func (r *Request) ContextData() map[string]any {
	if r.Instance.ContextData == nil {
		return map[string]any{}
	}
	return r.Instance.ContextData
}

// Result is a handler's outcome. Output is merged into the instance context
// once the execution completes.
type Result struct {
	Output map[string]any
	// Pending leaves the execution running; completion arrives externally
	// (approval decision) or at ResumeAt (delay).
	Pending bool
	// ResumeAt asks the engine to complete this execution after the given
	// time. Only meaningful together with Pending.
	ResumeAt *time.Time
}

// StepHandler performs one step type's side effect.
type StepHandler interface {
	Execute(ctx context.Context, req *Request) (*Result, error)
}

// Registry maps step types to their handlers. The set of types is closed;
// dispatch on an unregistered type fails the execution with
// ErrUnknownStepType.
type Registry struct {
	handlers map[string]StepHandler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]StepHandler)}
}

func (r *Registry) Register(stepType string, h StepHandler) {
	r.handlers[stepType] = h
}

func (r *Registry) Handler(stepType string) (StepHandler, error) {
	h, ok := r.handlers[stepType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStepType, stepType)
	}
	return h, nil
}

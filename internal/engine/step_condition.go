package engine

import (
	"context"
	"fmt"

	"github.com/edvin/flowline/internal/expr"
)

// ConditionHandler evaluates a boolean expression against the instance
// context. A false result is a handler failure, which fails the execution and
// blocks every step depending on it.
type ConditionHandler struct{}

func NewConditionHandler() *ConditionHandler {
	return &ConditionHandler{}
}

func (h *ConditionHandler) Execute(ctx context.Context, req *Request) (*Result, error) {
	expression := configString(req.Config(), "expression")
	if expression == "" {
		return nil, fmt.Errorf("condition step %q: no expression configured", req.Step.Name)
	}

	ok, err := expr.Evaluate(expression, req.ContextData())
	if err != nil {
		return nil, fmt.Errorf("condition step %q: %w", req.Step.Name, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConditionNotMet, expression)
	}

	return &Result{Output: map[string]any{"condition": true}}, nil
}

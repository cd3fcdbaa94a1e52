package engine

import (
	"context"
	"time"
)

// DelayHandler pauses a branch for delayMinutes. A zero or missing delay
// completes immediately in the same call chain; otherwise the execution stays
// running with a persisted resume-at mark, completed later by the engine's
// timer or recovery sweep.
type DelayHandler struct{}

func NewDelayHandler() *DelayHandler {
	return &DelayHandler{}
}

func (h *DelayHandler) Execute(ctx context.Context, req *Request) (*Result, error) {
	minutes, _ := configNumber(req.Config(), "delayMinutes")
	if minutes <= 0 {
		return &Result{Output: map[string]any{"delayed_minutes": 0}}, nil
	}

	resumeAt := time.Now().Add(time.Duration(minutes * float64(time.Minute)))
	return &Result{Pending: true, ResumeAt: &resumeAt}, nil
}

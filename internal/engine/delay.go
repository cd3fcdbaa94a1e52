package engine

import (
	"context"
	"time"

	"github.com/edvin/flowline/internal/model"
)

// scheduleTimer arms an in-process timer for a pending delay. The persisted
// resume-at mark is authoritative; the timer is just the low-latency path and
// the recovery sweep picks up anything a dead process left behind.
func (e *Engine) scheduleTimer(executionID string, resumeAt time.Time) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	if t, ok := e.timers[executionID]; ok {
		t.Stop()
	}
	e.timers[executionID] = time.AfterFunc(time.Until(resumeAt), func() {
		e.timersMu.Lock()
		delete(e.timers, executionID)
		e.timersMu.Unlock()
		e.resumeDelay(context.Background(), executionID)
	})
}

// resumeDelay completes a due DELAY execution and advances the graph. It
// re-checks both the execution and the instance: a cancelled or failed
// instance must not advance because a stale timer fired.
func (e *Engine) resumeDelay(ctx context.Context, executionID string) {
	execution, err := e.store.GetExecution(ctx, executionID)
	if err != nil {
		e.logger.Error().Err(err).Str("execution_id", executionID).Msg("delay resume: load execution failed")
		return
	}
	if execution.Status != model.ExecutionRunning || execution.ResumeAt == nil {
		return
	}
	instance, err := e.store.GetInstance(ctx, execution.InstanceID)
	if err != nil {
		e.logger.Error().Err(err).Str("execution_id", executionID).Msg("delay resume: load instance failed")
		return
	}
	if instance.Status != model.InstanceRunning {
		e.logger.Debug().
			Str("instance_id", instance.ID).
			Str("status", instance.Status).
			Msg("delay resume skipped: instance no longer running")
		return
	}

	if err := e.completeExecution(ctx, instance, executionID, map[string]any{
		"resumed_at": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		e.logger.Error().Err(err).Str("execution_id", executionID).Msg("delay resume: complete failed")
		return
	}
	stepsExecuted.WithLabelValues(model.StepDelay, "completed").Inc()
	if err := e.Advance(ctx, execution.InstanceID); err != nil {
		e.logger.Error().Err(err).Str("instance_id", execution.InstanceID).Msg("delay resume: advance failed")
	}
}

// Run operates the delay recovery sweep until ctx is cancelled. The first
// sweep runs immediately so delays pending across a restart resume on
// startup.
func (e *Engine) Run(ctx context.Context) error {
	e.sweep(ctx)
	ticker := time.NewTicker(e.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			e.stopTimers()
			return ctx.Err()
		case <-ticker.C:
			e.sweep(ctx)
		}
	}
}

func (e *Engine) sweep(ctx context.Context) {
	due, err := e.store.ListDueResumes(ctx, time.Now())
	if err != nil {
		e.logger.Error().Err(err).Msg("delay sweep failed")
		return
	}
	for _, execution := range due {
		e.resumeDelay(ctx, execution.ID)
	}
}

func (e *Engine) stopTimers() {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
}

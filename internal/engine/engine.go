// Package engine drives workflow instances through their template's step
// graph. Advancement is synchronous: starting an instance or resolving an
// approval executes every newly unblocked step before returning. The only
// asynchronous re-entries are delay resumes, which re-check instance status
// before advancing.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/flowline/internal/model"
	"github.com/edvin/flowline/internal/platform"
)

const (
	defaultStepTimeout   = 10 * time.Minute
	defaultSweepInterval = 30 * time.Second
)

type Engine struct {
	store    Store
	registry *Registry
	logger   zerolog.Logger

	stepTimeout   time.Duration
	sweepInterval time.Duration

	// Per-instance advance locks: delay resumes and approval decisions may
	// re-enter an instance concurrently with the call chain that started it.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

type Option func(*Engine)

// WithStepTimeout overrides the default per-step execution deadline. A step's
// own timeoutMinutes still takes precedence.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Engine) { e.stepTimeout = d }
}

// WithSweepInterval overrides how often the delay recovery sweep runs.
func WithSweepInterval(d time.Duration) Option {
	return func(e *Engine) { e.sweepInterval = d }
}

func New(store Store, registry *Registry, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		registry:      registry,
		logger:        logger,
		stepTimeout:   defaultStepTimeout,
		sweepInterval: defaultSweepInterval,
		locks:         make(map[string]*sync.Mutex),
		timers:        make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) instanceLock(instanceID string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	mu, ok := e.locks[instanceID]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[instanceID] = mu
	}
	return mu
}

// StartInstance creates an instance of an active template and synchronously
// executes every step reachable without an external wait. The returned
// instance reflects the status after that advancement, so a trivially
// completable template comes back already completed.
func (e *Engine) StartInstance(ctx context.Context, templateID string, contextData map[string]any, triggeredBy string) (*model.WorkflowInstance, error) {
	tpl, err := e.store.GetActiveTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("start instance: %w", err)
	}

	instance := &model.WorkflowInstance{
		ID:          platform.NewID(),
		TemplateID:  tpl.ID,
		TenantID:    tpl.TenantID,
		ContextData: contextData,
		Status:      model.InstanceRunning,
		TriggeredBy: triggeredBy,
		StartedAt:   time.Now(),
	}
	if err := e.store.CreateInstance(ctx, instance); err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	instancesStarted.Inc()
	e.logger.Info().
		Str("instance_id", instance.ID).
		Str("template_id", tpl.ID).
		Str("triggered_by", triggeredBy).
		Msg("workflow instance started")

	if err := e.Advance(ctx, instance.ID); err != nil {
		return nil, err
	}
	return e.store.GetInstance(ctx, instance.ID)
}

// ExecuteStep runs a single step for an instance. It is the defensive entry
// point: the engine itself only schedules steps whose dependencies completed,
// so ErrDependencyNotSatisfied here means the caller jumped the graph. On
// synchronous completion the graph advances before returning.
func (e *Engine) ExecuteStep(ctx context.Context, instanceID, stepID string, assignedTo *string) (*model.WorkflowExecution, error) {
	instance, err := e.store.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("execute step: %w", err)
	}
	tpl, err := e.store.GetTemplate(ctx, instance.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("execute step: %w", err)
	}
	step := tpl.StepByID(stepID)
	if step == nil {
		return nil, fmt.Errorf("execute step %s: %w", stepID, ErrStepNotFound)
	}

	executions, err := e.store.ListExecutions(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("execute step: %w", err)
	}
	byStep := executionsByStep(executions)
	if existing, ok := byStep[stepID]; ok {
		// At most one execution per (instance, step).
		return existing, nil
	}
	for _, dep := range step.Dependencies {
		depExec, ok := byStep[dep]
		if !ok || depExec.Status != model.ExecutionCompleted {
			return nil, fmt.Errorf("step %s dependency %s: %w", stepID, dep, ErrDependencyNotSatisfied)
		}
	}

	execution, _ := e.runStep(ctx, instance, tpl, step, assignedTo)
	if err := e.Advance(ctx, instanceID); err != nil {
		return execution, err
	}
	return e.store.GetExecution(ctx, execution.ID)
}

// Advance re-scans the instance's step graph and executes every step whose
// dependencies are now satisfied, repeating until no step is eligible, then
// checks for completion. Safe to call from any re-entry point; it no-ops
// unless the instance is running.
func (e *Engine) Advance(ctx context.Context, instanceID string) error {
	mu := e.instanceLock(instanceID)
	mu.Lock()
	defer mu.Unlock()

	for {
		instance, err := e.store.GetInstance(ctx, instanceID)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		if instance.Status != model.InstanceRunning {
			return nil
		}
		tpl, err := e.store.GetTemplate(ctx, instance.TemplateID)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		executions, err := e.store.ListExecutions(ctx, instanceID)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		byStep := executionsByStep(executions)

		eligible := eligibleSteps(tpl, byStep)
		if len(eligible) == 0 {
			return e.checkCompletion(ctx, instance, tpl, byStep)
		}

		progressed := false
		for _, step := range eligible {
			instance, err = e.store.GetInstance(ctx, instanceID)
			if err != nil {
				return fmt.Errorf("advance: %w", err)
			}
			if instance.Status != model.InstanceRunning {
				return nil
			}
			if _, completed := e.runStep(ctx, instance, tpl, step, nil); completed {
				progressed = true
			}
		}
		if !progressed {
			// Every eligible step is now pending or failed; nothing further
			// unblocks until an external decision or resume arrives.
			executions, err = e.store.ListExecutions(ctx, instanceID)
			if err != nil {
				return fmt.Errorf("advance: %w", err)
			}
			instance, err = e.store.GetInstance(ctx, instanceID)
			if err != nil {
				return fmt.Errorf("advance: %w", err)
			}
			if instance.Status != model.InstanceRunning {
				return nil
			}
			return e.checkCompletion(ctx, instance, tpl, executionsByStep(executions))
		}
	}
}

// eligibleSteps returns steps without an execution whose dependencies all
// completed, ordered by the step's declared order (id as secondary key).
// Eligible steps are independent by construction, so the ordering affects
// only the sequence of side effects.
func eligibleSteps(tpl *model.WorkflowTemplate, byStep map[string]*model.WorkflowExecution) []*model.WorkflowStep {
	var eligible []*model.WorkflowStep
	for i := range tpl.Steps {
		step := &tpl.Steps[i]
		if _, ok := byStep[step.ID]; ok {
			continue
		}
		satisfied := true
		for _, dep := range step.Dependencies {
			depExec, ok := byStep[dep]
			if !ok || depExec.Status != model.ExecutionCompleted {
				satisfied = false
				break
			}
		}
		if satisfied {
			eligible = append(eligible, step)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Order != eligible[j].Order {
			return eligible[i].Order < eligible[j].Order
		}
		return eligible[i].ID < eligible[j].ID
	})
	return eligible
}

// runStep creates the execution record, dispatches to the step's handler and
// records the outcome. Handler failures are recorded on the execution, never
// re-raised: independent branches keep progressing. A failed required step
// fails the whole instance. Returns true when the execution completed
// synchronously.
func (e *Engine) runStep(ctx context.Context, instance *model.WorkflowInstance, tpl *model.WorkflowTemplate, step *model.WorkflowStep, assignedTo *string) (*model.WorkflowExecution, bool) {
	execution := &model.WorkflowExecution{
		ID:         platform.NewID(),
		InstanceID: instance.ID,
		StepID:     step.ID,
		AssignedTo: assignedTo,
		Status:     model.ExecutionRunning,
		StartedAt:  time.Now(),
	}
	if err := e.store.CreateExecution(ctx, execution); err != nil {
		e.logger.Error().Err(err).Str("instance_id", instance.ID).Str("step_id", step.ID).Msg("create execution failed")
		return execution, false
	}

	handler, err := e.registry.Handler(step.StepType)
	if err != nil {
		e.recordFailure(ctx, instance, step, execution, err)
		return execution, false
	}

	timeout := e.stepTimeout
	if step.TimeoutMinutes != nil && *step.TimeoutMinutes > 0 {
		timeout = time.Duration(*step.TimeoutMinutes) * time.Minute
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	result, err := handler.Execute(stepCtx, &Request{
		Instance:  instance,
		Template:  tpl,
		Step:      step,
		Execution: execution,
	})
	stepDuration.WithLabelValues(step.StepType).Observe(time.Since(started).Seconds())

	if err != nil {
		e.recordFailure(ctx, instance, step, execution, err)
		return execution, false
	}

	if result.Pending {
		if result.ResumeAt != nil {
			if err := e.store.ScheduleExecutionResume(ctx, execution.ID, *result.ResumeAt); err != nil {
				e.recordFailure(ctx, instance, step, execution, fmt.Errorf("schedule resume: %w", err))
				return execution, false
			}
			e.scheduleTimer(execution.ID, *result.ResumeAt)
		}
		stepsExecuted.WithLabelValues(step.StepType, "pending").Inc()
		e.logger.Debug().
			Str("instance_id", instance.ID).
			Str("step", step.Name).
			Str("step_type", step.StepType).
			Msg("step pending external completion")
		return execution, false
	}

	if err := e.completeExecution(ctx, instance, execution.ID, result.Output); err != nil {
		e.logger.Error().Err(err).Str("execution_id", execution.ID).Msg("complete execution failed")
		return execution, false
	}
	stepsExecuted.WithLabelValues(step.StepType, "completed").Inc()
	return execution, true
}

// completeExecution marks an execution completed and merges its output into
// the instance context so downstream steps can reference it.
func (e *Engine) completeExecution(ctx context.Context, instance *model.WorkflowInstance, executionID string, output map[string]any) error {
	done, err := e.store.CompleteExecution(ctx, executionID, output)
	if err != nil {
		return err
	}
	if !done || len(output) == 0 {
		return nil
	}
	merged := make(map[string]any, len(instance.ContextData)+len(output))
	for k, v := range instance.ContextData {
		merged[k] = v
	}
	for k, v := range output {
		merged[k] = v
	}
	instance.ContextData = merged
	return e.store.UpdateInstanceContext(ctx, instance.ID, merged)
}

// recordFailure marks the execution failed and, when the step is required,
// fails the instance. Optional-step failures leave the instance running.
func (e *Engine) recordFailure(ctx context.Context, instance *model.WorkflowInstance, step *model.WorkflowStep, execution *model.WorkflowExecution, cause error) {
	stepsExecuted.WithLabelValues(step.StepType, "failed").Inc()
	e.logger.Warn().
		Err(cause).
		Str("instance_id", instance.ID).
		Str("step", step.Name).
		Str("step_type", step.StepType).
		Bool("required", step.IsRequired).
		Msg("step execution failed")

	if err := e.store.FailExecution(ctx, execution.ID, cause.Error()); err != nil {
		e.logger.Error().Err(err).Str("execution_id", execution.ID).Msg("record execution failure failed")
	}
	if step.IsRequired {
		if err := e.store.UpdateInstanceStatus(ctx, instance.ID, model.InstanceFailed, nil); err != nil {
			e.logger.Error().Err(err).Str("instance_id", instance.ID).Msg("fail instance failed")
			return
		}
		instancesFinished.WithLabelValues(model.InstanceFailed).Inc()
	}
}

// checkCompletion settles the instance when every step is accounted for: a
// step counts as settled when its execution completed, or when it failed and
// the step is optional. A pending approval or delay keeps the instance
// running.
func (e *Engine) checkCompletion(ctx context.Context, instance *model.WorkflowInstance, tpl *model.WorkflowTemplate, byStep map[string]*model.WorkflowExecution) error {
	for i := range tpl.Steps {
		step := &tpl.Steps[i]
		execution, ok := byStep[step.ID]
		if !ok {
			return nil
		}
		switch execution.Status {
		case model.ExecutionCompleted:
		case model.ExecutionFailed:
			if step.IsRequired {
				return nil
			}
		default:
			return nil
		}
	}

	now := time.Now()
	if err := e.store.UpdateInstanceStatus(ctx, instance.ID, model.InstanceCompleted, &now); err != nil {
		return fmt.Errorf("complete instance %s: %w", instance.ID, err)
	}
	instancesFinished.WithLabelValues(model.InstanceCompleted).Inc()
	e.logger.Info().Str("instance_id", instance.ID).Msg("workflow instance completed")
	return nil
}

// CompleteExternal completes a pending execution from outside the engine (an
// approval decision) and advances the graph.
func (e *Engine) CompleteExternal(ctx context.Context, executionID string, output map[string]any) error {
	execution, err := e.store.GetExecution(ctx, executionID)
	if err != nil {
		return fmt.Errorf("complete execution: %w", err)
	}
	instance, err := e.store.GetInstance(ctx, execution.InstanceID)
	if err != nil {
		return fmt.Errorf("complete execution: %w", err)
	}
	if err := e.completeExecution(ctx, instance, executionID, output); err != nil {
		return fmt.Errorf("complete execution: %w", err)
	}
	return e.Advance(ctx, execution.InstanceID)
}

// FailExternal fails a pending execution from outside the engine (an approval
// rejection), applying the required-step policy, then advances so independent
// branches keep moving.
func (e *Engine) FailExternal(ctx context.Context, executionID, message string) error {
	execution, err := e.store.GetExecution(ctx, executionID)
	if err != nil {
		return fmt.Errorf("fail execution: %w", err)
	}
	instance, err := e.store.GetInstance(ctx, execution.InstanceID)
	if err != nil {
		return fmt.Errorf("fail execution: %w", err)
	}
	tpl, err := e.store.GetTemplate(ctx, instance.TemplateID)
	if err != nil {
		return fmt.Errorf("fail execution: %w", err)
	}
	step := tpl.StepByID(execution.StepID)
	if step == nil {
		return fmt.Errorf("fail execution: %w", ErrStepNotFound)
	}
	e.recordFailure(ctx, instance, step, execution, errors.New(message))
	return e.Advance(ctx, execution.InstanceID)
}

// CancelInstance moves a running or paused instance to cancelled. Pending
// delay resumes for the instance become no-ops: resume re-checks status.
func (e *Engine) CancelInstance(ctx context.Context, instanceID string) error {
	mu := e.instanceLock(instanceID)
	mu.Lock()
	defer mu.Unlock()

	instance, err := e.store.GetInstance(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("cancel instance: %w", err)
	}
	switch instance.Status {
	case model.InstanceRunning, model.InstancePaused:
	default:
		return fmt.Errorf("cancel instance %s: status is %s", instanceID, instance.Status)
	}
	now := time.Now()
	if err := e.store.UpdateInstanceStatus(ctx, instanceID, model.InstanceCancelled, &now); err != nil {
		return fmt.Errorf("cancel instance %s: %w", instanceID, err)
	}
	instancesFinished.WithLabelValues(model.InstanceCancelled).Inc()
	e.logger.Info().Str("instance_id", instanceID).Msg("workflow instance cancelled")
	return nil
}

func executionsByStep(executions []model.WorkflowExecution) map[string]*model.WorkflowExecution {
	byStep := make(map[string]*model.WorkflowExecution, len(executions))
	for i := range executions {
		byStep[executions[i].StepID] = &executions[i]
	}
	return byStep
}

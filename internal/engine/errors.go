package engine

import "errors"

var (
	// ErrTemplateNotFound is returned when no active template exists for an id.
	ErrTemplateNotFound = errors.New("workflow template not found or inactive")

	// ErrInstanceNotFound is returned when an instance id does not resolve.
	ErrInstanceNotFound = errors.New("workflow instance not found")

	// ErrExecutionNotFound is returned when an execution id does not resolve.
	ErrExecutionNotFound = errors.New("workflow execution not found")

	// ErrStepNotFound is returned when a step id is not part of the template.
	ErrStepNotFound = errors.New("workflow step not found")

	// ErrDependencyNotSatisfied is a defensive failure: the engine only
	// schedules a step once its dependencies completed, so an external caller
	// hitting this has jumped the graph.
	ErrDependencyNotSatisfied = errors.New("step dependencies not satisfied")

	// ErrUnknownStepType is a registry miss for a step's declared type.
	ErrUnknownStepType = errors.New("unknown step type")

	// ErrConditionNotMet is the CONDITION handler's failure when its
	// expression evaluates false.
	ErrConditionNotMet = errors.New("condition not met")

	// ErrCyclicDependency is raised at template save time when the step
	// dependency graph is not a DAG.
	ErrCyclicDependency = errors.New("cyclic step dependency")
)

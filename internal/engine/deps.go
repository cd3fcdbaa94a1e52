package engine

import (
	"context"

	"github.com/edvin/flowline/internal/model"
)

// Collaborator boundaries the step handlers mutate external systems through.
// internal/core provides the Postgres-backed implementations.

type TaskStore interface {
	CreateTask(ctx context.Context, task *model.Task) error
	AssignTask(ctx context.Context, taskID, userID string) error
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
}

type ApprovalStore interface {
	CreateApproval(ctx context.Context, a *model.ApprovalRequest) error
}

// Assignee picks a responsible user for a piece of work. A nil user with a
// nil error is a valid outcome: no rule matched.
type Assignee interface {
	FindBestAssignee(ctx context.Context, tenantID string, contextData map[string]any) (*model.User, error)
}

// EmailSender hands formatted mail to the delivery transport. The transport
// itself is out of scope; a logging sender serves development.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// DataUpdater applies field updates to an allow-listed external entity type.
type DataUpdater interface {
	ApplyUpdate(ctx context.Context, tenantID, entityType string, filter, fields map[string]string) (int64, error)
}

// Handlers bundles the collaborators needed to build the default registry.
type Handlers struct {
	Tasks         TaskStore
	Notifications NotificationStore
	Approvals     ApprovalStore
	Assigner      Assignee
	Email         EmailSender
	Updater       DataUpdater
}

// NewDefaultRegistry registers one handler per step type.
func NewDefaultRegistry(deps Handlers) *Registry {
	r := NewRegistry()
	r.Register(model.StepTaskCreation, NewTaskCreationHandler(deps.Tasks))
	r.Register(model.StepApproval, NewApprovalHandler(deps.Approvals))
	r.Register(model.StepNotification, NewNotificationHandler(deps.Notifications))
	r.Register(model.StepAssignment, NewAssignmentHandler(deps.Assigner, deps.Tasks))
	r.Register(model.StepCondition, NewConditionHandler())
	r.Register(model.StepDelay, NewDelayHandler())
	r.Register(model.StepEmail, NewEmailHandler(deps.Email))
	r.Register(model.StepDataUpdate, NewDataUpdateHandler(deps.Updater))
	return r
}

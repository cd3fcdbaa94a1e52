package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB defines the database operations the services use.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Services struct {
	Workflow     *WorkflowStore
	Template     *TemplateService
	Instance     *InstanceService
	Approval     *ApprovalService
	Rule         *RuleService
	Task         *TaskService
	Notification *NotificationService
	User         *UserService
	DataUpdate   *DataUpdateService
}

func NewServices(db DB) *Services {
	return &Services{
		Workflow:     NewWorkflowStore(db),
		Template:     NewTemplateService(db),
		Instance:     NewInstanceService(db),
		Approval:     NewApprovalService(db),
		Rule:         NewRuleService(db),
		Task:         NewTaskService(db),
		Notification: NewNotificationService(db),
		User:         NewUserService(db),
		DataUpdate:   NewDataUpdateService(db),
	}
}

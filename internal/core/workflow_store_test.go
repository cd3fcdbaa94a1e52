package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/flowline/internal/engine"
	"github.com/edvin/flowline/internal/model"
)

// ---------- CompleteExecution ----------

func TestWorkflowStore_CompleteExecution_Completes(t *testing.T) {
	db := &mockDB{}
	store := NewWorkflowStore(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	done, err := store.CompleteExecution(ctx, "exec-1", map[string]any{"task_id": "task-1"})
	require.NoError(t, err)
	assert.True(t, done)
	db.AssertExpectations(t)
}

func TestWorkflowStore_CompleteExecution_AlreadySettled(t *testing.T) {
	db := &mockDB{}
	store := NewWorkflowStore(db)
	ctx := context.Background()

	// The status guard matched no row: someone else already completed or
	// failed the execution.
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	done, err := store.CompleteExecution(ctx, "exec-1", nil)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestWorkflowStore_CompleteExecution_DBError(t *testing.T) {
	db := &mockDB{}
	store := NewWorkflowStore(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, errors.New("connection reset"))

	_, err := store.CompleteExecution(ctx, "exec-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "complete execution exec-1")
}

// ---------- Lookups ----------

func TestWorkflowStore_GetInstance_Success(t *testing.T) {
	db := &mockDB{}
	store := NewWorkflowStore(db)
	ctx := context.Background()

	started := time.Now().Truncate(time.Microsecond)
	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "instance-1"
		*(dest[1].(*string)) = "tpl-1"
		*(dest[2].(*string)) = "tenant-1"
		*(dest[3].(*[]byte)) = []byte(`{"employee_name":"Ada"}`)
		*(dest[4].(*string)) = model.InstanceRunning
		*(dest[5].(*string)) = "hr-1"
		*(dest[6].(*time.Time)) = started
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	instance, err := store.GetInstance(ctx, "instance-1")
	require.NoError(t, err)
	assert.Equal(t, "instance-1", instance.ID)
	assert.Equal(t, model.InstanceRunning, instance.Status)
	assert.Equal(t, "Ada", instance.ContextData["employee_name"])
	assert.Equal(t, started, instance.StartedAt)
	assert.Nil(t, instance.CompletedAt)
}

func TestWorkflowStore_GetInstance_NotFound(t *testing.T) {
	db := &mockDB{}
	store := NewWorkflowStore(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := store.GetInstance(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInstanceNotFound)
}

func TestWorkflowStore_GetExecution_NotFound(t *testing.T) {
	db := &mockDB{}
	store := NewWorkflowStore(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := store.GetExecution(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrExecutionNotFound)
}

func TestWorkflowStore_GetActiveTemplate_NotFound(t *testing.T) {
	db := &mockDB{}
	store := NewWorkflowStore(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := store.GetActiveTemplate(ctx, "deactivated")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrTemplateNotFound)
}

func TestWorkflowStore_GetTemplate_LoadsSteps(t *testing.T) {
	db := &mockDB{}
	store := NewWorkflowStore(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)
	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "tpl-1"
		*(dest[1].(*string)) = "tenant-1"
		*(dest[2].(*string)) = "Onboarding"
		*(dest[3].(*string)) = "hr"
		*(dest[4].(*int)) = 1
		*(dest[5].(*bool)) = true
		*(dest[6].(*time.Time)) = now
		*(dest[7].(*time.Time)) = now
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newMockRows(
		func(dest ...any) error {
			*(dest[0].(*string)) = "create"
			*(dest[1].(*string)) = "tpl-1"
			*(dest[2].(*string)) = "Create task"
			*(dest[3].(*string)) = model.StepTaskCreation
			*(dest[4].(*int)) = 0
			*(dest[5].(*[]byte)) = []byte(`{"title":"Onboard {{employee_name}}"}`)
			*(dest[6].(*[]byte)) = []byte(`[]`)
			*(dest[7].(*bool)) = true
			return nil
		},
		func(dest ...any) error {
			*(dest[0].(*string)) = "mail"
			*(dest[1].(*string)) = "tpl-1"
			*(dest[2].(*string)) = "Mail"
			*(dest[3].(*string)) = model.StepEmail
			*(dest[4].(*int)) = 1
			*(dest[5].(*[]byte)) = []byte(`{}`)
			*(dest[6].(*[]byte)) = []byte(`["create"]`)
			*(dest[7].(*bool)) = true
			return nil
		},
	), nil)

	template, err := store.GetTemplate(ctx, "tpl-1")
	require.NoError(t, err)
	require.Len(t, template.Steps, 2)
	assert.Equal(t, "Onboard {{employee_name}}", template.Steps[0].Configuration["title"])
	assert.Empty(t, template.Steps[0].Dependencies)
	assert.Equal(t, []string{"create"}, template.Steps[1].Dependencies)
}

// ---------- Writes ----------

func TestWorkflowStore_CreateInstance(t *testing.T) {
	db := &mockDB{}
	store := NewWorkflowStore(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	instance := &model.WorkflowInstance{
		ID:          "instance-1",
		TemplateID:  "tpl-1",
		TenantID:    "tenant-1",
		ContextData: map[string]any{"employee_name": "Ada"},
		Status:      model.InstanceRunning,
		TriggeredBy: "hr-1",
		StartedAt:   time.Now(),
	}
	require.NoError(t, store.CreateInstance(ctx, instance))
	db.AssertExpectations(t)
}

func TestWorkflowStore_FailExecution_DBError(t *testing.T) {
	db := &mockDB{}
	store := NewWorkflowStore(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, errors.New("timeout"))

	err := store.FailExecution(ctx, "exec-1", "handler blew up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fail execution exec-1")
}

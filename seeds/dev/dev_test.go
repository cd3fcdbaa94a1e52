package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/flowline/internal/core"
	"github.com/edvin/flowline/internal/engine"
	"github.com/edvin/flowline/internal/expr"
	"github.com/edvin/flowline/internal/model"
)

// The seed data and the step handlers share a configuration key contract but
// live in different layers. These tests run every seeded step configuration
// through its actual handler so a renamed or misspelled key fails here instead
// of silently degrading a dev workflow.

type seedTasks struct {
	created  []model.Task
	assigned map[string]string
}

func (s *seedTasks) CreateTask(ctx context.Context, task *model.Task) error {
	s.created = append(s.created, *task)
	return nil
}

func (s *seedTasks) AssignTask(ctx context.Context, taskID, userID string) error {
	if s.assigned == nil {
		s.assigned = make(map[string]string)
	}
	s.assigned[taskID] = userID
	return nil
}

type seedNotifications struct {
	created []model.Notification
}

func (s *seedNotifications) CreateNotification(ctx context.Context, n *model.Notification) error {
	s.created = append(s.created, *n)
	return nil
}

type seedApprovals struct {
	created []model.ApprovalRequest
}

func (s *seedApprovals) CreateApproval(ctx context.Context, a *model.ApprovalRequest) error {
	s.created = append(s.created, *a)
	return nil
}

type seedAssigner struct{}

func (seedAssigner) FindBestAssignee(ctx context.Context, tenantID string, contextData map[string]any) (*model.User, error) {
	return &model.User{ID: "usr_dev_agent_00000000001", TenantID: tenantID}, nil
}

type seedEmail struct {
	sent []string
}

func (s *seedEmail) Send(ctx context.Context, to, subject, body string) error {
	s.sent = append(s.sent, to)
	return nil
}

type seedUpdater struct {
	entityTypes []string
}

func (s *seedUpdater) ApplyUpdate(ctx context.Context, tenantID, entityType string, filter, fields map[string]string) (int64, error) {
	s.entityTypes = append(s.entityTypes, entityType)
	return 1, nil
}

// modelSteps converts a seeded template's steps the way the runtime sees them:
// configuration round-tripped through JSON, as it is between the seed upsert
// and the workflow store's scan.
func modelSteps(t *testing.T, entry templateEntry) []model.WorkflowStep {
	t.Helper()
	steps := make([]model.WorkflowStep, 0, len(entry.Steps))
	for _, s := range entry.Steps {
		raw, err := json.Marshal(s.Configuration)
		require.NoError(t, err)
		var configuration map[string]any
		require.NoError(t, json.Unmarshal(raw, &configuration))

		required := true
		if s.IsRequired != nil {
			required = *s.IsRequired
		}
		steps = append(steps, model.WorkflowStep{
			ID:             s.ID,
			TemplateID:     entry.ID,
			Name:           s.Name,
			StepType:       s.StepType,
			Order:          s.Order,
			Configuration:  configuration,
			Dependencies:   s.Dependencies,
			IsRequired:     required,
			TimeoutMinutes: s.TimeoutMinutes,
		})
	}
	return steps
}

// sampleContext is representative trigger data for the seeded templates.
func sampleContext() map[string]any {
	return map[string]any{
		"employee_name":  "Ada Lovelace",
		"employee_email": "ada@flowline.test",
		"start_date":     "2026-09-01",
		"ticket_id":      "task_dev_ticket_000000001",
		"priority":       "urgent",
		"sla_breached":   false,
	}
}

func TestSeededStepConfigurationsMatchHandlerContract(t *testing.T) {
	sf, err := loadSeedFile(seedFilePath())
	require.NoError(t, err)
	require.NotEmpty(t, sf.Templates)

	for _, entry := range sf.Templates {
		entry := entry
		t.Run(entry.ID, func(t *testing.T) {
			steps := modelSteps(t, entry)
			require.NoError(t, core.ValidateStepGraph(steps))

			tasks := &seedTasks{}
			notifications := &seedNotifications{}
			approvals := &seedApprovals{}
			email := &seedEmail{}
			updater := &seedUpdater{}
			registry := engine.NewDefaultRegistry(engine.Handlers{
				Tasks:         tasks,
				Notifications: notifications,
				Approvals:     approvals,
				Assigner:      seedAssigner{},
				Email:         email,
				Updater:       updater,
			})

			template := &model.WorkflowTemplate{
				ID:       entry.ID,
				TenantID: entry.TenantID,
				Name:     entry.Name,
				IsActive: true,
				Steps:    steps,
			}
			contextData := sampleContext()
			instance := &model.WorkflowInstance{
				ID:          "instance-seed-check",
				TemplateID:  entry.ID,
				TenantID:    entry.TenantID,
				ContextData: contextData,
				Status:      model.InstanceRunning,
				TriggeredBy: "seed-check",
				StartedAt:   time.Now(),
			}

			ctx := context.Background()
			for i := range steps {
				step := &steps[i]
				handler, err := registry.Handler(step.StepType)
				require.NoError(t, err, "step %s declares unknown type %s", step.ID, step.StepType)

				result, err := handler.Execute(ctx, &engine.Request{
					Instance: instance,
					Template: template,
					Step:     step,
					Execution: &model.WorkflowExecution{
						ID:         "exec-" + step.ID,
						InstanceID: instance.ID,
						StepID:     step.ID,
						Status:     model.ExecutionRunning,
						StartedAt:  time.Now(),
					},
				})
				require.NoError(t, err, "step %s (%s) rejected its seeded configuration", step.ID, step.StepType)

				switch step.StepType {
				case model.StepApproval, model.StepDelay:
					assert.True(t, result.Pending, "step %s must wait for external completion", step.ID)
				default:
					assert.False(t, result.Pending, "step %s must complete inline", step.ID)
					// Feed outputs forward the way Advance merges them, so
					// {{task_id}} references resolve for later steps.
					for k, v := range result.Output {
						contextData[k] = v
					}
				}

				if step.StepType == model.StepDelay {
					require.NotNil(t, result.ResumeAt, "step %s lost its configured delay", step.ID)
					assert.WithinDuration(t, time.Now().Add(15*time.Minute), *result.ResumeAt, time.Minute)
				}
			}

			// Template-specific effects of the configurations.
			switch entry.ID {
			case "tpl_onboarding_dev_0000000001":
				require.Len(t, tasks.created, 1)
				assert.Equal(t, "Onboard Ada Lovelace", tasks.created[0].Title)
				require.Len(t, approvals.created, 1)
				approval := approvals.created[0]
				assert.Equal(t, []string{"usr_dev_manager_0000000001"}, approval.EligibleApprovers)
				require.NotNil(t, approval.DueDate, "seeded approval lost its due date")
				assert.WithinDuration(t, time.Now().Add(48*time.Hour), *approval.DueDate, time.Minute)
				assert.Equal(t, []string{"ada@flowline.test"}, email.sent)
				assert.Len(t, notifications.created, 2)
			case "tpl_escalation_dev_0000000001":
				assert.Equal(t, []string{"task"}, updater.entityTypes)
			}
		})
	}
}

func TestSeededRulesMatchEngineContract(t *testing.T) {
	sf, err := loadSeedFile(seedFilePath())
	require.NoError(t, err)
	require.NotEmpty(t, sf.Rules)

	strategies := map[string]bool{
		model.StrategyRoundRobin:    true,
		model.StrategySkillsBased:   true,
		model.StrategyWorkloadBased: true,
	}
	for _, rule := range sf.Rules {
		assert.True(t, strategies[rule.Logic.Type], "rule %s uses unknown strategy %q", rule.ID, rule.Logic.Type)
		if rule.Condition != "" {
			_, err := expr.Evaluate(rule.Condition, map[string]any{"category": "hr"})
			assert.NoError(t, err, "rule %s condition does not parse", rule.ID)
		}
	}
}

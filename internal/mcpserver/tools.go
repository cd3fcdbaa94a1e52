package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// buildTools defines the MCP tool surface: the workflow operations an agent
// needs to drive processes end to end, each proxied to the REST API.
func buildTools(client *apiClient) []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("list_templates",
				mcp.WithDescription("List workflow templates, optionally filtered by tenant."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("tenant_id", mcp.Description("Filter by tenant ID")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				q := url.Values{}
				if v := req.GetString("tenant_id", ""); v != "" {
					q.Set("tenant_id", v)
				}
				return toolResult(client.get(ctx, "/api/v1/templates", q))
			},
		},
		{
			Tool: mcp.NewTool("start_workflow",
				mcp.WithDescription("Start an instance of a workflow template. Steps run synchronously until the instance finishes or pauses on an approval or delay."),
				mcp.WithString("template_id", mcp.Required(), mcp.Description("Template to instantiate")),
				mcp.WithString("triggered_by", mcp.Required(), mcp.Description("User or system starting the workflow")),
				mcp.WithString("context", mcp.Description("Workflow context as a JSON object, e.g. {\"employee_name\":\"Dana\"}")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				templateID, err := req.RequireString("template_id")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				triggeredBy, err := req.RequireString("triggered_by")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				body := map[string]any{"triggered_by": triggeredBy}
				if raw := req.GetString("context", ""); raw != "" {
					var contextData map[string]any
					if err := json.Unmarshal([]byte(raw), &contextData); err != nil {
						return mcp.NewToolResultError(fmt.Sprintf("context is not a JSON object: %s", err)), nil
					}
					body["context"] = contextData
				}
				payload, _ := json.Marshal(body)
				return toolResult(client.post(ctx, "/api/v1/templates/"+templateID+"/instances", string(payload)))
			},
		},
		{
			Tool: mcp.NewTool("list_instances",
				mcp.WithDescription("List workflow instances, optionally filtered by status or template."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("status", mcp.Description("Filter by status (running, completed, failed, cancelled, paused)")),
				mcp.WithString("template_id", mcp.Description("Filter by template ID")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				q := url.Values{}
				if v := req.GetString("status", ""); v != "" {
					q.Set("status", v)
				}
				if v := req.GetString("template_id", ""); v != "" {
					q.Set("template_id", v)
				}
				return toolResult(client.get(ctx, "/api/v1/instances", q))
			},
		},
		{
			Tool: mcp.NewTool("get_instance",
				mcp.WithDescription("Get a workflow instance with its step executions."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("instance_id", mcp.Required(), mcp.Description("Instance ID")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				id, err := req.RequireString("instance_id")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return toolResult(client.get(ctx, "/api/v1/instances/"+id, nil))
			},
		},
		{
			Tool: mcp.NewTool("cancel_instance",
				mcp.WithDescription("Cancel a running workflow instance."),
				mcp.WithDestructiveHintAnnotation(true),
				mcp.WithString("instance_id", mcp.Required(), mcp.Description("Instance ID")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				id, err := req.RequireString("instance_id")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return toolResult(client.post(ctx, "/api/v1/instances/"+id+"/cancel", ""))
			},
		},
		{
			Tool: mcp.NewTool("list_approvals",
				mcp.WithDescription("List approval requests, optionally scoped to one approver or decision state."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("approver_id", mcp.Description("Only approvals this user may resolve")),
				mcp.WithString("decision", mcp.Description("Filter by decision (pending, approved, rejected, cancelled)")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				q := url.Values{}
				if v := req.GetString("approver_id", ""); v != "" {
					q.Set("approver_id", v)
				}
				if v := req.GetString("decision", ""); v != "" {
					q.Set("decision", v)
				}
				return toolResult(client.get(ctx, "/api/v1/approvals", q))
			},
		},
		{
			Tool: mcp.NewTool("respond_approval",
				mcp.WithDescription("Approve or reject a pending approval request. The paused workflow advances (approved) or fails its approval step (rejected)."),
				mcp.WithString("approval_id", mcp.Required(), mcp.Description("Approval request ID")),
				mcp.WithString("responder_id", mcp.Required(), mcp.Description("User resolving the approval; must be an eligible approver")),
				mcp.WithString("decision", mcp.Required(), mcp.Description("approved or rejected")),
				mcp.WithString("response", mcp.Description("Free-text response")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				id, err := req.RequireString("approval_id")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				responderID, err := req.RequireString("responder_id")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				decision, err := req.RequireString("decision")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				payload, _ := json.Marshal(map[string]any{
					"responder_id": responderID,
					"decision":     decision,
					"response":     req.GetString("response", ""),
				})
				return toolResult(client.post(ctx, "/api/v1/approvals/"+id+"/respond", string(payload)))
			},
		},
		{
			Tool: mcp.NewTool("auto_assign",
				mcp.WithDescription("Find the best assignee for a task descriptor using the tenant's assignment rules."),
				mcp.WithString("tenant_id", mcp.Required(), mcp.Description("Tenant whose rules apply")),
				mcp.WithString("task", mcp.Required(), mcp.Description("Task descriptor as a JSON object, e.g. {\"category\":\"it\",\"priority\":\"high\"}")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				tenantID, err := req.RequireString("tenant_id")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				raw, err := req.RequireString("task")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				var task map[string]any
				if err := json.Unmarshal([]byte(raw), &task); err != nil {
					return mcp.NewToolResultError(fmt.Sprintf("task is not a JSON object: %s", err)), nil
				}
				payload, _ := json.Marshal(map[string]any{"tenant_id": tenantID, "task": task})
				return toolResult(client.post(ctx, "/api/v1/assignments/auto", string(payload)))
			},
		},
	}
}

func toolResult(body string, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(body), nil
}

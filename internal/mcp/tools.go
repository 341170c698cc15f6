package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hunchagency/dot/internal/domain/activity"
	"github.com/hunchagency/dot/internal/domain/lifecycle"
	"github.com/hunchagency/dot/internal/domain/routing"
)

const defaultActivityLimit = 20

type tools struct {
	services Services
	logger   *slog.Logger
}

func registerTools(server *sdkmcp.Server, services Services, logger *slog.Logger) {
	t := &tools{services: services, logger: logger}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "route_message",
		Description: "Classify an inbound email or Teams message and decide which workflow handles it (triage, update, work-to-client, wip or clarify)",
	}, t.routeMessage)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "triage_job",
		Description: "Turn a new brief into a job: allocate the next job number for the client and create the project",
	}, t.triageJob)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_job",
		Description: "Apply a status update to an existing job: journal the update and patch stage, status, dates and with-client flag",
	}, t.updateJob)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "send_to_client",
		Description: "Record that work went to the client: advance the round, mark the job with client and draft the Teams post",
	}, t.sendToClient)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_job",
		Description: "Look up a job by job number",
	}, t.getJob)

	if services.Activity != nil {
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "recent_activity",
			Description: "List recent lifecycle actions, newest first",
		}, t.recentActivity)
	}
}

func (t *tools) routeMessage(ctx context.Context, _ *sdkmcp.CallToolRequest, in RouteMessageInput) (*sdkmcp.CallToolResult, any, error) {
	decision, err := t.services.Router.Route(ctx, routing.Message{
		Content:         in.Content,
		Subject:         in.Subject,
		SenderAddress:   in.SenderEmail,
		SenderName:      in.SenderName,
		Recipients:      in.Recipients,
		HasAttachments:  in.HasAttachments,
		AttachmentNames: in.AttachmentNames,
		SourceChannel:   in.Source,
	})
	return t.respond(ctx, "route_message", decision, err)
}

func (t *tools) triageJob(ctx context.Context, _ *sdkmcp.CallToolRequest, in TriageJobInput) (*sdkmcp.CallToolResult, any, error) {
	result, err := t.services.Lifecycle.Triage(ctx, in.Content)
	return t.respond(ctx, "triage_job", result, err)
}

func (t *tools) updateJob(ctx context.Context, _ *sdkmcp.CallToolRequest, in UpdateJobInput) (*sdkmcp.CallToolResult, any, error) {
	result, err := t.services.Lifecycle.Update(ctx, in.JobNumber, in.Content)
	return t.respond(ctx, "update_job", result, err)
}

func (t *tools) sendToClient(ctx context.Context, _ *sdkmcp.CallToolRequest, in SendToClientInput) (*sdkmcp.CallToolResult, any, error) {
	result, err := t.services.Lifecycle.Dispatch(ctx, lifecycle.DispatchRequest{
		JobNumber:         in.JobNumber,
		Content:           in.Content,
		AttachmentNames:   in.AttachmentNames,
		ExternalRecipient: in.ExternalRecipient,
	})
	return t.respond(ctx, "send_to_client", result, err)
}

func (t *tools) getJob(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetJobInput) (*sdkmcp.CallToolResult, any, error) {
	proj, err := t.services.Lifecycle.Project(ctx, strings.TrimSpace(in.JobNumber))
	return t.respond(ctx, "get_job", proj, err)
}

func (t *tools) recentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecentActivityInput) (*sdkmcp.CallToolResult, any, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	entries, err := t.services.Activity.GetRecentActivity(ctx, activity.ListOptions{
		JobNumber: strings.TrimSpace(in.JobNumber),
		Limit:     limit,
	})
	if entries == nil && err == nil {
		entries = []activity.Entry{}
	}
	return t.respond(ctx, "recent_activity", entries, err)
}

// respond renders a service result as JSON text, or err as an IsError
// result the assistant can read.
func (t *tools) respond(ctx context.Context, tool string, v any, err error) (*sdkmcp.CallToolResult, any, error) {
	if err != nil {
		apiErr := MapError(err)
		t.logger.WarnContext(ctx, "mcp tool failed", "tool", tool, "code", apiErr.Code, "request_id", getRequestID(ctx), "error", err)
		return errorResult(apiErr), nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(&APIError{Code: "INTERNAL", Message: err.Error()}), nil, nil
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func errorResult(apiErr *APIError) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: apiErr.Error()}},
	}
}

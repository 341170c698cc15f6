package mcp

import (
	"context"
	"encoding/json"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/hunchagency/dot/internal/domain/activity"
	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/domain/lifecycle"
	"github.com/hunchagency/dot/internal/domain/routing"
	"github.com/hunchagency/dot/internal/oracle"
)

type routerStub struct {
	routeFn func(context.Context, routing.Message) (*routing.Decision, error)
}

func (r routerStub) Route(ctx context.Context, msg routing.Message) (*routing.Decision, error) {
	return r.routeFn(ctx, msg)
}

type lifecycleStub struct {
	projectFn  func(context.Context, string) (*job.Project, error)
	triageFn   func(context.Context, string) (*lifecycle.TriageResult, error)
	updateFn   func(context.Context, string, string) (*lifecycle.UpdateResult, error)
	dispatchFn func(context.Context, lifecycle.DispatchRequest) (*lifecycle.DispatchResult, error)
}

func (l lifecycleStub) Project(ctx context.Context, jobNumber string) (*job.Project, error) {
	return l.projectFn(ctx, jobNumber)
}
func (l lifecycleStub) Triage(ctx context.Context, content string) (*lifecycle.TriageResult, error) {
	return l.triageFn(ctx, content)
}
func (l lifecycleStub) Update(ctx context.Context, jobNumber, content string) (*lifecycle.UpdateResult, error) {
	return l.updateFn(ctx, jobNumber, content)
}
func (l lifecycleStub) Dispatch(ctx context.Context, req lifecycle.DispatchRequest) (*lifecycle.DispatchResult, error) {
	return l.dispatchFn(ctx, req)
}

type activityStub struct {
	listFn func(context.Context, activity.ListOptions) ([]activity.Entry, error)
}

func (a activityStub) GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	return a.listFn(ctx, opts)
}

func connect(t *testing.T, services Services) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := NewServer(Config{Services: services, Version: "test"})

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) (*sdkmcp.CallToolResult, string) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return result, text.Text
}

func TestServer_ListsTools(t *testing.T) {
	session := connect(t, Services{Router: routerStub{}, Lifecycle: lifecycleStub{}})

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, name := range []string{"route_message", "triage_job", "update_job", "send_to_client", "get_job"} {
		require.True(t, names[name], "missing tool %s", name)
	}
	require.False(t, names["recent_activity"])

	info := session.InitializeResult()
	require.Equal(t, "dot", info.ServerInfo.Name)
	require.Equal(t, "test", info.ServerInfo.Version)
}

func TestServer_RouteMessage(t *testing.T) {
	var got routing.Message
	session := connect(t, Services{
		Router: routerStub{routeFn: func(_ context.Context, msg routing.Message) (*routing.Decision, error) {
			got = msg
			return &routing.Decision{Route: job.RouteTriage, Confidence: job.ConfidenceHigh, Source: "teams"}, nil
		}},
		Lifecycle: lifecycleStub{},
	})

	result, text := callTool(t, session, "route_message", map[string]any{
		"content":      "new brief",
		"sender_email": "a@sky.co.nz",
		"source":       "teams",
	})
	require.False(t, result.IsError)
	require.JSONEq(t, `{"route":"triage","confidence":"high","source":"teams"}`, text)
	require.Equal(t, "new brief", got.Content)
	require.Equal(t, "a@sky.co.nz", got.SenderAddress)
}

func TestServer_LifecycleTools(t *testing.T) {
	var dispatched lifecycle.DispatchRequest
	session := connect(t, Services{
		Router: routerStub{},
		Lifecycle: lifecycleStub{
			projectFn: func(_ context.Context, jobNumber string) (*job.Project, error) {
				return &job.Project{JobNumber: jobNumber, JobName: "Spring promo", Round: 2}, nil
			},
			triageFn: func(_ context.Context, content string) (*lifecycle.TriageResult, error) {
				return &lifecycle.TriageResult{JobNumber: "SKY TBC", ClientCode: "SKY", Pending: true}, nil
			},
			updateFn: func(_ context.Context, jobNumber, _ string) (*lifecycle.UpdateResult, error) {
				return &lifecycle.UpdateResult{JobNumber: jobNumber, UpdateCreated: true, ProjectUpdated: true}, nil
			},
			dispatchFn: func(_ context.Context, req lifecycle.DispatchRequest) (*lifecycle.DispatchResult, error) {
				dispatched = req
				return &lifecycle.DispatchResult{JobNumber: req.JobNumber, Round: 3, Chargeable: true}, nil
			},
		},
	})

	_, text := callTool(t, session, "get_job", map[string]any{"job_number": " ONE 125 "})
	var proj job.Project
	require.NoError(t, json.Unmarshal([]byte(text), &proj))
	require.Equal(t, "ONE 125", proj.JobNumber)
	require.Equal(t, 2, proj.Round)

	_, text = callTool(t, session, "triage_job", map[string]any{"content": "brief"})
	var triage map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &triage))
	require.Equal(t, "SKY TBC", triage["jobNumber"])
	require.Equal(t, true, triage["pending"])

	_, text = callTool(t, session, "update_job", map[string]any{"job_number": "ONE 125", "content": "moving"})
	var update map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &update))
	require.Equal(t, true, update["updateCreated"])

	_, text = callTool(t, session, "send_to_client", map[string]any{
		"job_number":       "ONE 125",
		"attachment_names": []string{"deck.pdf"},
	})
	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &sent))
	require.Equal(t, float64(3), sent["newRound"])
	require.Equal(t, true, sent["chargeableFlag"])
	require.Equal(t, []string{"deck.pdf"}, dispatched.AttachmentNames)
}

func TestServer_ToolErrors(t *testing.T) {
	session := connect(t, Services{
		Router: routerStub{routeFn: func(context.Context, routing.Message) (*routing.Decision, error) {
			return nil, &oracle.ParseError{Raw: "nope", Err: oracle.ErrShape}
		}},
		Lifecycle: lifecycleStub{
			projectFn: func(_ context.Context, jobNumber string) (*job.Project, error) {
				return nil, &lifecycle.JobNotFoundError{JobNumber: jobNumber}
			},
			updateFn: func(context.Context, string, string) (*lifecycle.UpdateResult, error) {
				return nil, lifecycle.ErrMissingContent
			},
		},
	})

	result, text := callTool(t, session, "get_job", map[string]any{"job_number": "ABC 999"})
	require.True(t, result.IsError)
	require.Contains(t, text, "JOB_NOT_FOUND")
	require.Contains(t, text, "Could not find job ABC 999 in the system")

	result, text = callTool(t, session, "update_job", map[string]any{"job_number": "ONE 125", "content": ""})
	require.True(t, result.IsError)
	require.Contains(t, text, "INVALID_INPUT")

	result, text = callTool(t, session, "route_message", map[string]any{"content": "x"})
	require.True(t, result.IsError)
	require.Contains(t, text, "CLASSIFIER_INVALID_REPLY")
}

func TestServer_RecentActivity(t *testing.T) {
	var opts activity.ListOptions
	session := connect(t, Services{
		Router:    routerStub{},
		Lifecycle: lifecycleStub{},
		Activity: activityStub{listFn: func(_ context.Context, o activity.ListOptions) ([]activity.Entry, error) {
			opts = o
			return []activity.Entry{{ID: 1, JobNumber: "ONE 125", Type: activity.TypeRoundAdvanced, Summary: "Round 3"}}, nil
		}},
	})

	result, text := callTool(t, session, "recent_activity", map[string]any{"job_number": "ONE 125"})
	require.False(t, result.IsError)
	require.Equal(t, "ONE 125", opts.JobNumber)
	require.Equal(t, defaultActivityLimit, opts.Limit)

	var entries []activity.Entry
	require.NoError(t, json.Unmarshal([]byte(text), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, activity.TypeRoundAdvanced, entries[0].Type)
}

func TestServer_DocResources(t *testing.T) {
	session := connect(t, Services{Router: routerStub{}, Lifecycle: lifecycleStub{}})

	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "dot://docs/routes"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "clarify")
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Equal(t, "REJECTED", MapError(&oracle.RejectedError{Reply: map[string]any{"error": "no"}}).Code)
	require.Equal(t, "CLASSIFIER_UNAVAILABLE", MapError(&oracle.ProviderError{StatusCode: 500}).Code)
}

package mcp

import (
	"context"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hunchagency/dot/internal/domain/activity"
	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/domain/lifecycle"
	"github.com/hunchagency/dot/internal/domain/routing"
)

// Router defines routing operations needed by MCP.
type Router interface {
	Route(ctx context.Context, msg routing.Message) (*routing.Decision, error)
}

// Lifecycle defines job lifecycle operations needed by MCP.
type Lifecycle interface {
	Project(ctx context.Context, jobNumber string) (*job.Project, error)
	Triage(ctx context.Context, content string) (*lifecycle.TriageResult, error)
	Update(ctx context.Context, jobNumber, content string) (*lifecycle.UpdateResult, error)
	Dispatch(ctx context.Context, req lifecycle.DispatchRequest) (*lifecycle.DispatchResult, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// Services contains all domain services needed by MCP. Activity is
// optional; recent_activity is only offered when it is set.
type Services struct {
	Router    Router
	Lifecycle Lifecycle
	Activity  ActivityService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "dot",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(requestIDMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, cfg.Services, logger)

	return server
}

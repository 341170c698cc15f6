package routing

import (
	"context"

	"github.com/hunchagency/dot/internal/domain/job"
)

// Store provides the registry reads routing needs.
type Store interface {
	FindProjectByJobNumber(ctx context.Context, jobNumber string) (*job.Project, error)
	ListActiveProjects(ctx context.Context, code string) []job.ProjectSummary
}

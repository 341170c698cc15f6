package lifecycle

import (
	"context"
	"time"

	"github.com/hunchagency/dot/internal/domain/allocation"
	"github.com/hunchagency/dot/internal/domain/job"
)

// Store provides the registry reads and writes the lifecycle needs.
type Store interface {
	FindProjectByJobNumber(ctx context.Context, jobNumber string) (*job.Project, error)
	CreateProject(ctx context.Context, proj job.NewProject) (string, error)
	CreateUpdate(ctx context.Context, projectRecordID, text string, dueOn time.Time) error
	PatchProjectFields(ctx context.Context, jobNumber string, patch job.Patch) error
	IncrementProjectRound(ctx context.Context, jobNumber string) (int, error)
}

// Allocator hands out job numbers at triage.
type Allocator interface {
	Allocate(ctx context.Context, clientCode string) allocation.Result
}

package repository

import (
	"context"
	"time"

	"github.com/hunchagency/dot/internal/domain/activity"
	"github.com/hunchagency/dot/internal/domain/job"
)

// Store is the typed client for the project registry. Implementations
// absorb every transport failure: lookups report ErrNotFound, listings
// report an empty slice, writes report ErrWriteFailed.
type Store interface {
	// FindProjectByJobNumber looks a project up by exact job number.
	FindProjectByJobNumber(ctx context.Context, jobNumber string) (*job.Project, error)
	// FindClientByCode looks a client up by code.
	FindClientByCode(ctx context.Context, code string) (*job.Client, error)
	// ListActiveProjects lists In Progress and On Hold projects whose job
	// number starts with code. Never fails; returns nil when unavailable.
	ListActiveProjects(ctx context.Context, code string) []job.ProjectSummary
	// CreateProject creates a project at stage Triage, status In Progress,
	// started today, and returns its record id.
	CreateProject(ctx context.Context, proj job.NewProject) (string, error)
	// CreateUpdate appends a journal entry. A zero dueOn defaults to five
	// business days from today.
	CreateUpdate(ctx context.Context, projectRecordID, text string, dueOn time.Time) error
	// PatchProjectFields writes the allowlisted subset of patch to the
	// project. An empty allowlisted subset succeeds without a write.
	PatchProjectFields(ctx context.Context, jobNumber string, patch job.Patch) error
	// IncrementClientSequence hands out the client's next job number and
	// advances the stored sequence. Read-modify-write, not atomic.
	IncrementClientSequence(ctx context.Context, code string) (job.SequenceGrant, error)
	// IncrementProjectRound advances the project's round and returns the new
	// value. Read-modify-write, not atomic.
	IncrementProjectRound(ctx context.Context, jobNumber string) (int, error)
}

// ActivityRepository persists the lifecycle audit trail.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.Entry) error
	List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

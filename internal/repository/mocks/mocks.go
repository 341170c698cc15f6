package mocks

import (
	"context"
	"time"

	"github.com/hunchagency/dot/internal/domain/activity"
	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/oracle"
	"github.com/stretchr/testify/mock"
)

// Store is a mock for repository.Store.
type Store struct {
	mock.Mock
}

func (m *Store) FindProjectByJobNumber(ctx context.Context, jobNumber string) (*job.Project, error) {
	args := m.Called(ctx, jobNumber)
	if proj, ok := args.Get(0).(*job.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) FindClientByCode(ctx context.Context, code string) (*job.Client, error) {
	args := m.Called(ctx, code)
	if client, ok := args.Get(0).(*job.Client); ok {
		return client, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) ListActiveProjects(ctx context.Context, code string) []job.ProjectSummary {
	args := m.Called(ctx, code)
	if list, ok := args.Get(0).([]job.ProjectSummary); ok {
		return list
	}
	return nil
}

func (m *Store) CreateProject(ctx context.Context, proj job.NewProject) (string, error) {
	args := m.Called(ctx, proj)
	return args.String(0), args.Error(1)
}

func (m *Store) CreateUpdate(ctx context.Context, projectRecordID, text string, dueOn time.Time) error {
	args := m.Called(ctx, projectRecordID, text, dueOn)
	return args.Error(0)
}

func (m *Store) PatchProjectFields(ctx context.Context, jobNumber string, patch job.Patch) error {
	args := m.Called(ctx, jobNumber, patch)
	return args.Error(0)
}

func (m *Store) IncrementClientSequence(ctx context.Context, code string) (job.SequenceGrant, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(job.SequenceGrant), args.Error(1)
}

func (m *Store) IncrementProjectRound(ctx context.Context, jobNumber string) (int, error) {
	args := m.Called(ctx, jobNumber)
	return args.Int(0), args.Error(1)
}

// Classifier is a mock for oracle.Classifier.
type Classifier struct {
	mock.Mock
}

func (m *Classifier) Classify(ctx context.Context, intent oracle.Intent, document string) (map[string]any, error) {
	args := m.Called(ctx, intent, document)
	if doc, ok := args.Get(0).(map[string]any); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

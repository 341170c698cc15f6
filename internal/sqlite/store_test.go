package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/hunchagency/dot/internal/domain/allocation"
	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/repository"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(NewTestDB(t), nil)
	store.now = func() time.Time { return time.Date(2026, 10, 16, 11, 0, 0, 0, time.UTC) }
	require.NoError(t, store.SeedClient(context.Background(), job.Client{
		RecordID:        "recTOW",
		Code:            "TOW",
		Name:            "Tower",
		TeamsChannelRef: "teams-tow",
		DocumentRootRef: "https://sp/tow",
		NextSequence:    23,
	}))
	return store
}

func createProject(t *testing.T, store *Store, jobNumber string) string {
	t.Helper()
	id, err := store.CreateProject(context.Background(), job.NewProject{
		JobNumber:      jobNumber,
		JobName:        "Winter TVC",
		Description:    "30s spot",
		Owner:          "Michelle",
		ClientRecordID: "recTOW",
	})
	require.NoError(t, err)
	return id
}

func TestSeedClient_KeepsExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SeedClient(ctx, job.Client{Code: "TOW", Name: "Other", NextSequence: 1}))
	client, err := store.FindClientByCode(ctx, "TOW")
	require.NoError(t, err)
	require.Equal(t, "Tower", client.Name)
	require.Equal(t, 23, client.NextSequence)

	require.ErrorIs(t, store.SeedClient(ctx, job.Client{Name: "No code"}), job.ErrInvalidInput)
}

func TestIncrementClientSequence_Consecutive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.IncrementClientSequence(ctx, "TOW")
	require.NoError(t, err)
	second, err := store.IncrementClientSequence(ctx, "TOW")
	require.NoError(t, err)

	require.Equal(t, "TOW 023", first.JobNumber)
	require.Equal(t, "TOW 024", second.JobNumber)
	require.Equal(t, "teams-tow", first.TeamsChannelRef)
	require.Equal(t, "https://sp/tow", first.DocumentRootRef)
	require.Equal(t, "recTOW", first.ClientRecordID)

	_, err = store.IncrementClientSequence(ctx, "SKY")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAllocatorOverStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alloc := allocation.NewAllocator(store, allocation.DefaultPolicy(), nil)

	res := alloc.Allocate(ctx, "TOW")
	require.True(t, res.Allocated())
	require.Equal(t, "TOW 023", res.JobNumber)

	res = alloc.Allocate(ctx, "SKY")
	require.True(t, res.Pending)
	require.Equal(t, "SKY TBC", res.JobNumber)
	require.Empty(t, res.ClientRecordID)
}

func TestFindProjectByJobNumber(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := createProject(t, store, "TOW 023")

	proj, err := store.FindProjectByJobNumber(ctx, "TOW 023")
	require.NoError(t, err)
	require.Equal(t, id, proj.RecordID)
	require.Equal(t, "Tower", proj.ClientName)
	require.Equal(t, job.StageTriage, proj.Stage)
	require.Equal(t, job.StatusInProgress, proj.Status)
	require.Equal(t, 0, proj.Round)
	require.False(t, proj.WithClient)
	require.Equal(t, "teams-tow", proj.TeamsChannelRef)

	_, err = store.FindProjectByJobNumber(ctx, "ABC 999")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateProject_Duplicate(t *testing.T) {
	store := newTestStore(t)
	createProject(t, store, "TOW 023")

	_, err := store.CreateProject(context.Background(), job.NewProject{JobNumber: "TOW 023", JobName: "again"})
	require.ErrorIs(t, err, repository.ErrWriteFailed)
}

func TestListActiveProjects(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createProject(t, store, "TOW 023")
	createProject(t, store, "TOW 024")
	createProject(t, store, "TOWX 001")
	createProject(t, store, "ONE 001")
	require.NoError(t, store.PatchProjectFields(ctx, "TOW 024", job.Patch{job.FieldStatus: "Complete"}))

	jobs := store.ListActiveProjects(ctx, "TOW")
	require.Len(t, jobs, 2)
	require.Equal(t, "TOW 023", jobs[0].JobNumber)
	require.Equal(t, "30s spot", jobs[0].Description)
	require.Equal(t, "TOWX 001", jobs[1].JobNumber)

	require.Empty(t, store.ListActiveProjects(ctx, "SKY"))
}

func TestCreateUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := createProject(t, store, "TOW 023")

	require.NoError(t, store.CreateUpdate(ctx, id, "Chasing feedback", time.Time{}))
	require.NoError(t, store.CreateUpdate(ctx, id, "Live 1 Nov", time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)))
	require.ErrorIs(t, store.CreateUpdate(ctx, "recMissing", "x", time.Time{}), repository.ErrWriteFailed)

	updates, err := store.ListUpdates(ctx, id)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	require.Equal(t, "Chasing feedback", updates[0].Text)
	require.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), updates[0].CreatedOn)
	require.Equal(t, time.Date(2026, 10, 23, 0, 0, 0, 0, time.UTC), updates[0].DueOn)
	require.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), updates[1].DueOn)
}

func TestPatchProjectFields_Allowlist(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createProject(t, store, "TOW 023")

	err := store.PatchProjectFields(ctx, "TOW 023", job.Patch{
		job.FieldStage:      "Live",
		job.FieldWithClient: true,
		job.FieldLiveDate:   "2026-11-01",
		"Project Owner":     "someone else",
		"Round":             99,
	})
	require.NoError(t, err)

	proj, err := store.FindProjectByJobNumber(ctx, "TOW 023")
	require.NoError(t, err)
	require.Equal(t, job.Stage("Live"), proj.Stage)
	require.True(t, proj.WithClient)
	require.Equal(t, 0, proj.Round)

	var owner, liveDate string
	require.NoError(t, store.db.QueryRow(`SELECT owner, live_date FROM projects WHERE job_number = ?`, "TOW 023").Scan(&owner, &liveDate))
	require.Equal(t, "Michelle", owner)
	require.Equal(t, "2026-11-01", liveDate)

	require.NoError(t, store.PatchProjectFields(ctx, "TOW 023", job.Patch{"Owner": "x"}))
	require.ErrorIs(t, store.PatchProjectFields(ctx, "ABC 999", job.Patch{job.FieldStage: "Live"}), repository.ErrWriteFailed)
	require.ErrorIs(t, store.PatchProjectFields(ctx, "ABC 999", job.Patch{}), repository.ErrWriteFailed)
}

func TestIncrementProjectRound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createProject(t, store, "TOW 023")

	const n = 4
	var round int
	for i := 0; i < n; i++ {
		var err error
		round, err = store.IncrementProjectRound(ctx, "TOW 023")
		require.NoError(t, err)
		require.Equal(t, i+1, round)
		require.Equal(t, round >= 3, job.IsChargeable(round))
	}
	require.Equal(t, n, round)

	_, err := store.IncrementProjectRound(ctx, "ABC 999")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

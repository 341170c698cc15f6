package airtable

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/repository"
	"github.com/stretchr/testify/require"
)

type captured struct {
	Method  string
	Path    string
	Formula string
	Offset  string
	Fields  map[string]any
}

type fakeAirtable struct {
	mu       sync.Mutex
	requests []captured
	// respond returns the status and JSON body for a request.
	respond func(c captured) (int, any)
}

func (f *fakeAirtable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := captured{
		Method:  r.Method,
		Path:    r.URL.Path,
		Formula: r.URL.Query().Get("filterByFormula"),
		Offset:  r.URL.Query().Get("offset"),
	}
	if r.Header.Get("Authorization") != "Bearer key-123" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"type":"AUTHENTICATION_REQUIRED","message":"no"}}`)
		return
	}
	if r.Body != nil {
		var body struct {
			Fields map[string]any `json:"fields"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		c.Fields = body.Fields
	}
	f.mu.Lock()
	f.requests = append(f.requests, c)
	f.mu.Unlock()

	status, body := f.respond(c)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, fake *fakeAirtable) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c := New(Config{APIKey: "key-123", BaseID: "appTEST", BaseURL: srv.URL}, nil)
	c.now = func() time.Time { return time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC) }
	return c
}

func records(recs ...map[string]any) map[string]any {
	return map[string]any{"records": recs}
}

func TestFindProjectByJobNumber(t *testing.T) {
	fake := &fakeAirtable{respond: func(c captured) (int, any) {
		return http.StatusOK, records(map[string]any{
			"id": "recP1",
			"fields": map[string]any{
				"Job Number":       "ONE 125",
				"Project Name":     "Spring promo",
				"Client":           []any{"One NZ"},
				"Stage":            "In Progress",
				"Status":           "On Hold",
				"Round":            2,
				"With Client?":     true,
				"Teams Channel ID": "chan-1",
			},
		})
	}}
	c := newTestClient(t, fake)

	proj, err := c.FindProjectByJobNumber(context.Background(), "ONE 125")
	require.NoError(t, err)
	require.Equal(t, "recP1", proj.RecordID)
	require.Equal(t, "One NZ", proj.ClientName)
	require.Equal(t, 2, proj.Round)
	require.True(t, proj.WithClient)
	require.Equal(t, job.StatusOnHold, proj.Status)
	require.Equal(t, "chan-1", proj.TeamsChannelRef)

	require.Len(t, fake.requests, 1)
	require.Equal(t, "/appTEST/Projects", fake.requests[0].Path)
	require.Equal(t, "{Job Number}='ONE 125'", fake.requests[0].Formula)
}

func TestFindProjectByJobNumber_FailuresReadAsNotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
	}{
		{name: "empty", status: http.StatusOK, body: records()},
		{name: "server error", status: http.StatusInternalServerError, body: map[string]any{"error": "SERVER_ERROR"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeAirtable{respond: func(captured) (int, any) { return tt.status, tt.body }})
			_, err := c.FindProjectByJobNumber(context.Background(), "ABC 999")
			require.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestQuoteEscapesFormulaValues(t *testing.T) {
	fake := &fakeAirtable{respond: func(captured) (int, any) { return http.StatusOK, records() }}
	c := newTestClient(t, fake)

	_, _ = c.FindProjectByJobNumber(context.Background(), "O'NE 1")
	require.Equal(t, `{Job Number}='O\'NE 1'`, fake.requests[0].Formula)
}

func TestMissingAPIKeyMakesNoCalls(t *testing.T) {
	fake := &fakeAirtable{respond: func(captured) (int, any) { return http.StatusOK, records() }}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	c := New(Config{BaseID: "appTEST", BaseURL: srv.URL}, nil)
	ctx := context.Background()

	_, err := c.FindProjectByJobNumber(ctx, "ONE 125")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.Nil(t, c.ListActiveProjects(ctx, "ONE"))
	require.ErrorIs(t, c.CreateUpdate(ctx, "recP1", "x", time.Time{}), repository.ErrWriteFailed)
	require.ErrorIs(t, c.PatchProjectFields(ctx, "ONE 125", job.Patch{"Stage": "Live"}), repository.ErrWriteFailed)
	_, err = c.IncrementProjectRound(ctx, "ONE 125")
	require.Error(t, err)
	require.Empty(t, fake.requests)
}

func TestListActiveProjects_FollowsOffset(t *testing.T) {
	fake := &fakeAirtable{respond: func(c captured) (int, any) {
		if c.Offset == "" {
			return http.StatusOK, map[string]any{
				"records": []any{map[string]any{"id": "r1", "fields": map[string]any{"Job Number": "SKY 001", "Project Name": "A", "Description": "first"}}},
				"offset":  "page2",
			}
		}
		return http.StatusOK, records(map[string]any{"id": "r2", "fields": map[string]any{"Job Number": "SKY 002", "Project Name": "B"}})
	}}
	c := newTestClient(t, fake)

	jobs := c.ListActiveProjects(context.Background(), "SKY")
	require.Equal(t, []job.ProjectSummary{
		{JobNumber: "SKY 001", JobName: "A", Description: "first"},
		{JobNumber: "SKY 002", JobName: "B"},
	}, jobs)
	require.Len(t, fake.requests, 2)
	require.Equal(t, "AND(FIND('SKY', {Job Number})=1, OR({Status}='In Progress', {Status}='On Hold'))", fake.requests[0].Formula)
}

func TestListActiveProjects_FailureIsEmpty(t *testing.T) {
	c := newTestClient(t, &fakeAirtable{respond: func(captured) (int, any) {
		return http.StatusUnprocessableEntity, map[string]any{"error": map[string]any{"type": "INVALID_FILTER_BY_FORMULA", "message": "bad"}}
	}})
	require.Empty(t, c.ListActiveProjects(context.Background(), "SKY"))
}

func TestCreateProject(t *testing.T) {
	fake := &fakeAirtable{respond: func(captured) (int, any) {
		return http.StatusOK, map[string]any{"id": "recNEW", "fields": map[string]any{}}
	}}
	c := newTestClient(t, fake)

	id, err := c.CreateProject(context.Background(), job.NewProject{
		JobNumber:      "TOW 024",
		JobName:        "Winter TVC",
		Description:    "30s",
		Owner:          "Michelle",
		ClientRecordID: "recTOW",
	})
	require.NoError(t, err)
	require.Equal(t, "recNEW", id)

	req := fake.requests[0]
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "Triage", req.Fields["Stage"])
	require.Equal(t, "In Progress", req.Fields["Status"])
	require.Equal(t, "2026-10-16", req.Fields["Start Date"])
	require.Equal(t, []any{"recTOW"}, req.Fields["Client Link"])
}

func TestCreateUpdate_DefaultDue(t *testing.T) {
	fake := &fakeAirtable{respond: func(captured) (int, any) {
		return http.StatusOK, map[string]any{"id": "recU1", "fields": map[string]any{}}
	}}
	c := newTestClient(t, fake)

	require.NoError(t, c.CreateUpdate(context.Background(), "recP1", "Chasing", time.Time{}))
	req := fake.requests[0]
	require.Equal(t, "/appTEST/Updates", req.Path)
	require.Equal(t, []any{"recP1"}, req.Fields["Project Link"])
	require.Equal(t, "2026-10-16", req.Fields["Updated on"])
	require.Equal(t, "2026-10-23", req.Fields["Update due"])
}

func TestPatchProjectFields_Allowlist(t *testing.T) {
	fake := &fakeAirtable{respond: func(c captured) (int, any) {
		if c.Method == http.MethodGet {
			return http.StatusOK, records(map[string]any{"id": "recP1", "fields": map[string]any{"Job Number": "ONE 125"}})
		}
		return http.StatusOK, map[string]any{"id": "recP1", "fields": map[string]any{}}
	}}
	c := newTestClient(t, fake)

	err := c.PatchProjectFields(context.Background(), "ONE 125", job.Patch{
		"Stage":         "Live",
		"Project Owner": "someone",
		"Status":        nil,
	})
	require.NoError(t, err)
	require.Len(t, fake.requests, 2)
	require.Equal(t, "/appTEST/Projects/recP1", fake.requests[1].Path)
	require.Equal(t, map[string]any{"Stage": "Live"}, fake.requests[1].Fields)
}

func TestPatchProjectFields_NothingAllowedSkipsWrite(t *testing.T) {
	fake := &fakeAirtable{respond: func(captured) (int, any) {
		return http.StatusOK, records(map[string]any{"id": "recP1", "fields": map[string]any{}})
	}}
	c := newTestClient(t, fake)

	require.NoError(t, c.PatchProjectFields(context.Background(), "ONE 125", job.Patch{"Owner": "x"}))
	require.Len(t, fake.requests, 1)
}

func TestIncrementClientSequence(t *testing.T) {
	fake := &fakeAirtable{respond: func(c captured) (int, any) {
		if c.Method == http.MethodGet {
			return http.StatusOK, records(map[string]any{"id": "recTOW", "fields": map[string]any{
				"Client code":   "TOW",
				"Client":        "Tower",
				"Teams ID":      "teams-tow",
				"Sharepoint ID": "https://sp/tow",
				"Next #":        23,
			}})
		}
		return http.StatusOK, map[string]any{"id": "recTOW", "fields": map[string]any{}}
	}}
	c := newTestClient(t, fake)

	grant, err := c.IncrementClientSequence(context.Background(), "TOW")
	require.NoError(t, err)
	require.Equal(t, job.SequenceGrant{
		JobNumber:       "TOW 023",
		TeamsChannelRef: "teams-tow",
		DocumentRootRef: "https://sp/tow",
		ClientRecordID:  "recTOW",
	}, grant)
	require.Equal(t, "{Client code}='TOW'", fake.requests[0].Formula)
	require.Equal(t, http.MethodPatch, fake.requests[1].Method)
	require.EqualValues(t, 24, fake.requests[1].Fields["Next #"])
}

func TestIncrementClientSequence_UnsetCounterStartsAtOne(t *testing.T) {
	for name, fields := range map[string]map[string]any{
		"missing": {},
		"null":    {"Next #": nil},
		"zero":    {"Next #": 0},
	} {
		t.Run(name, func(t *testing.T) {
			fake := &fakeAirtable{respond: func(c captured) (int, any) {
				if c.Method == http.MethodGet {
					return http.StatusOK, records(map[string]any{"id": "recONE", "fields": fields})
				}
				return http.StatusOK, map[string]any{"id": "recONE", "fields": map[string]any{}}
			}}
			c := newTestClient(t, fake)

			grant, err := c.IncrementClientSequence(context.Background(), "ONE")
			require.NoError(t, err)
			require.Equal(t, "ONE 001", grant.JobNumber)
			require.EqualValues(t, 2, fake.requests[1].Fields["Next #"])
		})
	}
}

func TestIncrementClientSequence_PatchFailure(t *testing.T) {
	fake := &fakeAirtable{respond: func(c captured) (int, any) {
		if c.Method == http.MethodGet {
			return http.StatusOK, records(map[string]any{"id": "recTOW", "fields": map[string]any{"Next #": 5}})
		}
		return http.StatusServiceUnavailable, map[string]any{"error": "UNAVAILABLE"}
	}}
	c := newTestClient(t, fake)

	_, err := c.IncrementClientSequence(context.Background(), "TOW")
	require.ErrorIs(t, err, repository.ErrWriteFailed)
}

func TestIncrementProjectRound(t *testing.T) {
	fake := &fakeAirtable{respond: func(c captured) (int, any) {
		if c.Method == http.MethodGet {
			return http.StatusOK, records(map[string]any{"id": "recP1", "fields": map[string]any{"Job Number": "ONE 125"}})
		}
		return http.StatusOK, map[string]any{"id": "recP1", "fields": map[string]any{}}
	}}
	c := newTestClient(t, fake)

	round, err := c.IncrementProjectRound(context.Background(), "ONE 125")
	require.NoError(t, err)
	require.Equal(t, 1, round)
	require.EqualValues(t, 1, fake.requests[1].Fields["Round"])
}

func TestReadAPIError(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(rec, `{"error":"NOT_FOUND"}`)
	err := readAPIError(rec.Result())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "NOT_FOUND", apiErr.Type)
}

package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/hunchagency/dot/internal/domain/activity"
	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/oracle"
	"github.com/hunchagency/dot/internal/testserver"
)

const token = "integration-token"

func TestIntegration_JobLifecycle(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, token)

	// Triage allocates the client's next number and creates the project.
	ts.Classifier.Push(oracle.IntentTriage, map[string]any{
		"clientCode":   "TOW",
		"clientName":   "Tower",
		"jobName":      "Winter TVC",
		"jobSummary":   "30s spot for winter",
		"projectOwner": "Michelle",
		"emailBody":    "<p>New job</p>",
	})
	status, body := ts.Post(t, "/triage", map[string]any{"emailContent": "Please brief a winter TVC"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "TOW 023", body["jobNumber"])
	require.Equal(t, false, body["pending"])
	require.Equal(t, "chan-tow", body["teamId"])

	proj, err := ts.Store.FindProjectByJobNumber(ctx, "TOW 023")
	require.NoError(t, err)
	require.Equal(t, job.StageTriage, proj.Stage)
	require.Equal(t, "Tower", proj.ClientName)

	next, err := ts.Store.FindClientByCode(ctx, "TOW")
	require.NoError(t, err)
	require.Equal(t, 24, next.NextSequence)

	// A confident route to the new job is enriched with its live state.
	ts.Classifier.Push(oracle.IntentRouting, map[string]any{
		"route":      "update",
		"confidence": "high",
		"jobNumber":  "TOW 023",
		"reason":     "status question",
	})
	status, body = ts.Post(t, "/traffic", map[string]any{
		"emailContent":  "Where are we with TOW 023?",
		"subjectLine":   "TOW 023",
		"senderEmail":   "sarah@tower.co.nz",
		"allRecipients": []string{"dot@hunch.co.nz"},
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "update", body["route"])
	require.Equal(t, "Winter TVC", body["jobName"])
	require.Equal(t, "Triage", body["currentStage"])
	require.Equal(t, "email", body["source"])

	calls := ts.Classifier.Calls()
	require.Contains(t, calls[len(calls)-1].Document, "TOW 023 - Winter TVC")

	// The update journals and patches allowlisted fields only.
	ts.Classifier.Push(oracle.IntentUpdate, map[string]any{
		"airtableUpdate": "Script approved, casting next",
		"projectUpdates": map[string]any{
			"Stage":         "In Progress",
			"Update due":    "2026-11-02",
			"Project Owner": "someone else",
		},
	})
	status, body = ts.Post(t, "/update", map[string]any{"jobNumber": "TOW 023", "emailContent": "Script approved"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, body["updateCreated"])
	require.Equal(t, true, body["projectUpdated"])
	require.Equal(t, "2 Nov", body["updateDue"])

	updates, err := ts.Store.ListUpdates(ctx, proj.RecordID)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.Equal(t, "Script approved, casting next", updates[0].Text)

	// Three rounds out; the third is chargeable.
	for round := 1; round <= 3; round++ {
		ts.Classifier.Push(oracle.IntentDispatch, map[string]any{})
		status, body = ts.Post(t, "/work-to-client", map[string]any{
			"jobNumber":       "TOW 023",
			"emailContent":    "Attached is the latest cut",
			"attachmentNames": "cut.mp4",
		})
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, float64(round), body["newRound"])
	}
	require.Equal(t, true, body["chargeableFlag"])
	require.Contains(t, body["teamsPost"], "SENT TO CLIENT | Round 3")
	require.Equal(t, "Round 3 sent to client", body["updateText"])

	proj, err = ts.Store.FindProjectByJobNumber(ctx, "TOW 023")
	require.NoError(t, err)
	require.Equal(t, 3, proj.Round)
	require.True(t, proj.WithClient)
	require.Equal(t, job.Stage("In Progress"), proj.Stage)

	sent := activity.TypeSentToClient
	entries, err := ts.Activity.GetRecentActivity(ctx, activity.ListOptions{JobNumber: "TOW 023", Type: &sent})
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestIntegration_UnknownJobClarifies(t *testing.T) {
	ts := testserver.New(t, token)

	ts.Classifier.Push(oracle.IntentRouting, map[string]any{
		"route":      "update",
		"confidence": "high",
		"jobNumber":  "ONE 999",
		"senderName": "Sarah",
	})
	status, body := ts.Post(t, "/traffic", map[string]any{"emailContent": "Any news on ONE 999?", "senderEmail": "sarah@one.nz"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "clarify", body["route"])
	require.Equal(t, "low", body["confidence"])
	require.Contains(t, body["clarifyEmail"], "Hi Sarah")
	require.Contains(t, body["clarifyEmail"], "ONE 999")

	status, body = ts.Post(t, "/update", map[string]any{"jobNumber": "ONE 999", "emailContent": "news"})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "job_not_found", body["error"])
	require.Equal(t, "ONE 999", body["jobNumber"])
}

func TestIntegration_PendingClient(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, token)

	ts.Classifier.Push(oracle.IntentTriage, map[string]any{"clientCode": "SKY", "jobName": "Launch"})
	status, body := ts.Post(t, "/triage", map[string]any{"emailContent": "Sky brief"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "SKY TBC", body["jobNumber"])
	require.Equal(t, true, body["pending"])
	require.Nil(t, body["jobRecordId"])

	_, err := ts.Store.FindProjectByJobNumber(ctx, "SKY TBC")
	require.Error(t, err)
}

func TestIntegration_ClassifierFaults(t *testing.T) {
	ts := testserver.New(t, token)

	ts.Classifier.Push(oracle.IntentRouting, map[string]any{"route": "update"})
	status, body := ts.Post(t, "/traffic", map[string]any{"emailContent": "hello"})
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "classifier returned invalid JSON", body["error"])

	status, body = ts.Post(t, "/traffic", map[string]any{"emailContent": "hello"})
	require.Equal(t, http.StatusBadGateway, status)
	require.Equal(t, "classifier unavailable", body["error"])

	ts.Classifier.Push(oracle.IntentUpdate, map[string]any{"error": "not an update"})
	ts.Classifier.Push(oracle.IntentTriage, map[string]any{"clientCode": "ONE", "jobName": "Spring"})
	status, _ = ts.Post(t, "/triage", map[string]any{"emailContent": "brief"})
	require.Equal(t, http.StatusOK, status)
	status, body = ts.Post(t, "/update", map[string]any{"jobNumber": "ONE 125", "emailContent": "hi"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "not an update", body["error"])
}

func TestIntegration_AuthAndHealth(t *testing.T) {
	ts := testserver.New(t, token)

	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	anon := *ts
	anon.Token = ""
	status, body := anon.Post(t, "/traffic", map[string]any{"emailContent": "x"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "missing bearer token", body["error"])

	status, body = ts.Post(t, "/traffic", map[string]any{})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body["error"], "no content provided")
}

func TestIntegration_MCPOverHTTP(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, token)

	ts.Classifier.Push(oracle.IntentTriage, map[string]any{"clientCode": "ONE", "jobName": "Spring promo"})
	session := ts.MCPSession(t)

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "triage_job",
		Arguments: map[string]any{"content": "Spring promo brief"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	result, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "get_job",
		Arguments: map[string]any{"job_number": "ONE 125"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	var proj job.Project
	require.NoError(t, json.Unmarshal([]byte(text.Text), &proj))
	require.Equal(t, "Spring promo", proj.JobName)
	require.Equal(t, "One NZ", proj.ClientName)

	result, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "recent_activity",
		Arguments: map[string]any{"job_number": "ONE 125"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	text, ok = result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	require.Contains(t, text.Text, string(activity.TypeJobCreated))
}

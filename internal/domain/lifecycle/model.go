package lifecycle

import (
	"encoding/json"
	"maps"
	"time"

	"github.com/hunchagency/dot/internal/domain/job"
)

// DispatchRequest describes work sent to a client.
type DispatchRequest struct {
	JobNumber         string
	Content           string
	AttachmentNames   []string
	ExternalRecipient string
}

// TriageResult is the outcome of setting up a new job.
type TriageResult struct {
	JobNumber       string
	JobName         string
	ClientCode      string
	ClientName      string
	ProjectOwner    string
	TeamsChannelRef string
	DocumentRootRef string
	ProjectRecordID string
	// Pending is set when no job number was allocated and no project was
	// created.
	Pending   bool
	EmailBody string
	Analysis  map[string]any
}

func (r TriageResult) MarshalJSON() ([]byte, error) {
	analysis := r.Analysis
	if analysis == nil {
		analysis = map[string]any{}
	}
	return json.Marshal(map[string]any{
		"jobNumber":     r.JobNumber,
		"jobName":       r.JobName,
		"clientCode":    r.ClientCode,
		"clientName":    r.ClientName,
		"projectOwner":  r.ProjectOwner,
		"teamId":        nullable(r.TeamsChannelRef),
		"sharepointUrl": nullable(r.DocumentRootRef),
		"jobRecordId":   nullable(r.ProjectRecordID),
		"pending":       r.Pending,
		"emailBody":     r.EmailBody,
		"fullAnalysis":  analysis,
	})
}

// UpdateResult is the outcome of a status update.
type UpdateResult struct {
	JobNumber       string
	UpdateText      string
	UpdateCreated   bool
	ProjectUpdated  bool
	TeamsChannelRef string
	ProjectRecordID string
	DueOn           time.Time
	// Analysis is the classifier's reply, echoed to the caller.
	Analysis map[string]any
}

func (r UpdateResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Analysis)+5)
	maps.Copy(out, r.Analysis)
	out["updateCreated"] = r.UpdateCreated
	out["projectUpdated"] = r.ProjectUpdated
	out["teamsChannelId"] = nullable(r.TeamsChannelRef)
	out["projectRecordId"] = r.ProjectRecordID
	if !r.DueOn.IsZero() {
		out["updateDue"] = job.FormatDisplayDate(r.DueOn.Format(job.DateLayout))
	}
	return json.Marshal(out)
}

// DispatchResult is the outcome of sending work to a client.
type DispatchResult struct {
	JobNumber       string
	JobName         string
	ClientName      string
	Round           int
	FolderPath      string
	TeamsPost       string
	Chargeable      bool
	UpdateText      string
	UpdateCreated   bool
	TeamsChannelRef string
	ProjectRecordID string
}

func (r DispatchResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"jobNumber":       r.JobNumber,
		"jobName":         r.JobName,
		"clientName":      r.ClientName,
		"newRound":        r.Round,
		"folderPath":      r.FolderPath,
		"teamsPost":       r.TeamsPost,
		"chargeableFlag":  r.Chargeable,
		"updateText":      r.UpdateText,
		"updateCreated":   r.UpdateCreated,
		"teamsChannelId":  nullable(r.TeamsChannelRef),
		"projectRecordId": r.ProjectRecordID,
	})
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

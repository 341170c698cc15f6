package routing

import (
	"encoding/json"
	"maps"

	"github.com/hunchagency/dot/internal/domain/job"
)

// DefaultSource is the channel assumed when a message does not name one.
const DefaultSource = "email"

// Message is an inbound email or chat message to be routed.
type Message struct {
	Content         string
	Subject         string
	SenderAddress   string
	SenderName      string
	Recipients      []string
	HasAttachments  bool
	AttachmentNames []string
	SourceChannel   string
}

// Enrichment is live job state merged into a high-confidence decision.
type Enrichment struct {
	JobName         string
	ClientName      string
	CurrentRound    int
	CurrentStage    job.Stage
	WithClient      bool
	TeamsChannelRef string
	ProjectRecordID string
}

// Decision is the routing outcome for one message. It is never persisted.
type Decision struct {
	Route             job.Route
	Confidence        job.Confidence
	JobNumber         string
	Reason            string
	Enrichment        *Enrichment
	ClarificationText string
	Source            string

	// Fields holds every key the classifier returned.
	Fields map[string]any
}

// MarshalJSON emits the classifier's keys overlaid with the decision.
func (d Decision) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+12)
	maps.Copy(out, d.Fields)

	out["route"] = d.Route
	out["confidence"] = d.Confidence
	if d.JobNumber != "" {
		out["jobNumber"] = d.JobNumber
	}
	if d.Reason != "" {
		out["reason"] = d.Reason
	}
	if e := d.Enrichment; e != nil {
		out["jobName"] = e.JobName
		out["clientName"] = e.ClientName
		out["currentRound"] = e.CurrentRound
		out["currentStage"] = e.CurrentStage
		out["withClient"] = e.WithClient
		out["teamsChannelId"] = nullable(e.TeamsChannelRef)
		out["projectRecordId"] = e.ProjectRecordID
	}
	if d.ClarificationText != "" {
		out["clarifyEmail"] = d.ClarificationText
	}
	out["source"] = d.Source
	return json.Marshal(out)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

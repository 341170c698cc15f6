package job

import "time"

// Stage is a project's workflow stage. The set is open; the registry may
// hold stages this service never writes.
type Stage string

const (
	StageTriage     Stage = "Triage"
	StageInProgress Stage = "In Progress"
)

// Status is a project's commercial status.
type Status string

const (
	StatusInProgress Status = "In Progress"
	StatusOnHold     Status = "On Hold"
	StatusComplete   Status = "Complete"
)

// ActiveStatuses are the statuses listed as classification context.
var ActiveStatuses = []Status{StatusInProgress, StatusOnHold}

// Client is a registry client. NextSequence is only ever advanced by the
// store's sequence increment.
type Client struct {
	RecordID        string `json:"recordId"`
	Code            string `json:"clientCode"`
	Name            string `json:"clientName"`
	TeamsChannelRef string `json:"teamsId,omitempty"`
	DocumentRootRef string `json:"sharepointUrl,omitempty"`
	NextSequence    int    `json:"nextNumber"`
}

// Project is a job in the registry.
type Project struct {
	RecordID        string `json:"recordId"`
	JobNumber       string `json:"jobNumber"`
	JobName         string `json:"jobName"`
	ClientName      string `json:"clientName"`
	Description     string `json:"description,omitempty"`
	Stage           Stage  `json:"stage"`
	Status          Status `json:"status"`
	Round           int    `json:"round"`
	WithClient      bool   `json:"withClient"`
	TeamsChannelRef string `json:"teamsChannelId,omitempty"`
}

// ProjectSummary is the listing shape used as classification context.
type ProjectSummary struct {
	JobNumber   string `json:"jobNumber"`
	JobName     string `json:"jobName"`
	Description string `json:"description"`
}

// Update is an append-only journal entry against a project.
type Update struct {
	RecordID        string    `json:"recordId"`
	ProjectRecordID string    `json:"projectRecordId"`
	Text            string    `json:"text"`
	CreatedOn       time.Time `json:"createdOn"`
	DueOn           time.Time `json:"dueOn"`
}

// NewProject describes a project to create at triage.
type NewProject struct {
	JobNumber      string
	JobName        string
	Description    string
	Owner          string
	ClientRecordID string
}

// SequenceGrant is what the store hands back after advancing a client's
// job sequence.
type SequenceGrant struct {
	JobNumber       string
	TeamsChannelRef string
	DocumentRootRef string
	ClientRecordID  string
}

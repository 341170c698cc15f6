package activity

import "time"

// Type identifies a lifecycle action in the audit trail.
type Type string

const (
	TypeJobCreated     Type = "job_created"
	TypeJobPending     Type = "job_pending"
	TypeUpdateLogged   Type = "update_logged"
	TypeProjectPatched Type = "project_patched"
	TypeRoundAdvanced  Type = "round_advanced"
	TypeSentToClient   Type = "sent_to_client"
)

// Entry is one audited lifecycle action.
type Entry struct {
	ID              int64     `json:"id"`
	JobNumber       string    `json:"job_number"`
	ProjectRecordID string    `json:"project_record_id,omitempty"`
	Type            Type      `json:"type"`
	Summary         string    `json:"summary"`
	Details         string    `json:"details,omitempty"` // JSON string
	CreatedAt       time.Time `json:"created_at"`
}

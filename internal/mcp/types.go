package mcp

type RouteMessageInput struct {
	Content         string   `json:"content" jsonschema:"the message body"`
	Subject         string   `json:"subject,omitempty" jsonschema:"email subject line"`
	SenderEmail     string   `json:"sender_email,omitempty" jsonschema:"sender address, used to infer the client"`
	SenderName      string   `json:"sender_name,omitempty"`
	Recipients      []string `json:"recipients,omitempty"`
	HasAttachments  bool     `json:"has_attachments,omitempty"`
	AttachmentNames []string `json:"attachment_names,omitempty"`
	Source          string   `json:"source,omitempty" jsonschema:"email or teams; defaults to email"`
}

type TriageJobInput struct {
	Content string `json:"content" jsonschema:"the brief to triage into a new job"`
}

type UpdateJobInput struct {
	JobNumber string `json:"job_number" jsonschema:"job number, e.g. ONE 125"`
	Content   string `json:"content" jsonschema:"the status update message"`
}

type SendToClientInput struct {
	JobNumber         string   `json:"job_number" jsonschema:"job number, e.g. ONE 125"`
	Content           string   `json:"content,omitempty" jsonschema:"the covering message sent with the work"`
	AttachmentNames   []string `json:"attachment_names,omitempty"`
	ExternalRecipient string   `json:"external_recipient,omitempty"`
}

type GetJobInput struct {
	JobNumber string `json:"job_number" jsonschema:"job number, e.g. ONE 125"`
}

type RecentActivityInput struct {
	JobNumber string `json:"job_number,omitempty" jsonschema:"limit to one job"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum entries, default 20"`
}

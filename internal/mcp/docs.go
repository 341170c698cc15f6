package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `dot is the traffic desk for an agency job registry: Clients -> Projects (jobs) -> Updates.

Core concepts:
- Job number: "<CLIENT> <NNN>", e.g. "ONE 125". A brief for an unknown or internal client gets "<CLIENT> TBC" and no project.
- Round: how many times work has gone to the client. Round 3 onwards is chargeable.
- Update: append-only journal entry on a job with a due date (default: five business days out).

Workflow:
1) Unsure what a message is? call route_message. It returns route + confidence and, for known jobs, live job state.
2) Route triage -> triage_job. Route update -> update_job. Route work-to-client -> send_to_client.
3) Route clarify -> reply to the sender with the returned clarifyEmail; do not act on the job.
4) get_job to check a job before acting; recent_activity (when enabled) to see what dot already did.

Docs:
- dot://docs/routes
- dot://docs/lifecycle
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "dot://docs/routes",
		Name:        "docs_routes",
		Title:       "Routing rules",
		Description: "What each route means and when route_message falls back to clarify.",
		Content: `# Routes

| Route | Meaning | Next tool |
|---|---|---|
| triage | a new brief with no job number yet | triage_job |
| update | news about an existing job | update_job |
| work-to-client | work is going out to the client | send_to_client |
| wip | a request for the work-in-progress list | none |
| clarify | dot could not tie the message to a job | reply with clarifyEmail |

## Confidence

Only high-confidence decisions that name a job are checked against the registry.
If the job does not exist the route becomes clarify and a clarification email is drafted.
Medium and low confidence decisions pass through untouched.

## Client inference

The sender's domain picks the client (one.nz -> ONE, sky.co.nz -> SKY, ...).
Active jobs for that client are given to the classifier as context.
`,
	},
	{
		URI:         "dot://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Job lifecycle",
		Description: "What triage_job, update_job and send_to_client write to the registry.",
		Content: `# Lifecycle

## triage_job
- Extracts client code, job name, owner and summary from the brief.
- Allocates the client's next job number and creates the project at stage Triage.
- Internal (HUN) and unknown (TBC) clients are never allocated: the result is "<CODE> TBC" with pending=true.

## update_job
- Journals the update text with its due date ("Update due" from the message, or five business days out).
- Patches only Stage, Status, With Client? and Live Date.
- Unknown job numbers fail with JOB_NOT_FOUND.

## send_to_client
- Advances the round and sets With Client? to true.
- Round 3 and later is flagged chargeable in the Teams post.
- Journals "Round N sent to client" unless the classifier drafted different text.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}

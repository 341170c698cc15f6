package airtable

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/repository"
)

// Registry field names.
const (
	fieldClientCode     = "Client code"
	fieldClientName     = "Client"
	fieldTeamsID        = "Teams ID"
	fieldSharepointID   = "Sharepoint ID"
	fieldNextNumber     = "Next #"
	fieldJobNumber      = "Job Number"
	fieldProjectName    = "Project Name"
	fieldProjectClient  = "Client"
	fieldDescription    = "Description"
	fieldRound          = "Round"
	fieldTeamsChannelID = "Teams Channel ID"
	fieldProjectOwner   = "Project Owner"
	fieldStartDate      = "Start Date"
	fieldClientLink     = "Client Link"
	fieldProjectLink    = "Project Link"
	fieldUpdatedOn      = "Updated on"
)

var _ repository.Store = (*Client)(nil)

// FindProjectByJobNumber looks a project up by exact job number.
func (c *Client) FindProjectByJobNumber(ctx context.Context, jobNumber string) (*job.Project, error) {
	rec, err := c.findProjectRecord(ctx, jobNumber)
	if err != nil {
		return nil, err
	}
	return projectFromRecord(rec, jobNumber), nil
}

func (c *Client) findProjectRecord(ctx context.Context, jobNumber string) (record, error) {
	formula := fmt.Sprintf("{%s}=%s", fieldJobNumber, quote(jobNumber))
	records, err := c.list(ctx, c.cfg.ProjectsTable, formula, 1)
	if err != nil {
		c.logger.Warn("project lookup failed", "job_number", jobNumber, "error", err)
		return record{}, repository.ErrNotFound
	}
	if len(records) == 0 {
		c.logger.Info("project not found", "job_number", jobNumber)
		return record{}, repository.ErrNotFound
	}
	return records[0], nil
}

// FindClientByCode looks a client up by code.
func (c *Client) FindClientByCode(ctx context.Context, code string) (*job.Client, error) {
	formula := fmt.Sprintf("{%s}=%s", fieldClientCode, quote(code))
	records, err := c.list(ctx, c.cfg.ClientsTable, formula, 1)
	if err != nil {
		c.logger.Warn("client lookup failed", "client_code", code, "error", err)
		return nil, repository.ErrNotFound
	}
	if len(records) == 0 {
		c.logger.Info("client not found", "client_code", code)
		return nil, repository.ErrNotFound
	}
	rec := records[0]
	// Sequences start at 001; a missing, null or zero counter reads as 1.
	next := max(intField(rec.Fields, fieldNextNumber), 1)
	return &job.Client{
		RecordID:        rec.ID,
		Code:            code,
		Name:            stringField(rec.Fields, fieldClientName),
		TeamsChannelRef: stringField(rec.Fields, fieldTeamsID),
		DocumentRootRef: stringField(rec.Fields, fieldSharepointID),
		NextSequence:    next,
	}, nil
}

// ListActiveProjects lists In Progress and On Hold projects whose job
// number starts with code.
func (c *Client) ListActiveProjects(ctx context.Context, code string) []job.ProjectSummary {
	statuses := make([]string, 0, len(job.ActiveStatuses))
	for _, status := range job.ActiveStatuses {
		statuses = append(statuses, fmt.Sprintf("{Status}=%s", quote(string(status))))
	}
	formula := fmt.Sprintf("AND(FIND(%s, {%s})=1, OR(%s))", quote(code), fieldJobNumber, strings.Join(statuses, ", "))

	records, err := c.list(ctx, c.cfg.ProjectsTable, formula, 0)
	if err != nil {
		c.logger.Warn("active project listing failed", "client_code", code, "error", err)
		return nil
	}
	out := make([]job.ProjectSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, job.ProjectSummary{
			JobNumber:   stringField(rec.Fields, fieldJobNumber),
			JobName:     stringField(rec.Fields, fieldProjectName),
			Description: stringField(rec.Fields, fieldDescription),
		})
	}
	return out
}

// CreateProject creates a project at stage Triage, status In Progress.
func (c *Client) CreateProject(ctx context.Context, proj job.NewProject) (string, error) {
	fields := map[string]any{
		fieldJobNumber:    proj.JobNumber,
		fieldProjectName:  proj.JobName,
		fieldDescription:  proj.Description,
		job.FieldStatus:   string(job.StatusInProgress),
		job.FieldStage:    string(job.StageTriage),
		fieldProjectOwner: proj.Owner,
		fieldStartDate:    job.Today(c.now()).Format(job.DateLayout),
	}
	if proj.ClientRecordID != "" {
		fields[fieldClientLink] = []string{proj.ClientRecordID}
	}

	created, err := c.create(ctx, c.cfg.ProjectsTable, fields)
	if err != nil {
		c.logger.Warn("project create failed", "job_number", proj.JobNumber, "error", err)
		return "", fmt.Errorf("%w: creating project %s: %v", repository.ErrWriteFailed, proj.JobNumber, err)
	}
	c.logger.Info("project created", "job_number", proj.JobNumber, "record_id", created.ID)
	return created.ID, nil
}

// CreateUpdate appends a journal entry to the Updates table.
func (c *Client) CreateUpdate(ctx context.Context, projectRecordID, text string, dueOn time.Time) error {
	now := c.now()
	if dueOn.IsZero() {
		dueOn = job.DefaultDueDate(now)
	}
	fields := map[string]any{
		fieldProjectLink:   []string{projectRecordID},
		job.FieldUpdate:    text,
		fieldUpdatedOn:     job.Today(now).Format(job.DateLayout),
		job.FieldUpdateDue: dueOn.Format(job.DateLayout),
	}
	if _, err := c.create(ctx, c.cfg.UpdatesTable, fields); err != nil {
		c.logger.Warn("update create failed", "project_record_id", projectRecordID, "error", err)
		return fmt.Errorf("%w: creating update: %v", repository.ErrWriteFailed, err)
	}
	return nil
}

// PatchProjectFields writes the allowlisted subset of patch.
func (c *Client) PatchProjectFields(ctx context.Context, jobNumber string, patch job.Patch) error {
	if c.cfg.APIKey == "" {
		c.logger.Warn("project patch skipped", "job_number", jobNumber, "error", errNoAPIKey)
		return fmt.Errorf("%w: %v", repository.ErrWriteFailed, errNoAPIKey)
	}
	rec, err := c.findProjectRecord(ctx, jobNumber)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrWriteFailed, err)
	}
	fields := patch.Allowed()
	if len(fields) == 0 {
		c.logger.Debug("no project fields to patch", "job_number", jobNumber)
		return nil
	}
	if err := c.patch(ctx, c.cfg.ProjectsTable, rec.ID, fields); err != nil {
		c.logger.Warn("project patch failed", "job_number", jobNumber, "error", err)
		return fmt.Errorf("%w: patching %s: %v", repository.ErrWriteFailed, jobNumber, err)
	}
	c.logger.Info("project patched", "job_number", jobNumber, "fields", len(fields))
	return nil
}

// IncrementClientSequence hands out the client's next job number. The read
// and the write are separate requests; concurrent callers may collide.
func (c *Client) IncrementClientSequence(ctx context.Context, code string) (job.SequenceGrant, error) {
	client, err := c.FindClientByCode(ctx, code)
	if err != nil {
		return job.SequenceGrant{}, err
	}
	sequence := client.NextSequence
	if err := c.patch(ctx, c.cfg.ClientsTable, client.RecordID, map[string]any{fieldNextNumber: sequence + 1}); err != nil {
		c.logger.Warn("client sequence not advanced", "client_code", code, "error", err)
		return job.SequenceGrant{}, fmt.Errorf("%w: advancing %s sequence: %v", repository.ErrWriteFailed, code, err)
	}
	return job.SequenceGrant{
		JobNumber:       job.FormatJobNumber(code, sequence),
		TeamsChannelRef: client.TeamsChannelRef,
		DocumentRootRef: client.DocumentRootRef,
		ClientRecordID:  client.RecordID,
	}, nil
}

// IncrementProjectRound advances the project's round. The read and the
// write are separate requests; concurrent callers may collide.
func (c *Client) IncrementProjectRound(ctx context.Context, jobNumber string) (int, error) {
	rec, err := c.findProjectRecord(ctx, jobNumber)
	if err != nil {
		return 0, err
	}
	round := intField(rec.Fields, fieldRound) + 1
	if err := c.patch(ctx, c.cfg.ProjectsTable, rec.ID, map[string]any{fieldRound: round}); err != nil {
		c.logger.Warn("round not advanced", "job_number", jobNumber, "error", err)
		return 0, fmt.Errorf("%w: advancing %s round: %v", repository.ErrWriteFailed, jobNumber, err)
	}
	c.logger.Info("round advanced", "job_number", jobNumber, "round", round)
	return round, nil
}

func projectFromRecord(rec record, jobNumber string) *job.Project {
	withClient, _ := rec.Fields[job.FieldWithClient].(bool)
	number := stringField(rec.Fields, fieldJobNumber)
	if number == "" {
		number = jobNumber
	}
	return &job.Project{
		RecordID:        rec.ID,
		JobNumber:       number,
		JobName:         stringField(rec.Fields, fieldProjectName),
		ClientName:      stringField(rec.Fields, fieldProjectClient),
		Description:     stringField(rec.Fields, fieldDescription),
		Stage:           job.Stage(stringField(rec.Fields, job.FieldStage)),
		Status:          job.Status(stringField(rec.Fields, job.FieldStatus)),
		Round:           intField(rec.Fields, fieldRound),
		WithClient:      withClient,
		TeamsChannelRef: stringField(rec.Fields, fieldTeamsChannelID),
	}
}

// stringField reads a text field. Linked and lookup fields arrive as lists;
// their first element is used.
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func intField(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

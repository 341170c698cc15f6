package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/repository"
)

var _ repository.Store = (*Store)(nil)

var patchColumns = map[string]string{
	job.FieldStage:      "stage",
	job.FieldStatus:     "status",
	job.FieldLiveDate:   "live_date",
	job.FieldWithClient: "with_client",
}

// Store implements repository.Store for SQLite. Like the Airtable store it
// absorbs failures: lookups report ErrNotFound and writes ErrWriteFailed.
type Store struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store
func NewStore(db *DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{db: db, logger: logger, now: time.Now}
}

// DB returns the underlying database, shared with the activity log.
func (s *Store) DB() *DB {
	return s.db
}

// NewRecordID returns an opaque record id.
func NewRecordID() string {
	return "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}

// SeedClient inserts a client unless one with the same code exists.
func (s *Store) SeedClient(ctx context.Context, client job.Client) error {
	if strings.TrimSpace(client.Code) == "" {
		return fmt.Errorf("%w: client code", job.ErrInvalidInput)
	}
	id := client.RecordID
	if id == "" {
		id = NewRecordID()
	}
	next := client.NextSequence
	if next < 1 {
		next = 1
	}
	query := `
		INSERT INTO clients (id, code, name, teams_channel_ref, document_root_ref, next_sequence)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, id, client.Code, client.Name, client.TeamsChannelRef, client.DocumentRootRef, next); err != nil {
		return fmt.Errorf("failed to seed client %s: %w", client.Code, err)
	}
	return nil
}

// FindClientByCode looks a client up by code.
func (s *Store) FindClientByCode(ctx context.Context, code string) (*job.Client, error) {
	client, err := scanClient(s.db.QueryRowContext(ctx, `
		SELECT id, code, name, teams_channel_ref, document_root_ref, next_sequence
		FROM clients
		WHERE code = ?
	`, code))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("client lookup failed", "client_code", code, "error", err)
		}
		return nil, repository.ErrNotFound
	}
	return client, nil
}

// IncrementClientSequence hands out the client's next job number.
func (s *Store) IncrementClientSequence(ctx context.Context, code string) (job.SequenceGrant, error) {
	grant, err := s.incrementClientSequence(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return job.SequenceGrant{}, err
		}
		s.logger.Warn("client sequence not advanced", "client_code", code, "error", err)
		return job.SequenceGrant{}, fmt.Errorf("%w: %v", repository.ErrWriteFailed, err)
	}
	return grant, nil
}

func (s *Store) incrementClientSequence(ctx context.Context, code string) (job.SequenceGrant, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return job.SequenceGrant{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	client, err := scanClient(tx.QueryRowContext(ctx, `
		SELECT id, code, name, teams_channel_ref, document_root_ref, next_sequence
		FROM clients
		WHERE code = ?
	`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return job.SequenceGrant{}, repository.ErrNotFound
	}
	if err != nil {
		return job.SequenceGrant{}, fmt.Errorf("failed to read client sequence: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE clients SET next_sequence = ? WHERE id = ?`, client.NextSequence+1, client.RecordID); err != nil {
		return job.SequenceGrant{}, fmt.Errorf("failed to advance client sequence: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return job.SequenceGrant{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return job.SequenceGrant{
		JobNumber:       job.FormatJobNumber(client.Code, client.NextSequence),
		TeamsChannelRef: client.TeamsChannelRef,
		DocumentRootRef: client.DocumentRootRef,
		ClientRecordID:  client.RecordID,
	}, nil
}

// FindProjectByJobNumber looks a project up by exact job number.
func (s *Store) FindProjectByJobNumber(ctx context.Context, jobNumber string) (*job.Project, error) {
	query := `
		SELECT
			p.id, p.job_number, p.job_name, COALESCE(c.name, ''), p.description,
			p.stage, p.status, p.round, p.with_client,
			COALESCE(NULLIF(p.teams_channel_ref, ''), c.teams_channel_ref, '')
		FROM projects p
		LEFT JOIN clients c ON c.id = p.client_id
		WHERE p.job_number = ?
	`

	var proj job.Project
	err := s.db.QueryRowContext(ctx, query, jobNumber).Scan(
		&proj.RecordID,
		&proj.JobNumber,
		&proj.JobName,
		&proj.ClientName,
		&proj.Description,
		&proj.Stage,
		&proj.Status,
		&proj.Round,
		&proj.WithClient,
		&proj.TeamsChannelRef,
	)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("project lookup failed", "job_number", jobNumber, "error", err)
		}
		return nil, repository.ErrNotFound
	}
	return &proj, nil
}

// ListActiveProjects lists In Progress and On Hold projects whose job
// number starts with code.
func (s *Store) ListActiveProjects(ctx context.Context, code string) []job.ProjectSummary {
	placeholders := make([]string, 0, len(job.ActiveStatuses))
	args := []any{len(code), code}
	for _, status := range job.ActiveStatuses {
		placeholders = append(placeholders, "?")
		args = append(args, string(status))
	}
	query := `
		SELECT job_number, job_name, description
		FROM projects
		WHERE substr(job_number, 1, ?) = ? AND status IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY job_number
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Warn("active project listing failed", "client_code", code, "error", err)
		return nil
	}
	defer rows.Close()

	var out []job.ProjectSummary
	for rows.Next() {
		var summary job.ProjectSummary
		if err := rows.Scan(&summary.JobNumber, &summary.JobName, &summary.Description); err != nil {
			s.logger.Warn("active project listing failed", "client_code", code, "error", err)
			return nil
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("active project listing failed", "client_code", code, "error", err)
		return nil
	}
	return out
}

// CreateProject creates a project at stage Triage, status In Progress.
func (s *Store) CreateProject(ctx context.Context, proj job.NewProject) (string, error) {
	id := NewRecordID()
	var clientID any
	if proj.ClientRecordID != "" {
		clientID = proj.ClientRecordID
	}
	query := `
		INSERT INTO projects (id, job_number, job_name, client_id, description, owner, stage, status, start_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		id,
		proj.JobNumber,
		proj.JobName,
		clientID,
		proj.Description,
		proj.Owner,
		string(job.StageTriage),
		string(job.StatusInProgress),
		job.Today(s.now()).Format(job.DateLayout),
	)
	if err != nil {
		reason := "error"
		if isUniqueViolation(err) {
			reason = "duplicate job number"
		} else if isForeignKeyViolation(err) {
			reason = "unknown client"
		}
		s.logger.Warn("project create failed", "job_number", proj.JobNumber, "reason", reason, "error", err)
		return "", fmt.Errorf("%w: creating project %s: %v", repository.ErrWriteFailed, proj.JobNumber, err)
	}
	return id, nil
}

// CreateUpdate appends a journal entry.
func (s *Store) CreateUpdate(ctx context.Context, projectRecordID, text string, dueOn time.Time) error {
	now := s.now()
	if dueOn.IsZero() {
		dueOn = job.DefaultDueDate(now)
	}
	query := `
		INSERT INTO updates (id, project_id, text, created_on, due_on)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		NewRecordID(),
		projectRecordID,
		text,
		job.Today(now).Format(job.DateLayout),
		dueOn.Format(job.DateLayout),
	)
	if err != nil {
		s.logger.Warn("update create failed", "project_record_id", projectRecordID,
			"unknown_project", isForeignKeyViolation(err), "error", err)
		return fmt.Errorf("%w: creating update: %v", repository.ErrWriteFailed, err)
	}
	return nil
}

// ListUpdates returns a project's journal, oldest first.
func (s *Store) ListUpdates(ctx context.Context, projectRecordID string) ([]job.Update, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, text, created_on, due_on
		FROM updates
		WHERE project_id = ?
		ORDER BY rowid
	`, projectRecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list updates: %w", err)
	}
	defer rows.Close()

	var updates []job.Update
	for rows.Next() {
		var u job.Update
		var created, due string
		if err := rows.Scan(&u.RecordID, &u.ProjectRecordID, &u.Text, &created, &due); err != nil {
			return nil, fmt.Errorf("failed to scan update: %w", err)
		}
		u.CreatedOn, _ = time.Parse(job.DateLayout, created)
		u.DueOn, _ = time.Parse(job.DateLayout, due)
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating update rows: %w", err)
	}
	return updates, nil
}

// PatchProjectFields writes the allowlisted subset of patch.
func (s *Store) PatchProjectFields(ctx context.Context, jobNumber string, patch job.Patch) error {
	fields := patch.Allowed()
	if len(fields) == 0 {
		if _, err := s.FindProjectByJobNumber(ctx, jobNumber); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrWriteFailed, err)
		}
		return nil
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, key := range keys {
		sets = append(sets, patchColumns[key]+" = ?")
		if key == job.FieldWithClient {
			args = append(args, truthy(fields[key]))
		} else {
			args = append(args, fmt.Sprint(fields[key]))
		}
	}
	args = append(args, jobNumber)

	result, err := s.db.ExecContext(ctx, "UPDATE projects SET "+strings.Join(sets, ", ")+" WHERE job_number = ?", args...)
	if err != nil {
		s.logger.Warn("project patch failed", "job_number", jobNumber, "error", err)
		return fmt.Errorf("%w: patching %s: %v", repository.ErrWriteFailed, jobNumber, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %v", repository.ErrWriteFailed, repository.ErrNotFound)
	}
	return nil
}

// IncrementProjectRound advances the project's round and returns it.
func (s *Store) IncrementProjectRound(ctx context.Context, jobNumber string) (int, error) {
	round, err := s.incrementProjectRound(ctx, jobNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, err
		}
		s.logger.Warn("round not advanced", "job_number", jobNumber, "error", err)
		return 0, fmt.Errorf("%w: %v", repository.ErrWriteFailed, err)
	}
	return round, nil
}

func (s *Store) incrementProjectRound(ctx context.Context, jobNumber string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE projects SET round = round + 1 WHERE job_number = ?`, jobNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to increment round: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, repository.ErrNotFound
	}

	var round int
	if err := tx.QueryRowContext(ctx, `SELECT round FROM projects WHERE job_number = ?`, jobNumber).Scan(&round); err != nil {
		return 0, fmt.Errorf("failed to get new round: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return round, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*job.Client, error) {
	var client job.Client
	if err := row.Scan(
		&client.RecordID,
		&client.Code,
		&client.Name,
		&client.TeamsChannelRef,
		&client.DocumentRootRef,
		&client.NextSequence,
	); err != nil {
		return nil, err
	}
	return &client, nil
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1":
			return true
		}
	}
	return false
}

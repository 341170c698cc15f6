// Package lifecycle advances jobs through triage, status updates and work
// dispatch. Every action writes through the record store's allowlisted
// field patch and its two counters.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hunchagency/dot/internal/domain/activity"
	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/oracle"
)

const (
	defaultJobName = "Untitled"
	defaultOwner   = "TBC"
	notSpecified   = "Not specified"
	chargeableNote = " ⚠️ Additional round - confirm chargeability"
)

// Service runs lifecycle actions.
type Service struct {
	store      Store
	classifier oracle.Classifier
	allocator  Allocator
	intents    Intents
	audit      *activity.Service
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a lifecycle service.
func NewService(store Store, classifier oracle.Classifier, allocator Allocator, intents Intents, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		store:      store,
		classifier: classifier,
		allocator:  allocator,
		intents:    intents,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Project looks a job up by number.
func (s *Service) Project(ctx context.Context, jobNumber string) (*job.Project, error) {
	jobNumber = strings.TrimSpace(jobNumber)
	if jobNumber == "" {
		return nil, ErrMissingJobNumber
	}
	return s.findProject(ctx, jobNumber)
}

// Triage analyses a new brief, allocates a job number and creates the
// project. A pending allocation creates nothing.
func (s *Service) Triage(ctx context.Context, content string) (*TriageResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrMissingContent
	}

	doc, err := s.classifier.Classify(ctx, s.intents.Triage, "Email content:\n\n"+content)
	if err != nil {
		return nil, fmt.Errorf("classifying brief: %w", err)
	}
	reply, err := oracle.DecodeTriage(doc)
	if err != nil {
		return nil, fmt.Errorf("classifying brief: %w", err)
	}

	jobName := firstNonEmpty(reply.JobName, defaultJobName)
	alloc := s.allocator.Allocate(ctx, firstNonEmpty(reply.ClientCode, job.PendingSuffix))

	result := &TriageResult{
		JobNumber:       alloc.JobNumber,
		JobName:         jobName,
		ClientCode:      alloc.ClientCode,
		ClientName:      reply.ClientName,
		ProjectOwner:    reply.ProjectOwner,
		TeamsChannelRef: alloc.TeamsChannelRef,
		DocumentRootRef: alloc.DocumentRootRef,
		Pending:         alloc.Pending,
		EmailBody:       reply.EmailBody,
		Analysis:        reply.Fields,
	}

	if alloc.Pending {
		s.audit.Record(ctx, alloc.JobNumber, "", activity.TypeJobPending,
			fmt.Sprintf("Job for %s pending client confirmation", alloc.ClientCode), nil)
		return result, nil
	}

	recordID, err := s.store.CreateProject(ctx, job.NewProject{
		JobNumber:      alloc.JobNumber,
		JobName:        jobName,
		Description:    reply.JobSummary,
		Owner:          firstNonEmpty(reply.ProjectOwner, defaultOwner),
		ClientRecordID: alloc.ClientRecordID,
	})
	if err != nil {
		s.logger.Warn("project not created", "job_number", alloc.JobNumber, "error", err)
		return result, nil
	}
	result.ProjectRecordID = recordID

	s.audit.Record(ctx, alloc.JobNumber, recordID, activity.TypeJobCreated,
		fmt.Sprintf("Created %s %s", alloc.JobNumber, jobName), nil)
	s.logger.Info("job created", "job_number", alloc.JobNumber, "record_id", recordID)
	return result, nil
}

// Update reads a status message for a job, journals the update and patches
// the allowlisted project fields the classifier asked for.
func (s *Service) Update(ctx context.Context, jobNumber, content string) (*UpdateResult, error) {
	jobNumber = strings.TrimSpace(jobNumber)
	if jobNumber == "" {
		return nil, ErrMissingJobNumber
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrMissingContent
	}

	proj, err := s.findProject(ctx, jobNumber)
	if err != nil {
		return nil, err
	}

	doc, err := s.classifier.Classify(ctx, s.intents.Update, UpdateContext(proj, content))
	if err != nil {
		return nil, fmt.Errorf("classifying update: %w", err)
	}
	reply, err := oracle.DecodeUpdate(doc)
	if err != nil {
		return nil, fmt.Errorf("classifying update: %w", err)
	}

	result := &UpdateResult{
		JobNumber:       jobNumber,
		UpdateText:      reply.UpdateText,
		TeamsChannelRef: proj.TeamsChannelRef,
		ProjectRecordID: proj.RecordID,
		Analysis:        reply.Fields,
	}

	var due time.Time
	if reply.DueOn != "" {
		parsed, ok := job.ParseDate(reply.DueOn)
		if ok {
			due = parsed
		} else {
			s.logger.Warn("ignoring unreadable due date", "job_number", jobNumber, "value", reply.DueOn)
		}
	}
	if due.IsZero() {
		due = job.DefaultDueDate(s.now())
	}

	if strings.TrimSpace(reply.UpdateText) != "" {
		if err := s.store.CreateUpdate(ctx, proj.RecordID, reply.UpdateText, due); err != nil {
			s.logger.Warn("update not logged", "job_number", jobNumber, "error", err)
		} else {
			result.UpdateCreated = true
			result.DueOn = due
			s.audit.Record(ctx, jobNumber, proj.RecordID, activity.TypeUpdateLogged, reply.UpdateText, nil)
		}
	}

	requested := reply.ProjectUpdates.WithoutJournal()
	patch := requested.Allowed()
	if dropped := len(requested) - len(patch); dropped > 0 {
		s.logger.Debug("dropped project fields outside allowlist", "job_number", jobNumber, "count", dropped)
	}
	if len(patch) > 0 {
		if err := s.store.PatchProjectFields(ctx, jobNumber, patch); err != nil {
			s.logger.Warn("project fields not patched", "job_number", jobNumber, "error", err)
		} else {
			result.ProjectUpdated = true
			s.audit.Record(ctx, jobNumber, proj.RecordID, activity.TypeProjectPatched, "Project fields updated", patch)
		}
	}

	s.logger.Info("job updated",
		"job_number", jobNumber,
		"update_created", result.UpdateCreated,
		"project_updated", result.ProjectUpdated)
	return result, nil
}

// Dispatch records a round of work sent to the client: the round advances,
// the job is marked with the client and the delivery is journalled.
func (s *Service) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	jobNumber := strings.TrimSpace(req.JobNumber)
	if jobNumber == "" {
		return nil, ErrMissingJobNumber
	}

	proj, err := s.findProject(ctx, jobNumber)
	if err != nil {
		return nil, err
	}

	round, err := s.store.IncrementProjectRound(ctx, jobNumber)
	if err != nil {
		s.logger.Warn("round not advanced, assuming round 1", "job_number", jobNumber, "error", err)
		round = 1
	} else {
		s.audit.Record(ctx, jobNumber, proj.RecordID, activity.TypeRoundAdvanced,
			fmt.Sprintf("Round %d", round), nil)
	}
	chargeable := job.IsChargeable(round)

	doc, err := s.classifier.Classify(ctx, s.intents.Dispatch, DispatchContext(proj, round, req))
	if err != nil {
		return nil, fmt.Errorf("classifying dispatch: %w", err)
	}
	reply, err := oracle.DecodeDispatch(doc)
	if err != nil {
		return nil, fmt.Errorf("classifying dispatch: %w", err)
	}
	updateText := firstNonEmpty(reply.UpdateText, fmt.Sprintf("Round %d sent to client", round))

	created := true
	if err := s.store.CreateUpdate(ctx, proj.RecordID, updateText, time.Time{}); err != nil {
		s.logger.Warn("update not logged", "job_number", jobNumber, "error", err)
		created = false
	}
	if err := s.store.PatchProjectFields(ctx, jobNumber, job.Patch{job.FieldWithClient: true}); err != nil {
		s.logger.Warn("with-client flag not set", "job_number", jobNumber, "error", err)
	}

	teamsPost := fmt.Sprintf("SENT TO CLIENT | Round %d", round)
	if chargeable {
		teamsPost += chargeableNote
	}

	s.audit.Record(ctx, jobNumber, proj.RecordID, activity.TypeSentToClient, updateText, map[string]any{
		"round":       round,
		"chargeable":  chargeable,
		"attachments": req.AttachmentNames,
		"recipient":   req.ExternalRecipient,
	})
	s.logger.Info("work sent to client", "job_number", jobNumber, "round", round, "chargeable", chargeable)

	return &DispatchResult{
		JobNumber:       jobNumber,
		JobName:         proj.JobName,
		ClientName:      proj.ClientName,
		Round:           round,
		FolderPath:      job.FolderPath(jobNumber, round),
		TeamsPost:       teamsPost,
		Chargeable:      chargeable,
		UpdateText:      updateText,
		UpdateCreated:   created,
		TeamsChannelRef: proj.TeamsChannelRef,
		ProjectRecordID: proj.RecordID,
	}, nil
}

// findProject treats a failed lookup the same as a missing job.
func (s *Service) findProject(ctx context.Context, jobNumber string) (*job.Project, error) {
	proj, err := s.store.FindProjectByJobNumber(ctx, jobNumber)
	if err != nil || proj == nil {
		return nil, &JobNotFoundError{JobNumber: jobNumber}
	}
	return proj, nil
}

// UpdateContext renders the classification context for a status update.
func UpdateContext(proj *job.Project, content string) string {
	return fmt.Sprintf("Job Number: %s\nClient Name: %s\nCurrent Stage: %s\nEmail/Message Content:\n%s",
		proj.JobNumber, proj.ClientName, proj.Stage, content)
}

// DispatchContext renders the classification context for a dispatch.
func DispatchContext(proj *job.Project, round int, req DispatchRequest) string {
	files := notSpecified
	if len(req.AttachmentNames) > 0 {
		files = strings.Join(req.AttachmentNames, ", ")
	}
	return fmt.Sprintf("Job Number: %s\nJob Name: %s\nClient Name: %s\nRound: %d\nFiles sent: %s\nSent to: %s\nEmail content:\n%s",
		proj.JobNumber, proj.JobName, proj.ClientName, round, files, req.ExternalRecipient, req.Content)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

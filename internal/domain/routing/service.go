package routing

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"

	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/oracle"
	"github.com/hunchagency/dot/internal/repository"
)

// ErrMissingContent is returned for a message with an empty body.
var ErrMissingContent = fmt.Errorf("%w: no content provided", job.ErrInvalidInput)

// TriageKeyword is the reply that asks for a message to be triaged as a
// new job.
const TriageKeyword = "TRIAGE"

const noActiveJobs = "No active jobs found for this client"

// Service routes inbound messages.
type Service struct {
	store      Store
	classifier oracle.Classifier
	intent     oracle.Intent
	domains    DomainTable
	logger     *slog.Logger
}

// NewService creates a router. intent carries the routing system prompt.
func NewService(store Store, classifier oracle.Classifier, intent oracle.Intent, domains DomainTable, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if domains == nil {
		domains = DefaultDomains()
	}
	return &Service{
		store:      store,
		classifier: classifier,
		intent:     intent,
		domains:    domains,
		logger:     logger,
	}
}

// Route classifies msg and, for confident decisions naming a job, enriches
// the decision with live job state. A confident decision naming an unknown
// job is downgraded to clarify. Only classifier transport and parse faults
// are returned as errors.
func (s *Service) Route(ctx context.Context, msg Message) (*Decision, error) {
	if strings.TrimSpace(msg.Content) == "" {
		return nil, ErrMissingContent
	}
	source := msg.SourceChannel
	if source == "" {
		source = DefaultSource
	}

	var active []job.ProjectSummary
	clientCode := s.domains.CodeFor(msg.SenderAddress)
	if clientCode != "" {
		active = s.store.ListActiveProjects(ctx, clientCode)
	}

	doc, err := s.classifier.Classify(ctx, s.intent, BuildContext(msg, source, active))
	if err != nil {
		return nil, fmt.Errorf("classifying message: %w", err)
	}
	reply, err := oracle.DecodeRouting(doc)
	if err != nil {
		return nil, fmt.Errorf("classifying message: %w", err)
	}

	decision := &Decision{
		Route:      reply.Route,
		Confidence: reply.Confidence,
		JobNumber:  reply.JobNumber,
		Reason:     reply.Reason,
		Source:     source,
		Fields:     reply.Fields,
	}

	if decision.Confidence == job.ConfidenceHigh && decision.JobNumber != "" {
		s.resolveJob(ctx, decision, firstNonEmpty(reply.SenderName, msg.SenderName))
	}

	s.logger.Info("message routed",
		"route", decision.Route,
		"confidence", decision.Confidence,
		"job_number", decision.JobNumber,
		"client_code", clientCode,
		"source", source)
	return decision, nil
}

func (s *Service) resolveJob(ctx context.Context, decision *Decision, senderName string) {
	proj, err := s.store.FindProjectByJobNumber(ctx, decision.JobNumber)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("job lookup failed", "job_number", decision.JobNumber, "error", err)
		}
		decision.Route = job.RouteClarify
		decision.Confidence = job.ConfidenceLow
		decision.Reason = fmt.Sprintf("Job %s not found in system", decision.JobNumber)
		decision.ClarificationText = ClarificationEmail(senderName, decision.JobNumber)
		return
	}
	decision.Enrichment = &Enrichment{
		JobName:         proj.JobName,
		ClientName:      proj.ClientName,
		CurrentRound:    proj.Round,
		CurrentStage:    proj.Stage,
		WithClient:      proj.WithClient,
		TeamsChannelRef: proj.TeamsChannelRef,
		ProjectRecordID: proj.RecordID,
	}
}

// BuildContext renders the classification context document for a message.
func BuildContext(msg Message, source string, active []job.ProjectSummary) string {
	jobs := noActiveJobs
	if len(active) > 0 {
		lines := make([]string, 0, len(active))
		for _, p := range active {
			lines = append(lines, fmt.Sprintf("- %s - %s: %s", p.JobNumber, p.JobName, p.Description))
		}
		jobs = strings.Join(lines, "\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", source)
	fmt.Fprintf(&b, "Subject: %s\n\n", msg.Subject)
	fmt.Fprintf(&b, "From: %s <%s>\n", msg.SenderName, msg.SenderAddress)
	fmt.Fprintf(&b, "Recipients: %s\n", strings.Join(msg.Recipients, ", "))
	fmt.Fprintf(&b, "Has Attachments: %t\n", msg.HasAttachments)
	fmt.Fprintf(&b, "Attachment Names: %s\n\n", strings.Join(msg.AttachmentNames, ", "))
	fmt.Fprintf(&b, "Active jobs for this client:\n%s\n\n", jobs)
	fmt.Fprintf(&b, "Message content:\n%s", msg.Content)
	return b.String()
}

// ClarificationEmail asks the sender to confirm an unknown job number or
// reply with the triage keyword.
func ClarificationEmail(senderName, jobNumber string) string {
	if strings.TrimSpace(senderName) == "" {
		senderName = "there"
	}
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>I couldn't find job <strong>%s</strong> in our system.</p>
<p>Could you double-check the job number? Or reply <strong>%s</strong> if this is a new job.</p>
<p>Dot</p>`, html.EscapeString(senderName), html.EscapeString(jobNumber), TriageKeyword)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ErrInvalidInput indicates a nil or untyped entry.
var ErrInvalidInput = errors.New("invalid activity input")

// Service handles the lifecycle audit trail.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.Type == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// Record logs an action and swallows failures; the audit trail never
// fails a lifecycle action. A nil Service records nothing.
func (s *Service) Record(ctx context.Context, jobNumber, projectRecordID string, typ Type, summary string, details any) {
	if s == nil {
		return
	}
	entry := &Entry{
		JobNumber:       jobNumber,
		ProjectRecordID: projectRecordID,
		Type:            typ,
		Summary:         summary,
	}
	if details != nil {
		if data, err := json.Marshal(details); err == nil {
			entry.Details = string(data)
		}
	}
	if err := s.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", "job_number", jobNumber, "type", typ, "error", err)
	}
}

// GetRecentActivity lists activity entries with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListOptions) ([]Entry, error) {
	return s.repo.List(ctx, opts)
}

package lifecycle

import (
	"time"

	"github.com/hunchagency/dot/internal/domain/activity"
	"github.com/hunchagency/dot/internal/oracle"
)

// Intents are the classification policies for each lifecycle action.
type Intents struct {
	Triage   oracle.Intent
	Update   oracle.Intent
	Dispatch oracle.Intent
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAudit records lifecycle actions to the activity trail.
func WithAudit(audit *activity.Service) Option {
	return func(s *Service) {
		s.audit = audit
	}
}

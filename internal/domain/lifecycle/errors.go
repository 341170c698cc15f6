package lifecycle

import (
	"errors"
	"fmt"

	"github.com/hunchagency/dot/internal/domain/job"
)

var (
	// ErrJobNotFound indicates the job number is not in the registry.
	ErrJobNotFound = errors.New("job not found")
	// ErrMissingJobNumber is returned when no job number is given.
	ErrMissingJobNumber = fmt.Errorf("%w: no job number provided", job.ErrInvalidInput)
	// ErrMissingContent is returned when no message content is given.
	ErrMissingContent = fmt.Errorf("%w: no email content provided", job.ErrInvalidInput)
)

// JobNotFoundError names the job number that could not be resolved.
type JobNotFoundError struct {
	JobNumber string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("Could not find job %s in the system", e.JobNumber)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

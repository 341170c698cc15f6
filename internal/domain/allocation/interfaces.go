package allocation

import (
	"context"

	"github.com/hunchagency/dot/internal/domain/job"
)

// Store advances client job sequences.
type Store interface {
	IncrementClientSequence(ctx context.Context, code string) (job.SequenceGrant, error)
}

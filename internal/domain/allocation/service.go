package allocation

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/hunchagency/dot/internal/domain/job"
)

// Allocator hands out per-client job numbers. It never fails: every problem
// collapses to a Pending result.
type Allocator struct {
	store    Store
	valid    map[string]bool
	internal map[string]bool
	logger   *slog.Logger
}

// NewAllocator creates an allocator for the given policy.
func NewAllocator(store Store, policy Policy, logger *slog.Logger) *Allocator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Allocator{
		store:    store,
		valid:    codeSet(policy.ValidCodes),
		internal: codeSet(policy.InternalCodes),
		logger:   logger,
	}
}

// Allocate produces the next job number for clientCode. Pending results
// echo the caller's code as given, trimmed; only the lookup and the store
// call use the normalized code.
func (a *Allocator) Allocate(ctx context.Context, clientCode string) Result {
	given := strings.TrimSpace(clientCode)
	if given == "" {
		given = job.PendingSuffix
	}
	code := NormalizeCode(given)
	if !a.IsValid(code) || a.internal[code] {
		a.logger.Info("job number deferred", "client_code", given, "reason", "code not allocatable")
		return pending(given)
	}

	grant, err := a.store.IncrementClientSequence(ctx, code)
	if err != nil {
		a.logger.Warn("job number deferred", "client_code", given, "error", err)
		return pending(given)
	}

	a.logger.Info("job number allocated", "client_code", code, "job_number", grant.JobNumber)
	return Result{
		ClientCode:      code,
		JobNumber:       grant.JobNumber,
		TeamsChannelRef: grant.TeamsChannelRef,
		DocumentRootRef: grant.DocumentRootRef,
		ClientRecordID:  grant.ClientRecordID,
	}
}

// IsValid reports whether code is in the allocatable client set.
func (a *Allocator) IsValid(code string) bool {
	return a.valid[NormalizeCode(code)]
}

// NormalizeCode upper-cases and trims a client code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func codeSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, code := range codes {
		if c := NormalizeCode(code); c != "" {
			set[c] = true
		}
	}
	return set
}

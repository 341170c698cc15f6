package allocation

import "github.com/hunchagency/dot/internal/domain/job"

// Result is the outcome of an allocation: either a job number was
// allocated, or the job is Pending until its client is confirmed. Pending
// results carry only the client code and the placeholder job number.
type Result struct {
	Pending         bool
	ClientCode      string
	JobNumber       string
	TeamsChannelRef string
	DocumentRootRef string
	ClientRecordID  string
}

// Allocated reports whether a real job number was handed out.
func (r Result) Allocated() bool {
	return !r.Pending
}

func pending(code string) Result {
	return Result{Pending: true, ClientCode: code, JobNumber: job.PendingJobNumber(code)}
}

// Policy is the fixed client-code configuration.
type Policy struct {
	// ValidCodes are the codes a job may be allocated under.
	ValidCodes []string
	// InternalCodes never allocate (house jobs and the placeholder code).
	InternalCodes []string
}

// DefaultPolicy is the agency's client list.
func DefaultPolicy() Policy {
	return Policy{
		ValidCodes:    []string{"ONE", "ONS", "SKY", "TOW", "FIS", "FST", "WKA", "HUN", "LAB", "EON", "OTH"},
		InternalCodes: []string{"HUN", job.PendingSuffix},
	}
}

package job

import "fmt"

// PendingSuffix marks a job number whose sequence is to be confirmed.
const PendingSuffix = "TBC"

// FormatJobNumber renders a client code and sequence as "ABC 007".
func FormatJobNumber(code string, sequence int) string {
	return fmt.Sprintf("%s %03d", code, sequence)
}

// PendingJobNumber is the placeholder shown for a job that has no number yet.
func PendingJobNumber(code string) string {
	return code + " " + PendingSuffix
}

// FolderPath is the filing path for a dispatched round.
func FolderPath(jobNumber string, round int) string {
	return fmt.Sprintf("/%s/Round %d/", jobNumber, round)
}

// ChargeableRound is the first round billed as additional work.
const ChargeableRound = 3

// IsChargeable reports whether a post-increment round is chargeable.
func IsChargeable(round int) bool {
	return round >= ChargeableRound
}

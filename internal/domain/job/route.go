package job

import "strings"

// Route is a workflow action an inbound message is sent to.
type Route string

const (
	RouteTriage       Route = "triage"
	RouteUpdate       Route = "update"
	RouteWorkToClient Route = "work-to-client"
	RouteWIP          Route = "wip"
	RouteClarify      Route = "clarify"
)

// Confidence is the classifier's certainty tier.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence normalises a confidence tier. ok is false for anything
// outside high, medium and low.
func ParseConfidence(value string) (Confidence, bool) {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(value))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c, true
	default:
		return "", false
	}
}

package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hunchagency/dot/internal/domain/job"
)

// RoutingReply is the routing classifier's decision. Fields keeps every key
// the classifier returned so callers can echo them.
type RoutingReply struct {
	Route      job.Route
	Confidence job.Confidence
	JobNumber  string
	Reason     string
	SenderName string
	Fields     map[string]any
}

// TriageReply is the triage classifier's analysis of a new brief.
type TriageReply struct {
	ClientCode   string
	ClientName   string
	JobName      string
	JobSummary   string
	ProjectOwner string
	EmailBody    string
	Fields       map[string]any
}

// UpdateReply is the update classifier's reading of a status message.
type UpdateReply struct {
	UpdateText     string
	ProjectUpdates job.Patch
	DueOn          string
	Fields         map[string]any
}

// DispatchReply is the dispatch classifier's summary of delivered work.
type DispatchReply struct {
	UpdateText string
	Fields     map[string]any
}

// DecodeRouting validates a routing reply. route and confidence are required.
func DecodeRouting(doc map[string]any) (RoutingReply, error) {
	route, err := stringField(doc, "route", true)
	if err != nil {
		return RoutingReply{}, shapeError(doc, err)
	}
	rawConfidence, err := stringField(doc, "confidence", true)
	if err != nil {
		return RoutingReply{}, shapeError(doc, err)
	}
	confidence, ok := job.ParseConfidence(rawConfidence)
	if !ok {
		return RoutingReply{}, shapeError(doc, fmt.Errorf("confidence %q is not high, medium or low", rawConfidence))
	}
	reply := RoutingReply{
		Route:      job.Route(strings.TrimSpace(route)),
		Confidence: confidence,
		Fields:     doc,
	}
	if reply.JobNumber, err = stringField(doc, "jobNumber", false); err != nil {
		return RoutingReply{}, shapeError(doc, err)
	}
	if reply.Reason, err = stringField(doc, "reason", false); err != nil {
		return RoutingReply{}, shapeError(doc, err)
	}
	if reply.SenderName, err = stringField(doc, "senderName", false); err != nil {
		return RoutingReply{}, shapeError(doc, err)
	}
	reply.JobNumber = strings.TrimSpace(reply.JobNumber)
	return reply, nil
}

// DecodeTriage validates a triage reply. All keys are optional; present keys
// must be strings.
func DecodeTriage(doc map[string]any) (TriageReply, error) {
	reply := TriageReply{Fields: doc}
	targets := []struct {
		key string
		dst *string
	}{
		{"clientCode", &reply.ClientCode},
		{"clientName", &reply.ClientName},
		{"jobName", &reply.JobName},
		{"jobSummary", &reply.JobSummary},
		{"projectOwner", &reply.ProjectOwner},
		{"emailBody", &reply.EmailBody},
	}
	for _, target := range targets {
		value, err := stringField(doc, target.key, false)
		if err != nil {
			return TriageReply{}, shapeError(doc, err)
		}
		*target.dst = value
	}
	reply.ClientCode = strings.TrimSpace(reply.ClientCode)
	return reply, nil
}

// DecodeUpdate validates an update reply. A reply carrying an "error" key is
// returned as a RejectedError.
func DecodeUpdate(doc map[string]any) (UpdateReply, error) {
	if rejected, ok := doc["error"]; ok && rejected != nil && rejected != false && rejected != "" {
		return UpdateReply{}, &RejectedError{Reply: doc}
	}
	text, err := stringField(doc, "airtableUpdate", false)
	if err != nil {
		return UpdateReply{}, shapeError(doc, err)
	}
	reply := UpdateReply{UpdateText: text, Fields: doc}

	switch raw := doc["projectUpdates"].(type) {
	case nil:
	case map[string]any:
		reply.ProjectUpdates = job.Patch(raw)
		due, err := stringField(raw, job.FieldUpdateDue, false)
		if err != nil {
			return UpdateReply{}, shapeError(doc, err)
		}
		reply.DueOn = strings.TrimSpace(due)
	default:
		return UpdateReply{}, shapeError(doc, fmt.Errorf("projectUpdates is %T, want object", raw))
	}
	return reply, nil
}

// DecodeDispatch validates a dispatch reply.
func DecodeDispatch(doc map[string]any) (DispatchReply, error) {
	text, err := stringField(doc, "updateText", false)
	if err != nil {
		return DispatchReply{}, shapeError(doc, err)
	}
	return DispatchReply{UpdateText: text, Fields: doc}, nil
}

// stringField reads key as a string. Absent and null values read as "".
func stringField(doc map[string]any, key string, required bool) (string, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		if required {
			return "", fmt.Errorf("missing %q", key)
		}
		return "", nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%q is %T, want string", key, raw)
	}
	if required && strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("empty %q", key)
	}
	return value, nil
}

func shapeError(doc map[string]any, err error) *ParseError {
	raw, _ := json.Marshal(doc)
	return &ParseError{Raw: string(raw), Err: fmt.Errorf("%w: %w", ErrShape, err)}
}

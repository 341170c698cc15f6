package mcp

import (
	"errors"
	"fmt"

	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/domain/lifecycle"
	"github.com/hunchagency/dot/internal/oracle"
)

// APIError is the error reported to the assistant as a tool result.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var (
		notFound *lifecycle.JobNotFoundError
		rejected *oracle.RejectedError
		parseErr *oracle.ParseError
	)
	switch {
	case errors.As(err, &notFound):
		return &APIError{Code: "JOB_NOT_FOUND", Message: notFound.Error(), RecoveryHint: "Check the job number, e.g. ONE 125"}
	case errors.Is(err, job.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.As(err, &rejected):
		return &APIError{Code: "REJECTED", Message: fmt.Sprint(rejected.Reply["error"])}
	case errors.As(err, &parseErr):
		return &APIError{Code: "CLASSIFIER_INVALID_REPLY", Message: parseErr.Error(), RecoveryHint: "Retry; the classifier reply was not valid JSON"}
	case errors.Is(err, oracle.ErrTransport):
		return &APIError{Code: "CLASSIFIER_UNAVAILABLE", Message: err.Error(), RecoveryHint: "Retry later"}
	default:
		return &APIError{Code: "INTERNAL", Message: err.Error()}
	}
}

package oracle

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport wraps failures reaching the classification service.
	ErrTransport = errors.New("oracle transport failure")
	// ErrNotConfigured indicates the client has no API key.
	ErrNotConfigured = errors.New("oracle not configured")
	// ErrShape indicates a well-formed reply that is missing required keys
	// or carries values of the wrong type.
	ErrShape = errors.New("unexpected reply shape")
)

// ParseError is returned when the reply cannot be read as a structured
// document of the expected shape. Raw holds the reply text for diagnosis.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("oracle: unparseable reply: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ProviderError is returned when the classification API responds with a
// non-200 status.
type ProviderError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("oracle: HTTP %d: %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("oracle: HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets callers treat provider errors as transport failures.
func (e *ProviderError) Unwrap() error {
	return ErrTransport
}

// RejectedError is returned when the classifier answered with an explicit
// error document instead of a result.
type RejectedError struct {
	Reply map[string]any
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("oracle: classifier rejected input: %v", e.Reply["error"])
}

package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/domain/lifecycle"
	"github.com/hunchagency/dot/internal/oracle"
)

type errorBody struct {
	Error       string `json:"error"`
	Details     string `json:"details,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`
}

type notFoundBody struct {
	Error     string `json:"error"`
	JobNumber string `json:"jobNumber"`
	Message   string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps a service error onto a status and body.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		notFound *lifecycle.JobNotFoundError
		rejected *oracle.RejectedError
		parseErr *oracle.ParseError
	)
	switch {
	case errors.Is(err, job.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, notFoundBody{
			Error:     "job_not_found",
			JobNumber: notFound.JobNumber,
			Message:   notFound.Error(),
		})
	case errors.As(err, &rejected):
		writeJSON(w, http.StatusBadRequest, rejected.Reply)
	case errors.As(err, &parseErr):
		logger.Error("classifier reply unparseable", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:       "classifier returned invalid JSON",
			Details:     parseErr.Error(),
			RawResponse: parseErr.Raw,
		})
	case errors.Is(err, oracle.ErrTransport), errors.Is(err, oracle.ErrNotConfigured):
		logger.Error("classifier unavailable", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "classifier unavailable", Details: err.Error()})
	default:
		logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error", Details: err.Error()})
	}
}

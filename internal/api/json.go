package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"vrproute/internal/graph"
	"vrproute/internal/instance"
	"vrproute/internal/opt"
	"vrproute/internal/store"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	RunID    string `json:"runId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// statusFor maps solver and store errors to an HTTP status and title.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, instance.ErrMalformedInput),
		errors.Is(err, graph.ErrInvalid),
		errors.Is(err, opt.ErrInvalidParams):
		return http.StatusBadRequest, "Invalid Input"
	case errors.Is(err, opt.ErrInfeasible):
		return http.StatusUnprocessableEntity, "Infeasible"
	case errors.Is(err, opt.ErrTimeLimit):
		return http.StatusGatewayTimeout, "Time Limit Exceeded"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	}
	return http.StatusInternalServerError, "Internal Error"
}

func writeError(w http.ResponseWriter, err error, instance, runID string) {
	status, title := statusFor(err)
	writeJSON(w, status, Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   err.Error(),
		Instance: instance,
		RunID:    runID,
	})
}

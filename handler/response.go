package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lambda-feedback/watchdeck/handler/schema"
	"github.com/lambda-feedback/watchdeck/internal/picker"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/supervisor"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrReadBody      = errors.New("failed to read body")
	ErrInvalidParams = errors.New("invalid params")
)

// ErrorResponse represents error response data.
type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// getErrorStatusCode returns the status code for the given error.
func getErrorStatusCode(err error) int {
	var (
		validationErr *schema.ValidationError
		writeErr      *supervisor.WriteError
		spawnErr      *supervisor.SpawnError
	)

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrReadBody), errors.Is(err, ErrInvalidParams):
		return http.StatusBadRequest
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &writeErr), errors.As(err, &spawnErr):
		return http.StatusBadGateway
	case errors.Is(err, picker.ErrPickerUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as a json error body with a matching status code.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	res := ErrorResponse{Message: err.Error()}

	var validationErr *schema.ValidationError
	if errors.As(err, &validationErr) {
		res.Message = "validation failed"
		res.Details = validationErr.Details
	}

	writeJSON(w, log, getErrorStatusCode(err), struct {
		Error ErrorResponse `json:"error"`
	}{
		Error: res,
	})
}

// writeJSON writes data as a json body with the given status code.
func writeJSON(w http.ResponseWriter, log *zap.Logger, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		log.Error("failed to marshal response", zap.Error(err))
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(body); err != nil {
		log.Debug("failed to write response", zap.Error(err))
	}
}

func writeAccepted(w http.ResponseWriter, log *zap.Logger) {
	writeJSON(w, log, http.StatusAccepted, map[string]string{"status": "accepted"})
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/device-inventory/internal/device"
)

// Error represents a structured error response.
type Error struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Error codes.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUpdate             = "UPDATE_ERROR"
	ErrCodeDeletion           = "DELETION_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeInternal           = "INTERNAL_SERVER_ERROR"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:    status,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeValidationError writes a 400 VALIDATION_ERROR response.
func writeValidationError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeValidation, message)
}

// writeServiceError maps a device service error to its HTTP response.
//
//	ErrValidation       → 400 VALIDATION_ERROR
//	ErrUpdate           → 400 UPDATE_ERROR
//	ErrDeletion         → 400 DELETION_ERROR
//	ErrNotFound         → 404 NOT_FOUND
//	ErrStoreUnavailable → 503 SERVICE_UNAVAILABLE
//	anything else       → 500 INTERNAL_SERVER_ERROR
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, device.ErrValidation):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, device.ErrUpdate):
		writeError(w, http.StatusBadRequest, ErrCodeUpdate, err.Error())
	case errors.Is(err, device.ErrDeletion):
		writeError(w, http.StatusBadRequest, ErrCodeDeletion, err.Error())
	case errors.Is(err, device.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "device not found")
	case errors.Is(err, device.ErrStoreUnavailable):
		s.logger.Warn("device store unavailable",
			"path", r.URL.Path,
			"request_id", requestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "device store unavailable, retry later")
	default:
		s.logger.Error("unexpected service error",
			"path", r.URL.Path,
			"request_id", requestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

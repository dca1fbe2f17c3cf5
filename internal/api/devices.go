package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/device-inventory/internal/device"
)

// createDeviceRequest is the body of POST /devices.
type createDeviceRequest struct {
	Name  string `json:"name"`
	Brand string `json:"brand"`
}

// updateDeviceRequest is the body of PATCH /devices/{id}.
// Absent or null fields are left unchanged.
type updateDeviceRequest struct {
	Name  device.Optional[string] `json:"name"`
	Brand device.Optional[string] `json:"brand"`
	State device.Optional[string] `json:"state"`
}

// setStateRequest is the body of PUT /devices/{id}/state.
type setStateRequest struct {
	State string `json:"state"`
}

// handleListDevices returns one page of devices, newest first.
//
// Query parameters:
//   - brand: exact brand match (takes precedence over state)
//   - state: AVAILABLE, IN_USE or INACTIVE, case-insensitive
//   - page: zero-based page index (default 0)
//   - size: page size (default from config, max 100)
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := parseIntParam(q.Get("page"), 0)
	if err != nil {
		writeValidationError(w, "page must be an integer")
		return
	}
	size, err := parseIntParam(q.Get("size"), s.pagination.DefaultSize)
	if err != nil {
		writeValidationError(w, "size must be an integer")
		return
	}
	if size > s.pagination.MaxSize {
		writeValidationError(w, fmt.Sprintf("size must be between 1 and %d", s.pagination.MaxSize))
		return
	}

	filter := device.Filter{Brand: q.Get("brand")}
	if raw := q.Get("state"); raw != "" && filter.Brand == "" {
		state, ok := device.ParseState(raw)
		if !ok {
			writeValidationError(w, fmt.Sprintf("invalid state %q", raw))
			return
		}
		filter.State = state
	}

	result, err := s.service.List(r.Context(), filter, page, size)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(w, r)
	if !ok {
		return
	}

	dev, err := s.service.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleCreateDevice creates a new AVAILABLE device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	dev, err := s.service.Create(r.Context(), req.Name, req.Brand)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/devices/%d", dev.ID))
	writeJSON(w, http.StatusCreated, dev)
}

// handleUpdateDevice applies a partial update.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(w, r)
	if !ok {
		return
	}

	var req updateDeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := device.Patch{Name: req.Name, Brand: req.Brand}
	if raw, set := req.State.Get(); set {
		state, ok := device.ParseState(raw)
		if !ok {
			s.writeServiceError(w, r, fmt.Errorf("%w: invalid state %q", device.ErrUpdate, raw))
			return
		}
		patch.State = device.Some(state)
	}

	dev, err := s.service.Update(r.Context(), id, patch)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleSetDeviceState changes only the state of a device.
func (s *Server) handleSetDeviceState(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(w, r)
	if !ok {
		return
	}

	var req setStateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	dev, err := s.service.UpdateState(r.Context(), id, req.State)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleDeleteDevice removes an AVAILABLE device.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(w, r)
	if !ok {
		return
	}

	if err := s.service.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetDeviceHistory returns state transitions for a device, newest first.
//
// Query parameters:
//   - limit: maximum entries (default 50, capped at 200)
func (s *Server) handleGetDeviceHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(w, r)
	if !ok {
		return
	}

	limit, err := parseIntParam(r.URL.Query().Get("limit"), 0)
	if err != nil || limit < 0 {
		writeValidationError(w, "limit must be a non-negative integer")
		return
	}

	entries, err := s.service.History(r.Context(), id, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries, "count": len(entries)})
}

// handleDeviceStats returns device totals per state.
func (s *Server) handleDeviceStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// deviceIDParam parses the {id} URL parameter, writing a 400 on failure.
func deviceIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeValidationError(w, fmt.Sprintf("invalid device id %q", raw))
		return 0, false
	}
	return id, true
}

// parseIntParam parses an optional integer query parameter.
func parseIntParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if err == nil {
		// Exactly one JSON value; anything after it is rejected.
		if _, err = dec.Token(); errors.Is(err, io.EOF) {
			return true
		}
		if err == nil {
			err = errors.New("trailing data after JSON body")
		}
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeValidation, "request body too large")
		return false
	}
	writeValidationError(w, "invalid JSON body")
	return false
}

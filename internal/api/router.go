package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each dependency check in /health.
const healthCheckTimeout = 2 * time.Second

// Overall health statuses.
const (
	healthHealthy     = "healthy"
	healthDegraded    = "degraded"
	healthUnavailable = "unavailable"
)

// healthOK marks a passing dependency check.
const healthOK = "ok"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness check outside the versioned API.
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleCreateDevice)
			r.Get("/stats", s.handleDeviceStats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Patch("/", s.handleUpdateDevice)
				r.Delete("/", s.handleDeleteDevice)
				r.Put("/state", s.handleSetDeviceState)
				r.Get("/history", s.handleGetDeviceHistory)
			})
		})
	})

	return r
}

// healthResponse is the body of /health.
type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// handleHealth reports service health.
//
// A failing database makes the service unavailable (503). Failing optional
// components only mark it degraded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: healthHealthy, Version: s.version}
	status := http.StatusOK

	check := func(name string, c HealthChecker) error {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string)
		}
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		err := c.HealthCheck(ctx)
		if err != nil {
			resp.Checks[name] = err.Error()
		} else {
			resp.Checks[name] = healthOK
		}
		return err
	}

	if s.database != nil {
		if err := check("database", s.database); err != nil {
			resp.Status = healthUnavailable
			status = http.StatusServiceUnavailable
		}
	}

	for name, c := range s.components {
		if c == nil {
			continue
		}
		if err := check(name, c); err != nil && resp.Status == healthHealthy {
			resp.Status = healthDegraded
		}
	}

	writeJSON(w, status, resp)
}
